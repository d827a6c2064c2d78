package resource

import (
	"stream-service/pkg/config"
	"stream-service/pkg/kafka"
	"stream-service/pkg/logger"
)

// OpenKafka builds the shared Kafka client and makes sure the service topics exist.
func OpenKafka(cfg config.KafkaConfig) *kafka.Client {
	client := kafka.New(cfg)
	for _, topic := range []string{cfg.Topics.VideoEvents, cfg.Topics.TranscodeRequests} {
		if err := client.EnsureTopic(topic, 1, 1); err != nil {
			logger.Warnf("kafka ensure topic failed topic=%s error=%v", topic, err)
		}
	}
	return client
}
