package event

import (
	"context"
	"encoding/json"
	"time"

	"stream-service/ddd/domain/gateway"
	"stream-service/pkg/logger"
)

// Producer is the slice of the Kafka client the publisher needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// KafkaEventPublisher 将生命周期事件写入 Kafka，以 video_id 作为消息 key
type KafkaEventPublisher struct {
	producer Producer
	topic    string
	timeout  time.Duration
}

func NewKafkaEventPublisher(producer Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic, timeout: 5 * time.Second}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, evt gateway.VideoEvent) error {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	return p.producer.Produce(sendCtx, p.topic, []byte(evt.VideoID), payload)
}

// LogEventPublisher 在未启用 Kafka 时把事件写入日志
type LogEventPublisher struct {
	log *logger.Logger
}

func NewLogEventPublisher(log *logger.Logger) *LogEventPublisher {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &LogEventPublisher{log: log}
}

func (p *LogEventPublisher) Publish(_ context.Context, evt gateway.VideoEvent) error {
	p.log.Info("video event", map[string]interface{}{
		"type":         evt.Type,
		"video_id":     evt.VideoID,
		"state":        evt.State,
		"storage_path": evt.StoragePath,
		"error":        evt.Error,
	})
	return nil
}
