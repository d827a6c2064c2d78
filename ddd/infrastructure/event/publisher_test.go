package event

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-service/ddd/domain/gateway"
	"stream-service/pkg/logger"
)

type captureProducer struct {
	topic string
	key   []byte
	value []byte
	err   error
}

func (c *captureProducer) Produce(_ context.Context, topic string, key, value []byte) error {
	c.topic, c.key, c.value = topic, key, value
	return c.err
}

func TestKafkaPublisherEncodesEvent(t *testing.T) {
	prod := &captureProducer{}
	p := NewKafkaEventPublisher(prod, "video.events")

	require.NoError(t, p.Publish(context.Background(), gateway.VideoEvent{
		Type:    gateway.EventTranscodeCompleted,
		VideoID: "v1",
		State:   "ready",
	}))

	assert.Equal(t, "video.events", prod.topic)
	assert.Equal(t, "v1", string(prod.key))
	var decoded gateway.VideoEvent
	require.NoError(t, json.Unmarshal(prod.value, &decoded))
	assert.Equal(t, gateway.EventTranscodeCompleted, decoded.Type)
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestKafkaPublisherPropagatesError(t *testing.T) {
	p := NewKafkaEventPublisher(&captureProducer{err: errors.New("broker down")}, "t")
	assert.EqualError(t, p.Publish(context.Background(), gateway.VideoEvent{VideoID: "v1"}), "broker down")
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogEventPublisher(logger.NewWithWriter(&buf, logrus.InfoLevel))
	require.NoError(t, p.Publish(context.Background(), gateway.VideoEvent{Type: gateway.EventVideoUploaded, VideoID: "v9"}))
	assert.Contains(t, buf.String(), `"video_id":"v9"`)
	assert.Contains(t, buf.String(), gateway.EventVideoUploaded)
}
