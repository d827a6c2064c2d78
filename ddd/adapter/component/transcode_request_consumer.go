package component

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/segmentio/kafka-go"

	"stream-service/ddd/application/app"
	"stream-service/ddd/application/cqe"
	"stream-service/pkg/logger"
)

// MessageReader is the subset of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// transcodeRequest 外部系统请求重新转码的消息体
type transcodeRequest struct {
	VideoID string `json:"video_id"`
}

// TranscodeRequestConsumer 消费转码请求主题，每条消息对应一次 Retranscode
type TranscodeRequestConsumer struct {
	videoApp app.VideoApp
	reader   MessageReader
	topic    string
	log      *logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewTranscodeRequestConsumer(videoApp app.VideoApp, reader MessageReader, topic string, log *logger.Logger) *TranscodeRequestConsumer {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &TranscodeRequestConsumer{videoApp: videoApp, reader: reader, topic: topic, log: log}
}

func (c *TranscodeRequestConsumer) Name() string { return "transcodeRequestConsumer" }

func (c *TranscodeRequestConsumer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.loop(runCtx)
	c.log.Infof("kafka consumer started topic=%s", c.topic)
	return nil
}

func (c *TranscodeRequestConsumer) Stop() error {
	var err error
	c.once.Do(func() {
		if c.cancel != nil {
			c.cancel()
			<-c.done
		}
		err = c.reader.Close()
	})
	return err
}

func (c *TranscodeRequestConsumer) loop(ctx context.Context) {
	defer close(c.done)
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) {
				c.log.Debug("kafka reader EOF")
				return
			}
			c.log.Warnf("kafka read error topic=%s error=%v", c.topic, err)
			continue
		}
		c.handle(ctx, msg)
	}
}

func (c *TranscodeRequestConsumer) handle(ctx context.Context, msg kafka.Message) {
	var req transcodeRequest
	if err := json.Unmarshal(msg.Value, &req); err != nil {
		c.log.Warnf("kafka message unmarshal error offset=%d error=%v", msg.Offset, err)
		return
	}
	if req.VideoID == "" && len(msg.Key) > 0 {
		req.VideoID = string(msg.Key)
	}
	c.log.Info("transcode request received", map[string]interface{}{"video_id": req.VideoID, "offset": msg.Offset})

	if _, err := c.videoApp.Retranscode(ctx, &cqe.RetranscodeCmd{VideoID: req.VideoID}); err != nil {
		c.log.Warn("transcode request rejected", map[string]interface{}{
			"video_id": req.VideoID,
			"error":    err.Error(),
		})
	}
}
