package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"stream-service/ddd/domain/entity"
	"stream-service/pkg/errno"
	"stream-service/pkg/metrics"
)

// TranscodeJobQueue 转码作业队列
type TranscodeJobQueue interface {
	Enqueue(ctx context.Context, job *entity.TranscodeJob) error
	Dequeue(ctx context.Context) (*entity.TranscodeJob, error)
	// Drain removes every waiting job without blocking.
	Drain() []*entity.TranscodeJob
	Size() int
	Close() error
	IsClosed() bool
}

var ErrQueueClosed = errors.New("queue is closed")

type memoryTranscodeJobQueue struct {
	queue  chan *entity.TranscodeJob
	closed bool
	mu     sync.RWMutex
}

// NewMemoryTranscodeJobQueue 创建内存队列，满时入队立即失败
func NewMemoryTranscodeJobQueue(capacity int) TranscodeJobQueue {
	if capacity <= 0 {
		capacity = 100
	}
	return &memoryTranscodeJobQueue{queue: make(chan *entity.TranscodeJob, capacity)}
}

func (q *memoryTranscodeJobQueue) Enqueue(ctx context.Context, job *entity.TranscodeJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	select {
	case q.queue <- job:
		metrics.TranscodeQueueDepth.Set(float64(len(q.queue)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return errno.Newf(errno.ErrQueueFull, "capacity %d reached", cap(q.queue))
	}
}

// Dequeue 阻塞直到有作业、ctx 结束或队列关闭
func (q *memoryTranscodeJobQueue) Dequeue(ctx context.Context) (*entity.TranscodeJob, error) {
	select {
	case job, ok := <-q.queue:
		if !ok {
			return nil, ErrQueueClosed
		}
		metrics.TranscodeQueueDepth.Set(float64(len(q.queue)))
		return job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *memoryTranscodeJobQueue) Drain() []*entity.TranscodeJob {
	var out []*entity.TranscodeJob
	for {
		select {
		case job, ok := <-q.queue:
			if !ok {
				return out
			}
			out = append(out, job)
		default:
			metrics.TranscodeQueueDepth.Set(0)
			return out
		}
	}
}

func (q *memoryTranscodeJobQueue) Size() int {
	return len(q.queue)
}

func (q *memoryTranscodeJobQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	close(q.queue)
	return nil
}

func (q *memoryTranscodeJobQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
