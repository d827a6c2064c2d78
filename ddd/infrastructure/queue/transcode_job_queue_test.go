package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-service/ddd/domain/entity"
	"stream-service/pkg/errno"
)

func job(id string) *entity.TranscodeJob {
	return entity.NewTranscodeJob(id, "/src/"+id, "/out/"+id, nil)
}

func TestEnqueueDequeueFIFO(t *testing.T) {
	q := NewMemoryTranscodeJobQueue(4)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, job("a")))
	require.NoError(t, q.Enqueue(ctx, job("b")))
	assert.Equal(t, 2, q.Size())

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", got.VideoID())
	got, err = q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", got.VideoID())
}

func TestEnqueueFullFailsFast(t *testing.T) {
	q := NewMemoryTranscodeJobQueue(1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, job("a")))
	err := q.Enqueue(ctx, job("b"))
	assert.True(t, errors.Is(err, errno.ErrQueueFull))
	assert.Error(t, q.Enqueue(ctx, nil))
}

func TestDequeueHonoursContext(t *testing.T) {
	q := NewMemoryTranscodeJobQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDrainAndClose(t *testing.T) {
	q := NewMemoryTranscodeJobQueue(4)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, job("a")))
	require.NoError(t, q.Enqueue(ctx, job("b")))

	drained := q.Drain()
	assert.Len(t, drained, 2)
	assert.Zero(t, q.Size())

	require.NoError(t, q.Close())
	require.NoError(t, q.Close())
	assert.True(t, q.IsClosed())
	assert.ErrorIs(t, q.Enqueue(ctx, job("c")), ErrQueueClosed)
	_, err := q.Dequeue(ctx)
	assert.ErrorIs(t, err, ErrQueueClosed)
}
