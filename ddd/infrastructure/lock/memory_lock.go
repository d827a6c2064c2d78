package lock

import (
	"context"
	"sync"

	"stream-service/pkg/errno"
)

// MemoryJobLock is a process-local registry of in-flight video ids.
type MemoryJobLock struct {
	held sync.Map
}

func NewMemoryJobLock() *MemoryJobLock {
	return &MemoryJobLock{}
}

// TryAcquire 原子地登记 videoID，已存在时返回 ErrJobAlreadyRunning
func (l *MemoryJobLock) TryAcquire(_ context.Context, videoID string) (func(), error) {
	if _, loaded := l.held.LoadOrStore(videoID, struct{}{}); loaded {
		return nil, errno.Newf(errno.ErrJobAlreadyRunning, "video %s", videoID)
	}
	var once sync.Once
	return func() {
		once.Do(func() { l.held.Delete(videoID) })
	}, nil
}

func (l *MemoryJobLock) IsHeld(_ context.Context, videoID string) (bool, error) {
	_, ok := l.held.Load(videoID)
	return ok, nil
}
