package port

import "context"

// JobLock guarantees at most one transcode per video across the workers that share it.
type JobLock interface {
	// TryAcquire returns errno.ErrJobAlreadyRunning when videoID is held.
	// The returned release func is safe to call more than once.
	TryAcquire(ctx context.Context, videoID string) (release func(), err error)
	IsHeld(ctx context.Context, videoID string) (bool, error)
}
