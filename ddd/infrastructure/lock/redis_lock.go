package lock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"stream-service/pkg/config"
	"stream-service/pkg/errno"
	"stream-service/pkg/logger"
	"stream-service/pkg/redisclient"
)

// RedisJobLock shares the per-video guard between service instances through
// token-owned Redis leases. A held lease is refreshed until released.
type RedisJobLock struct {
	client *redisclient.Client
	prefix string
	ttl    time.Duration
	owner  string
}

func NewRedisJobLock(client *redisclient.Client, cfg config.LockConfig, owner string) *RedisJobLock {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if owner == "" {
		owner = "stream-service"
	}
	return &RedisJobLock{client: client, prefix: cfg.Prefix, ttl: ttl, owner: owner}
}

func (l *RedisJobLock) key(videoID string) string {
	return l.prefix + videoID
}

// TryAcquire 获取租约并启动续期协程
func (l *RedisJobLock) TryAcquire(ctx context.Context, videoID string) (func(), error) {
	key := l.key(videoID)
	token := l.owner + ":" + uuid.NewString()
	ok, err := l.client.AcquireLease(ctx, key, token, l.ttl)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrInternalServer, err)
	}
	if !ok {
		return nil, errno.Newf(errno.ErrJobAlreadyRunning, "video %s", videoID)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(key, token, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := l.client.ReleaseLease(releaseCtx, key, token); err != nil {
				logger.Warnf("release job lease failed key=%s error=%v", key, err)
			}
		})
	}, nil
}

func (l *RedisJobLock) keepAlive(key, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			ok, err := l.client.RefreshLease(ctx, key, token, l.ttl)
			cancel()
			if err != nil {
				logger.Warnf("refresh job lease failed key=%s error=%v", key, err)
				continue
			}
			if !ok {
				logger.Errorf("job lease lost key=%s", key)
				return
			}
		}
	}
}

func (l *RedisJobLock) IsHeld(ctx context.Context, videoID string) (bool, error) {
	holder, err := l.client.LeaseHolder(ctx, l.key(videoID))
	if err != nil {
		return false, err
	}
	return holder != "", nil
}
