package resource

import (
	"stream-service/pkg/config"
	"stream-service/pkg/logger"
	"stream-service/pkg/redisclient"
)

// OpenRedis connects the shared Redis client used by the distributed job guard.
func OpenRedis(cfg config.RedisConfig) (*redisclient.Client, error) {
	client, err := redisclient.New(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("redis connected", map[string]interface{}{"addr": cfg.GetRedisAddr()})
	return client, nil
}
