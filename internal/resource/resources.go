package resource

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"stream-service/pkg/config"
	"stream-service/pkg/kafka"
	"stream-service/pkg/logger"
	"stream-service/pkg/redisclient"
)

// Resources 进程持有的外部连接，按配置按需打开
type Resources struct {
	DB    *gorm.DB
	Redis *redisclient.Client
	Minio *MinioResource
	Kafka *kafka.Client
}

// Open 打开数据库以及配置启用的 Redis、MinIO、Kafka。任一失败时已打开的资源会被关闭。
func Open(ctx context.Context, cfg *config.Config) (*Resources, error) {
	r := &Resources{}

	db, err := OpenDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}
	r.DB = db

	if strings.EqualFold(cfg.Lock.Backend, "redis") {
		client, err := OpenRedis(cfg.Redis)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.Redis = client
	}

	if cfg.Transcode.ArchiveEnabled {
		m, err := OpenMinio(ctx, cfg.Minio)
		if err != nil {
			r.Close()
			return nil, err
		}
		r.Minio = m
	}

	if cfg.Kafka.Enabled {
		r.Kafka = OpenKafka(cfg.Kafka)
	}
	return r, nil
}

// Close 关闭所有已打开的资源
func (r *Resources) Close() {
	if r.Kafka != nil {
		if err := r.Kafka.Close(); err != nil {
			logger.Warnf("kafka close failed error=%v", err)
		}
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	closeDatabase(r.DB)
}
