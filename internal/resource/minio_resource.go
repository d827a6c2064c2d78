package resource

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"stream-service/pkg/config"
	"stream-service/pkg/logger"
)

// MinioResource MinIO资源
type MinioResource struct {
	client     *minio.Client
	bucketName string
}

// OpenMinio 创建客户端并确保桶存在
func OpenMinio(ctx context.Context, cfg config.MinioConfig) (*MinioResource, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.BucketName == "" {
		return nil, fmt.Errorf("minio bucket_name is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	r := &MinioResource{client: client, bucketName: cfg.BucketName}
	if err := r.ensureBucket(ctx); err != nil {
		return nil, err
	}

	logger.Info("MinIO resource initialized", map[string]interface{}{
		"endpoint":    cfg.Endpoint,
		"bucket_name": cfg.BucketName,
	})
	return r, nil
}

// ensureBucket 确保桶存在
func (r *MinioResource) ensureBucket(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucketName)
	if err != nil {
		return fmt.Errorf("check minio bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.client.MakeBucket(ctx, r.bucketName, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create minio bucket: %w", err)
	}
	return nil
}

// Client 获取MinIO客户端
func (r *MinioResource) Client() *minio.Client {
	return r.client
}

// BucketName 获取桶名称
func (r *MinioResource) BucketName() string {
	return r.bucketName
}
