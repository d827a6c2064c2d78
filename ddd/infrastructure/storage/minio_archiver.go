package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"

	"stream-service/ddd/domain/vo"
	"stream-service/pkg/logger"
)

// ObjectPutter is the part of *minio.Client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// MinioSegmentArchiver 将 HLS 目录上传到 hls/{videoId}/ 前缀下
type MinioSegmentArchiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewMinioSegmentArchiver(client ObjectPutter, bucket string) *MinioSegmentArchiver {
	return &MinioSegmentArchiver{client: client, bucket: bucket, prefix: "hls"}
}

// ObjectKey returns the bucket key for a file inside a video's segment directory.
func (s *MinioSegmentArchiver) ObjectKey(videoID, name string) string {
	return path.Join(s.prefix, videoID, name)
}

// ArchiveDirectory 上传目录下的全部普通文件，遇到错误立即返回
func (s *MinioSegmentArchiver) ArchiveDirectory(ctx context.Context, videoID, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read segment dir: %w", err)
	}
	uploaded := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		key := s.ObjectKey(videoID, e.Name())
		if err := s.putFile(ctx, filepath.Join(dir, e.Name()), key); err != nil {
			logger.Error("Failed to archive segment", map[string]interface{}{
				"video_id":   videoID,
				"object_key": key,
				"error":      err.Error(),
			})
			return uploaded, err
		}
		uploaded++
	}
	logger.Info("Segments archived", map[string]interface{}{
		"video_id": videoID,
		"bucket":   s.bucket,
		"objects":  uploaded,
	})
	return uploaded, nil
}

func (s *MinioSegmentArchiver) putFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open local file failed: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("get file info failed: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucket, key, f, info.Size(), minio.PutObjectOptions{
		ContentType: vo.DetectHLSContentType(localPath),
	})
	if err != nil {
		return fmt.Errorf("upload object to minio failed: %w", err)
	}
	return nil
}
