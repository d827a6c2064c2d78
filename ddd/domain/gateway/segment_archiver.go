package gateway

import "context"

// SegmentArchiver 将切片目录上传到对象存储，返回上传的对象数
type SegmentArchiver interface {
	ArchiveDirectory(ctx context.Context, videoID, dir string) (int, error)
}
