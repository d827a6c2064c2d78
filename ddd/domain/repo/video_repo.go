package repo

import (
	"context"

	"stream-service/ddd/domain/entity"
	"stream-service/ddd/domain/vo"
)

// VideoRepository 视频记录仓储接口
type VideoRepository interface {
	// Save 新建或整体覆盖记录
	Save(ctx context.Context, video *entity.VideoAsset) error
	// FindByID 找不到时返回 errno.ErrVideoNotFound
	FindByID(ctx context.Context, id string) (*entity.VideoAsset, error)
	FindAll(ctx context.Context) ([]*entity.VideoAsset, error)
	FindByStates(ctx context.Context, states ...vo.VideoState) ([]*entity.VideoAsset, error)
}
