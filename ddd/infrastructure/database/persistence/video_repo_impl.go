package persistence

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"stream-service/ddd/domain/entity"
	"stream-service/ddd/domain/repo"
	"stream-service/ddd/domain/vo"
	"stream-service/ddd/infrastructure/database/convertor"
	"stream-service/ddd/infrastructure/database/dao"
	"stream-service/ddd/infrastructure/database/po"
	"stream-service/pkg/errno"
)

type videoRepositoryImpl struct {
	dao *dao.VideoAssetDAO
	cvt *convertor.VideoAssetConvertor
}

// NewVideoRepository 创建基于 gorm 的视频仓储并迁移表结构
func NewVideoRepository(ctx context.Context, db *gorm.DB) (repo.VideoRepository, error) {
	d := dao.NewVideoAssetDAO(db)
	if err := d.Migrate(ctx); err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return &videoRepositoryImpl{dao: d, cvt: convertor.NewVideoAssetConvertor()}, nil
}

func (r *videoRepositoryImpl) Save(ctx context.Context, video *entity.VideoAsset) error {
	if err := r.dao.Upsert(ctx, r.cvt.ToPO(video)); err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}
	return nil
}

func (r *videoRepositoryImpl) FindByID(ctx context.Context, id string) (*entity.VideoAsset, error) {
	p, err := r.dao.FindByVideoID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errno.Newf(errno.ErrVideoNotFound, "video %s", id)
		}
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.cvt.ToEntity(p), nil
}

func (r *videoRepositoryImpl) FindAll(ctx context.Context) ([]*entity.VideoAsset, error) {
	pos, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.toEntities(pos), nil
}

func (r *videoRepositoryImpl) FindByStates(ctx context.Context, states ...vo.VideoState) ([]*entity.VideoAsset, error) {
	if len(states) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, s.String())
	}
	pos, err := r.dao.QueryByStates(ctx, names)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return r.toEntities(pos), nil
}

func (r *videoRepositoryImpl) toEntities(pos []*po.VideoAsset) []*entity.VideoAsset {
	out := make([]*entity.VideoAsset, 0, len(pos))
	for _, p := range pos {
		out = append(out, r.cvt.ToEntity(p))
	}
	return out
}
