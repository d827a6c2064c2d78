package dao

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stream-service/ddd/infrastructure/database/po"
)

type VideoAssetDAO struct{ db *gorm.DB }

func NewVideoAssetDAO(db *gorm.DB) *VideoAssetDAO { return &VideoAssetDAO{db: db} }

// Migrate 创建或更新表结构
func (d *VideoAssetDAO) Migrate(ctx context.Context) error {
	return d.db.WithContext(ctx).AutoMigrate(&po.VideoAsset{})
}

// Upsert 按 video_id 插入或整行覆盖
func (d *VideoAssetDAO) Upsert(ctx context.Context, v *po.VideoAsset) error {
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "video_id"}},
		UpdateAll: true,
	}).Create(v).Error
}

func (d *VideoAssetDAO) FindByVideoID(ctx context.Context, videoID string) (*po.VideoAsset, error) {
	var v po.VideoAsset
	if err := d.db.WithContext(ctx).Where("video_id = ?", videoID).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (d *VideoAssetDAO) FindAll(ctx context.Context) ([]*po.VideoAsset, error) {
	var list []*po.VideoAsset
	if err := d.db.WithContext(ctx).Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (d *VideoAssetDAO) QueryByStates(ctx context.Context, states []string) ([]*po.VideoAsset, error) {
	var list []*po.VideoAsset
	q := d.db.WithContext(ctx).Where("state IN ?", states).Order("updated_at ASC")
	if err := q.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
