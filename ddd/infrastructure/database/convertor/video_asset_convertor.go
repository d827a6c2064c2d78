package convertor

import (
	"stream-service/ddd/domain/entity"
	"stream-service/ddd/domain/vo"
	"stream-service/ddd/infrastructure/database/po"
)

type VideoAssetConvertor struct{}

func NewVideoAssetConvertor() *VideoAssetConvertor { return &VideoAssetConvertor{} }

func (c *VideoAssetConvertor) ToEntity(p *po.VideoAsset) *entity.VideoAsset {
	if p == nil {
		return nil
	}
	lastErr := ""
	if p.LastError != nil {
		lastErr = *p.LastError
	}
	return entity.RestoreVideoAsset(entity.VideoAssetSnapshot{
		ID:               p.VideoID,
		Title:            p.Title,
		Description:      p.Description,
		OriginalFilename: p.OriginalFilename,
		StoragePath:      p.StoragePath,
		ContentType:      p.ContentType,
		Size:             p.Size,
		State:            vo.VideoState(p.State),
		LastError:        lastErr,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	})
}

func (c *VideoAssetConvertor) ToPO(e *entity.VideoAsset) *po.VideoAsset {
	s := e.Snapshot()
	var lastErr *string
	if s.LastError != "" {
		lastErr = &s.LastError
	}
	return &po.VideoAsset{
		VideoID:          s.ID,
		Title:            s.Title,
		Description:      s.Description,
		OriginalFilename: s.OriginalFilename,
		StoragePath:      s.StoragePath,
		ContentType:      s.ContentType,
		Size:             s.Size,
		State:            s.State.String(),
		LastError:        lastErr,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
