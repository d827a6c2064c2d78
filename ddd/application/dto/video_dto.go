package dto

import (
	"time"

	"stream-service/ddd/domain/entity"
)

// VideoDTO 视频记录数据传输对象
type VideoDTO struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	OriginalFilename string    `json:"original_filename"`
	StoragePath      string    `json:"storage_path"`
	ContentType      string    `json:"content_type"`
	Size             int64     `json:"size"`
	State            string    `json:"state"`
	LastError        string    `json:"last_error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func NewVideoDTO(v *entity.VideoAsset) *VideoDTO {
	if v == nil {
		return nil
	}
	s := v.Snapshot()
	return &VideoDTO{
		ID:               s.ID,
		Title:            s.Title,
		Description:      s.Description,
		OriginalFilename: s.OriginalFilename,
		StoragePath:      s.StoragePath,
		ContentType:      s.ContentType,
		Size:             s.Size,
		State:            s.State.String(),
		LastError:        s.LastError,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func NewVideoDTOList(list []*entity.VideoAsset) []*VideoDTO {
	out := make([]*VideoDTO, 0, len(list))
	for _, v := range list {
		out = append(out, NewVideoDTO(v))
	}
	return out
}

// VideoListDTO 视频列表
type VideoListDTO struct {
	Videos []*VideoDTO `json:"videos"`
	Total  int         `json:"total"`
}
