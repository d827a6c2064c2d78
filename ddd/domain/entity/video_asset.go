package entity

import (
	"time"

	"stream-service/ddd/domain/vo"
	"stream-service/pkg/errno"
)

// VideoAsset 视频资产实体
type VideoAsset struct {
	id               string
	title            string
	description      string
	originalFilename string
	storagePath      string
	contentType      string
	size             int64
	state            vo.VideoState
	lastError        string
	createdAt        time.Time
	updatedAt        time.Time
}

// NewVideoAsset 创建刚上传完成的视频
func NewVideoAsset(id, title, description, originalFilename, storagePath, contentType string, size int64) *VideoAsset {
	now := time.Now()
	return &VideoAsset{
		id:               id,
		title:            title,
		description:      description,
		originalFilename: originalFilename,
		storagePath:      storagePath,
		contentType:      vo.ContentTypeOrDefault(contentType),
		size:             size,
		state:            vo.VideoStateUploaded,
		createdAt:        now,
		updatedAt:        now,
	}
}

// VideoAssetSnapshot carries persisted fields back into an entity.
type VideoAssetSnapshot struct {
	ID               string
	Title            string
	Description      string
	OriginalFilename string
	StoragePath      string
	ContentType      string
	Size             int64
	State            vo.VideoState
	LastError        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RestoreVideoAsset 从持久化数据重建实体
func RestoreVideoAsset(s VideoAssetSnapshot) *VideoAsset {
	state := s.State
	if !state.IsValid() {
		state = vo.VideoStateUploaded
	}
	return &VideoAsset{
		id:               s.ID,
		title:            s.Title,
		description:      s.Description,
		originalFilename: s.OriginalFilename,
		storagePath:      s.StoragePath,
		contentType:      vo.ContentTypeOrDefault(s.ContentType),
		size:             s.Size,
		state:            state,
		lastError:        s.LastError,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
	}
}

func (v *VideoAsset) ID() string               { return v.id }
func (v *VideoAsset) Title() string            { return v.title }
func (v *VideoAsset) Description() string      { return v.description }
func (v *VideoAsset) OriginalFilename() string { return v.originalFilename }
func (v *VideoAsset) StoragePath() string      { return v.storagePath }
func (v *VideoAsset) ContentType() string      { return v.contentType }
func (v *VideoAsset) Size() int64              { return v.size }
func (v *VideoAsset) State() vo.VideoState     { return v.state }
func (v *VideoAsset) LastError() string        { return v.lastError }
func (v *VideoAsset) CreatedAt() time.Time     { return v.createdAt }
func (v *VideoAsset) UpdatedAt() time.Time     { return v.updatedAt }

// Snapshot 导出全部字段，供持久化和 DTO 使用
func (v *VideoAsset) Snapshot() VideoAssetSnapshot {
	return VideoAssetSnapshot{
		ID:               v.id,
		Title:            v.title,
		Description:      v.description,
		OriginalFilename: v.originalFilename,
		StoragePath:      v.storagePath,
		ContentType:      v.contentType,
		Size:             v.size,
		State:            v.state,
		LastError:        v.lastError,
		CreatedAt:        v.createdAt,
		UpdatedAt:        v.updatedAt,
	}
}

// MarkProcessing 进入转码中
func (v *VideoAsset) MarkProcessing() error {
	if err := v.transition(vo.VideoStateProcessing); err != nil {
		return err
	}
	v.lastError = ""
	return nil
}

// MarkReady swaps the servable artifact to the segment directory in one step.
func (v *VideoAsset) MarkReady(segmentDir string) error {
	if err := v.transition(vo.VideoStateReady); err != nil {
		return err
	}
	v.storagePath = segmentDir
	v.contentType = vo.ContentTypeHLSPlaylist
	v.lastError = ""
	return nil
}

// MarkFailed 记录失败原因，storagePath 与 contentType 保持不变
func (v *VideoAsset) MarkFailed(reason string) error {
	if err := v.transition(vo.VideoStateFailed); err != nil {
		return err
	}
	v.lastError = truncate(reason, 480)
	return nil
}

func (v *VideoAsset) transition(target vo.VideoState) error {
	if !v.state.CanTransitionTo(target) {
		return errno.Newf(errno.ErrInvalidVideoState, "video %s cannot move from %s to %s", v.id, v.state, target)
	}
	v.state = target
	v.updatedAt = time.Now()
	return nil
}

// truncate keeps messages within the last_error column.
func truncate(msg string, max int) string {
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max])
}
