package app

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"stream-service/ddd/application/cqe"
	"stream-service/ddd/application/dto"
	"stream-service/ddd/domain/entity"
	"stream-service/ddd/domain/gateway"
	"stream-service/ddd/domain/repo"
	"stream-service/ddd/domain/service"
	"stream-service/ddd/domain/vo"
	"stream-service/pkg/errno"
	"stream-service/pkg/logger"
)

// TranscodeScheduler 负责占用互斥并异步启动转码
type TranscodeScheduler interface {
	Schedule(ctx context.Context, videoID string) error
}

// VideoApp 视频应用服务接口
type VideoApp interface {
	// Upload 保存上传文件、创建记录并在后台启动转码，不等待转码完成
	Upload(ctx context.Context, cmd *cqe.UploadVideoCmd) (*dto.VideoDTO, error)
	ListVideos(ctx context.Context) (*dto.VideoListDTO, error)
	GetVideo(ctx context.Context, videoID string) (*dto.VideoDTO, error)
	// Retranscode 对已有记录重新触发转码
	Retranscode(ctx context.Context, cmd *cqe.RetranscodeCmd) (*dto.VideoDTO, error)
}

type videoAppImpl struct {
	repo      repo.VideoRepository
	layout    *service.StorageLayout
	scheduler TranscodeScheduler
	events    gateway.VideoEventPublisher
	maxBytes  int64
	log       *logger.Logger
}

// NewVideoApp 创建视频应用服务
func NewVideoApp(videoRepo repo.VideoRepository, layout *service.StorageLayout, scheduler TranscodeScheduler, events gateway.VideoEventPublisher, maxUploadBytes int64, log *logger.Logger) VideoApp {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &videoAppImpl{
		repo:      videoRepo,
		layout:    layout,
		scheduler: scheduler,
		events:    events,
		maxBytes:  maxUploadBytes,
		log:       log,
	}
}

func (a *videoAppImpl) Upload(ctx context.Context, cmd *cqe.UploadVideoCmd) (*dto.VideoDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	videoID := uuid.NewString()
	rawPath, err := a.layout.RawPath(videoID, cmd.Filename)
	if err != nil {
		return nil, err
	}

	size, err := a.persistUpload(rawPath, cmd.Content)
	if err != nil {
		return nil, err
	}

	video := entity.NewVideoAsset(videoID, cmd.Title, cmd.Description, cmd.Filename, rawPath,
		vo.ContentTypeOrDefault(cmd.ContentType), size)
	if err := a.repo.Save(ctx, video); err != nil {
		_ = os.Remove(rawPath)
		return nil, err
	}

	a.log.Info("video uploaded", map[string]interface{}{
		"video_id": videoID,
		"filename": cmd.Filename,
		"size":     size,
	})
	a.publish(ctx, gateway.VideoEvent{
		Type:        gateway.EventVideoUploaded,
		VideoID:     videoID,
		State:       video.State().String(),
		StoragePath: rawPath,
		ContentType: video.ContentType(),
	})

	if err := a.scheduler.Schedule(ctx, videoID); err != nil {
		a.log.Error("schedule transcode failed", map[string]interface{}{"video_id": videoID, "error": err.Error()})
		return nil, err
	}

	return a.reload(ctx, video), nil
}

func (a *videoAppImpl) ListVideos(ctx context.Context) (*dto.VideoListDTO, error) {
	list, err := a.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	videos := dto.NewVideoDTOList(list)
	return &dto.VideoListDTO{Videos: videos, Total: len(videos)}, nil
}

func (a *videoAppImpl) GetVideo(ctx context.Context, videoID string) (*dto.VideoDTO, error) {
	if err := service.ValidateID(videoID); err != nil {
		return nil, err
	}
	video, err := a.repo.FindByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return dto.NewVideoDTO(video), nil
}

func (a *videoAppImpl) Retranscode(ctx context.Context, cmd *cqe.RetranscodeCmd) (*dto.VideoDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := service.ValidateID(cmd.VideoID); err != nil {
		return nil, err
	}
	if err := a.scheduler.Schedule(ctx, cmd.VideoID); err != nil {
		return nil, err
	}
	return a.GetVideo(ctx, cmd.VideoID)
}

// persistUpload 先写入上传目录下的临时文件，完整写入后再改名到最终路径
func (a *videoAppImpl) persistUpload(rawPath string, src io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(a.layout.UploadRoot(), ".upload-*")
	if err != nil {
		return 0, errno.NewBizError(errno.ErrStorageInit, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	reader := src
	if a.maxBytes > 0 {
		reader = io.LimitReader(src, a.maxBytes+1)
	}
	n, err := io.Copy(tmp, reader)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return 0, errno.NewBizError(errno.ErrInternalServer, err)
	}
	if n == 0 {
		cleanup()
		return 0, errno.Newf(errno.ErrUploadValidation, "file is empty")
	}
	if a.maxBytes > 0 && n > a.maxBytes {
		cleanup()
		return 0, errno.Newf(errno.ErrUploadValidation, "file exceeds %d bytes", a.maxBytes)
	}
	if err := os.Rename(tmpName, rawPath); err != nil {
		cleanup()
		return 0, errno.NewBizError(errno.ErrInternalServer, err)
	}
	return n, nil
}

func (a *videoAppImpl) reload(ctx context.Context, fallback *entity.VideoAsset) *dto.VideoDTO {
	video, err := a.repo.FindByID(ctx, fallback.ID())
	if err != nil {
		return dto.NewVideoDTO(fallback)
	}
	return dto.NewVideoDTO(video)
}

func (a *videoAppImpl) publish(ctx context.Context, evt gateway.VideoEvent) {
	if a.events == nil {
		return
	}
	evt.OccurredAt = time.Now()
	if err := a.events.Publish(ctx, evt); err != nil {
		a.log.Warn("publish video event failed", map[string]interface{}{
			"video_id": evt.VideoID,
			"type":     evt.Type,
			"error":    err.Error(),
		})
	}
}
