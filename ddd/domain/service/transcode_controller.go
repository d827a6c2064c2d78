package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"stream-service/ddd/domain/entity"
	"stream-service/ddd/domain/gateway"
	"stream-service/ddd/domain/port"
	"stream-service/ddd/domain/repo"
	"stream-service/pkg/errno"
	"stream-service/pkg/logger"
)

// ErrJobInterrupted marks a run stopped by shutdown. The record stays
// Processing so the next start can resume it.
var ErrJobInterrupted = errors.New("transcode interrupted")

// TranscodeController drives Uploaded -> Processing -> Ready|Failed for one video at a time.
type TranscodeController struct {
	repo     repo.VideoRepository
	layout   *StorageLayout
	encoder  port.Encoder
	lock     port.JobLock
	events   gateway.VideoEventPublisher
	archiver gateway.SegmentArchiver
	timeout  time.Duration
	log      *logger.Logger
}

type ControllerOption func(*TranscodeController)

// WithTimeout 单次编码的超时时间，<=0 表示不限
func WithTimeout(d time.Duration) ControllerOption {
	return func(c *TranscodeController) { c.timeout = d }
}

func WithEventPublisher(p gateway.VideoEventPublisher) ControllerOption {
	return func(c *TranscodeController) { c.events = p }
}

func WithArchiver(a gateway.SegmentArchiver) ControllerOption {
	return func(c *TranscodeController) { c.archiver = a }
}

func NewTranscodeController(videoRepo repo.VideoRepository, layout *StorageLayout, encoder port.Encoder, lock port.JobLock, log *logger.Logger, opts ...ControllerOption) *TranscodeController {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	c := &TranscodeController{repo: videoRepo, layout: layout, encoder: encoder, lock: lock, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Prepare takes the per-video guard and moves the record to Processing.
// The returned job holds the guard until Execute or Abandon finishes with it.
func (c *TranscodeController) Prepare(ctx context.Context, videoID string) (*entity.TranscodeJob, error) {
	if err := ValidateID(videoID); err != nil {
		return nil, err
	}
	release, err := c.lock.TryAcquire(ctx, videoID)
	if err != nil {
		return nil, err
	}

	video, err := c.repo.FindByID(ctx, videoID)
	if err != nil {
		release()
		return nil, err
	}
	if !video.State().CanStartTranscode() {
		release()
		return nil, errno.Newf(errno.ErrInvalidVideoState, "video %s is %s", videoID, video.State())
	}
	outputDir, err := c.layout.SegmentDir(videoID)
	if err != nil {
		release()
		return nil, err
	}
	if err := video.MarkProcessing(); err != nil {
		release()
		return nil, err
	}
	if err := c.repo.Save(ctx, video); err != nil {
		release()
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return entity.NewTranscodeJob(videoID, video.StoragePath(), outputDir, release), nil
}

// Abandon fails a prepared job that never reached a worker and releases its guard.
func (c *TranscodeController) Abandon(ctx context.Context, job *entity.TranscodeJob, cause error) {
	defer job.Release()
	video, err := c.repo.FindByID(ctx, job.VideoID())
	if err != nil {
		c.log.Warnf("abandon: reload failed video_id=%s error=%v", job.VideoID(), err)
		return
	}
	c.markFailed(ctx, video, cause, 0)
}

// Execute runs the encoder for a prepared job and records the outcome.
// The guard is released on every path.
func (c *TranscodeController) Execute(ctx context.Context, job *entity.TranscodeJob) error {
	defer job.Release()

	video, err := c.repo.FindByID(ctx, job.VideoID())
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrJobInterrupted, err)
		}
		return err
	}
	c.publish(ctx, gateway.VideoEvent{Type: gateway.EventTranscodeStarted, VideoID: video.ID(), State: video.State().String()})
	c.log.Infof("transcode started video_id=%s source=%s output=%s", job.VideoID(), job.SourcePath(), job.OutputDir())

	start := time.Now()
	runErr := c.run(ctx, job)
	elapsed := time.Since(start)

	if runErr != nil {
		if errors.Is(runErr, ErrJobInterrupted) {
			c.log.Warnf("transcode interrupted video_id=%s elapsed=%s", job.VideoID(), elapsed)
			return runErr
		}
		c.markFailed(context.WithoutCancel(ctx), video, runErr, elapsed)
		return runErr
	}
	return c.markReady(context.WithoutCancel(ctx), video, job, elapsed)
}

func (c *TranscodeController) run(ctx context.Context, job *entity.TranscodeJob) error {
	info, err := os.Stat(job.SourcePath())
	if err != nil {
		return errno.NewBizError(errno.ErrFileNotFound, err)
	}
	if !info.Mode().IsRegular() {
		return errno.Newf(errno.ErrFileNotFound, "source %s is not a regular file", job.SourcePath())
	}
	if err := c.layout.ResetDirectory(job.OutputDir()); err != nil {
		return err
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	result, err := c.encoder.Run(runCtx, job.SourcePath(), job.OutputDir())
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, errno.ErrEncodeTimeout) {
			return fmt.Errorf("%w: %v", ErrJobInterrupted, err)
		}
		return err
	}
	if result != nil && result.ExitCode != 0 {
		return &port.EncodeFailedError{ExitCode: result.ExitCode, Stderr: result.Stderr}
	}
	return c.layout.ValidateOutput(job.OutputDir())
}

// markReady persists the pointer swap first and only then deletes the raw
// upload, so readers see either the old file or the new directory.
func (c *TranscodeController) markReady(ctx context.Context, video *entity.VideoAsset, job *entity.TranscodeJob, elapsed time.Duration) error {
	if err := video.MarkReady(job.OutputDir()); err != nil {
		return err
	}
	if err := c.repo.Save(ctx, video); err != nil {
		c.log.Errorf("transcode finished but record update failed video_id=%s error=%v", video.ID(), err)
		return errno.NewBizError(errno.ErrDatabase, err)
	}

	if job.SourcePath() != job.OutputDir() {
		if err := os.Remove(job.SourcePath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.log.Warnf("raw upload cleanup failed video_id=%s path=%s error=%v", video.ID(), job.SourcePath(), err)
		}
	}

	if c.archiver != nil {
		if n, err := c.archiver.ArchiveDirectory(ctx, video.ID(), job.OutputDir()); err != nil {
			c.log.Warnf("segment archive failed video_id=%s error=%v", video.ID(), err)
		} else {
			c.log.Infof("segment archive done video_id=%s objects=%d", video.ID(), n)
		}
	}

	c.log.Info("transcode completed", map[string]interface{}{
		"video_id":     video.ID(),
		"storage_path": video.StoragePath(),
		"elapsed_ms":   elapsed.Milliseconds(),
	})
	c.publish(ctx, gateway.VideoEvent{
		Type:        gateway.EventTranscodeCompleted,
		VideoID:     video.ID(),
		State:       video.State().String(),
		StoragePath: video.StoragePath(),
		ContentType: video.ContentType(),
		DurationMs:  elapsed.Milliseconds(),
	})
	return nil
}

func (c *TranscodeController) markFailed(ctx context.Context, video *entity.VideoAsset, cause error, elapsed time.Duration) {
	fields := map[string]interface{}{
		"video_id":   video.ID(),
		"error":      cause.Error(),
		"elapsed_ms": elapsed.Milliseconds(),
	}
	var failed *port.EncodeFailedError
	if errors.As(cause, &failed) {
		fields["exit_code"] = failed.ExitCode
		fields["stderr"] = tail(failed.Stderr, 4096)
	}
	c.log.Error("transcode failed", fields)

	if err := video.MarkFailed(cause.Error()); err != nil {
		c.log.Warnf("mark failed rejected video_id=%s error=%v", video.ID(), err)
		return
	}
	if err := c.repo.Save(ctx, video); err != nil {
		c.log.Errorf("persist failed state error video_id=%s error=%v", video.ID(), err)
	}
	c.publish(ctx, gateway.VideoEvent{
		Type:        gateway.EventTranscodeFailed,
		VideoID:     video.ID(),
		State:       video.State().String(),
		StoragePath: video.StoragePath(),
		Error:       video.LastError(),
		DurationMs:  elapsed.Milliseconds(),
	})
}

func (c *TranscodeController) publish(ctx context.Context, evt gateway.VideoEvent) {
	if c.events == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}
	if err := c.events.Publish(ctx, evt); err != nil {
		c.log.Warnf("publish event failed type=%s video_id=%s error=%v", evt.Type, evt.VideoID, err)
	}
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
