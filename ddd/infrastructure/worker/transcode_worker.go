package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stream-service/ddd/domain/entity"
	"stream-service/ddd/domain/repo"
	"stream-service/ddd/domain/service"
	"stream-service/ddd/domain/vo"
	"stream-service/ddd/infrastructure/queue"
	"stream-service/pkg/errno"
	"stream-service/pkg/logger"
	"stream-service/pkg/metrics"
)

// TranscodeWorker 转码工作器接口
type TranscodeWorker interface {
	// Start 启动工作器
	Start(ctx context.Context) error

	// Stop 停止工作器，运行中的编码进程会收到终止信号
	Stop() error

	// Schedule 占用视频互斥并把作业放入队列，不等待转码完成
	Schedule(ctx context.Context, videoID string) error

	// IsRunning 检查工作器是否运行中
	IsRunning() bool

	// GetStats 获取工作器统计信息
	GetStats() WorkerStats
}

// WorkerStats 工作器统计信息
type WorkerStats struct {
	ProcessedTasks   uint64    `json:"processed_tasks"`
	SuccessfulTasks  uint64    `json:"successful_tasks"`
	FailedTasks      uint64    `json:"failed_tasks"`
	InterruptedTasks uint64    `json:"interrupted_tasks"`
	CurrentlyRunning int       `json:"currently_running"`
	QueueSize        int       `json:"queue_size"`
	StartTime        time.Time `json:"start_time"`
	LastTaskTime     time.Time `json:"last_task_time"`
}

// Options 工作器参数
type Options struct {
	ID            string
	WorkerCount   int
	ResumePending bool
	ShutdownGrace time.Duration
}

type transcodeWorkerImpl struct {
	opts       Options
	queue      queue.TranscodeJobQueue
	controller *service.TranscodeController
	repo       repo.VideoRepository
	log        *logger.Logger

	running bool
	cancel  context.CancelFunc
	stats   WorkerStats
	mu      sync.RWMutex
	wg      sync.WaitGroup
}

// NewTranscodeWorker 创建转码工作器
func NewTranscodeWorker(opts Options, q queue.TranscodeJobQueue, controller *service.TranscodeController, videoRepo repo.VideoRepository, log *logger.Logger) TranscodeWorker {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 1
	}
	if opts.ID == "" {
		opts.ID = "transcode-worker"
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &transcodeWorkerImpl{
		opts:       opts,
		queue:      q,
		controller: controller,
		repo:       videoRepo,
		log:        log,
		stats:      WorkerStats{StartTime: time.Now()},
	}
}

func (w *transcodeWorkerImpl) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("worker %s is already running", w.opts.ID)
	}
	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.running = true
	w.stats.StartTime = time.Now()

	w.wg.Add(w.opts.WorkerCount)
	for i := 0; i < w.opts.WorkerCount; i++ {
		go w.workerLoop(workerCtx, i)
	}
	if w.opts.ResumePending {
		go w.resumePending(workerCtx)
	}
	w.log.Infof("transcode worker started id=%s concurrency=%d", w.opts.ID, w.opts.WorkerCount)
	return nil
}

func (w *transcodeWorkerImpl) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.cancel()
	w.running = false
	w.mu.Unlock()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	if w.opts.ShutdownGrace > 0 {
		select {
		case <-done:
		case <-time.After(w.opts.ShutdownGrace):
			w.log.Warnf("transcode worker stop timed out id=%s grace=%s", w.opts.ID, w.opts.ShutdownGrace)
		}
	} else {
		<-done
	}

	// 未开始的作业释放互斥，记录保持 processing，下次启动时恢复
	for _, job := range w.queue.Drain() {
		job.Release()
	}
	w.log.Infof("transcode worker stopped id=%s", w.opts.ID)
	return nil
}

func (w *transcodeWorkerImpl) Schedule(ctx context.Context, videoID string) error {
	job, err := w.controller.Prepare(ctx, videoID)
	if err != nil {
		return err
	}
	if err := w.queue.Enqueue(ctx, job); err != nil {
		if !errors.Is(err, errno.ErrQueueFull) {
			err = errno.NewBizError(errno.ErrQueueFull, err)
		}
		w.controller.Abandon(context.WithoutCancel(ctx), job, err)
		return err
	}
	w.log.Infof("transcode scheduled video_id=%s queue_size=%d", videoID, w.queue.Size())
	return nil
}

func (w *transcodeWorkerImpl) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

func (w *transcodeWorkerImpl) GetStats() WorkerStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.stats
	s.QueueSize = w.queue.Size()
	return s
}

func (w *transcodeWorkerImpl) workerLoop(ctx context.Context, slot int) {
	defer w.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		job, err := w.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, queue.ErrQueueClosed) {
				return
			}
			w.log.Warnf("dequeue failed worker=%s slot=%d error=%v", w.opts.ID, slot, err)
			continue
		}
		w.processJob(ctx, job)
	}
}

func (w *transcodeWorkerImpl) processJob(ctx context.Context, job *entity.TranscodeJob) {
	w.updateStats(func(s *WorkerStats) { s.CurrentlyRunning++; s.LastTaskTime = time.Now() })
	metrics.TranscodeJobsInFlight.Inc()
	start := time.Now()

	err := w.controller.Execute(ctx, job)

	metrics.TranscodeJobsInFlight.Dec()
	metrics.TranscodeDuration.Observe(time.Since(start).Seconds())
	result := "ready"
	switch {
	case err == nil:
		w.updateStats(func(s *WorkerStats) { s.SuccessfulTasks++ })
	case errors.Is(err, service.ErrJobInterrupted):
		result = "interrupted"
		w.updateStats(func(s *WorkerStats) { s.InterruptedTasks++ })
	default:
		result = "failed"
		w.updateStats(func(s *WorkerStats) { s.FailedTasks++ })
	}
	metrics.TranscodeJobsTotal.WithLabelValues(result).Inc()
	w.updateStats(func(s *WorkerStats) { s.CurrentlyRunning--; s.ProcessedTasks++ })
}

// resumePending 重新调度上次退出时未完成的视频
func (w *transcodeWorkerImpl) resumePending(ctx context.Context) {
	videos, err := w.repo.FindByStates(ctx, vo.VideoStateUploaded, vo.VideoStateProcessing)
	if err != nil {
		w.log.Warnf("resume pending query failed error=%v", err)
		return
	}
	for _, v := range videos {
		if ctx.Err() != nil {
			return
		}
		if err := w.Schedule(ctx, v.ID()); err != nil {
			if errors.Is(err, errno.ErrJobAlreadyRunning) {
				continue
			}
			w.log.Warnf("resume pending failed video_id=%s error=%v", v.ID(), err)
			continue
		}
		w.log.Infof("resumed pending transcode video_id=%s previous_state=%s", v.ID(), v.State())
	}
}

func (w *transcodeWorkerImpl) updateStats(f func(*WorkerStats)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	f(&w.stats)
}
