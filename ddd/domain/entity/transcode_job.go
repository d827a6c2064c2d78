package entity

import (
	"sync"
	"time"
)

// TranscodeJob is one in-flight run for a video. It owns the per-video guard
// until Release is called.
type TranscodeJob struct {
	videoID    string
	sourcePath string
	outputDir  string
	enqueuedAt time.Time

	releaseOnce sync.Once
	release     func()
}

// NewTranscodeJob 创建转码作业，release 在作业结束时释放互斥
func NewTranscodeJob(videoID, sourcePath, outputDir string, release func()) *TranscodeJob {
	return &TranscodeJob{
		videoID:    videoID,
		sourcePath: sourcePath,
		outputDir:  outputDir,
		enqueuedAt: time.Now(),
		release:    release,
	}
}

func (j *TranscodeJob) VideoID() string       { return j.videoID }
func (j *TranscodeJob) SourcePath() string    { return j.sourcePath }
func (j *TranscodeJob) OutputDir() string     { return j.outputDir }
func (j *TranscodeJob) EnqueuedAt() time.Time { return j.enqueuedAt }

// Release 释放互斥，可重复调用
func (j *TranscodeJob) Release() {
	j.releaseOnce.Do(func() {
		if j.release != nil {
			j.release()
		}
	})
}
