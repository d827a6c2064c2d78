package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-service/ddd/domain/entity"
	"stream-service/ddd/domain/vo"
	"stream-service/pkg/errno"
	"stream-service/pkg/logger"
)

type controllerFixture struct {
	layout    *StorageLayout
	repo      *fakeRepo
	lock      *fakeLock
	encoder   *scriptedEncoder
	events    *recordingPublisher
	archiver  *countingArchiver
	ctrl      *TranscodeController
	logBuffer *bytes.Buffer
}

func newControllerFixture(t *testing.T, enc *scriptedEncoder, opts ...ControllerOption) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		layout:    newTestLayout(t),
		repo:      newFakeRepo(),
		lock:      &fakeLock{},
		encoder:   enc,
		events:    &recordingPublisher{},
		archiver:  &countingArchiver{},
		logBuffer: &bytes.Buffer{},
	}
	log := logger.NewWithWriter(f.logBuffer, logrus.DebugLevel)
	opts = append([]ControllerOption{WithEventPublisher(f.events), WithArchiver(f.archiver)}, opts...)
	f.ctrl = NewTranscodeController(f.repo, f.layout, enc, f.lock, log, opts...)
	return f
}

func (f *controllerFixture) upload(t *testing.T, id string) *entity.VideoAsset {
	t.Helper()
	raw, err := f.layout.RawPath(id, "clip.mp4")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(raw, bytes.Repeat([]byte{7}, 2400), 0o644))
	v := entity.NewVideoAsset(id, "clip", "", "clip.mp4", raw, "video/mp4", 2400)
	require.NoError(t, f.repo.Save(context.Background(), v))
	return v
}

func TestTranscodeSuccessSwapsPointerAndDeletesRaw(t *testing.T) {
	f := newControllerFixture(t, &scriptedEncoder{segments: 3})
	v := f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	stored, _ := f.repo.FindByID(ctx, "v1")
	assert.Equal(t, vo.VideoStateProcessing, stored.State())

	require.NoError(t, f.ctrl.Execute(ctx, job))

	stored, _ = f.repo.FindByID(ctx, "v1")
	segDir, _ := f.layout.SegmentDir("v1")
	assert.Equal(t, vo.VideoStateReady, stored.State())
	assert.Equal(t, segDir, stored.StoragePath())
	assert.Equal(t, vo.ContentTypeHLSPlaylist, stored.ContentType())
	assert.NoFileExists(t, v.StoragePath())
	assert.FileExists(t, filepath.Join(segDir, MasterPlaylistName))

	held, _ := f.lock.IsHeld(ctx, "v1")
	assert.False(t, held)
	assert.Equal(t, []string{"transcode.started", "transcode.completed"}, f.events.Types())
	assert.Equal(t, []string{segDir}, f.archiver.dirs)
}

func TestTranscodeFailureLeavesRawServable(t *testing.T) {
	f := newControllerFixture(t, &scriptedEncoder{exitCode: 1})
	v := f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	err = f.ctrl.Execute(ctx, job)
	assert.True(t, errors.Is(err, errno.ErrEncodeFailed))

	stored, _ := f.repo.FindByID(ctx, "v1")
	assert.Equal(t, vo.VideoStateFailed, stored.State())
	assert.Equal(t, v.StoragePath(), stored.StoragePath())
	assert.Equal(t, "video/mp4", stored.ContentType())
	assert.NotEmpty(t, stored.LastError())
	assert.FileExists(t, v.StoragePath())
	assert.Contains(t, f.logBuffer.String(), "encoder said no")
	assert.Equal(t, []string{"transcode.started", "transcode.failed"}, f.events.Types())
	assert.Empty(t, f.archiver.dirs)

	held, _ := f.lock.IsHeld(ctx, "v1")
	assert.False(t, held)
}

func TestTranscodeMissingOutputFails(t *testing.T) {
	f := newControllerFixture(t, &scriptedEncoder{segments: 0})
	f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	err = f.ctrl.Execute(ctx, job)
	assert.True(t, errors.Is(err, errno.ErrEncodeOutputInvalid))

	stored, _ := f.repo.FindByID(ctx, "v1")
	assert.Equal(t, vo.VideoStateFailed, stored.State())
}

func TestTranscodeSpawnErrorFails(t *testing.T) {
	f := newControllerFixture(t, &scriptedEncoder{err: errno.Newf(errno.ErrEncodeSpawn, "no such binary")})
	f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	assert.True(t, errors.Is(f.ctrl.Execute(ctx, job), errno.ErrEncodeSpawn))
	stored, _ := f.repo.FindByID(ctx, "v1")
	assert.Equal(t, vo.VideoStateFailed, stored.State())
}

func TestTranscodeTimeout(t *testing.T) {
	f := newControllerFixture(t, &scriptedEncoder{block: make(chan struct{})}, WithTimeout(50*time.Millisecond))
	f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	err = f.ctrl.Execute(ctx, job)
	assert.True(t, errors.Is(err, errno.ErrEncodeTimeout))

	stored, _ := f.repo.FindByID(ctx, "v1")
	assert.Equal(t, vo.VideoStateFailed, stored.State())
}

func TestTranscodeInterruptedStaysProcessing(t *testing.T) {
	f := newControllerFixture(t, &scriptedEncoder{block: make(chan struct{})})
	f.upload(t, "v1")

	job, err := f.ctrl.Prepare(context.Background(), "v1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.ctrl.Execute(ctx, job) }()
	require.Eventually(t, func() bool { return f.encoder.Calls() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	err = <-done
	assert.True(t, errors.Is(err, ErrJobInterrupted))
	stored, _ := f.repo.FindByID(context.Background(), "v1")
	assert.Equal(t, vo.VideoStateProcessing, stored.State())
	held, _ := f.lock.IsHeld(context.Background(), "v1")
	assert.False(t, held)
}

func TestPrepareRejectsConcurrentJob(t *testing.T) {
	enc := &scriptedEncoder{segments: 1, block: make(chan struct{})}
	f := newControllerFixture(t, enc)
	f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- f.ctrl.Execute(ctx, job) }()

	_, err = f.ctrl.Prepare(ctx, "v1")
	assert.True(t, errors.Is(err, errno.ErrJobAlreadyRunning))

	close(enc.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, enc.Calls())

	segDir, _ := f.layout.SegmentDir("v1")
	segments, _ := filepath.Glob(filepath.Join(segDir, "segment_*.ts"))
	assert.Len(t, segments, 1)
}

func TestPrepareRejectsReadyAndUnknown(t *testing.T) {
	f := newControllerFixture(t, &scriptedEncoder{segments: 1})
	f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Execute(ctx, job))

	_, err = f.ctrl.Prepare(ctx, "v1")
	assert.True(t, errors.Is(err, errno.ErrInvalidVideoState))
	held, _ := f.lock.IsHeld(ctx, "v1")
	assert.False(t, held)

	_, err = f.ctrl.Prepare(ctx, "missing")
	assert.True(t, errors.Is(err, errno.ErrVideoNotFound))
	_, err = f.ctrl.Prepare(ctx, "../v1")
	assert.True(t, errors.Is(err, errno.ErrUnsafePath))
}

func TestRetriggerAfterFailure(t *testing.T) {
	enc := &scriptedEncoder{exitCode: 2}
	f := newControllerFixture(t, enc)
	f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	require.Error(t, f.ctrl.Execute(ctx, job))

	segDir, _ := f.layout.SegmentDir("v1")
	require.NoError(t, os.WriteFile(filepath.Join(segDir, "segment_042.ts"), []byte("stale"), 0o644))

	enc.exitCode = 0
	enc.segments = 2
	job, err = f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Execute(ctx, job))

	assert.NoFileExists(t, filepath.Join(segDir, "segment_042.ts"))
	stored, _ := f.repo.FindByID(ctx, "v1")
	assert.Equal(t, vo.VideoStateReady, stored.State())
	assert.Empty(t, stored.LastError())
}

func TestAbandonMarksFailedAndReleases(t *testing.T) {
	f := newControllerFixture(t, &scriptedEncoder{})
	f.upload(t, "v1")
	ctx := context.Background()

	job, err := f.ctrl.Prepare(ctx, "v1")
	require.NoError(t, err)
	f.ctrl.Abandon(ctx, job, errno.Newf(errno.ErrQueueFull, "no room"))

	stored, _ := f.repo.FindByID(ctx, "v1")
	assert.Equal(t, vo.VideoStateFailed, stored.State())
	held, _ := f.lock.IsHeld(ctx, "v1")
	assert.False(t, held)
}
