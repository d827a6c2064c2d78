package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"stream-service/ddd/domain/port"
	"stream-service/ddd/domain/service"
	"stream-service/pkg/config"
	"stream-service/pkg/errno"
	"stream-service/pkg/logger"
)

// FFmpegExecutor implements port.Encoder by running a local ffmpeg binary.
type FFmpegExecutor struct {
	binary          string
	videoCodec      string
	audioCodec      string
	segmentDuration int
	killDelay       time.Duration
	log             *logger.Logger
}

func NewFFmpegExecutor(cfg config.TranscodeConfig, log *logger.Logger) *FFmpegExecutor {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	e := &FFmpegExecutor{
		binary:          strings.TrimSpace(cfg.FFmpeg.BinaryPath),
		videoCodec:      strings.TrimSpace(cfg.FFmpeg.VideoCodec),
		audioCodec:      strings.TrimSpace(cfg.FFmpeg.AudioCodec),
		segmentDuration: cfg.SegmentDuration,
		killDelay:       cfg.FFmpeg.KillDelay,
		log:             log,
	}
	if e.binary == "" {
		e.binary = "ffmpeg"
	}
	if e.videoCodec == "" {
		e.videoCodec = "libx264"
	}
	if e.audioCodec == "" {
		e.audioCodec = "aac"
	}
	if e.segmentDuration <= 0 {
		e.segmentDuration = config.DefaultSegmentDuration
	}
	if e.killDelay <= 0 {
		e.killDelay = 5 * time.Second
	}
	return e
}

// BuildArgs 构建固定形态的 HLS 切片命令参数
func (e *FFmpegExecutor) BuildArgs(sourcePath, outputDir string) []string {
	return []string{
		"-i", sourcePath,
		"-c:v", e.videoCodec,
		"-c:a", e.audioCodec,
		"-strict", "-2",
		"-f", "hls",
		"-hls_time", strconv.Itoa(e.segmentDuration),
		"-hls_list_size", "0",
		"-hls_segment_filename", filepath.Join(outputDir, service.SegmentPattern),
		filepath.Join(outputDir, service.MasterPlaylistName),
		"-y",
	}
}

// Run blocks until ffmpeg exits. Both output streams are buffered in full so
// the child never stalls on a full pipe. On ctx expiry the child gets SIGTERM
// and, after killDelay, SIGKILL.
func (e *FFmpegExecutor) Run(ctx context.Context, sourcePath, outputDir string) (*port.EncodeResult, error) {
	args := e.BuildArgs(sourcePath, outputDir)
	cmd := exec.CommandContext(ctx, e.binary, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = e.killDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.log.Debugf("ffmpeg command command=%s", e.binary+" "+strings.Join(args, " "))
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, errno.NewBizError(errno.ErrEncodeSpawn, err)
	}
	waitErr := cmd.Wait()

	res := &port.EncodeResult{
		ExitCode: cmd.ProcessState.ExitCode(),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return res, errno.NewBizError(errno.ErrEncodeTimeout, ctxErr)
		}
		return res, ctxErr
	}
	if waitErr != nil {
		if res.ExitCode == 0 && errors.Is(waitErr, exec.ErrWaitDelay) {
			// 进程已正常退出，只是孙进程仍占用输出管道
			e.log.Warnf("ffmpeg exited but output pipes stayed open source=%s", sourcePath)
			return res, nil
		}
		e.log.Errorf("ffmpeg failed exit_code=%d tail_stderr=%s", res.ExitCode, lastLines(res.Stderr, 20))
		return res, &port.EncodeFailedError{ExitCode: res.ExitCode, Stderr: res.Stderr}
	}
	return res, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
