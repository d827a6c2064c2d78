package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stream-service/ddd/domain/port"
	"stream-service/pkg/config"
	"stream-service/pkg/errno"
	"stream-service/pkg/logger"
)

// writeScript installs a shell stand-in for ffmpeg.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts required")
	}
	path := filepath.Join(t.TempDir(), "fake-ffmpeg.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func newExecutor(binary string, timeout time.Duration) *FFmpegExecutor {
	cfg := config.TranscodeConfig{
		FFmpeg: config.FFmpegConfig{BinaryPath: binary, Timeout: timeout, KillDelay: 200 * time.Millisecond},
	}
	return NewFFmpegExecutor(cfg, logger.NewWithWriter(&bytes.Buffer{}, logrus.DebugLevel))
}

func TestBuildArgsShape(t *testing.T) {
	e := newExecutor("ffmpeg", 0)
	args := e.BuildArgs("/up/v1_clip.mp4", "/hls/v1")
	assert.Equal(t, []string{
		"-i", "/up/v1_clip.mp4",
		"-c:v", "libx264",
		"-c:a", "aac",
		"-strict", "-2",
		"-f", "hls",
		"-hls_time", "10",
		"-hls_list_size", "0",
		"-hls_segment_filename", "/hls/v1/segment_%03d.ts",
		"/hls/v1/master.m3u8",
		"-y",
	}, args)
}

func TestRunSuccessCapturesStreams(t *testing.T) {
	// the playlist path is the second to last argument
	script := writeScript(t, `
for a in "$@"; do prev2="$prev"; prev="$a"; done
echo "#EXTM3U" > "$prev2"
echo "encoding done"
echo "frame=1" 1>&2
`)
	out := t.TempDir()
	res, err := newExecutor(script, 0).Run(context.Background(), "/src.mp4", out)
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Contains(t, res.Stdout, "encoding done")
	assert.Contains(t, res.Stderr, "frame=1")
	assert.FileExists(t, filepath.Join(out, "master.m3u8"))
}

func TestRunNonZeroExit(t *testing.T) {
	script := writeScript(t, "echo 'Invalid data found' 1>&2\nexit 3\n")
	res, err := newExecutor(script, 0).Run(context.Background(), "/src.mp4", t.TempDir())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errno.ErrEncodeFailed))
	var failed *port.EncodeFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 3, failed.ExitCode)
	assert.Contains(t, failed.Stderr, "Invalid data found")
	assert.Equal(t, 3, res.ExitCode)
}

func TestRunSpawnError(t *testing.T) {
	_, err := newExecutor(filepath.Join(t.TempDir(), "does-not-exist"), 0).Run(context.Background(), "/src.mp4", t.TempDir())
	assert.True(t, errors.Is(err, errno.ErrEncodeSpawn))
}

func TestRunTimeoutTerminatesChild(t *testing.T) {
	script := writeScript(t, "exec sleep 30\n")
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newExecutor(script, 0).Run(ctx, "/src.mp4", t.TempDir())
	assert.True(t, errors.Is(err, errno.ErrEncodeTimeout))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRunCancelled(t *testing.T) {
	script := writeScript(t, "exec sleep 30\n")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := newExecutor(script, 0).Run(ctx, "/src.mp4", t.TempDir())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, errno.ErrEncodeTimeout))
}

func TestLastLines(t *testing.T) {
	in := strings.Repeat("line\n", 30) + "last\n"
	got := lastLines(in, 3)
	assert.Equal(t, "line\nline\nlast", got)
}
