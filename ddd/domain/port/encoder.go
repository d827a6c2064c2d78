package port

import (
	"context"
	"fmt"
	"time"

	"stream-service/pkg/errno"
)

// EncodeResult captures one encoder process run.
type EncodeResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Encoder turns a source file into an HLS playlist plus segments inside outputDir.
// Implementations must not modify sourcePath. A non-zero exit is reported as
// *EncodeFailedError, a process that cannot start as errno.ErrEncodeSpawn and an
// expired deadline as errno.ErrEncodeTimeout.
type Encoder interface {
	Run(ctx context.Context, sourcePath, outputDir string) (*EncodeResult, error)
}

// EncodeFailedError 编码进程以非零码退出
type EncodeFailedError struct {
	ExitCode int
	Stderr   string
}

func (e *EncodeFailedError) Error() string {
	return fmt.Sprintf("encoder exited with code %d", e.ExitCode)
}

// Is lets errors.Is(err, errno.ErrEncodeFailed) match.
func (e *EncodeFailedError) Is(target error) bool {
	return target == errno.ErrEncodeFailed
}
