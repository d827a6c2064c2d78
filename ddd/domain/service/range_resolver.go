package service

import (
	"fmt"
	"strconv"
	"strings"

	"stream-service/pkg/config"
	"stream-service/pkg/errno"
)

const rangeUnitPrefix = "bytes="

// ByteRange is an inclusive window [Start, End] of a resource of length Total.
type ByteRange struct {
	Start int64
	End   int64
	Total int64
}

// Length 窗口字节数
func (r ByteRange) Length() int64 { return r.End - r.Start + 1 }

// ContentRange 返回 Content-Range 头的值
func (r ByteRange) ContentRange() string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, r.Total)
}

// RangeResolver computes fixed-size serving windows from a Range header.
// Only the start offset is honoured; the window always extends to chunkSize
// bytes or the end of the file, whichever comes first.
type RangeResolver struct {
	chunkSize int64
}

func NewRangeResolver(chunkSize int64) *RangeResolver {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	return &RangeResolver{chunkSize: chunkSize}
}

func (r *RangeResolver) ChunkSize() int64 { return r.chunkSize }

// Resolve 解析 "bytes=<start>-" 并计算窗口，非法输入返回 ErrRangeParse
func (r *RangeResolver) Resolve(header string, total int64) (ByteRange, error) {
	value := strings.TrimSpace(header)
	if !strings.HasPrefix(strings.ToLower(value), rangeUnitPrefix) {
		return ByteRange{}, errno.Newf(errno.ErrRangeParse, "unsupported range unit in %q", header)
	}
	value = strings.TrimSpace(value[len(rangeUnitPrefix):])
	if value == "" {
		return ByteRange{}, errno.Newf(errno.ErrRangeParse, "empty range")
	}
	if strings.Contains(value, ",") {
		return ByteRange{}, errno.Newf(errno.ErrRangeParse, "multiple ranges are not supported")
	}

	startText := value
	if i := strings.IndexByte(value, '-'); i >= 0 {
		startText = strings.TrimSpace(value[:i])
	}
	if startText == "" {
		return ByteRange{}, errno.Newf(errno.ErrRangeParse, "suffix ranges are not supported")
	}
	start, err := strconv.ParseInt(startText, 10, 64)
	if err != nil || start < 0 {
		return ByteRange{}, errno.Newf(errno.ErrRangeParse, "invalid start %q", startText)
	}
	if total <= 0 || start > total-1 {
		return ByteRange{}, errno.Newf(errno.ErrRangeParse, "start %d outside resource of length %d", start, total)
	}

	end := start + r.chunkSize - 1
	if end > total-1 {
		end = total - 1
	}
	return ByteRange{Start: start, End: end, Total: total}, nil
}
