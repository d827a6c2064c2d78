package vo

// VideoState 视频处理状态
type VideoState string

const (
	// VideoStateUploaded 已上传，等待转码
	VideoStateUploaded VideoState = "uploaded"
	// VideoStateProcessing 转码中
	VideoStateProcessing VideoState = "processing"
	// VideoStateReady 切片完成，可播放 HLS
	VideoStateReady VideoState = "ready"
	// VideoStateFailed 转码失败，原始文件仍可播放
	VideoStateFailed VideoState = "failed"
)

// IsValid 检查状态是否有效
func (s VideoState) IsValid() bool {
	switch s {
	case VideoStateUploaded, VideoStateProcessing, VideoStateReady, VideoStateFailed:
		return true
	default:
		return false
	}
}

// String 返回状态字符串
func (s VideoState) String() string {
	return string(s)
}

// IsFinalStatus 检查是否为一次转码的终态
func (s VideoState) IsFinalStatus() bool {
	return s == VideoStateReady || s == VideoStateFailed
}

// CanStartTranscode reports whether a transcode may be scheduled from s.
// Processing is accepted so a job interrupted by a restart can be picked up
// again; the per-video guard still rejects it while a live job holds it.
func (s VideoState) CanStartTranscode() bool {
	return s == VideoStateUploaded || s == VideoStateFailed || s == VideoStateProcessing
}

// CanTransitionTo 检查是否可以转换到目标状态
func (s VideoState) CanTransitionTo(target VideoState) bool {
	switch s {
	case VideoStateUploaded, VideoStateFailed:
		return target == VideoStateProcessing
	case VideoStateProcessing:
		return target == VideoStateProcessing || target == VideoStateReady || target == VideoStateFailed
	case VideoStateReady:
		return false // 原始文件已删除，不能再次转码
	default:
		return false
	}
}
