package cqe

import (
	"io"
	"strings"

	"stream-service/pkg/errno"
)

// UploadVideoCmd 上传视频命令
type UploadVideoCmd struct {
	Title       string
	Description string
	Filename    string
	ContentType string
	Content     io.Reader
}

func (c *UploadVideoCmd) Validate() error {
	if c.Content == nil {
		return errno.Newf(errno.ErrUploadValidation, "file is required")
	}
	if strings.TrimSpace(c.Filename) == "" {
		return errno.Newf(errno.ErrUploadValidation, "filename is required")
	}
	return nil
}

// RetranscodeCmd 手动重新触发转码
type RetranscodeCmd struct {
	VideoID string `json:"video_id" uri:"id"`
}

func (c *RetranscodeCmd) Validate() error {
	if strings.TrimSpace(c.VideoID) == "" {
		return errno.Newf(errno.ErrInvalidParam, "video_id is required")
	}
	return nil
}
