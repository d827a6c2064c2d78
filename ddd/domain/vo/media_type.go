package vo

import (
	"path/filepath"
	"strings"
)

const (
	ContentTypeOctetStream = "application/octet-stream"
	ContentTypeHLSPlaylist = "application/vnd.apple.mpegurl"
	ContentTypeMPEGTS      = "video/mp2t"
)

// ContentTypeOrDefault 缺省时回退为 application/octet-stream
func ContentTypeOrDefault(ct string) string {
	ct = strings.TrimSpace(ct)
	if ct == "" {
		return ContentTypeOctetStream
	}
	return ct
}

// DetectHLSContentType maps HLS artifact extensions to their MIME type.
func DetectHLSContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u8":
		return ContentTypeHLSPlaylist
	case ".ts":
		return ContentTypeMPEGTS
	case ".mp4":
		return "video/mp4"
	default:
		return ContentTypeOctetStream
	}
}
