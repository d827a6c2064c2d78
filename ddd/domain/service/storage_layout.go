package service

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"stream-service/pkg/config"
	"stream-service/pkg/errno"
)

const (
	MasterPlaylistName = "master.m3u8"
	SegmentPattern     = "segment_%03d.ts"
	segmentGlob        = "segment_*.ts"
	segmentExt         = ".ts"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// StorageLayout maps video ids onto the upload and HLS roots.
type StorageLayout struct {
	uploadRoot string
	hlsRoot    string
}

// NewStorageLayout 解析两个存储根目录为绝对路径
func NewStorageLayout(cfg config.StorageConfig) (*StorageLayout, error) {
	upload, err := filepath.Abs(cfg.UploadRoot)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrStorageInit, err)
	}
	hls, err := filepath.Abs(cfg.HLSRoot)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrStorageInit, err)
	}
	return &StorageLayout{uploadRoot: upload, hlsRoot: hls}, nil
}

func (l *StorageLayout) UploadRoot() string { return l.uploadRoot }
func (l *StorageLayout) HLSRoot() string    { return l.hlsRoot }

// ValidateID rejects ids that could escape a root when joined.
func ValidateID(id string) error {
	if !idPattern.MatchString(id) {
		return errno.Newf(errno.ErrUnsafePath, "invalid id %q", id)
	}
	return nil
}

// SanitizeFilename 校验上传文件名，拒绝空名、NUL、路径分隔符以及 . 和 ..
func SanitizeFilename(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", errno.Newf(errno.ErrUploadValidation, "filename is empty")
	case strings.ContainsRune(name, 0):
		return "", errno.Newf(errno.ErrUploadValidation, "filename contains NUL")
	case strings.ContainsAny(name, `/\`):
		return "", errno.Newf(errno.ErrUploadValidation, "filename %q contains a path separator", name)
	case name == "." || name == "..":
		return "", errno.Newf(errno.ErrUploadValidation, "filename %q is not a file name", name)
	}
	return name, nil
}

// RawPath returns {uploadRoot}/{videoID}_{filename}.
func (l *StorageLayout) RawPath(videoID, filename string) (string, error) {
	if err := ValidateID(videoID); err != nil {
		return "", err
	}
	clean, err := SanitizeFilename(filename)
	if err != nil {
		return "", err
	}
	return within(l.uploadRoot, videoID+"_"+clean)
}

// SegmentDir returns {hlsRoot}/{videoID}.
func (l *StorageLayout) SegmentDir(videoID string) (string, error) {
	if err := ValidateID(videoID); err != nil {
		return "", err
	}
	return within(l.hlsRoot, videoID)
}

// PlaylistPath returns {hlsRoot}/{videoID}/master.m3u8.
func (l *StorageLayout) PlaylistPath(videoID string) (string, error) {
	dir, err := l.SegmentDir(videoID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, MasterPlaylistName), nil
}

// SegmentPath returns {hlsRoot}/{videoID}/{segmentName}.ts. segmentName is the
// bare name without extension and is checked before any path is built.
func (l *StorageLayout) SegmentPath(videoID, segmentName string) (string, error) {
	if err := ValidateID(segmentName); err != nil {
		return "", err
	}
	dir, err := l.SegmentDir(videoID)
	if err != nil {
		return "", err
	}
	return within(dir, segmentName+segmentExt)
}

// EnsureDirectories 递归创建目录并确认可写，可重复调用
func (l *StorageLayout) EnsureDirectories(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return errno.NewBizError(errno.ErrStorageInit, err)
		}
		probe, err := os.CreateTemp(p, ".probe-*")
		if err != nil {
			return errno.NewBizError(errno.ErrStorageInit, fmt.Errorf("%s is not writable: %w", p, err))
		}
		name := probe.Name()
		_ = probe.Close()
		_ = os.Remove(name)
	}
	return nil
}

// ResetDirectory empties dir so a rerun never mixes in segments from an earlier attempt.
func (l *StorageLayout) ResetDirectory(dir string) error {
	rel, err := filepath.Rel(l.hlsRoot, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errno.Newf(errno.ErrUnsafePath, "refusing to reset %s", dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return errno.NewBizError(errno.ErrStorageInit, err)
	}
	return l.EnsureDirectories(dir)
}

// ValidateOutput 确认目录中存在 master.m3u8 和至少一个分片
func (l *StorageLayout) ValidateOutput(dir string) error {
	info, err := os.Stat(filepath.Join(dir, MasterPlaylistName))
	if err != nil || info.IsDir() || info.Size() == 0 {
		return errno.Newf(errno.ErrEncodeOutputInvalid, "%s missing in %s", MasterPlaylistName, dir)
	}
	segments, err := filepath.Glob(filepath.Join(dir, segmentGlob))
	if err != nil || len(segments) == 0 {
		return errno.Newf(errno.ErrEncodeOutputInvalid, "no segments in %s", dir)
	}
	return nil
}

func within(root, name string) (string, error) {
	p := filepath.Join(root, name)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errno.Newf(errno.ErrUnsafePath, "%q escapes %s", name, root)
	}
	return p, nil
}
