package service

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"stream-service/ddd/domain/repo"
	"stream-service/ddd/domain/vo"
	"stream-service/pkg/errno"
)

// MediaFile 可直接返回给客户端的文件
type MediaFile struct {
	Path        string
	ContentType string
	Size        int64
	ModTime     time.Time
}

// Open 打开文件用于整段输出
func (m *MediaFile) Open() (*os.File, error) {
	f, err := os.Open(m.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errno.NewBizError(errno.ErrFileNotFound, err)
		}
		return nil, errno.NewBizError(errno.ErrStreamRead, err)
	}
	return f, nil
}

// RangeResult is a fully read partial response. Data is complete before any
// header is written so a failed read never leaves a short body behind.
type RangeResult struct {
	File  *MediaFile
	Range ByteRange
	Data  []byte
}

// StreamService 读路径：整段、分段、播放列表和切片
type StreamService struct {
	repo     repo.VideoRepository
	layout   *StorageLayout
	resolver *RangeResolver
}

func NewStreamService(videoRepo repo.VideoRepository, layout *StorageLayout, resolver *RangeResolver) *StreamService {
	return &StreamService{repo: videoRepo, layout: layout, resolver: resolver}
}

// StreamWhole 返回记录当前可播放的完整文件
func (s *StreamService) StreamWhole(ctx context.Context, videoID string) (*MediaFile, error) {
	if err := ValidateID(videoID); err != nil {
		return nil, err
	}
	video, err := s.repo.FindByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	return artifactOf(video.StoragePath(), video.ContentType())
}

// StreamRange serves one chunk of the current artifact. An empty header
// yields a nil RangeResult and the whole file.
func (s *StreamService) StreamRange(ctx context.Context, videoID, rangeHeader string) (*MediaFile, *RangeResult, error) {
	file, err := s.StreamWhole(ctx, videoID)
	if err != nil {
		return nil, nil, err
	}
	if rangeHeader == "" {
		return file, nil, nil
	}
	br, err := s.resolver.Resolve(rangeHeader, file.Size)
	if err != nil {
		return file, nil, err
	}
	data, err := readWindow(file.Path, br)
	if err != nil {
		return file, nil, err
	}
	return file, &RangeResult{File: file, Range: br, Data: data}, nil
}

// Playlist 返回 {hlsRoot}/{videoID}/master.m3u8
func (s *StreamService) Playlist(_ context.Context, videoID string) (*MediaFile, error) {
	p, err := s.layout.PlaylistPath(videoID)
	if err != nil {
		return nil, err
	}
	return regularFile(p, vo.ContentTypeHLSPlaylist)
}

// Segment 返回 {hlsRoot}/{videoID}/{segmentName}.ts
func (s *StreamService) Segment(_ context.Context, videoID, segmentName string) (*MediaFile, error) {
	p, err := s.layout.SegmentPath(videoID, segmentName)
	if err != nil {
		return nil, err
	}
	return regularFile(p, vo.ContentTypeMPEGTS)
}

// artifactOf resolves a storage pointer: a raw file is served as is, a
// segment directory is served through its master playlist.
func artifactOf(storagePath, contentType string) (*MediaFile, error) {
	info, err := os.Stat(storagePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errno.NewBizError(errno.ErrFileNotFound, err)
		}
		return nil, errno.NewBizError(errno.ErrStreamRead, err)
	}
	if info.IsDir() {
		return regularFile(filepath.Join(storagePath, MasterPlaylistName), vo.ContentTypeHLSPlaylist)
	}
	return &MediaFile{
		Path:        storagePath,
		ContentType: vo.ContentTypeOrDefault(contentType),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

func regularFile(path, contentType string) (*MediaFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errno.NewBizError(errno.ErrFileNotFound, err)
		}
		return nil, errno.NewBizError(errno.ErrStreamRead, err)
	}
	if !info.Mode().IsRegular() {
		return nil, errno.Newf(errno.ErrFileNotFound, "%s is not a regular file", path)
	}
	return &MediaFile{Path: path, ContentType: contentType, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func readWindow(path string, br ByteRange) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errno.NewBizError(errno.ErrFileNotFound, err)
		}
		return nil, errno.NewBizError(errno.ErrStreamRead, err)
	}
	defer f.Close()

	buf := make([]byte, br.Length())
	if _, err := io.ReadFull(io.NewSectionReader(f, br.Start, br.Length()), buf); err != nil {
		return nil, errno.NewBizError(errno.ErrStreamRead, err)
	}
	return buf, nil
}
