package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type putCall struct {
	bucket, key, contentType string
	body                     string
}

type fakePutter struct {
	calls  []putCall
	failOn string
}

func (f *fakePutter) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if key == f.failOn {
		return minio.UploadInfo{}, errors.New("access denied")
	}
	b, _ := io.ReadAll(r)
	f.calls = append(f.calls, putCall{bucket: bucket, key: key, contentType: opts.ContentType, body: string(b)})
	return minio.UploadInfo{Key: key}, nil
}

func writeSegmentDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "master.m3u8"), []byte("#EXTM3U\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "segment_000.ts"), []byte("ts0"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))
	return dir
}

func TestArchiveDirectoryUploadsFiles(t *testing.T) {
	putter := &fakePutter{}
	a := NewMinioSegmentArchiver(putter, "media")

	n, err := a.ArchiveDirectory(context.Background(), "v1", writeSegmentDir(t))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	byKey := map[string]putCall{}
	for _, c := range putter.calls {
		byKey[c.key] = c
	}
	assert.Equal(t, "application/vnd.apple.mpegurl", byKey["hls/v1/master.m3u8"].contentType)
	assert.Equal(t, "video/mp2t", byKey["hls/v1/segment_000.ts"].contentType)
	assert.Equal(t, "ts0", byKey["hls/v1/segment_000.ts"].body)
	assert.Equal(t, "media", byKey["hls/v1/segment_000.ts"].bucket)
}

func TestArchiveDirectoryStopsOnError(t *testing.T) {
	putter := &fakePutter{failOn: "hls/v1/master.m3u8"}
	a := NewMinioSegmentArchiver(putter, "media")
	_, err := a.ArchiveDirectory(context.Background(), "v1", writeSegmentDir(t))
	assert.ErrorContains(t, err, "access denied")

	_, err = a.ArchiveDirectory(context.Background(), "v1", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
