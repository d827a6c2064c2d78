package vo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVideoStateTransitions(t *testing.T) {
	cases := []struct {
		from, to VideoState
		ok       bool
	}{
		{VideoStateUploaded, VideoStateProcessing, true},
		{VideoStateUploaded, VideoStateReady, false},
		{VideoStateProcessing, VideoStateReady, true},
		{VideoStateProcessing, VideoStateFailed, true},
		{VideoStateFailed, VideoStateProcessing, true},
		{VideoStateFailed, VideoStateReady, false},
		{VideoStateReady, VideoStateProcessing, false},
		{VideoState("bogus"), VideoStateProcessing, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestVideoStateCanStartTranscode(t *testing.T) {
	assert.True(t, VideoStateUploaded.CanStartTranscode())
	assert.True(t, VideoStateFailed.CanStartTranscode())
	assert.True(t, VideoStateProcessing.CanStartTranscode())
	assert.False(t, VideoStateReady.CanStartTranscode())
	assert.True(t, VideoStateReady.IsFinalStatus())
	assert.False(t, VideoState("x").IsValid())
}

func TestContentTypeHelpers(t *testing.T) {
	assert.Equal(t, ContentTypeOctetStream, ContentTypeOrDefault("  "))
	assert.Equal(t, "video/mp4", ContentTypeOrDefault("video/mp4"))
	assert.Equal(t, ContentTypeHLSPlaylist, DetectHLSContentType("/a/master.M3U8"))
	assert.Equal(t, ContentTypeMPEGTS, DetectHLSContentType("segment_001.ts"))
	assert.Equal(t, ContentTypeOctetStream, DetectHLSContentType("notes.txt"))
}
