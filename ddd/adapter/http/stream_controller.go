package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stream-service/ddd/domain/service"
	"stream-service/pkg/errno"
	"stream-service/pkg/metrics"
	"stream-service/pkg/restapi"
)

const (
	modeWhole    = "whole"
	modeRange    = "range"
	modePlaylist = "playlist"
	modeSegment  = "segment"
)

// StreamController 播放接口：整段、分段、HLS 播放列表与切片
type StreamController struct {
	streams *service.StreamService
}

func NewStreamController(streams *service.StreamService) *StreamController {
	return &StreamController{streams: streams}
}

// Whole GET /videos/stream/:id
func (ctl *StreamController) Whole(c *gin.Context) {
	file, err := ctl.streams.StreamWhole(c.Request.Context(), c.Param("id"))
	if err != nil {
		ctl.fail(c, modeWhole, err)
		return
	}
	ctl.serveFile(c, modeWhole, file)
}

// Range GET /videos/stream/range/:id
func (ctl *StreamController) Range(c *gin.Context) {
	file, result, err := ctl.streams.StreamRange(c.Request.Context(), c.Param("id"), c.GetHeader("Range"))
	if err != nil {
		if file != nil && restapi.HTTPStatus(err) == http.StatusRequestedRangeNotSatisfiable {
			c.Header("Content-Range", "bytes */"+strconv.FormatInt(file.Size, 10))
		}
		ctl.fail(c, modeRange, err)
		return
	}
	if result == nil {
		ctl.serveFile(c, modeRange, file)
		return
	}

	h := c.Writer.Header()
	h.Set("Content-Range", result.Range.ContentRange())
	h.Set("Content-Length", strconv.Itoa(len(result.Data)))
	h.Set("Accept-Ranges", "bytes")
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusPartialContent, file.ContentType, result.Data)

	metrics.StreamResponsesTotal.WithLabelValues(modeRange, strconv.Itoa(http.StatusPartialContent)).Inc()
	metrics.StreamBytesTotal.WithLabelValues(modeRange).Add(float64(len(result.Data)))
}

// Artifact GET /videos/:id/:file，分发 master.m3u8 与 *.ts
func (ctl *StreamController) Artifact(c *gin.Context) {
	videoID := c.Param("id")
	name := c.Param("file")

	switch {
	case name == service.MasterPlaylistName:
		file, err := ctl.streams.Playlist(c.Request.Context(), videoID)
		if err != nil {
			ctl.fail(c, modePlaylist, err)
			return
		}
		ctl.serveFile(c, modePlaylist, file)
	case strings.HasSuffix(name, ".ts"):
		file, err := ctl.streams.Segment(c.Request.Context(), videoID, strings.TrimSuffix(name, ".ts"))
		if err != nil {
			ctl.fail(c, modeSegment, err)
			return
		}
		ctl.serveFile(c, modeSegment, file)
	default:
		ctl.fail(c, modeSegment, errno.Newf(errno.ErrFileNotFound, "unknown artifact %q", name))
	}
}

func (ctl *StreamController) serveFile(c *gin.Context, mode string, file *service.MediaFile) {
	f, err := file.Open()
	if err != nil {
		ctl.fail(c, mode, err)
		return
	}
	defer f.Close()

	c.Header("Accept-Ranges", "bytes")
	c.Header("Last-Modified", file.ModTime.UTC().Format(http.TimeFormat))
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, f, nil)

	metrics.StreamResponsesTotal.WithLabelValues(mode, strconv.Itoa(http.StatusOK)).Inc()
	metrics.StreamBytesTotal.WithLabelValues(mode).Add(float64(file.Size))
}

func (ctl *StreamController) fail(c *gin.Context, mode string, err error) {
	status := restapi.HTTPStatus(err)
	metrics.StreamResponsesTotal.WithLabelValues(mode, strconv.Itoa(status)).Inc()
	restapi.Failed(c, err)
}
