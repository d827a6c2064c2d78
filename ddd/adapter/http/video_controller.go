package http

import (
	"github.com/gin-gonic/gin"

	"stream-service/ddd/application/app"
	"stream-service/ddd/application/cqe"
	"stream-service/pkg/errno"
	"stream-service/pkg/restapi"
)

// VideoController 视频上传与查询接口
type VideoController struct {
	videoApp app.VideoApp
}

func NewVideoController(videoApp app.VideoApp) *VideoController {
	return &VideoController{videoApp: videoApp}
}

// Upload POST /videos，multipart 字段 file、title、description
func (ctl *VideoController) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		restapi.Failed(c, errno.NewBizError(errno.ErrUploadValidation, err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		restapi.Failed(c, errno.NewBizError(errno.ErrUploadValidation, err))
		return
	}
	defer f.Close()

	video, err := ctl.videoApp.Upload(c.Request.Context(), &cqe.UploadVideoCmd{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Content:     f,
	})
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Created(c, video)
}

// List GET /videos
func (ctl *VideoController) List(c *gin.Context) {
	list, err := ctl.videoApp.ListVideos(c.Request.Context())
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, list)
}

// Get GET /videos/:id
func (ctl *VideoController) Get(c *gin.Context) {
	video, err := ctl.videoApp.GetVideo(c.Request.Context(), c.Param("id"))
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Success(c, video)
}

// Transcode POST /videos/:id/transcode
func (ctl *VideoController) Transcode(c *gin.Context) {
	var cmd cqe.RetranscodeCmd
	if err := c.ShouldBindUri(&cmd); err != nil {
		restapi.Failed(c, errno.NewBizError(errno.ErrInvalidParam, err))
		return
	}
	video, err := ctl.videoApp.Retranscode(c.Request.Context(), &cmd)
	if err != nil {
		restapi.Failed(c, err)
		return
	}
	restapi.Accepted(c, video)
}
