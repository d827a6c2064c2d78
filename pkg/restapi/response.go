package restapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stream-service/pkg/errno"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 返回 200
func Success(c *gin.Context, data interface{}) {
	respond(c, http.StatusOK, data)
}

// Created 返回 201
func Created(c *gin.Context, data interface{}) {
	respond(c, http.StatusCreated, data)
}

// Accepted 返回 202
func Accepted(c *gin.Context, data interface{}) {
	respond(c, http.StatusAccepted, data)
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Success: true,
		Data:    data,
	})
}

// Failed 根据错误码返回失败响应
func Failed(c *gin.Context, err error) {
	en := errno.FromError(err)
	status := HTTPStatus(err)
	msg := en.Message
	if err != nil && status < http.StatusInternalServerError {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, Response{
		Code:    en.Code,
		Message: msg,
		Success: false,
	})
}

// HTTPStatus maps an error chain to the HTTP status it should produce.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, errno.ErrRangeParse):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, errno.ErrUploadValidation),
		errors.Is(err, errno.ErrUnsafePath),
		errors.Is(err, errno.ErrInvalidParam):
		return http.StatusBadRequest
	case errors.Is(err, errno.ErrVideoNotFound),
		errors.Is(err, errno.ErrFileNotFound),
		errors.Is(err, errno.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errno.ErrJobAlreadyRunning),
		errors.Is(err, errno.ErrInvalidVideoState):
		return http.StatusConflict
	case errors.Is(err, errno.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
