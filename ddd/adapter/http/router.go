package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stream-service/ddd/application/app"
	"stream-service/ddd/domain/service"
	"stream-service/ddd/infrastructure/worker"
	"stream-service/pkg/config"
	"stream-service/pkg/logger"
	"stream-service/pkg/middleware"
)

// Router 路由配置
type Router struct {
	videoApp app.VideoApp
	streams  *service.StreamService
	worker   worker.TranscodeWorker
	metrics  config.MetricsConfig
	log      *logger.Logger
}

// NewRouter 创建路由配置
func NewRouter(videoApp app.VideoApp, streams *service.StreamService, w worker.TranscodeWorker, metricsCfg config.MetricsConfig, log *logger.Logger) *Router {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Router{
		videoApp: videoApp,
		streams:  streams,
		worker:   w,
		metrics:  metricsCfg,
		log:      log,
	}
}

// SetupRoutes 设置路由
func (r *Router) SetupRoutes(engine *gin.Engine) {
	videoController := NewVideoController(r.videoApp)
	streamController := NewStreamController(r.streams)

	v1 := engine.Group("/api/v1")
	{
		videos := v1.Group("/videos")
		{
			videos.POST("", videoController.Upload) // 上传
			videos.GET("", videoController.List)    // 列表

			videos.GET("/stream/:id", streamController.Whole)       // 整段播放
			videos.GET("/stream/range/:id", streamController.Range) // 分段播放

			videos.GET("/:id", videoController.Get)                 // 记录与转码状态
			videos.POST("/:id/transcode", videoController.Transcode) // 重新转码
			videos.GET("/:id/:file", streamController.Artifact)     // master.m3u8 与切片
		}

		if r.worker != nil {
			workerController := NewWorkerController(r.worker)
			v1.GET("/worker/stats", workerController.GetStats)
		}
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "stream-service",
		})
	})

	if r.metrics.Enabled {
		engine.GET(r.metrics.Path, gin.WrapH(promhttp.Handler()))
	}
}

// SetupMiddleware 设置中间件
func (r *Router) SetupMiddleware(engine *gin.Engine) {
	engine.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Range")
		c.Header("Access-Control-Expose-Headers", "Content-Range, Content-Length, Accept-Ranges")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	engine.Use(middleware.RequestContextMiddleware())
	engine.Use(middleware.AccessLogMiddleware(r.log))
	engine.Use(gin.Recovery())
}
