package http

import (
	"github.com/gin-gonic/gin"

	"stream-service/ddd/infrastructure/worker"
	"stream-service/pkg/restapi"
)

// WorkerController 转码工作器状态接口
type WorkerController struct {
	worker worker.TranscodeWorker
}

// NewWorkerController 创建Worker控制器
func NewWorkerController(w worker.TranscodeWorker) *WorkerController {
	return &WorkerController{worker: w}
}

// GetStats GET /worker/stats
func (ctl *WorkerController) GetStats(c *gin.Context) {
	restapi.Success(c, gin.H{
		"running": ctl.worker.IsRunning(),
		"stats":   ctl.worker.GetStats(),
	})
}
