package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"stream-service/ddd/adapter/component"
	httpadapter "stream-service/ddd/adapter/http"
	videoapp "stream-service/ddd/application/app"
	"stream-service/ddd/domain/gateway"
	"stream-service/ddd/domain/port"
	"stream-service/ddd/domain/service"
	"stream-service/ddd/infrastructure/database/persistence"
	"stream-service/ddd/infrastructure/event"
	"stream-service/ddd/infrastructure/executor"
	"stream-service/ddd/infrastructure/lock"
	"stream-service/ddd/infrastructure/queue"
	"stream-service/ddd/infrastructure/storage"
	"stream-service/ddd/infrastructure/worker"
	"stream-service/internal/resource"
	"stream-service/pkg/config"
	"stream-service/pkg/logger"
	"stream-service/pkg/observability"
	"stream-service/pkg/task"
)

const serviceName = "stream-service"

func Run() {
	fmt.Println("[STARTUP] Starting stream service...")

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	defer logService.Close()
	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
	})
	logger.Infof("Stream service starting config=%s", cfgPath)

	if profiler := observability.StartProfiling(serviceName, cfg.Profiling); profiler != nil {
		defer func() { _ = profiler.Stop() }()
	}

	// 存储目录不可用时直接退出
	layout, err := service.NewStorageLayout(cfg.Storage)
	if err != nil {
		logger.Fatal("Invalid storage config error=%v", err)
	}
	if err := layout.EnsureDirectories(layout.UploadRoot(), layout.HLSRoot()); err != nil {
		logger.Fatal("Storage directories unavailable error=%v", err)
	}

	if _, err := exec.LookPath(cfg.Transcode.FFmpeg.BinaryPath); err != nil {
		logger.Warnf("FFmpeg binary not found, transcodes will fail until installed binary=%s error=%v",
			cfg.Transcode.FFmpeg.BinaryPath, err)
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := resource.Open(rootCtx, cfg)
	if err != nil {
		logger.Fatal("Failed to open resources error=%v", err)
	}
	defer res.Close()

	videoRepo, err := persistence.NewVideoRepository(rootCtx, res.DB)
	if err != nil {
		logger.Fatal("Failed to migrate database error=%v", err)
	}

	publisher := buildPublisher(cfg, res, logService)
	opts := []service.ControllerOption{
		service.WithTimeout(cfg.Transcode.FFmpeg.Timeout),
		service.WithEventPublisher(publisher),
	}
	if res.Minio != nil {
		opts = append(opts, service.WithArchiver(storage.NewMinioSegmentArchiver(res.Minio.Client(), res.Minio.BucketName())))
	}

	controller := service.NewTranscodeController(videoRepo, layout,
		executor.NewFFmpegExecutor(cfg.Transcode, logService),
		buildJobLock(cfg, res), logService, opts...)

	transcodeWorker := worker.NewTranscodeWorker(worker.Options{
		ID:            cfg.Worker.WorkerID,
		WorkerCount:   cfg.Worker.MaxConcurrentTasks,
		ResumePending: cfg.Worker.ResumePending,
		ShutdownGrace: cfg.Worker.ShutdownGracePeriod,
	}, queue.NewMemoryTranscodeJobQueue(cfg.Worker.QueueCapacity), controller, videoRepo, logService)

	videoApp := videoapp.NewVideoApp(videoRepo, layout, transcodeWorker, publisher, cfg.Server.MaxUploadBytes, logService)
	streams := service.NewStreamService(videoRepo, layout, service.NewRangeResolver(cfg.Stream.ChunkSize))

	tasks := task.NewManager()
	tasks.Register(&task.FuncTask{
		TaskName:  "transcodeWorker",
		StartFunc: transcodeWorker.Start,
		StopFunc:  transcodeWorker.Stop,
	})
	if res.Kafka != nil {
		reader := res.Kafka.Reader(cfg.Kafka.Topics.TranscodeRequests, cfg.Kafka.GroupID)
		tasks.Register(component.NewTranscodeRequestConsumer(videoApp, reader, cfg.Kafka.Topics.TranscodeRequests, logService))
	}
	if err := tasks.StartAll(context.Background()); err != nil {
		logger.Fatal("Failed to start background tasks error=%v", err)
	}

	gin.SetMode(cfg.Server.Mode)
	engine := gin.New()
	engine.MaxMultipartMemory = 32 << 20
	router := httpadapter.NewRouter(videoApp, streams, transcodeWorker, cfg.Metrics, logService)
	router.SetupMiddleware(engine)
	router.SetupRoutes(engine)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start HTTP server error=%v", err)
		}
	}()
	logger.Infof("HTTP server started addr=%s health_url=http://%s/health", server.Addr, server.Addr)

	<-rootCtx.Done()
	logger.Infof("Received shutdown signal, shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}

	// 运行中的转码收到终止信号，记录保持 processing，下次启动时续跑
	tasks.StopAll()
	logger.Infof("Server exited safely")
}

func buildPublisher(cfg *config.Config, res *resource.Resources, log *logger.Logger) gateway.VideoEventPublisher {
	if res.Kafka != nil {
		return event.NewKafkaEventPublisher(res.Kafka, cfg.Kafka.Topics.VideoEvents)
	}
	return event.NewLogEventPublisher(log)
}

func buildJobLock(cfg *config.Config, res *resource.Resources) port.JobLock {
	if res.Redis != nil {
		hostname, _ := os.Hostname()
		return lock.NewRedisJobLock(res.Redis, cfg.Lock, hostname+"/"+cfg.Worker.WorkerID)
	}
	return lock.NewMemoryJobLock()
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
