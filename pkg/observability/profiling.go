package observability

import (
	"os"

	"github.com/grafana/pyroscope-go"

	"stream-service/pkg/config"
	"stream-service/pkg/logger"
)

// StartProfiling 启动持续性能分析，未启用时返回 nil
func StartProfiling(appName string, cfg config.ProfilingConfig) *pyroscope.Profiler {
	if !cfg.Enabled || cfg.ServerAddress == "" {
		return nil
	}
	hostname, _ := os.Hostname()
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   cfg.ServerAddress,
		Tags:            map[string]string{"hostname": hostname},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		logger.Warnf("pyroscope profiler not started server=%s error=%v", cfg.ServerAddress, err)
		return nil
	}
	logger.Infof("pyroscope profiler started app=%s server=%s", appName, cfg.ServerAddress)
	return profiler
}
