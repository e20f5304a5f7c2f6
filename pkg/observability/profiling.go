package observability

import (
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"

	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
)

// StartProfiling 启动pyroscope持续剖析, 未开启时返回空的stop函数
func StartProfiling(appName string, cfg config.ProfilingConfig) func() {
	if !cfg.Enabled || cfg.ServerAddress == "" {
		return func() {}
	}

	runtime.SetMutexProfileFraction(5)
	runtime.SetBlockProfileRate(5)

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
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	})
	if err != nil {
		logger.Warnf("Failed to start profiling error=%v", err)
		return func() {}
	}
	logger.Infof("Profiling started app=%s server=%s", appName, cfg.ServerAddress)
	return func() {
		if err := profiler.Stop(); err != nil {
			logger.Warnf("Failed to stop profiling error=%v", err)
		}
	}
}
