package resource

import (
	"sync"

	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/manager"
	"media-pipeline-service/pkg/redisclient"
)

var (
	redisResourceOnce sync.Once
	redisSingleton    *RedisResource
)

// RedisResource 回调去重快速通道使用的Redis连接
type RedisResource struct {
	client *redisclient.Client
}

func DefaultRedisResource() *RedisResource {
	assert.NotCircular()
	redisResourceOnce.Do(func() {
		redisSingleton = &RedisResource{}
	})
	assert.NotNil(redisSingleton)
	return redisSingleton
}

// MustOpen redis.enabled为false时跳过
func (r *RedisResource) MustOpen() {
	if r.client != nil {
		return
	}
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized")
	}
	if !cfg.Redis.Enabled {
		logger.Info("Redis disabled, callback dedup relies on the database ledger")
		return
	}

	client, err := redisclient.New(cfg.Redis)
	if err != nil {
		panic("failed to connect redis: " + err.Error())
	}
	r.client = client
	logger.Infof("Redis connected addr=%s db=%d", cfg.Redis.GetRedisAddr(), cfg.Redis.DB)
}

func (r *RedisResource) Close() {
	if r.client != nil {
		_ = r.client.Close()
		r.client = nil
	}
}

// Client 未启用时返回nil
func (r *RedisResource) Client() *redisclient.Client {
	return r.client
}

type RedisResourcePlugin struct{}

func (p *RedisResourcePlugin) Name() string {
	return "redis"
}

func (p *RedisResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultRedisResource()
}
