package cache

import (
	"context"
	"time"

	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/pkg/redisclient"
)

const dedupKeyPrefix = "media-pipeline:callback:"

// RedisCallbackDeduper 回调去重快速通道, 数据库outcome台账仍是最终依据
type RedisCallbackDeduper struct {
	client *redisclient.Client
	ttl    time.Duration
}

// NewRedisCallbackDeduper client为nil时返回nil, 调用方据此跳过快速通道
func NewRedisCallbackDeduper(client *redisclient.Client, ttl time.Duration) gateway.CallbackDeduper {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCallbackDeduper{client: client, ttl: ttl}
}

func (d *RedisCallbackDeduper) FirstSeen(ctx context.Context, correlationID, itemKey string) (bool, error) {
	return d.client.SetIfAbsent(ctx, DedupKey(correlationID, itemKey), d.ttl)
}

func (d *RedisCallbackDeduper) Forget(ctx context.Context, correlationID, itemKey string) error {
	return d.client.Delete(ctx, DedupKey(correlationID, itemKey))
}

// DedupKey media-pipeline:callback:{correlationId}:{itemKey}
func DedupKey(correlationID, itemKey string) string {
	return dedupKeyPrefix + correlationID + ":" + itemKey
}
