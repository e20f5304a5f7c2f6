package gateway

import "context"

// CallbackDeduper 回调去重快速通道, 数据库中的回调记录才是权威
type CallbackDeduper interface {
	// FirstSeen 首次见到(correlationID, itemKey)时返回true
	FirstSeen(ctx context.Context, correlationID, itemKey string) (bool, error)
	// Forget 回调处理失败时撤销标记, 允许重投
	Forget(ctx context.Context, correlationID, itemKey string) error
}
