package repo

import (
	"context"
	"time"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/vo"
)

// OutcomeInput 一次条目回调的计数请求
type OutcomeInput struct {
	BatchID      string
	ItemKey      string
	Outcome      vo.ItemOutcome
	ErrorMessage string
	At           time.Time
}

// OutcomeRecord 计数结果, Batch为计数后的批次快照
type OutcomeRecord struct {
	Batch *entity.Batch
	// Counted 本次回调改变了计数
	Counted bool
	// Duplicate 该条目此前已计数
	Duplicate bool
	// JustCompleted 本次回调使批次结清, 每个批次只会有一次
	JustCompleted bool
}

// BatchRepository 批次仓储
type BatchRepository interface {
	// ReplaceAll 删除(course, kind)下已有批次及其回调记录, 再写入新批次
	ReplaceAll(ctx context.Context, courseID string, kind vo.PipelineKind, batches []*entity.Batch) error
	FindByID(ctx context.Context, batchID string) (*entity.Batch, error)
	// ListByCourse 按batchNumber升序
	ListByCourse(ctx context.Context, courseID string, kind vo.PipelineKind) ([]*entity.Batch, error)

	// ClaimNextPending 原子地把编号最小的pending批次置为processing.
	// 已有processing批次时返回ErrBatchInFlight, 没有pending批次时返回ErrNoMoreBatches
	ClaimNextPending(ctx context.Context, courseID string, kind vo.PipelineKind, now time.Time) (*entity.Batch, error)
	MarkLaunched(ctx context.Context, batchID string, now time.Time) (*entity.Batch, error)
	// Release processing -> pending, 记录失败原因
	Release(ctx context.Context, batchID, message string, now time.Time) (*entity.Batch, error)
	// Abandon pending -> failed, 仅供运维使用
	Abandon(ctx context.Context, batchID, message string, now time.Time) (*entity.Batch, error)

	// OutcomeExists 条目回调是否已计数
	OutcomeExists(ctx context.Context, batchID, itemKey string) (bool, error)
	// RecordItemOutcome 在同一原子区域内写入回调记录并更新计数
	RecordItemOutcome(ctx context.Context, in OutcomeInput) (*OutcomeRecord, error)
}
