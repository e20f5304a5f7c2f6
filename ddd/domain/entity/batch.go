package entity

import (
	"time"

	"github.com/google/uuid"

	"media-pipeline-service/ddd/domain/vo"
)

// Batch 一次派发给计算服务的媒体条目集合, id即回调的correlation id
type Batch struct {
	id             string
	courseID       string
	kind           vo.PipelineKind
	batchNumber    int // 从1开始
	items          []string
	totalItems     int
	completedItems int
	failedItems    int
	status         vo.BatchStatus
	errorMessage   string
	createdAt      time.Time
	updatedAt      time.Time
	launchedAt     *time.Time
	completedAt    *time.Time
}

// NewBatch 创建待派发批次
func NewBatch(courseID string, kind vo.PipelineKind, batchNumber int, items []string, now time.Time) *Batch {
	return &Batch{
		id:          uuid.New().String(),
		courseID:    courseID,
		kind:        kind,
		batchNumber: batchNumber,
		items:       append([]string(nil), items...),
		totalItems:  len(items),
		status:      vo.BatchStatusPending,
		createdAt:   now,
		updatedAt:   now,
	}
}

// NewBatchWithDetails 从持久化数据重建批次
func NewBatchWithDetails(
	id string,
	courseID string,
	kind vo.PipelineKind,
	batchNumber int,
	items []string,
	totalItems int,
	completedItems int,
	failedItems int,
	status vo.BatchStatus,
	errorMessage string,
	createdAt time.Time,
	updatedAt time.Time,
	launchedAt *time.Time,
	completedAt *time.Time,
) *Batch {
	return &Batch{
		id:             id,
		courseID:       courseID,
		kind:           kind,
		batchNumber:    batchNumber,
		items:          append([]string(nil), items...),
		totalItems:     totalItems,
		completedItems: completedItems,
		failedItems:    failedItems,
		status:         status,
		errorMessage:   errorMessage,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
		launchedAt:     copyTime(launchedAt),
		completedAt:    copyTime(completedAt),
	}
}

// Getters
func (b *Batch) ID() string              { return b.id }
func (b *Batch) CourseID() string        { return b.courseID }
func (b *Batch) Kind() vo.PipelineKind   { return b.kind }
func (b *Batch) BatchNumber() int        { return b.batchNumber }
func (b *Batch) Items() []string         { return append([]string(nil), b.items...) }
func (b *Batch) TotalItems() int         { return b.totalItems }
func (b *Batch) CompletedItems() int     { return b.completedItems }
func (b *Batch) FailedItems() int        { return b.failedItems }
func (b *Batch) Status() vo.BatchStatus  { return b.status }
func (b *Batch) ErrorMessage() string    { return b.errorMessage }
func (b *Batch) CreatedAt() time.Time    { return b.createdAt }
func (b *Batch) UpdatedAt() time.Time    { return b.updatedAt }
func (b *Batch) LaunchedAt() *time.Time  { return copyTime(b.launchedAt) }
func (b *Batch) CompletedAt() *time.Time { return copyTime(b.completedAt) }

// IsSettled 所有条目都已计数
func (b *Batch) IsSettled() bool {
	return b.completedItems+b.failedItems >= b.totalItems
}

// Contains 条目是否属于本批次
func (b *Batch) Contains(itemKey string) bool {
	for _, k := range b.items {
		if k == itemKey {
			return true
		}
	}
	return false
}

// Claim pending -> processing
func (b *Batch) Claim(now time.Time) error {
	if b.status != vo.BatchStatusPending {
		return NewDomainError("cannot claim batch in status: " + b.status.String())
	}
	b.status = vo.BatchStatusProcessing
	b.updatedAt = now
	return nil
}

// MarkLaunched 计算服务已受理
func (b *Batch) MarkLaunched(now time.Time) error {
	if b.status != vo.BatchStatusProcessing {
		return NewDomainError("cannot mark launched batch in status: " + b.status.String())
	}
	b.launchedAt = &now
	b.errorMessage = ""
	b.updatedAt = now
	return nil
}

// Release 派发失败, 释放占用回到pending
func (b *Batch) Release(message string, now time.Time) error {
	if b.status != vo.BatchStatusProcessing {
		return NewDomainError("cannot release batch in status: " + b.status.String())
	}
	b.status = vo.BatchStatusPending
	b.errorMessage = message
	b.launchedAt = nil
	b.updatedAt = now
	return nil
}

// Abandon 运维放弃一个派发失败的批次
func (b *Batch) Abandon(message string, now time.Time) error {
	if b.status != vo.BatchStatusPending {
		return NewDomainError("cannot abandon batch in status: " + b.status.String())
	}
	b.status = vo.BatchStatusFailed
	if message != "" {
		b.errorMessage = message
	}
	b.updatedAt = now
	return nil
}

// RecordOutcome 计数一次条目回调, 只有使批次结清的那一次返回justCompleted=true
func (b *Batch) RecordOutcome(outcome vo.ItemOutcome, now time.Time) (bool, error) {
	if b.status != vo.BatchStatusProcessing {
		return false, ErrBatchNotProcessing
	}
	if b.IsSettled() {
		return false, ErrBatchSettled
	}
	if outcome == vo.ItemOutcomeSuccess {
		b.completedItems++
	} else {
		b.failedItems++
	}
	b.updatedAt = now
	if !b.IsSettled() {
		return false, nil
	}
	b.status = vo.BatchStatusCompleted
	b.completedAt = &now
	return true, nil
}

func (b *Batch) Clone() *Batch {
	if b == nil {
		return nil
	}
	return NewBatchWithDetails(b.id, b.courseID, b.kind, b.batchNumber, b.items, b.totalItems,
		b.completedItems, b.failedItems, b.status, b.errorMessage, b.createdAt, b.updatedAt,
		b.launchedAt, b.completedAt)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
