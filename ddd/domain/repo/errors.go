package repo

import "errors"

var (
	ErrCourseNotFound    = errors.New("course not found")
	ErrMediaItemNotFound = errors.New("media item not found")
	ErrBatchNotFound     = errors.New("batch not found")
	// ErrNoMoreBatches 没有待派发批次, 流水线正常结束的信号
	ErrNoMoreBatches = errors.New("no more pending batches")
	// ErrBatchInFlight 同一课程同一类型已有批次在processing
	ErrBatchInFlight = errors.New("another batch is already processing")
)
