package entity

import "errors"

// DomainError 领域规则错误
type DomainError struct {
	message string
}

func NewDomainError(message string) *DomainError {
	return &DomainError{message: message}
}

func (e *DomainError) Error() string {
	return e.message
}

var (
	// ErrBatchNotProcessing 批次不在processing状态, 回调不计数
	ErrBatchNotProcessing = errors.New("batch is not processing")
	// ErrBatchSettled 批次计数已满
	ErrBatchSettled = errors.New("batch counters already settled")
)
