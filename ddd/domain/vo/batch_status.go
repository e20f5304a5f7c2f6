package vo

import "fmt"

// BatchStatus 批次状态
type BatchStatus string

const (
	// BatchStatusPending 等待派发
	BatchStatusPending BatchStatus = "pending"
	// BatchStatusProcessing 已派发, 等待回调
	BatchStatusProcessing BatchStatus = "processing"
	// BatchStatusCompleted 所有条目均已回调
	BatchStatusCompleted BatchStatus = "completed"
	// BatchStatusFailed 派发被拒绝且已被运维放弃, 编排器自身不会写入
	BatchStatusFailed BatchStatus = "failed"
)

// NewBatchStatusFromString 解析批次状态
func NewBatchStatusFromString(s string) (BatchStatus, error) {
	status := BatchStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid batch status: %q", s)
	}
	return status, nil
}

// IsValid 检查状态是否有效
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusProcessing, BatchStatusCompleted, BatchStatusFailed:
		return true
	default:
		return false
	}
}

func (s BatchStatus) String() string {
	return string(s)
}

// IsFinalStatus 检查是否为最终状态
func (s BatchStatus) IsFinalStatus() bool {
	return s == BatchStatusCompleted || s == BatchStatusFailed
}

// CanTransitionTo 检查是否可以转换到目标状态
func (s BatchStatus) CanTransitionTo(target BatchStatus) bool {
	switch s {
	case BatchStatusPending:
		return target == BatchStatusProcessing || target == BatchStatusFailed
	case BatchStatusProcessing:
		// processing -> pending 为派发失败时释放占用
		return target == BatchStatusCompleted || target == BatchStatusPending
	default:
		return false
	}
}
