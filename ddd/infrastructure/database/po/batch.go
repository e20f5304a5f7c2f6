package po

import (
	"time"

	"gorm.io/datatypes"
)

// PipelineBatch 批次持久化对象
type PipelineBatch struct {
	BaseModel
	BatchUUID      string                      `gorm:"column:batch_uuid;type:varchar(36);uniqueIndex" json:"batch_uuid"`
	CourseID       string                      `gorm:"column:course_id;type:varchar(64);index:idx_batch_course_kind" json:"course_id"`
	Kind           string                      `gorm:"column:kind;type:varchar(20);index:idx_batch_course_kind" json:"kind"` // transcode, caption
	BatchNumber    int                         `gorm:"column:batch_number" json:"batch_number"`
	Items          datatypes.JSONSlice[string] `gorm:"column:items" json:"items"`
	TotalItems     int                         `gorm:"column:total_items" json:"total_items"`
	CompletedItems int                         `gorm:"column:completed_items" json:"completed_items"`
	FailedItems    int                         `gorm:"column:failed_items" json:"failed_items"`
	Status         string                      `gorm:"column:status;type:varchar(20);index" json:"status"` // pending, processing, completed, failed
	ErrorMessage   string                      `gorm:"column:error_message;type:text" json:"error_message"`
	LaunchedAt     *time.Time                  `gorm:"column:launched_at" json:"launched_at"`
	CompletedAt    *time.Time                  `gorm:"column:completed_at" json:"completed_at"`
}

func (PipelineBatch) TableName() string {
	return "pipeline_batches"
}

// BatchItemOutcome 已计数的条目回调, (batch_uuid, item_key)唯一, 用于回调去重
type BatchItemOutcome struct {
	BaseModel
	BatchUUID    string `gorm:"column:batch_uuid;type:varchar(36);uniqueIndex:idx_outcome_batch_item" json:"batch_uuid"`
	ItemKey      string `gorm:"column:item_key;type:varchar(512);uniqueIndex:idx_outcome_batch_item" json:"item_key"`
	Outcome      string `gorm:"column:outcome;type:varchar(20)" json:"outcome"` // success, error
	ErrorMessage string `gorm:"column:error_message;type:text" json:"error_message"`
}

func (BatchItemOutcome) TableName() string {
	return "batch_item_outcomes"
}

// AllModels 需要迁移的全部表
func AllModels() []interface{} {
	return []interface{}{
		&Course{},
		&CourseSection{},
		&CourseLecture{},
		&MediaItem{},
		&PipelineBatch{},
		&BatchItemOutcome{},
	}
}
