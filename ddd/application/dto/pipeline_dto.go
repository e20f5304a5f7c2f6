package dto

import (
	"time"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/repo"
)

const (
	OutcomePublished  = "published"
	OutcomeProcessing = "processing"
	OutcomeCompleted  = "completed"
)

// BatchDTO 批次进度
type BatchDTO struct {
	BatchID        string     `json:"batchId"`
	Kind           string     `json:"kind"`
	BatchNumber    int        `json:"batchNumber"`
	Items          []string   `json:"items"`
	TotalItems     int        `json:"totalItems"`
	CompletedItems int        `json:"completedItems"`
	FailedItems    int        `json:"failedItems"`
	Status         string     `json:"status"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	LaunchedAt     *time.Time `json:"launchedAt,omitempty"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

func NewBatchDTO(b *entity.Batch) *BatchDTO {
	if b == nil {
		return nil
	}
	return &BatchDTO{
		BatchID:        b.ID(),
		Kind:           b.Kind().String(),
		BatchNumber:    b.BatchNumber(),
		Items:          b.Items(),
		TotalItems:     b.TotalItems(),
		CompletedItems: b.CompletedItems(),
		FailedItems:    b.FailedItems(),
		Status:         b.Status().String(),
		ErrorMessage:   b.ErrorMessage(),
		CreatedAt:      b.CreatedAt(),
		LaunchedAt:     b.LaunchedAt(),
		CompletedAt:    b.CompletedAt(),
	}
}

func NewBatchDTOs(batches []*entity.Batch) []*BatchDTO {
	out := make([]*BatchDTO, 0, len(batches))
	for _, b := range batches {
		out = append(out, NewBatchDTO(b))
	}
	return out
}

// PipelineStartDTO 发布或生成字幕的同步结果
type PipelineStartDTO struct {
	CourseID     string      `json:"courseId"`
	Kind         string      `json:"kind"`
	Outcome      string      `json:"outcome"`
	CourseStatus string      `json:"courseStatus"`
	TotalItems   int         `json:"totalItems"`
	Batches      []*BatchDTO `json:"batches"`
}

// PipelineStatusDTO 课程流水线进度
type PipelineStatusDTO struct {
	CourseID       string      `json:"courseId"`
	Kind           string      `json:"kind"`
	CourseStatus   string      `json:"courseStatus"`
	TotalItems     int         `json:"totalItems"`
	CompletedItems int         `json:"completedItems"`
	FailedItems    int         `json:"failedItems"`
	Done           bool        `json:"done"`
	Batches        []*BatchDTO `json:"batches"`
}

func NewPipelineStatusDTO(course *entity.Course, kind string, batches []*entity.Batch) *PipelineStatusDTO {
	out := &PipelineStatusDTO{
		CourseID:     course.ID(),
		Kind:         kind,
		CourseStatus: course.Status().String(),
		Batches:      NewBatchDTOs(batches),
		Done:         true,
	}
	for _, b := range batches {
		out.TotalItems += b.TotalItems()
		out.CompletedItems += b.CompletedItems()
		out.FailedItems += b.FailedItems()
		if !b.IsSettled() {
			out.Done = false
		}
	}
	return out
}

// CallbackResultDTO 回调处理结果
type CallbackResultDTO struct {
	Counted        bool   `json:"counted"`
	Duplicate      bool   `json:"duplicate"`
	BatchStatus    string `json:"batchStatus"`
	CompletedItems int    `json:"completedItems"`
	FailedItems    int    `json:"failedItems"`
	TotalItems     int    `json:"totalItems"`
	// Advance 本次回调触发的推进动作
	Advance string `json:"advance,omitempty"`
}

func NewCallbackResultDTO(record *repo.OutcomeRecord, advance string) *CallbackResultDTO {
	out := &CallbackResultDTO{
		Counted:   record.Counted,
		Duplicate: record.Duplicate,
		Advance:   advance,
	}
	if b := record.Batch; b != nil {
		out.BatchStatus = b.Status().String()
		out.CompletedItems = b.CompletedItems()
		out.FailedItems = b.FailedItems()
		out.TotalItems = b.TotalItems()
	}
	return out
}

// CourseDTO 课程导入结果
type CourseDTO struct {
	CourseID       string `json:"courseId"`
	Status         string `json:"status"`
	Sections       int    `json:"sections"`
	VideoLectures  int    `json:"videoLectures"`
	PendingVideos  int    `json:"pendingVideos"`
	PendingCaption int    `json:"pendingCaptions"`
}
