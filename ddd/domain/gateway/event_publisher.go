package gateway

import (
	"context"
	"time"

	"media-pipeline-service/ddd/domain/vo"
)

// EventType 流水线事件类型
type EventType string

const (
	EventPipelineStarted   EventType = "pipeline.started"
	EventBatchLaunched     EventType = "batch.launched"
	EventBatchLaunchFailed EventType = "batch.launch_failed"
	EventBatchCompleted    EventType = "batch.completed"
	EventPipelineFinished  EventType = "pipeline.finished"
	EventCoursePublished   EventType = "course.published"
	EventCourseReverted    EventType = "course.reverted"
)

// PipelineEvent 流水线进度事件
type PipelineEvent struct {
	Type         EventType       `json:"type"`
	CourseID     string          `json:"courseId"`
	Kind         vo.PipelineKind `json:"kind"`
	BatchID      string          `json:"batchId,omitempty"`
	BatchNumber  int             `json:"batchNumber,omitempty"`
	CourseStatus vo.CourseStatus `json:"courseStatus,omitempty"`
	Message      string          `json:"message,omitempty"`
	OccurredAt   time.Time       `json:"occurredAt"`
}

// EventPublisher 发布流水线事件, 发布失败只记录日志不影响编排
type EventPublisher interface {
	Publish(ctx context.Context, event *PipelineEvent) error
}
