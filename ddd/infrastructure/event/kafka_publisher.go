package event

import (
	"context"
	"encoding/json"
	"fmt"

	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/pkg/logger"
)

// Producer kafka写入能力, pkg/kafka.Client实现
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Message 写入course.pipeline.events的JSON结构
type Message struct {
	Type         string `json:"type"`
	CourseID     string `json:"courseId"`
	Kind         string `json:"kind,omitempty"`
	BatchID      string `json:"batchId,omitempty"`
	BatchNumber  int    `json:"batchNumber,omitempty"`
	CourseStatus string `json:"courseStatus,omitempty"`
	Message      string `json:"message,omitempty"`
	OccurredAt   string `json:"occurredAt"`
}

// KafkaEventPublisher 以courseId为key写入事件, 同一课程的事件保持顺序
type KafkaEventPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaEventPublisher(producer Producer, topic string) gateway.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, event *gateway.PipelineEvent) error {
	payload, err := json.Marshal(ToMessage(event))
	if err != nil {
		return fmt.Errorf("encode pipeline event: %w", err)
	}
	if err := p.producer.Produce(ctx, p.topic, []byte(event.CourseID), payload); err != nil {
		return fmt.Errorf("produce pipeline event to %s: %w", p.topic, err)
	}
	return nil
}

// ToMessage 领域事件转换为消息结构
func ToMessage(event *gateway.PipelineEvent) *Message {
	msg := &Message{
		Type:        string(event.Type),
		CourseID:    event.CourseID,
		Kind:        event.Kind.String(),
		BatchID:     event.BatchID,
		BatchNumber: event.BatchNumber,
		Message:     event.Message,
		OccurredAt:  event.OccurredAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
	if event.CourseStatus != "" {
		msg.CourseStatus = event.CourseStatus.String()
	}
	return msg
}

// LogEventPublisher kafka未启用时只写日志
type LogEventPublisher struct{}

func NewLogEventPublisher() gateway.EventPublisher {
	return &LogEventPublisher{}
}

func (p *LogEventPublisher) Publish(_ context.Context, event *gateway.PipelineEvent) error {
	msg := ToMessage(event)
	logger.Info("pipeline event", map[string]interface{}{
		"type":          msg.Type,
		"course_id":     msg.CourseID,
		"kind":          msg.Kind,
		"batch_id":      msg.BatchID,
		"batch_number":  msg.BatchNumber,
		"course_status": msg.CourseStatus,
		"message":       msg.Message,
	})
	return nil
}
