package cqe

import (
	"strings"

	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/errno"
)

// PublishCourseCmd 发布课程
type PublishCourseCmd struct {
	CourseID    string `uri:"course_id" json:"courseId"`
	RequestedBy string `json:"requestedBy"`
}

func (c *PublishCourseCmd) Validate() error {
	c.CourseID = strings.TrimSpace(c.CourseID)
	if c.CourseID == "" {
		return errno.ErrCourseIDRequired
	}
	return nil
}

// GenerateCaptionsCmd 为课程视频生成字幕
type GenerateCaptionsCmd struct {
	CourseID    string `uri:"course_id" json:"courseId"`
	RequestedBy string `json:"requestedBy"`
}

func (c *GenerateCaptionsCmd) Validate() error {
	c.CourseID = strings.TrimSpace(c.CourseID)
	if c.CourseID == "" {
		return errno.ErrCourseIDRequired
	}
	return nil
}

// PipelineStatusQuery 查询课程某条流水线的批次进度
type PipelineStatusQuery struct {
	CourseID string `uri:"course_id"`
	Kind     string `uri:"kind"`

	kind vo.PipelineKind
}

func (q *PipelineStatusQuery) Validate() error {
	q.CourseID = strings.TrimSpace(q.CourseID)
	if q.CourseID == "" {
		return errno.ErrCourseIDRequired
	}
	kind, err := vo.ParsePipelineKind(q.Kind)
	if err != nil {
		return errno.NewBizError(errno.ErrPipelineKindInvalid, err)
	}
	q.kind = kind
	return nil
}

// PipelineKind Validate之后可用
func (q *PipelineStatusQuery) PipelineKind() vo.PipelineKind { return q.kind }

// AbandonBatchCmd 运维放弃一个无法派发的批次
type AbandonBatchCmd struct {
	BatchID string `uri:"batch_id" json:"batchId"`
	Reason  string `json:"reason"`
}

func (c *AbandonBatchCmd) Validate() error {
	c.BatchID = strings.TrimSpace(c.BatchID)
	if c.BatchID == "" {
		return errno.ErrCorrelationIDRequired
	}
	if strings.TrimSpace(c.Reason) == "" {
		c.Reason = "abandoned by operator"
	}
	return nil
}
