package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/metrics"
)

// LaunchOptions 派发时与类型相关的参数
type LaunchOptions struct {
	OutputPrefix    string
	SourceLanguage  string
	TargetLanguages []string
}

// Finalization 流水线结束动作的结果
type Finalization struct {
	CourseStatus vo.CourseStatus
	Transitioned bool
	Reasons      []string
}

// PipelineDefinition 一种流水线: 收集条目, 应用条目结果, 结束动作
type PipelineDefinition interface {
	Kind() vo.PipelineKind
	Collect(course *entity.Course) []string
	LaunchOptions(course *entity.Course) LaunchOptions
	Apply(ctx context.Context, courseID string, item *entity.MediaItem, cb *ItemCallback) error
	Finish(ctx context.Context, courseID string) (*Finalization, error)
}

// PipelineDeps 流水线定义共用的依赖
type PipelineDeps struct {
	Courses  repo.CourseRepository
	Batches  repo.BatchRepository
	Storage  gateway.StorageGateway
	Events   gateway.EventPublisher
	Metrics  *metrics.Collector
	Settings PipelineSettings
}

// NewDefinitions 注册转码与字幕两种流水线
func NewDefinitions(deps PipelineDeps) map[vo.PipelineKind]PipelineDefinition {
	return map[vo.PipelineKind]PipelineDefinition{
		vo.PipelineKindTranscode: &transcodePipeline{deps: deps},
		vo.PipelineKindCaption:   &captionPipeline{deps: deps},
	}
}

type transcodePipeline struct {
	deps PipelineDeps
}

func (p *transcodePipeline) Kind() vo.PipelineKind { return vo.PipelineKindTranscode }

func (p *transcodePipeline) Collect(course *entity.Course) []string {
	return CollectTranscodeItems(course)
}

func (p *transcodePipeline) LaunchOptions(course *entity.Course) LaunchOptions {
	return LaunchOptions{OutputPrefix: path.Join(p.deps.Settings.TranscodePrefix, course.ID())}
}

func (p *transcodePipeline) Apply(ctx context.Context, courseID string, item *entity.MediaItem, cb *ItemCallback) error {
	url := strings.TrimSpace(cb.PlayableURL)
	if url == "" && cb.StorageKey != "" && p.deps.Storage != nil {
		url = p.deps.Storage.PublicURL(cb.StorageKey)
	}
	if url == "" {
		return errors.New("transcode result has no playable url")
	}
	return p.deps.Courses.SetPlayableURL(ctx, courseID, item.Key(), url)
}

// Finish 再次校验并按失败策略决定published或draft, 状态比较并交换保证只发生一次
func (p *transcodePipeline) Finish(ctx context.Context, courseID string) (*Finalization, error) {
	course, err := p.deps.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.Status() != vo.CourseStatusProcessing {
		return &Finalization{CourseStatus: course.Status()}, nil
	}

	reasons := ValidateForPublish(course)
	batches, err := p.deps.Batches.ListByCourse(ctx, courseID, vo.PipelineKindTranscode)
	if err != nil {
		return nil, err
	}
	failed := 0
	for _, b := range batches {
		failed += b.FailedItems()
	}
	if !p.deps.Settings.FailurePolicy.Allows(failed) {
		reasons = append(reasons, fmt.Sprintf("%d media items failed to transcode", failed))
	}

	target := vo.CourseStatusPublished
	if len(reasons) > 0 {
		target = vo.CourseStatusDraft
	}
	ok, err := p.deps.Courses.CompareAndSetStatus(ctx, courseID, vo.CourseStatusProcessing, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// 另一个回调已经完成了状态流转
		current, err := p.deps.Courses.FindByID(ctx, courseID)
		if err != nil {
			return nil, err
		}
		return &Finalization{CourseStatus: current.Status()}, nil
	}

	event := &gateway.PipelineEvent{Type: gateway.EventCoursePublished, CourseID: courseID, Kind: vo.PipelineKindTranscode, CourseStatus: target}
	if target == vo.CourseStatusPublished {
		p.deps.Metrics.CoursePublished()
		logger.Infof("Course published course_id=%s failed_items=%d", courseID, failed)
	} else {
		event.Type = gateway.EventCourseReverted
		event.Message = strings.Join(reasons, "; ")
		p.deps.Metrics.CourseReverted()
		logger.Warn("Course reverted to draft", map[string]interface{}{
			"course_id": courseID,
			"reasons":   reasons,
		})
	}
	publishEvent(ctx, p.deps.Events, event)
	return &Finalization{CourseStatus: target, Transitioned: true, Reasons: reasons}, nil
}

type captionPipeline struct {
	deps PipelineDeps
}

func (p *captionPipeline) Kind() vo.PipelineKind { return vo.PipelineKindCaption }

func (p *captionPipeline) Collect(course *entity.Course) []string {
	return CollectCaptionItems(course)
}

func (p *captionPipeline) LaunchOptions(course *entity.Course) LaunchOptions {
	return LaunchOptions{
		OutputPrefix:    path.Join(p.deps.Settings.CaptionPrefix, course.ID()),
		SourceLanguage:  vo.NormalizeLanguage(course.DefaultLanguage()),
		TargetLanguages: append([]string(nil), p.deps.Settings.CaptionLanguages...),
	}
}

func (p *captionPipeline) Apply(ctx context.Context, courseID string, item *entity.MediaItem, cb *ItemCallback) error {
	if len(cb.Captions) == 0 {
		return errors.New("caption result has no languages")
	}
	captions := make([]vo.Caption, 0, len(cb.Captions))
	for _, c := range cb.Captions {
		if c.PublicURL == "" && c.StorageKey != "" && p.deps.Storage != nil {
			c.PublicURL = p.deps.Storage.PublicURL(c.StorageKey)
		}
		captions = append(captions, c)
	}
	added, err := p.deps.Courses.MergeCaptions(ctx, courseID, item.Key(), captions)
	if err != nil {
		return err
	}
	if len(added) < len(captions) {
		logger.Debug("Existing caption languages kept", map[string]interface{}{
			"course_id": courseID,
			"item_key":  item.Key(),
			"added":     added,
			"received":  len(captions),
		})
	}
	return nil
}

// Finish 字幕流水线没有课程状态流转
func (p *captionPipeline) Finish(ctx context.Context, courseID string) (*Finalization, error) {
	course, err := p.deps.Courses.FindByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &Finalization{CourseStatus: course.Status()}, nil
}

func publishEvent(ctx context.Context, pub gateway.EventPublisher, event *gateway.PipelineEvent) {
	if pub == nil || event == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = timeNow()
	}
	if err := pub.Publish(ctx, event); err != nil {
		logger.Warnf("Publish pipeline event failed type=%s course_id=%s error=%v", event.Type, event.CourseID, err)
	}
}
