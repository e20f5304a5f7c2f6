package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"media-pipeline-service/ddd/application/cqe"
	"media-pipeline-service/ddd/application/dto"
	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/service"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/errno"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/metrics"
)

var (
	singletonPublishApp PublishApp
	oncePublishApp      sync.Once
)

// PublishApp 发布与字幕流水线的入口
type PublishApp interface {
	// Publish 校验课程, 无待转码视频时直接发布, 否则启动转码流水线
	Publish(ctx context.Context, cmd *cqe.PublishCourseCmd) (*dto.PipelineStartDTO, error)
	// GenerateCaptions 为缺字幕的视频启动字幕流水线, 不改变课程状态
	GenerateCaptions(ctx context.Context, cmd *cqe.GenerateCaptionsCmd) (*dto.PipelineStartDTO, error)
	// GetPipelineStatus 课程状态与批次进度
	GetPipelineStatus(ctx context.Context, q *cqe.PipelineStatusQuery) (*dto.PipelineStatusDTO, error)
	// AbandonBatch 运维把派发失败的pending批次标记为failed
	AbandonBatch(ctx context.Context, cmd *cqe.AbandonBatchCmd) (*dto.BatchDTO, error)
	// ImportCourse 同步课程快照
	ImportCourse(ctx context.Context, cmd *cqe.ImportCourseCmd) (*dto.CourseDTO, error)
}

type publishAppImpl struct {
	courses      repo.CourseRepository
	batches      repo.BatchRepository
	orchestrator service.Orchestrator
	events       gateway.EventPublisher
	metrics      *metrics.Collector
}

func DefaultPublishApp() PublishApp {
	assert.NotCircular()
	oncePublishApp.Do(func() {
		singletonPublishApp = NewPublishApp(DefaultPipeline())
	})
	assert.NotNil(singletonPublishApp)
	return singletonPublishApp
}

func NewPublishApp(p *Pipeline) PublishApp {
	return &publishAppImpl{
		courses:      p.Repos.Courses,
		batches:      p.Repos.Batches,
		orchestrator: p.Orchestrator,
		events:       p.Events,
		metrics:      p.Metrics,
	}
}

func (a *publishAppImpl) Publish(ctx context.Context, cmd *cqe.PublishCourseCmd) (*dto.PipelineStartDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	course, err := a.loadValidCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}
	kind := vo.PipelineKindTranscode
	keys, err := a.orchestrator.Collect(course, kind)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrInternalServer, err)
	}
	logger.Infof("Publish requested course_id=%s status=%s pending_videos=%d requested_by=%s",
		course.ID(), course.Status(), len(keys), cmd.RequestedBy)

	if len(keys) == 0 {
		// 没有待处理视频, 清理旧批次后直接发布
		if _, err := a.orchestrator.Run(ctx, course.ID(), kind, nil); err != nil {
			return nil, errno.NewBizError(errno.ErrDatabase, err)
		}
		if err := a.transition(ctx, course, vo.CourseStatusPublished); err != nil {
			return nil, err
		}
		a.metrics.CoursePublished()
		a.publish(ctx, &gateway.PipelineEvent{
			Type:         gateway.EventCoursePublished,
			CourseID:     course.ID(),
			Kind:         kind,
			CourseStatus: vo.CourseStatusPublished,
			Message:      "no media needed processing",
		})
		return &dto.PipelineStartDTO{
			CourseID:     course.ID(),
			Kind:         kind.String(),
			Outcome:      dto.OutcomePublished,
			CourseStatus: vo.CourseStatusPublished.String(),
			Batches:      []*dto.BatchDTO{},
		}, nil
	}

	// 先进入processing再派发, 回调到达时课程一定已处于processing
	if err := a.transition(ctx, course, vo.CourseStatusProcessing); err != nil {
		return nil, err
	}
	if _, err := a.orchestrator.Run(ctx, course.ID(), kind, keys); err != nil {
		return nil, a.runError(course.ID(), kind, err)
	}
	return a.startResult(ctx, course.ID(), kind, dto.OutcomeProcessing, len(keys))
}

func (a *publishAppImpl) GenerateCaptions(ctx context.Context, cmd *cqe.GenerateCaptionsCmd) (*dto.PipelineStartDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	course, err := a.loadValidCourse(ctx, cmd.CourseID)
	if err != nil {
		return nil, err
	}
	kind := vo.PipelineKindCaption
	keys, err := a.orchestrator.Collect(course, kind)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrInternalServer, err)
	}
	logger.Infof("Caption generation requested course_id=%s pending_items=%d requested_by=%s",
		course.ID(), len(keys), cmd.RequestedBy)

	if _, err := a.orchestrator.Run(ctx, course.ID(), kind, keys); err != nil {
		return nil, a.runError(course.ID(), kind, err)
	}
	outcome := dto.OutcomeProcessing
	if len(keys) == 0 {
		outcome = dto.OutcomeCompleted
	}
	return a.startResult(ctx, course.ID(), kind, outcome, len(keys))
}

func (a *publishAppImpl) GetPipelineStatus(ctx context.Context, q *cqe.PipelineStatusQuery) (*dto.PipelineStatusDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	course, err := a.loadCourse(ctx, q.CourseID)
	if err != nil {
		return nil, err
	}
	batches, err := a.batches.ListByCourse(ctx, course.ID(), q.PipelineKind())
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return dto.NewPipelineStatusDTO(course, q.PipelineKind().String(), batches), nil
}

func (a *publishAppImpl) AbandonBatch(ctx context.Context, cmd *cqe.AbandonBatchCmd) (*dto.BatchDTO, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	batch, err := a.batches.Abandon(ctx, cmd.BatchID, cmd.Reason, time.Now())
	if err != nil {
		var domainErr *entity.DomainError
		switch {
		case errors.Is(err, repo.ErrBatchNotFound):
			return nil, errno.NewBizError(errno.ErrBatchNotFound, err)
		case errors.As(err, &domainErr):
			return nil, errno.NewBizError(errno.ErrBatchNotAbandonable, err)
		}
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	logger.Warnf("Batch abandoned batch_id=%s course_id=%s kind=%s reason=%s",
		batch.ID(), batch.CourseID(), batch.Kind(), cmd.Reason)
	return dto.NewBatchDTO(batch), nil
}

func (a *publishAppImpl) loadCourse(ctx context.Context, courseID string) (*entity.Course, error) {
	course, err := a.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repo.ErrCourseNotFound) {
			return nil, errno.NewBizError(errno.ErrCourseNotFound, err)
		}
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return course, nil
}

// loadValidCourse 校验不通过时一次返回全部问题
func (a *publishAppImpl) loadValidCourse(ctx context.Context, courseID string) (*entity.Course, error) {
	course, err := a.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if reasons := service.ValidateForPublish(course); len(reasons) > 0 {
		logger.Info("Course failed publish validation", map[string]interface{}{
			"course_id": courseID,
			"errors":    reasons,
		})
		return nil, errno.NewBizError(errno.ErrCourseInvalid, nil).
			WithDetail(map[string]interface{}{"errors": reasons})
	}
	return course, nil
}

func (a *publishAppImpl) transition(ctx context.Context, course *entity.Course, to vo.CourseStatus) error {
	from := course.Status()
	if !from.CanTransitionTo(to) {
		return errno.NewBizError(errno.ErrCourseStatusChanged, fmt.Errorf("cannot move course from %s to %s", from, to))
	}
	ok, err := a.courses.CompareAndSetStatus(ctx, course.ID(), from, to)
	if err != nil {
		return errno.NewBizError(errno.ErrDatabase, err)
	}
	if !ok {
		return errno.NewBizError(errno.ErrCourseStatusChanged, fmt.Errorf("course %s is no longer %s", course.ID(), from))
	}
	return nil
}

func (a *publishAppImpl) runError(courseID string, kind vo.PipelineKind, err error) error {
	var launchErr *service.LaunchError
	switch {
	case errors.As(err, &launchErr):
		logger.Error("Pipeline launch failed", map[string]interface{}{
			"course_id":    courseID,
			"kind":         kind.String(),
			"batch_id":     launchErr.BatchID,
			"batch_number": launchErr.BatchNumber,
			"error":        launchErr.Err.Error(),
		})
		return errno.NewBizError(errno.ErrComputeLaunchFailed, err).WithDetail(map[string]interface{}{
			"batchId":     launchErr.BatchID,
			"batchNumber": launchErr.BatchNumber,
		})
	case errors.Is(err, repo.ErrBatchInFlight):
		return errno.NewBizError(errno.ErrBatchInFlight, err)
	}
	return errno.NewBizError(errno.ErrInternalServer, err)
}

func (a *publishAppImpl) startResult(ctx context.Context, courseID string, kind vo.PipelineKind, outcome string, total int) (*dto.PipelineStartDTO, error) {
	course, err := a.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	batches, err := a.batches.ListByCourse(ctx, courseID, kind)
	if err != nil {
		return nil, errno.NewBizError(errno.ErrDatabase, err)
	}
	return &dto.PipelineStartDTO{
		CourseID:     courseID,
		Kind:         kind.String(),
		Outcome:      outcome,
		CourseStatus: course.Status().String(),
		TotalItems:   total,
		Batches:      dto.NewBatchDTOs(batches),
	}, nil
}

func (a *publishAppImpl) publish(ctx context.Context, event *gateway.PipelineEvent) {
	if a.events == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := a.events.Publish(ctx, event); err != nil {
		logger.Warnf("Publish pipeline event failed type=%s course_id=%s error=%v", event.Type, event.CourseID, err)
	}
}
