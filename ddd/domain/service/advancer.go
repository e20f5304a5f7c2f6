package service

import (
	"context"
	"errors"
	"fmt"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/logger"
)

// AdvanceAction 推进结果
type AdvanceAction string

const (
	AdvanceNone         AdvanceAction = "none"
	AdvanceLaunched     AdvanceAction = "launched"
	AdvanceFinished     AdvanceAction = "finished"
	AdvanceLaunchFailed AdvanceAction = "launch_failed"
	AdvanceInFlight     AdvanceAction = "in_flight"
)

// Advancement 一次推进的结果
type Advancement struct {
	Action       AdvanceAction
	Next         *entity.Batch
	Finalization *Finalization
}

// PipelineAdvancer 批次结清后的状态转移: 派发下一批, 或执行流水线结束动作
type PipelineAdvancer interface {
	Advance(ctx context.Context, record *repo.OutcomeRecord) (*Advancement, error)
}

type pipelineAdvancerImpl struct {
	launcher    BatchLauncher
	definitions map[vo.PipelineKind]PipelineDefinition
	events      gateway.EventPublisher
}

func NewPipelineAdvancer(launcher BatchLauncher, definitions map[vo.PipelineKind]PipelineDefinition, events gateway.EventPublisher) PipelineAdvancer {
	return &pipelineAdvancerImpl{launcher: launcher, definitions: definitions, events: events}
}

func (a *pipelineAdvancerImpl) Advance(ctx context.Context, record *repo.OutcomeRecord) (*Advancement, error) {
	if record == nil || !record.JustCompleted || record.Batch == nil {
		return &Advancement{Action: AdvanceNone}, nil
	}
	done := record.Batch
	courseID, kind := done.CourseID(), done.Kind()

	next, err := a.launcher.LaunchNext(ctx, courseID, kind)
	switch {
	case err == nil:
		logger.Infof("Pipeline advanced course_id=%s kind=%s completed_batch=%d next_batch=%d",
			courseID, kind, done.BatchNumber(), next.BatchNumber())
		return &Advancement{Action: AdvanceLaunched, Next: next}, nil

	case errors.Is(err, repo.ErrNoMoreBatches):
		def, ok := a.definitions[kind]
		if !ok {
			return nil, fmt.Errorf("no pipeline registered for kind %q", kind)
		}
		fin, err := def.Finish(ctx, courseID)
		if err != nil {
			return nil, fmt.Errorf("finish %s pipeline: %w", kind, err)
		}
		logger.Info("Pipeline finished", map[string]interface{}{
			"course_id":     courseID,
			"kind":          kind.String(),
			"last_batch":    done.BatchNumber(),
			"course_status": fin.CourseStatus.String(),
			"transitioned":  fin.Transitioned,
		})
		publishEvent(ctx, a.events, &gateway.PipelineEvent{
			Type:         gateway.EventPipelineFinished,
			CourseID:     courseID,
			Kind:         kind,
			BatchID:      done.ID(),
			BatchNumber:  done.BatchNumber(),
			CourseStatus: fin.CourseStatus,
		})
		return &Advancement{Action: AdvanceFinished, Finalization: fin}, nil

	case errors.Is(err, repo.ErrBatchInFlight):
		logger.Warnf("Next batch already in flight course_id=%s kind=%s", courseID, kind)
		return &Advancement{Action: AdvanceInFlight}, nil

	default:
		// 批次留在pending, 等待重新发布
		var launchErr *LaunchError
		if errors.As(err, &launchErr) {
			return &Advancement{Action: AdvanceLaunchFailed}, err
		}
		return nil, err
	}
}
