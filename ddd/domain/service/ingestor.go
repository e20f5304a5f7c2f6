package service

import (
	"context"
	"errors"

	"media-pipeline-service/ddd/domain/gateway"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/metrics"
)

const mediaItemNotFoundMessage = "media item not found"

// IngestResult 单条回调的处理结果
type IngestResult struct {
	Record      *repo.OutcomeRecord
	Advancement *Advancement
}

// WebhookIngestor 条目回调处理
type WebhookIngestor interface {
	Ingest(ctx context.Context, cb *ItemCallback) (*IngestResult, error)
}

type webhookIngestorImpl struct {
	courses     repo.CourseRepository
	batches     repo.BatchRepository
	deduper     gateway.CallbackDeduper
	events      gateway.EventPublisher
	metrics     *metrics.Collector
	definitions map[vo.PipelineKind]PipelineDefinition
	advancer    PipelineAdvancer
}

// IngestorDeps 回调处理依赖, Deduper可为nil
type IngestorDeps struct {
	PipelineDeps
	Deduper     gateway.CallbackDeduper
	Definitions map[vo.PipelineKind]PipelineDefinition
	Advancer    PipelineAdvancer
}

func NewWebhookIngestor(deps IngestorDeps) WebhookIngestor {
	return &webhookIngestorImpl{
		courses:     deps.Courses,
		batches:     deps.Batches,
		deduper:     deps.Deduper,
		events:      deps.Events,
		metrics:     deps.Metrics,
		definitions: deps.Definitions,
		advancer:    deps.Advancer,
	}
}

// alreadyCounted 已计数的条目不再写回结果, 查询失败时交给RecordItemOutcome判定
func (s *webhookIngestorImpl) alreadyCounted(ctx context.Context, batchID, itemKey string) bool {
	seen, err := s.batches.OutcomeExists(ctx, batchID, itemKey)
	if err != nil {
		logger.Warnf("Outcome lookup failed batch_id=%s item_key=%s error=%v", batchID, itemKey, err)
		return false
	}
	return seen
}

// Ingest 未知correlation id返回repo.ErrBatchNotFound, 类型不符返回ErrKindMismatch, 两者都不修改任何状态
func (s *webhookIngestorImpl) Ingest(ctx context.Context, cb *ItemCallback) (*IngestResult, error) {
	batch, err := s.batches.FindByID(ctx, cb.CorrelationID)
	if err != nil {
		return nil, err
	}
	if batch.Kind() != cb.Kind {
		return nil, ErrKindMismatch
	}
	def, ok := s.definitions[batch.Kind()]
	if !ok {
		return nil, ErrKindMismatch
	}
	kind := batch.Kind().String()

	if !batch.Contains(cb.ItemKey) {
		logger.Warnf("Callback item not in batch batch_id=%s item_key=%s", batch.ID(), cb.ItemKey)
		return &IngestResult{Record: &repo.OutcomeRecord{Batch: batch}, Advancement: &Advancement{Action: AdvanceNone}}, nil
	}

	if s.deduper != nil {
		first, err := s.deduper.FirstSeen(ctx, cb.CorrelationID, cb.ItemKey)
		if err != nil {
			logger.Warnf("Callback dedup check failed, falling back to ledger batch_id=%s error=%v", batch.ID(), err)
		} else if !first {
			s.metrics.DuplicateSuppressed(kind)
			logger.Debugf("Duplicate callback suppressed batch_id=%s item_key=%s", batch.ID(), cb.ItemKey)
			return &IngestResult{
				Record:      &repo.OutcomeRecord{Batch: batch, Duplicate: true},
				Advancement: &Advancement{Action: AdvanceNone},
			}, nil
		}
	}

	outcome, message := cb.Status, cb.ErrorMessage
	if batch.Status() == vo.BatchStatusProcessing && !s.alreadyCounted(ctx, batch.ID(), cb.ItemKey) {
		item, err := s.courses.FindMediaItem(ctx, batch.CourseID(), cb.ItemKey)
		switch {
		case errors.Is(err, repo.ErrMediaItemNotFound):
			logger.Warnf("Callback for unknown media item course_id=%s item_key=%s", batch.CourseID(), cb.ItemKey)
			outcome, message = vo.ItemOutcomeError, mediaItemNotFoundMessage
		case err != nil:
			outcome, message = vo.ItemOutcomeError, err.Error()
		case outcome == vo.ItemOutcomeSuccess:
			if err := def.Apply(ctx, batch.CourseID(), item, cb); err != nil {
				logger.Warnf("Apply callback result failed batch_id=%s item_key=%s error=%v", batch.ID(), cb.ItemKey, err)
				outcome, message = vo.ItemOutcomeError, err.Error()
			}
		}
	}
	if outcome != vo.ItemOutcomeSuccess {
		outcome = vo.ItemOutcomeError
	}

	record, err := s.batches.RecordItemOutcome(ctx, repo.OutcomeInput{
		BatchID:      batch.ID(),
		ItemKey:      cb.ItemKey,
		Outcome:      outcome,
		ErrorMessage: message,
		At:           timeNow(),
	})
	if err != nil {
		if s.deduper != nil {
			if ferr := s.deduper.Forget(context.WithoutCancel(ctx), cb.CorrelationID, cb.ItemKey); ferr != nil {
				logger.Warnf("Reset callback dedup key failed batch_id=%s error=%v", batch.ID(), ferr)
			}
		}
		return nil, err
	}

	switch {
	case record.Counted:
		s.metrics.CallbackCounted(kind, outcome.String())
	case record.Duplicate:
		s.metrics.DuplicateSuppressed(kind)
	}
	logger.Debug("Callback recorded", map[string]interface{}{
		"batch_id":        batch.ID(),
		"item_key":        cb.ItemKey,
		"outcome":         outcome.String(),
		"counted":         record.Counted,
		"duplicate":       record.Duplicate,
		"completed_items": record.Batch.CompletedItems(),
		"failed_items":    record.Batch.FailedItems(),
		"total_items":     record.Batch.TotalItems(),
	})

	if record.JustCompleted {
		s.metrics.BatchCompleted(kind)
		publishEvent(ctx, s.events, &gateway.PipelineEvent{
			Type:        gateway.EventBatchCompleted,
			CourseID:    batch.CourseID(),
			Kind:        batch.Kind(),
			BatchID:     batch.ID(),
			BatchNumber: batch.BatchNumber(),
		})
	}

	result := &IngestResult{Record: record}
	adv, err := s.advancer.Advance(ctx, record)
	if err != nil {
		// 回调链路的失败只体现在批次状态里, 不返回给调用方
		logger.Errorf("Advance pipeline failed batch_id=%s error=%v", batch.ID(), err)
	}
	if adv == nil {
		adv = &Advancement{Action: AdvanceNone}
	}
	result.Advancement = adv
	return result, nil
}
