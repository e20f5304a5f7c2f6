package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/ddd/infrastructure/database/convertor"
	"media-pipeline-service/ddd/infrastructure/database/dao"
	"media-pipeline-service/ddd/infrastructure/database/po"
)

type batchRepositoryImpl struct {
	db        *gorm.DB
	dao       *dao.BatchDAO
	convertor *convertor.BatchConvertor
}

// NewBatchRepository gorm实现的批次仓储, 原子区域依赖 SELECT ... FOR UPDATE
func NewBatchRepository(db *gorm.DB) repo.BatchRepository {
	return &batchRepositoryImpl{
		db:        db,
		dao:       dao.NewBatchDAO(db),
		convertor: convertor.NewBatchConvertor(),
	}
}

func (r *batchRepositoryImpl) ReplaceAll(ctx context.Context, courseID string, kind vo.PipelineKind, batches []*entity.Batch) error {
	rows := make([]*po.PipelineBatch, 0, len(batches))
	for _, b := range batches {
		rows = append(rows, r.convertor.ToPO(0, b))
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := r.dao.WithTx(tx)
		if err := d.DeleteByCourseKind(ctx, courseID, kind.String()); err != nil {
			return err
		}
		return d.CreateBatches(ctx, rows)
	})
}

func (r *batchRepositoryImpl) FindByID(ctx context.Context, batchID string) (*entity.Batch, error) {
	row, err := r.dao.FindByBatchUUID(ctx, batchID, false)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, repo.ErrBatchNotFound
	}
	return r.convertor.ToEntity(row), nil
}

func (r *batchRepositoryImpl) ListByCourse(ctx context.Context, courseID string, kind vo.PipelineKind) ([]*entity.Batch, error) {
	rows, err := r.dao.ListByCourseKind(ctx, courseID, kind.String(), false)
	if err != nil {
		return nil, err
	}
	return r.convertor.ToEntities(rows), nil
}

// ClaimNextPending 锁住(course, kind)的全部批次后比较并交换
func (r *batchRepositoryImpl) ClaimNextPending(ctx context.Context, courseID string, kind vo.PipelineKind, now time.Time) (*entity.Batch, error) {
	var claimed *entity.Batch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := r.dao.WithTx(tx)
		rows, err := d.ListByCourseKind(ctx, courseID, kind.String(), true)
		if err != nil {
			return err
		}
		var next *po.PipelineBatch
		for _, row := range rows {
			switch vo.BatchStatus(row.Status) {
			case vo.BatchStatusProcessing:
				return repo.ErrBatchInFlight
			case vo.BatchStatusPending:
				if next == nil {
					next = row
				}
			}
		}
		if next == nil {
			return repo.ErrNoMoreBatches
		}
		b := r.convertor.ToEntity(next)
		if err := b.Claim(now); err != nil {
			return err
		}
		if err := d.UpdateState(ctx, r.convertor.ToPO(next.Id, b)); err != nil {
			return err
		}
		claimed = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *batchRepositoryImpl) MarkLaunched(ctx context.Context, batchID string, now time.Time) (*entity.Batch, error) {
	return r.mutate(ctx, batchID, func(b *entity.Batch) error { return b.MarkLaunched(now) })
}

func (r *batchRepositoryImpl) Release(ctx context.Context, batchID, message string, now time.Time) (*entity.Batch, error) {
	return r.mutate(ctx, batchID, func(b *entity.Batch) error { return b.Release(message, now) })
}

func (r *batchRepositoryImpl) Abandon(ctx context.Context, batchID, message string, now time.Time) (*entity.Batch, error) {
	return r.mutate(ctx, batchID, func(b *entity.Batch) error { return b.Abandon(message, now) })
}

func (r *batchRepositoryImpl) mutate(ctx context.Context, batchID string, fn func(b *entity.Batch) error) (*entity.Batch, error) {
	var out *entity.Batch
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := r.dao.WithTx(tx)
		row, err := d.FindByBatchUUID(ctx, batchID, true)
		if err != nil {
			return err
		}
		if row == nil {
			return repo.ErrBatchNotFound
		}
		b := r.convertor.ToEntity(row)
		if err := fn(b); err != nil {
			return err
		}
		if err := d.UpdateState(ctx, r.convertor.ToPO(row.Id, b)); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *batchRepositoryImpl) OutcomeExists(ctx context.Context, batchID, itemKey string) (bool, error) {
	return r.dao.OutcomeExists(ctx, batchID, itemKey)
}

// RecordItemOutcome 锁批次行, 写回调记录, 更新计数并判断是否结清, 全部在一个事务中
func (r *batchRepositoryImpl) RecordItemOutcome(ctx context.Context, in repo.OutcomeInput) (*repo.OutcomeRecord, error) {
	var record *repo.OutcomeRecord
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := r.dao.WithTx(tx)
		row, err := d.FindByBatchUUID(ctx, in.BatchID, true)
		if err != nil {
			return err
		}
		if row == nil {
			return repo.ErrBatchNotFound
		}
		b := r.convertor.ToEntity(row)

		if b.Status() != vo.BatchStatusProcessing || b.IsSettled() {
			seen, err := d.OutcomeExists(ctx, in.BatchID, in.ItemKey)
			if err != nil {
				return err
			}
			record = &repo.OutcomeRecord{Batch: b, Duplicate: seen}
			return nil
		}

		inserted, err := d.InsertOutcome(ctx, &po.BatchItemOutcome{
			BaseModel:    po.BaseModel{CreatedAt: in.At, UpdatedAt: in.At},
			BatchUUID:    in.BatchID,
			ItemKey:      in.ItemKey,
			Outcome:      in.Outcome.String(),
			ErrorMessage: in.ErrorMessage,
		})
		if err != nil {
			return err
		}
		if !inserted {
			record = &repo.OutcomeRecord{Batch: b, Duplicate: true}
			return nil
		}

		justCompleted, err := b.RecordOutcome(in.Outcome, in.At)
		if err != nil {
			if errors.Is(err, entity.ErrBatchSettled) || errors.Is(err, entity.ErrBatchNotProcessing) {
				record = &repo.OutcomeRecord{Batch: b}
				return nil
			}
			return err
		}
		if err := d.UpdateState(ctx, r.convertor.ToPO(row.Id, b)); err != nil {
			return err
		}
		record = &repo.OutcomeRecord{Batch: b, Counted: true, JustCompleted: justCompleted}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}
