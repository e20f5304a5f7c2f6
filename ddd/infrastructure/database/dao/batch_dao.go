package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"media-pipeline-service/ddd/infrastructure/database/po"
)

// BatchDAO 批次与回调记录数据访问对象
type BatchDAO struct {
	db *gorm.DB
}

func NewBatchDAO(db *gorm.DB) *BatchDAO {
	return &BatchDAO{db: db}
}

func (d *BatchDAO) WithTx(tx *gorm.DB) *BatchDAO {
	return &BatchDAO{db: tx}
}

// DeleteByCourseKind 删除批次及其回调记录
func (d *BatchDAO) DeleteByCourseKind(ctx context.Context, courseID, kind string) error {
	db := d.db.WithContext(ctx)
	var ids []string
	if err := db.Model(&po.PipelineBatch{}).
		Where("course_id = ? AND kind = ?", courseID, kind).
		Pluck("batch_uuid", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	if err := db.Where("batch_uuid IN ?", ids).Delete(&po.BatchItemOutcome{}).Error; err != nil {
		return err
	}
	return db.Where("batch_uuid IN ?", ids).Delete(&po.PipelineBatch{}).Error
}

func (d *BatchDAO) CreateBatches(ctx context.Context, batches []*po.PipelineBatch) error {
	if len(batches) == 0 {
		return nil
	}
	return d.db.WithContext(ctx).CreateInBatches(batches, 100).Error
}

// FindByBatchUUID 不存在时返回nil, nil
func (d *BatchDAO) FindByBatchUUID(ctx context.Context, batchUUID string, forUpdate bool) (*po.PipelineBatch, error) {
	db := d.db.WithContext(ctx)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var batch po.PipelineBatch
	if err := db.Where("batch_uuid = ?", batchUUID).First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &batch, nil
}

// ListByCourseKind 按batch_number升序, forUpdate为true时锁住全部行
func (d *BatchDAO) ListByCourseKind(ctx context.Context, courseID, kind string, forUpdate bool) ([]*po.PipelineBatch, error) {
	db := d.db.WithContext(ctx)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var batches []*po.PipelineBatch
	err := db.Where("course_id = ? AND kind = ?", courseID, kind).
		Order("batch_number ASC").
		Find(&batches).Error
	return batches, err
}

// UpdateState 写回状态与计数
func (d *BatchDAO) UpdateState(ctx context.Context, batch *po.PipelineBatch) error {
	return d.db.WithContext(ctx).Model(&po.PipelineBatch{}).
		Where("id = ?", batch.Id).
		Updates(map[string]interface{}{
			"status":          batch.Status,
			"completed_items": batch.CompletedItems,
			"failed_items":    batch.FailedItems,
			"error_message":   batch.ErrorMessage,
			"launched_at":     batch.LaunchedAt,
			"completed_at":    batch.CompletedAt,
			"updated_at":      batch.UpdatedAt,
		}).Error
}

// InsertOutcome 已存在时不插入, 返回是否插入
func (d *BatchDAO) InsertOutcome(ctx context.Context, outcome *po.BatchItemOutcome) (bool, error) {
	res := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(outcome)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (d *BatchDAO) OutcomeExists(ctx context.Context, batchUUID, itemKey string) (bool, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&po.BatchItemOutcome{}).
		Where("batch_uuid = ? AND item_key = ?", batchUUID, itemKey).
		Count(&n).Error
	return n > 0, err
}
