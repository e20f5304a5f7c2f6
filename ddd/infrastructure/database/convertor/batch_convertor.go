package convertor

import (
	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/ddd/infrastructure/database/po"
)

// BatchConvertor 批次转换器
type BatchConvertor struct{}

func NewBatchConvertor() *BatchConvertor {
	return &BatchConvertor{}
}

func (c *BatchConvertor) ToEntity(p *po.PipelineBatch) *entity.Batch {
	if p == nil {
		return nil
	}
	status, err := vo.NewBatchStatusFromString(p.Status)
	if err != nil {
		status = vo.BatchStatusPending
	}
	return entity.NewBatchWithDetails(
		p.BatchUUID,
		p.CourseID,
		vo.PipelineKind(p.Kind),
		p.BatchNumber,
		[]string(p.Items),
		p.TotalItems,
		p.CompletedItems,
		p.FailedItems,
		status,
		p.ErrorMessage,
		p.CreatedAt,
		p.UpdatedAt,
		p.LaunchedAt,
		p.CompletedAt,
	)
}

// ToPO id为数据库主键, 新建时传0
func (c *BatchConvertor) ToPO(id uint64, b *entity.Batch) *po.PipelineBatch {
	return &po.PipelineBatch{
		BaseModel: po.BaseModel{
			Id:        id,
			CreatedAt: b.CreatedAt(),
			UpdatedAt: b.UpdatedAt(),
		},
		BatchUUID:      b.ID(),
		CourseID:       b.CourseID(),
		Kind:           b.Kind().String(),
		BatchNumber:    b.BatchNumber(),
		Items:          b.Items(),
		TotalItems:     b.TotalItems(),
		CompletedItems: b.CompletedItems(),
		FailedItems:    b.FailedItems(),
		Status:         b.Status().String(),
		ErrorMessage:   b.ErrorMessage(),
		LaunchedAt:     b.LaunchedAt(),
		CompletedAt:    b.CompletedAt(),
	}
}

func (c *BatchConvertor) ToEntities(pos []*po.PipelineBatch) []*entity.Batch {
	out := make([]*entity.Batch, 0, len(pos))
	for _, p := range pos {
		out = append(out, c.ToEntity(p))
	}
	return out
}
