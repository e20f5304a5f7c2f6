package repo

import (
	"context"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/vo"
)

// CourseRepository 课程聚合仓储
type CourseRepository interface {
	// FindByID 加载完整课程树, 不存在时返回ErrCourseNotFound
	FindByID(ctx context.Context, courseID string) (*entity.Course, error)
	// Save 保存整个课程聚合
	Save(ctx context.Context, course *entity.Course) error
	// Import 按导入快照重建课程树. 课程已存在时在同一原子区域内保留其状态与同key媒体结果, 返回保存后的课程
	Import(ctx context.Context, course *entity.Course) (*entity.Course, error)
	// CompareAndSetStatus 仅当当前状态为from时更新为to
	CompareAndSetStatus(ctx context.Context, courseID string, from, to vo.CourseStatus) (bool, error)

	// FindMediaItem 按(courseID, key)查找媒体, 不存在时返回ErrMediaItemNotFound
	FindMediaItem(ctx context.Context, courseID, key string) (*entity.MediaItem, error)
	SetPlayableURL(ctx context.Context, courseID, key, playableURL string) error
	// MergeCaptions 原子地追加新语言字幕, 返回实际新增的语言
	MergeCaptions(ctx context.Context, courseID, key string, captions []vo.Caption) ([]string, error)
}
