package dao

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"media-pipeline-service/ddd/infrastructure/database/po"
)

// CourseDAO 课程树数据访问对象
type CourseDAO struct {
	db *gorm.DB
}

func NewCourseDAO(db *gorm.DB) *CourseDAO {
	return &CourseDAO{db: db}
}

// WithTx 在事务中使用
func (d *CourseDAO) WithTx(tx *gorm.DB) *CourseDAO {
	return &CourseDAO{db: tx}
}

// FindByCourseID 不存在时返回nil, nil
func (d *CourseDAO) FindByCourseID(ctx context.Context, courseID string) (*po.Course, error) {
	var course po.Course
	if err := d.db.WithContext(ctx).Where("course_id = ?", courseID).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

// LockByCourseID 加行锁读取课程, 不存在时返回nil, nil
func (d *CourseDAO) LockByCourseID(ctx context.Context, courseID string) (*po.Course, error) {
	var course po.Course
	err := d.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("course_id = ?", courseID).First(&course).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &course, nil
}

func (d *CourseDAO) ListSections(ctx context.Context, courseID string) ([]*po.CourseSection, error) {
	var sections []*po.CourseSection
	err := d.db.WithContext(ctx).Where("course_id = ?", courseID).Order("position ASC").Find(&sections).Error
	return sections, err
}

func (d *CourseDAO) ListLectures(ctx context.Context, courseID string) ([]*po.CourseLecture, error) {
	var lectures []*po.CourseLecture
	err := d.db.WithContext(ctx).Where("course_id = ?", courseID).Order("position ASC").Find(&lectures).Error
	return lectures, err
}

// ListMediaItems forUpdate为true时锁住课程的全部媒体行
func (d *CourseDAO) ListMediaItems(ctx context.Context, courseID string, forUpdate bool) ([]*po.MediaItem, error) {
	db := d.db.WithContext(ctx)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var items []*po.MediaItem
	err := db.Where("course_id = ?", courseID).Find(&items).Error
	return items, err
}

// SaveCourse 按course_id插入或更新
func (d *CourseDAO) SaveCourse(ctx context.Context, course *po.Course) error {
	existing, err := d.FindByCourseID(ctx, course.CourseID)
	if err != nil {
		return err
	}
	if existing != nil {
		course.Id = existing.Id
		course.CreatedAt = existing.CreatedAt
	}
	return d.db.WithContext(ctx).Save(course).Error
}

// UpdateCourseAttributes 更新课程元数据, 不写status与created_at
func (d *CourseDAO) UpdateCourseAttributes(ctx context.Context, course *po.Course) error {
	return d.db.WithContext(ctx).Model(course).
		Select("title", "description", "category", "level", "is_free", "price",
			"learning_outcomes", "requirements", "intended_learners", "default_language", "updated_at").
		Updates(course).Error
}

func (d *CourseDAO) CreateCourse(ctx context.Context, course *po.Course) error {
	return d.db.WithContext(ctx).Create(course).Error
}

// ReplaceTree 删除并重建章节, 课时与媒体条目
func (d *CourseDAO) ReplaceTree(ctx context.Context, courseID string, sections []*po.CourseSection,
	lectures []*po.CourseLecture, items []*po.MediaItem) error {
	db := d.db.WithContext(ctx)
	if err := db.Where("course_id = ?", courseID).Delete(&po.CourseSection{}).Error; err != nil {
		return err
	}
	if err := db.Where("course_id = ?", courseID).Delete(&po.CourseLecture{}).Error; err != nil {
		return err
	}
	if err := db.Where("course_id = ?", courseID).Delete(&po.MediaItem{}).Error; err != nil {
		return err
	}
	if len(sections) > 0 {
		if err := db.Create(&sections).Error; err != nil {
			return err
		}
	}
	if len(lectures) > 0 {
		if err := db.Create(&lectures).Error; err != nil {
			return err
		}
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateStatusIf 条件更新状态, 返回影响行数
func (d *CourseDAO) UpdateStatusIf(ctx context.Context, courseID, from, to string) (int64, error) {
	res := d.db.WithContext(ctx).Model(&po.Course{}).
		Where("course_id = ? AND status = ?", courseID, from).
		Update("status", to)
	return res.RowsAffected, res.Error
}

// FindMediaItem 不存在时返回nil, nil; forUpdate为true时加行锁
func (d *CourseDAO) FindMediaItem(ctx context.Context, courseID, key string, forUpdate bool) (*po.MediaItem, error) {
	db := d.db.WithContext(ctx)
	if forUpdate {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item po.MediaItem
	if err := db.Where("course_id = ? AND media_key = ?", courseID, key).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (d *CourseDAO) UpdateMediaItem(ctx context.Context, id uint64, fields map[string]interface{}) error {
	return d.db.WithContext(ctx).Model(&po.MediaItem{}).Where("id = ?", id).Updates(fields).Error
}
