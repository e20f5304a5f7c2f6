package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"media-pipeline-service/ddd/domain/entity"
	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/domain/vo"
	"media-pipeline-service/ddd/infrastructure/database/convertor"
	"media-pipeline-service/ddd/infrastructure/database/dao"
	"media-pipeline-service/ddd/infrastructure/database/po"
)

type courseRepositoryImpl struct {
	db        *gorm.DB
	dao       *dao.CourseDAO
	convertor *convertor.CourseConvertor
}

// NewCourseRepository gorm实现的课程仓储
func NewCourseRepository(db *gorm.DB) repo.CourseRepository {
	return &courseRepositoryImpl{
		db:        db,
		dao:       dao.NewCourseDAO(db),
		convertor: convertor.NewCourseConvertor(),
	}
}

func (r *courseRepositoryImpl) FindByID(ctx context.Context, courseID string) (*entity.Course, error) {
	course, err := r.dao.FindByCourseID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, repo.ErrCourseNotFound
	}
	return r.loadTree(ctx, r.dao, course, false)
}

func (r *courseRepositoryImpl) loadTree(ctx context.Context, d *dao.CourseDAO, course *po.Course, forUpdate bool) (*entity.Course, error) {
	var err error
	rows := &convertor.CourseRows{Course: course}
	if rows.Sections, err = d.ListSections(ctx, course.CourseID); err != nil {
		return nil, err
	}
	if rows.Lectures, err = d.ListLectures(ctx, course.CourseID); err != nil {
		return nil, err
	}
	if rows.Items, err = d.ListMediaItems(ctx, course.CourseID, forUpdate); err != nil {
		return nil, err
	}
	return r.convertor.ToEntity(rows), nil
}

func (r *courseRepositoryImpl) Save(ctx context.Context, course *entity.Course) error {
	rows := r.convertor.ToRows(course)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := r.dao.WithTx(tx)
		if err := d.SaveCourse(ctx, rows.Course); err != nil {
			return fmt.Errorf("save course: %w", err)
		}
		if err := d.ReplaceTree(ctx, course.ID(), rows.Sections, rows.Lectures, rows.Items); err != nil {
			return fmt.Errorf("save course tree: %w", err)
		}
		return nil
	})
}

// Import 锁住课程行与媒体行后合并已有结果再重建课程树, 不改写status
func (r *courseRepositoryImpl) Import(ctx context.Context, course *entity.Course) (*entity.Course, error) {
	saved := course.Clone()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := r.dao.WithTx(tx)
		locked, err := d.LockByCourseID(ctx, course.ID())
		if err != nil {
			return err
		}
		if locked != nil {
			stored, err := r.loadTree(ctx, d, locked, true)
			if err != nil {
				return err
			}
			saved.CarryOver(stored)
		}

		rows := r.convertor.ToRows(saved)
		if locked == nil {
			err = d.CreateCourse(ctx, rows.Course)
		} else {
			rows.Course.Id = locked.Id
			rows.Course.CreatedAt = locked.CreatedAt
			err = d.UpdateCourseAttributes(ctx, rows.Course)
		}
		if err != nil {
			return fmt.Errorf("import course: %w", err)
		}
		if err := d.ReplaceTree(ctx, course.ID(), rows.Sections, rows.Lectures, rows.Items); err != nil {
			return fmt.Errorf("import course tree: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *courseRepositoryImpl) CompareAndSetStatus(ctx context.Context, courseID string, from, to vo.CourseStatus) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, entity.NewDomainError("cannot move course from " + from.String() + " to " + to.String())
	}
	course, err := r.dao.FindByCourseID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if course == nil {
		return false, repo.ErrCourseNotFound
	}
	if from == to {
		// 相同值更新在MySQL中影响行数为0, 直接比较
		return course.Status == from.String(), nil
	}
	n, err := r.dao.UpdateStatusIf(ctx, courseID, from.String(), to.String())
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *courseRepositoryImpl) FindMediaItem(ctx context.Context, courseID, key string) (*entity.MediaItem, error) {
	item, err := r.dao.FindMediaItem(ctx, courseID, key, false)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, repo.ErrMediaItemNotFound
	}
	return r.convertor.MediaItemToEntity(item), nil
}

// SetPlayableURL 加锁读取后更新, 与Import互斥
func (r *courseRepositoryImpl) SetPlayableURL(ctx context.Context, courseID, key, playableURL string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := r.dao.WithTx(tx)
		item, err := d.FindMediaItem(ctx, courseID, key, true)
		if err != nil {
			return err
		}
		if item == nil {
			return repo.ErrMediaItemNotFound
		}
		return d.UpdateMediaItem(ctx, item.Id, map[string]interface{}{"playable_url": playableURL})
	})
}

// MergeCaptions 锁住媒体行后合并, 并发的字幕回调不会互相覆盖
func (r *courseRepositoryImpl) MergeCaptions(ctx context.Context, courseID, key string, captions []vo.Caption) ([]string, error) {
	var added []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		d := r.dao.WithTx(tx)
		item, err := d.FindMediaItem(ctx, courseID, key, true)
		if err != nil {
			return err
		}
		if item == nil {
			return repo.ErrMediaItemNotFound
		}
		m := r.convertor.MediaItemToEntity(item)
		added = m.MergeCaptions(captions)
		if len(added) == 0 {
			return nil
		}
		updated := r.convertor.MediaItemToPO(courseID, m)
		return d.UpdateMediaItem(ctx, item.Id, map[string]interface{}{"captions": updated.Captions})
	})
	if err != nil {
		return nil, err
	}
	return added, nil
}
