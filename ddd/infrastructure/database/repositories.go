package database

import (
	"gorm.io/gorm"

	"media-pipeline-service/ddd/domain/repo"
	"media-pipeline-service/ddd/infrastructure/database/memory"
	"media-pipeline-service/ddd/infrastructure/database/persistence"
)

// Repositories 课程与批次仓储
type Repositories struct {
	Courses repo.CourseRepository
	Batches repo.BatchRepository
	// Memory 只在内存模式下非nil, 用于种子数据与测试
	Memory *memory.Store
}

// NewRepositories db为nil时使用内存存储
func NewRepositories(db *gorm.DB) *Repositories {
	if db == nil {
		store := memory.NewStore()
		return &Repositories{Courses: store.Courses(), Batches: store.Batches(), Memory: store}
	}
	return &Repositories{
		Courses: persistence.NewCourseRepository(db),
		Batches: persistence.NewBatchRepository(db),
	}
}
