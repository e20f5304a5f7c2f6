package resource

import (
	"fmt"
	"sync"

	"gorm.io/gorm"

	"media-pipeline-service/ddd/infrastructure/database/po"
	"media-pipeline-service/pkg/assert"
	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
	"media-pipeline-service/pkg/manager"
	"media-pipeline-service/pkg/repository"
)

var (
	databaseResourceOnce      sync.Once
	singletonDatabaseResource *DatabaseResource
)

// DatabaseResource SQL数据库资源, driver为memory时不建立连接
type DatabaseResource struct {
	database *repository.Database
}

func DefaultDatabaseResource() *DatabaseResource {
	assert.NotCircular()
	databaseResourceOnce.Do(func() {
		singletonDatabaseResource = &DatabaseResource{}
	})
	assert.NotNil(singletonDatabaseResource)
	return singletonDatabaseResource
}

func (r *DatabaseResource) MustOpen() {
	cfg := config.GetGlobalConfig()
	if cfg == nil {
		panic("global config not initialized before DatabaseResource")
	}
	if cfg.Database.Driver == "memory" {
		logger.Warn("Database driver is memory, pipeline state will not survive restarts")
		return
	}
	db, err := repository.NewDatabase(&cfg.Database)
	if err != nil {
		panic(fmt.Sprintf("failed to connect database: %v", err))
	}
	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(po.AllModels()...); err != nil {
			panic(fmt.Sprintf("failed to migrate database: %v", err))
		}
	}
	r.database = db
}

// MainDB memory模式下返回nil
func (r *DatabaseResource) MainDB() *gorm.DB {
	if r.database == nil {
		return nil
	}
	return r.database.Self
}

func (r *DatabaseResource) Close() {
	if r.database != nil {
		r.database.Close()
		r.database = nil
	}
}

type DatabaseResourcePlugin struct{}

func (p *DatabaseResourcePlugin) Name() string { return "databaseResource" }

func (p *DatabaseResourcePlugin) MustCreateResource() manager.Resource {
	return DefaultDatabaseResource()
}
