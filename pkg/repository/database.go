package repository

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"media-pipeline-service/pkg/config"
	"media-pipeline-service/pkg/logger"
)

// Database gorm连接
type Database struct {
	Self *gorm.DB
}

// NewDatabase 按driver创建mysql或postgres连接
func NewDatabase(cfg *config.DatabaseConfig) (*Database, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "mysql":
		dialector = mysql.Open(cfg.GetDSN())
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.GetDSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newGormLogger(cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("Database connected", map[string]interface{}{
		"driver":   cfg.Driver,
		"host":     cfg.Host,
		"database": cfg.Database,
	})
	return &Database{Self: db}, nil
}

// AutoMigrate 迁移给定模型
func (d *Database) AutoMigrate(models ...interface{}) error {
	return d.Self.AutoMigrate(models...)
}

// Close 关闭连接池
func (d *Database) Close() {
	if d == nil || d.Self == nil {
		return
	}
	if sqlDB, err := d.Self.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newGormLogger gorm日志输出到logrus, 只记录慢查询和错误
func newGormLogger(slow time.Duration) gormlogger.Interface {
	if slow <= 0 {
		slow = time.Second
	}
	return gormlogger.New(gormWriter{}, gormlogger.Config{
		SlowThreshold:             slow,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

type gormWriter struct{}

func (gormWriter) Printf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}
