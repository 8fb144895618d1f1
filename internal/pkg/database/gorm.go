package database

import (
	"EdVix/internal/api/config"
	"EdVix/internal/model"
	"EdVix/internal/pkg/logger"
	"fmt"
	log "log/slog"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const sqlitePrefix = "sqlite://"

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置
// DSN 以 sqlite:// 开头时使用本地 SQLite 文件，供单机演示使用
func NewGormDB(cfg *config.DBConfig) (*gorm.DB, error) {
	dialector, isSQLite := openDialector(cfg.DSN)
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:      logger.NewGormLogger(),
		PrepareStmt: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}

	if isSQLite {
		// SQLite 同一时刻只允许一个写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
		sqlDB.SetMaxOpenConns(cfg.MaxOpen)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)
	}

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	if err = db.AutoMigrate(&model.User{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Info("Database connection established successfully.", "sqlite", isSQLite)
	return db, nil
}

func openDialector(dsn string) (gorm.Dialector, bool) {
	if path, ok := strings.CutPrefix(dsn, sqlitePrefix); ok {
		return sqlite.Open(path), true
	}
	return mysql.Open(dsn), false
}
