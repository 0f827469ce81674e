package database

import (
	"fmt"
	log "log/slog"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/mm-shkurin/rlt-test-bot/internal/api/config"
	"github.com/mm-shkurin/rlt-test-bot/internal/pkg/logger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// NewGormDB 初始化并返回 *gorm.DB 实例，处理连接池配置
func NewGormDB(cfg *config.DBConfig, loc *time.Location) (*gorm.DB, error) {
	dsn, err := NormalizeDSN(cfg.DSN, loc)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
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

	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Minute)

	if err = sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database connection check failed: %w", err)
	}

	log.Info("Database connection established successfully.")
	return db, nil
}

// NormalizeDSN 时间窗口按 time.Time 绑定参数，驱动必须开启 parseTime 并使用与查询一致的时区
func NormalizeDSN(dsn string, loc *time.Location) (string, error) {
	parsed, err := mysqldriver.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid database dsn: %w", err)
	}
	parsed.ParseTime = true
	if loc != nil {
		parsed.Loc = loc
	}
	return parsed.FormatDSN(), nil
}
