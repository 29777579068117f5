package db

import (
	"fmt"
	"strings"
	"time"

	"vending/internal/config"
	"vending/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	}

	var (
		gormDB *gorm.DB
		err    error
	)
	switch cfg.DBDriver {
	case "sqlite":
		gormDB, err = gorm.Open(sqlite.Open(SQLiteDSN(cfg.SQLitePath)), gcfg)
	default:
		gormDB, err = gorm.Open(postgres.Open(cfg.PostgresDSN()), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DBDriver, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	//接続プール。SQLiteは書き込みが1本なので接続も1本にする
	if cfg.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(5)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxIdleTime(10 * time.Second)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping %s: %w", cfg.DBDriver, err)
	}

	return gormDB, nil
}

// SQLiteDSN はロック待ちのbusy_timeoutを付ける（指定済みなら触らない）
func SQLiteDSN(path string) string {
	if strings.Contains(path, "_busy_timeout") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_busy_timeout=5000"
}

// Migrate はテーブルを作成・更新する。
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&model.Product{},
		&model.Transaction{},
		&model.InventoryAdjustment{},
		&model.AuditLog{},
		&model.User{},
		&model.RefreshToken{},
	)
}
