package db

import (
	"log/slog"
	"time"

	"authsvc/internal/domain/model"

	"github.com/samber/oops"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, oops.In("db").Code("DB_CONNECT_FAILED").Wrapf(err, "open postgres")
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, oops.In("db").Code("DB_CONNECT_FAILED").Wrapf(err, "get sql.DB")
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gdb, nil
}

// テーブル作成（users → refresh_sessions の順）
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&model.User{},
		&model.RefreshSession{},
		&model.AuditLog{},
	); err != nil {
		return oops.In("db").Code("DB_MIGRATE_FAILED").Wrapf(err, "auto migrate")
	}
	slog.Info("database migrated")
	return nil
}

// 接続を閉じる
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
