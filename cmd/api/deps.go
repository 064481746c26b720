package main

import (
	"log/slog"
	"os"
	"time"

	"authsvc/internal/config"
	"authsvc/internal/infra/db"
	"authsvc/internal/infra/memstore"
	infraRepo "authsvc/internal/infra/repository"
	"authsvc/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

type uuidGenerator struct{}

func (g *uuidGenerator) NewID() string {
	return uuid.NewString()
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

// 永続化の実装一式（postgres / memory）
type stores struct {
	users    repository.UserRepository
	sessions repository.RefreshSessionRepository
	audit    repository.AuditLogRepository
	tx       repository.TransactionManager
	close    func() error
}

// STORE_DRIVERに応じてRepositoryを作る
func openStores(cfg config.Config) (*stores, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		s := memstore.New()
		return &stores{
			users:    s.Users(),
			sessions: s.Sessions(),
			audit:    s.AuditLogs(),
			tx:       s,
			close:    func() error { return nil },
		}, nil
	}

	//DB接続
	gormDB, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	//Repository（GORM実装）生成
	return &stores{
		users:    infraRepo.NewUserGormRepository(gormDB),
		sessions: infraRepo.NewRefreshSessionGormRepository(gormDB),
		audit:    infraRepo.NewAuditLogGormRepository(gormDB),
		tx:       infraRepo.NewTxManagerGorm(gormDB),
		close:    func() error { return db.Close(gormDB) },
	}, nil
}

// JSONでstdoutへ
func newLogger(cfg config.Config) (*slog.Logger, error) {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger, nil
}

// 設定とロガーをまとめて読む
func loadConfig() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}
