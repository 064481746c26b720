package main

import (
	"context"
	"log/slog"
	"time"

	"authsvc/internal/repository"

	"github.com/spf13/cobra"
)

// 期限切れsessionを一度だけ消す（cron向け）
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired refresh sessions once",
		RunE:  runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()

	n, err := sweepOnce(cmd.Context(), st.sessions, time.Now(), logger)
	if err != nil {
		return err
	}
	cmd.Printf("Deleted %d expired sessions\n", n)
	return nil
}

func sweepOnce(ctx context.Context, sessions repository.RefreshSessionRepository, now time.Time, logger *slog.Logger) (int64, error) {
	n, err := sessions.DeleteExpired(ctx, now)
	if err != nil {
		logger.ErrorContext(ctx, "sweep failed", "error", err)
		return 0, err
	}
	logger.InfoContext(ctx, "sweep finished", "deleted", n)
	return n, nil
}

// ctxが終わるまでintervalごとにsweepする
func runSweeper(ctx context.Context, sessions repository.RefreshSessionRepository, interval time.Duration, clock func() time.Time, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			//失敗しても次の周期で再試行
			_, _ = sweepOnce(ctx, sessions, clock(), logger)
		}
	}
}
