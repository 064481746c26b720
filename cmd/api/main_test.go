package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"authsvc/internal/domain/model"
	"authsvc/internal/infra/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["sweep"])
	assert.NotNil(t, cmd.RunE)

	serve, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)
	assert.NotNil(t, serve.Flags().Lookup("sweep-interval"))
}

func seedExpired(t *testing.T, s *memstore.Store, now time.Time) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.Users().Create(ctx, &model.User{ID: "u1", UserName: "a@b.com", PasswordHash: "x", Fingerprint: "v1", RegistrationDate: now}))
	require.NoError(t, s.Sessions().Create(ctx, &model.RefreshSession{ID: "s1", UserID: "u1", Fingerprint: "v1", ExpiresAt: now.Add(-time.Minute), CreatedAt: now}, "old"))
	require.NoError(t, s.Sessions().Create(ctx, &model.RefreshSession{ID: "s2", UserID: "u1", Fingerprint: "v1", ExpiresAt: now.Add(time.Hour), CreatedAt: now}, "live"))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepOnce(t *testing.T) {
	now := time.Now()
	s := memstore.New()
	seedExpired(t, s, now)

	n, err := sweepOnce(context.Background(), s.Sessions(), now, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, s.SessionCount())
}

func TestRunSweeper_StopsOnCancel(t *testing.T) {
	now := time.Now()
	s := memstore.New()
	seedExpired(t, s, now)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		runSweeper(ctx, s.Sessions(), 10*time.Millisecond, func() time.Time { return now }, discardLogger())
	}()

	assert.Eventually(t, func() bool { return s.SessionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	wg.Wait()
}
