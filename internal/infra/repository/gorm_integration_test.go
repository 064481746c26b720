//go:build integration

package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"authsvc/internal/domain/model"
	"authsvc/internal/infra/db"
	"authsvc/internal/infra/token"
	repo "authsvc/internal/repository"
	auth "authsvc/internal/usecase/auth_usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("auth_test"),
		postgres.WithUsername("auth"),
		postgres.WithPassword("auth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "start postgres:", err)
		os.Exit(1)
	}

	code := func() int {
		defer func() { _ = container.Terminate(ctx) }()

		dsn, err := container.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Fprintln(os.Stderr, "connection string:", err)
			return 1
		}
		testDB, err = db.Connect(dsn)
		if err != nil {
			fmt.Fprintln(os.Stderr, "connect:", err)
			return 1
		}
		defer func() { _ = db.Close(testDB) }()

		if err := db.Migrate(testDB); err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			return 1
		}
		return m.Run()
	}()
	os.Exit(code)
}

// テストごとにテーブルを空にする
func resetTables(t *testing.T) {
	t.Helper()
	require.NoError(t, testDB.Exec("TRUNCATE users, refresh_sessions, audit_logs RESTART IDENTITY CASCADE").Error)
}

func seedUser(t *testing.T, id string, name string, fp string, at time.Time) *model.User {
	t.Helper()
	u := &model.User{ID: id, UserName: name, PasswordHash: "hash", Fingerprint: fp, RegistrationDate: at}
	require.NoError(t, NewUserGormRepository(testDB).Create(context.Background(), u))
	return u
}

func newSession(id string, userID string, exp time.Time) *model.RefreshSession {
	return &model.RefreshSession{
		ID:          id,
		UserID:      userID,
		UA:          "UA",
		IP:          "127.0.0.1",
		Fingerprint: "v1",
		ExpiresAt:   exp,
		CreatedAt:   time.Now().UTC(),
	}
}

func uuidN(n int) string {
	return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
}

func TestUserGorm_DuplicateName(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	users := NewUserGormRepository(testDB)

	seedUser(t, uuidN(1), "a@b.com", "v1", time.Now().UTC())

	err := users.Create(ctx, &model.User{ID: uuidN(2), UserName: "a@b.com", PasswordHash: "h", Fingerprint: "v1", RegistrationDate: time.Now().UTC()})
	assert.ErrorIs(t, err, repo.ErrDuplicateUser)

	// 大文字小文字は区別する
	err = users.Create(ctx, &model.User{ID: uuidN(3), UserName: "A@b.com", PasswordHash: "h", Fingerprint: "v1", RegistrationDate: time.Now().UTC()})
	assert.NoError(t, err)

	_, err = users.FindByUserName(ctx, "nobody@b.com")
	assert.ErrorIs(t, err, repo.ErrUserNotFound)
}

func TestUserGorm_CountByFingerprintSince(t *testing.T) {
	resetTables(t)
	now := time.Now().UTC().Truncate(time.Second)
	since := now.Add(-7 * 24 * time.Hour)

	seedUser(t, uuidN(1), "a@b.com", "v1", now)
	seedUser(t, uuidN(2), "b@b.com", "v1", since)
	seedUser(t, uuidN(3), "c@b.com", "v1", since.Add(-time.Second))
	seedUser(t, uuidN(4), "d@b.com", "v2", now)

	n, err := NewUserGormRepository(testDB).CountByFingerprintSince(context.Background(), "v1", since)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestRefreshSessionGorm_StoresHashAndLoadsUser(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	sessions := NewRefreshSessionGormRepository(testDB)
	u := seedUser(t, uuidN(1), "a@b.com", "v1", time.Now().UTC())

	require.NoError(t, sessions.Create(ctx, newSession(uuidN(10), u.ID, time.Now().Add(time.Hour)), "plain-token"))

	var stored model.RefreshSession
	require.NoError(t, testDB.First(&stored, "id = ?", uuidN(10)).Error)
	assert.Equal(t, repo.HashToken("plain-token"), stored.TokenHash)
	assert.NotEqual(t, "plain-token", stored.TokenHash)

	got, err := sessions.FindByToken(ctx, "plain-token")
	require.NoError(t, err)
	require.NotNil(t, got.User)
	assert.Equal(t, "a@b.com", got.User.UserName)

	_, err = sessions.FindByToken(ctx, "other")
	assert.ErrorIs(t, err, repo.ErrRefreshSessionNotFound)
}

func TestRefreshSessionGorm_ConcurrentReplaceOneWinner(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	sessions := NewRefreshSessionGormRepository(testDB)
	u := seedUser(t, uuidN(1), "a@b.com", "v1", time.Now().UTC())
	require.NoError(t, sessions.Create(ctx, newSession(uuidN(10), u.ID, time.Now().Add(time.Hour)), "old"))

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = sessions.Replace(ctx, "old", newSession(uuidN(100+i), u.ID, time.Now().Add(time.Hour)), fmt.Sprintf("new-%d", i))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(err, repo.ErrRefreshSessionNotFound), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	var count int64
	require.NoError(t, testDB.Model(&model.RefreshSession{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRefreshSessionGorm_DeleteExpired(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	sessions := NewRefreshSessionGormRepository(testDB)
	u := seedUser(t, uuidN(1), "a@b.com", "v1", time.Now().UTC())
	now := time.Now().UTC()

	require.NoError(t, sessions.Create(ctx, newSession(uuidN(10), u.ID, now.Add(-time.Minute)), "expired"))
	require.NoError(t, sessions.Create(ctx, newSession(uuidN(11), u.ID, now.Add(time.Hour)), "live"))

	n, err := sessions.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = sessions.FindByToken(ctx, "live")
	assert.NoError(t, err)
	assert.ErrorIs(t, sessions.DeleteByToken(ctx, "expired"), repo.ErrRefreshSessionNotFound)
}

func TestTxManagerGorm_RollsBack(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	tm := NewTxManagerGorm(testDB)
	boom := errors.New("boom")

	err := tm.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Users().Create(ctx, &model.User{ID: uuidN(1), UserName: "a@b.com", PasswordHash: "h", Fingerprint: "v1", RegistrationDate: time.Now().UTC()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewUserGormRepository(testDB).FindByUserName(ctx, "a@b.com")
	assert.ErrorIs(t, err, repo.ErrUserNotFound)
}

func TestAuditLogGorm_Create(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	require.NoError(t, NewAuditLogGormRepository(testDB).Create(ctx, model.AuditLog{
		Action:    model.AuditActionLogin,
		Outcome:   model.AuditOutcomeRejected,
		Reason:    "LOW_CONFIDENCE",
		IP:        "127.0.0.1",
		UserAgent: "UA",
		CreatedAt: time.Now().UTC(),
	}))

	var count int64
	require.NoError(t, testDB.Model(&model.AuditLog{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

type fixedIdentity struct{}

func (fixedIdentity) Verify(context.Context, string) (model.Identification, error) {
	return model.Identification{VisitorID: "v1", Confidence: 1, IdentifiedAt: time.Now()}, nil
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now().UTC() }

type uuidGen struct{}

func (uuidGen) NewID() string { return uuid.NewString() }

// ヘッダ由来の長い値でもvarcharに収まって登録できる
func TestService_RegisterWithOversizedClientMeta(t *testing.T) {
	resetTables(t)
	ctx := context.Background()

	users := NewUserGormRepository(testDB)
	sessions := NewRefreshSessionGormRepository(testDB)
	svc := auth.NewService(
		users, sessions, NewTxManagerGorm(testDB), fixedIdentity{},
		auth.NewGuard(users, wallClock{}),
		token.NewJWTIssuer("0123456789abcdef0123456789abcdef", "auth-test", "auth-test-clients", time.Minute),
		auth.NewBcryptPasswordHasher(bcrypt.MinCost),
		auth.NewBcryptPasswordVerifier(),
		uuidGen{}, wallClock{},
		auth.WithAuditLog(NewAuditLogGormRepository(testDB)),
	)

	meta := auth.ClientMeta{
		IP:        strings.Repeat("1", 300),
		UserAgent: strings.Repeat("a", 199) + strings.Repeat("é", 50),
	}
	out, _, err := svc.Register(ctx, auth.CredentialsInput{Email: "a@b.com", Password: "CorrectPW", VisitorID: "v1", RequestID: "r1"}, meta)
	require.NoError(t, err)

	got, err := sessions.FindByToken(ctx, out.RefreshToken)
	require.NoError(t, err)
	assert.Empty(t, got.IP)
	assert.Equal(t, strings.Repeat("a", 199)+"é", got.UA)

	var logs []model.AuditLog
	require.NoError(t, testDB.Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Equal(t, model.AuditOutcomeSuccess, logs[0].Outcome)
	assert.Equal(t, got.UA, logs[0].UserAgent)
}
