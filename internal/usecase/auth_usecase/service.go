package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"authsvc/internal/domain/model"
	"authsvc/internal/repository"
)

// 既定のrefresh sessionの有効期限
const DefaultRefreshTTL = 7 * 24 * time.Hour

// User-Agentの保存上限（文字数、列はvarchar(200)）
const maxUserAgentLen = 200

// クライアント情報（自己申告、検証しない）
type ClientMeta struct {
	UserAgent string
	IP        string
}

// 保存できる形にそろえる。IPとして読めない値は捨て、UAは不正なUTF-8を除いて文字単位で切る
func (m ClientMeta) normalized() ClientMeta {
	out := ClientMeta{}
	if ip := net.ParseIP(strings.TrimSpace(m.IP)); ip != nil {
		out.IP = ip.String()
	}

	ua := strings.ToValidUTF8(m.UserAgent, "")
	if utf8.RuneCountInString(ua) > maxUserAgentLen {
		ua = string([]rune(ua)[:maxUserAgentLen])
	}
	out.UserAgent = ua
	return out
}

// register / login の入力
type CredentialsInput struct {
	Email     string
	Password  string
	VisitorID string
	RequestID string
}

// handlerがJSONにして返す
type AuthOutput struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// handlerがCookieに詰めるために必要な値
type CookieSideEffect struct {
	PlainRefreshToken string
	ExpiresAt         time.Time
	// trueならrefresh cookieを消す
	Clear bool
}

// Serviceは登録・ログイン・refresh・logoutをまとめる。
// 状態はDBのUser/RefreshSessionだけに持つ。
type Service struct {
	users    repository.UserRepository
	sessions repository.RefreshSessionRepository
	tx       repository.TransactionManager
	audit    repository.AuditLogRepository

	identity IdentityVerifier
	guard    *Guard
	issuer   AccessTokenIssuer
	hasher   PasswordHasher
	verifier PasswordVerifier
	idGen    IDGenerator
	clock    Clock

	refreshTTL time.Duration
	log        *slog.Logger
}

type Option func(*Service)

// 監査ログを残す（失敗しても認証結果は変えない）
func WithAuditLog(repo repository.AuditLogRepository) Option {
	return func(s *Service) { s.audit = repo }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithRefreshTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// DI
func NewService(
	users repository.UserRepository,
	sessions repository.RefreshSessionRepository,
	tx repository.TransactionManager,
	identity IdentityVerifier,
	guard *Guard,
	issuer AccessTokenIssuer,
	hasher PasswordHasher,
	verifier PasswordVerifier,
	idGen IDGenerator,
	clock Clock,
	opts ...Option,
) *Service {
	s := &Service{
		users:      users,
		sessions:   sessions,
		tx:         tx,
		identity:   identity,
		guard:      guard,
		issuer:     issuer,
		hasher:     hasher,
		verifier:   verifier,
		idGen:      idGen,
		clock:      clock,
		refreshTTL: DefaultRefreshTTL,
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// 識別サービス → Guard の順に判定する
func (s *Service) verifyAndGuard(ctx context.Context, purpose Purpose, in CredentialsInput) error {
	ident, err := s.identity.Verify(ctx, in.RequestID)
	if err != nil {
		return wrapProvider(err)
	}

	return s.guard.Evaluate(ctx, GuardInput{
		Purpose:          purpose,
		ClaimedVisitorID: in.VisitorID,
		Identification:   ident,
	})
}

// userに紐づく新しいsessionとtoken平文を作る
func (s *Service) newSession(userID string, fingerprint string, meta ClientMeta, now time.Time) (*model.RefreshSession, string, error) {
	plain, err := generateSecureToken(refreshTokenBytes)
	if err != nil {
		return nil, "", err
	}

	meta = meta.normalized()

	return &model.RefreshSession{
		ID:          s.idGen.NewID(),
		UserID:      userID,
		UA:          meta.UserAgent,
		IP:          meta.IP,
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(s.refreshTTL),
		CreatedAt:   now,
	}, plain, nil
}

// 監査ログとアプリログ
func (s *Service) record(ctx context.Context, action model.AuditAction, userID string, meta ClientMeta, err error) {
	meta = meta.normalized()
	outcome := model.AuditOutcomeSuccess
	reason := Reason(err)
	switch {
	case err == nil:
		s.log.InfoContext(ctx, "auth succeeded", "op", action, "user_id", userID)
	case IsRejection(err):
		outcome = model.AuditOutcomeRejected
		s.log.InfoContext(ctx, "auth rejected", "op", action, "reason", reason, "ip", meta.IP)
	default:
		outcome = model.AuditOutcomeError
		s.log.ErrorContext(ctx, "auth failed", "op", action, "reason", reason, "error", err)
	}

	if s.audit == nil {
		return
	}

	entry := model.AuditLog{
		Action:    action,
		Outcome:   outcome,
		Reason:    reason,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		CreatedAt: s.clock.Now(),
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if aerr := s.audit.Create(ctx, entry); aerr != nil {
		s.log.WarnContext(ctx, "audit log write failed", "op", action, "error", aerr)
	}
}

// 識別サービス由来のエラーは必ずErrProviderとして扱う
func wrapProvider(err error) error {
	if errors.Is(err, ErrProvider) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrProvider, err)
}
