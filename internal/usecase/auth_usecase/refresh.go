package auth

import (
	"context"
	"errors"
	"fmt"

	"authsvc/internal/domain/model"
	"authsvc/internal/repository"
)

// refreshの入力。RefreshTokenはcookieから、Fingerprintはbodyから。
type RefreshInput struct {
	RefreshToken string
	Fingerprint  string
}

// handlerがJSONにして返す（refresh tokenはcookieだけで渡す）
type RefreshOutput struct {
	AccessToken string `json:"access_token"`
}

// refresh tokenをローテーションしてaccess tokenを再発行する。
// 旧tokenは1回しか使えない。
func (s *Service) Refresh(ctx context.Context, in RefreshInput, meta ClientMeta) (out RefreshOutput, side CookieSideEffect, err error) {
	var userID string
	defer func() { s.record(ctx, model.AuditActionRefresh, userID, meta, err) }()

	if in.RefreshToken == "" {
		return out, side, ErrMissingToken
	}
	//DB照合
	session, err := s.sessions.FindByToken(ctx, in.RefreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshSessionNotFound) {
			return out, side, ErrInvalidToken
		}
		return out, side, err
	}
	userID = session.UserID

	//期限切れはその場で消す
	now := s.clock.Now()
	if session.IsExpiredAt(now) {
		if derr := s.sessions.DeleteByToken(ctx, in.RefreshToken); derr != nil && !errors.Is(derr, repository.ErrRefreshSessionNotFound) {
			s.log.WarnContext(ctx, "delete expired session failed", "session_id", session.ID, "error", derr)
		}
		return out, side, ErrTokenExpired
	}

	//bodyにfingerprintが無い
	if in.Fingerprint == "" {
		return out, side, ErrMissingFingerprint
	}
	//発行時のfingerprintと違う
	if in.Fingerprint != session.Fingerprint {
		return out, side, ErrForgedIdentity
	}

	if session.User == nil {
		return out, side, fmt.Errorf("session %s has no user loaded", session.ID)
	}

	accessToken, _, err := s.issuer.Issue(session.User.ID, session.User.UserName, now)
	if err != nil {
		return out, side, fmt.Errorf("issue access token: %w", err)
	}

	next, plain, err := s.newSession(session.UserID, session.Fingerprint, meta, now)
	if err != nil {
		return out, side, fmt.Errorf("generate refresh token: %w", err)
	}

	//旧sessionの削除と新sessionの追加は原子的。同時refreshは1つだけ勝つ
	if err = s.sessions.Replace(ctx, in.RefreshToken, next, plain); err != nil {
		if errors.Is(err, repository.ErrRefreshSessionNotFound) {
			return out, side, ErrInvalidToken
		}
		return out, side, err
	}

	out = RefreshOutput{AccessToken: accessToken}
	side = CookieSideEffect{PlainRefreshToken: plain, ExpiresAt: next.ExpiresAt}
	return out, side, nil
}
