package auth

import (
	"context"
	"errors"
	"fmt"

	"authsvc/internal/domain/model"
	"authsvc/internal/repository"
)

// ログイン処理を実行する
func (s *Service) Login(ctx context.Context, in CredentialsInput, meta ClientMeta) (out AuthOutput, side CookieSideEffect, err error) {
	var userID string
	defer func() { s.record(ctx, model.AuditActionLogin, userID, meta, err) }()

	//識別サービス + Guard（偽装・鮮度・信頼度・登録数）
	if err = s.verifyAndGuard(ctx, PurposeLogin, in); err != nil {
		return out, side, err
	}

	//user_nameでユーザー取得
	user, err := s.users.FindByUserName(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return out, side, err
	}

	//パスワード照合（ユーザーが無くてもダミーと比較して時間を揃える）
	if user == nil {
		s.verifier.Verify(in.Password, dummyPasswordHash)
		return out, side, ErrInvalidCredentials
	}
	if ok := s.verifier.Verify(in.Password, user.PasswordHash); !ok {
		return out, side, ErrInvalidCredentials
	}

	now := s.clock.Now()
	session, plain, err := s.newSession(user.ID, in.VisitorID, meta, now)
	if err != nil {
		return out, side, fmt.Errorf("generate refresh token: %w", err)
	}
	if err = s.sessions.Create(ctx, session, plain); err != nil {
		return out, side, err
	}
	userID = user.ID

	accessToken, _, err := s.issuer.Issue(user.ID, user.UserName, now)
	if err != nil {
		return out, side, fmt.Errorf("issue access token: %w", err)
	}

	out = AuthOutput{AccessToken: accessToken, RefreshToken: plain}
	side = CookieSideEffect{PlainRefreshToken: plain, ExpiresAt: session.ExpiresAt}
	return out, side, nil
}
