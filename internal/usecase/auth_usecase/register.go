package auth

import (
	"context"
	"errors"
	"fmt"

	"authsvc/internal/domain/model"
	"authsvc/internal/repository"
)

// 会員登録実行
func (s *Service) Register(ctx context.Context, in CredentialsInput, meta ClientMeta) (out AuthOutput, side CookieSideEffect, err error) {
	var userID string
	defer func() { s.record(ctx, model.AuditActionRegister, userID, meta, err) }()

	//識別サービス + Guard（偽装・鮮度・登録数）
	if err = s.verifyAndGuard(ctx, PurposeRegister, in); err != nil {
		return out, side, err
	}

	//user_name重複チェック
	existing, err := s.users.FindByUserName(ctx, in.Email)
	if err == nil && existing != nil {
		return out, side, ErrUserExists
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return out, side, err
	}

	//パスワードをハッシュ化
	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return out, side, fmt.Errorf("hash password: %w", err)
	}

	now := s.clock.Now()
	user := &model.User{
		ID:               s.idGen.NewID(),
		UserName:         in.Email,
		PasswordHash:     hashed,
		Fingerprint:      in.VisitorID,
		RegistrationDate: now,
	}

	session, plain, err := s.newSession(user.ID, in.VisitorID, meta, now)
	if err != nil {
		return out, side, fmt.Errorf("generate refresh token: %w", err)
	}

	//userとsessionは同じTxで保存
	err = s.tx.WithinTx(ctx, func(r repository.TxRepos) error {
		if err := r.Users().Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicateUser) {
				return ErrUserExists
			}
			return err
		}
		return r.Sessions().Create(ctx, session, plain)
	})
	if err != nil {
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
