package auth

import (
	"context"
	"errors"

	"authsvc/internal/domain/model"
	"authsvc/internal/repository"
)

type LogoutOutput struct {
	Message string `json:"message"`
}

// refresh sessionを削除する。
// 結果に関わらずside.Clear=trueを返すので、handlerは常にcookieを消す。
func (s *Service) Logout(ctx context.Context, refreshToken string, meta ClientMeta) (out LogoutOutput, side CookieSideEffect, err error) {
	side = CookieSideEffect{Clear: true}
	var userID string
	defer func() { s.record(ctx, model.AuditActionLogout, userID, meta, err) }()

	//cookieが無ければ消すものも無い
	if refreshToken == "" {
		return LogoutOutput{Message: "Successfully logged out."}, side, nil
	}

	//監査ログ用に持ち主を先に取る
	session, err := s.sessions.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrRefreshSessionNotFound) {
			return out, side, ErrSessionNotFound
		}
		return out, side, err
	}
	userID = session.UserID

	//同時logoutで先に消されていたら負け
	if err = s.sessions.DeleteByToken(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrRefreshSessionNotFound) {
			return out, side, ErrSessionNotFound
		}
		return out, side, err
	}

	return LogoutOutput{Message: "Successfully logged out."}, side, nil
}
