package auth

import (
	"context"
	"time"

	"authsvc/internal/domain/model"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// 外部の識別サービスに1回だけ問い合わせる約束（リトライしない）
type IdentityVerifier interface {
	Verify(ctx context.Context, requestID string) (model.Identification, error)
}

// JWTを発行する約束
type AccessTokenIssuer interface {
	Issue(userID string, userName string, now time.Time) (token string, expiresAt time.Time, err error)
}

// 平文パスワードからハッシュへ。
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// 入力パスワードと保存したハッシュを比べる約束
type PasswordVerifier interface {
	Verify(plain string, hashed string) bool
}

// 登録数の集計（Guardが使う唯一のDB読み取り）
type RegistrationCounter interface {
	CountByFingerprintSince(ctx context.Context, fingerprint string, since time.Time) (int64, error)
}
