package auth

import (
	"errors"

	"authsvc/internal/domain/model"
)

var (
	// 外部の識別サービスに失敗（到達不可・不正レスポンス・timestamp欠落）
	ErrProvider = model.ErrIdentityProvider

	// クライアントのvisitor idとサービスの結果が違う
	ErrForgedIdentity = errors.New("forged visitor id")
	// 識別結果が古い（2分以上前）
	ErrStaleIdentification = errors.New("expired identification timestamp")
	// 信頼度が低い（login のみ）
	ErrLowConfidence = errors.New("low confidence identification score")
	// 同じブラウザでの登録が多すぎる
	ErrTooManyRegistrations = errors.New("too many registrations for this browser")

	// 競合
	ErrUserExists = errors.New("user already exists")
	// メールまたはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid login attempt")

	// refresh tokenが無い
	ErrMissingToken = errors.New("refresh token not found")
	// refresh token / access token が不正
	ErrInvalidToken = errors.New("invalid token")
	// refresh tokenの期限切れ
	ErrTokenExpired = errors.New("refresh token expired")
	// refreshのbodyにfingerprintが無い
	ErrMissingFingerprint = errors.New("fingerprint is required")

	// logout時にsessionが無い
	ErrSessionNotFound = errors.New("session not found")
)

// errorをAPI/監査ログ用の理由コードに変換する
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProvider):
		return "PROVIDER_ERROR"
	case errors.Is(err, ErrForgedIdentity):
		return "FORGED_IDENTITY"
	case errors.Is(err, ErrStaleIdentification):
		return "STALE_IDENTIFICATION"
	case errors.Is(err, ErrLowConfidence):
		return "LOW_CONFIDENCE"
	case errors.Is(err, ErrTooManyRegistrations):
		return "TOO_MANY_REGISTRATIONS"
	case errors.Is(err, ErrUserExists):
		return "USER_EXISTS"
	case errors.Is(err, ErrInvalidCredentials):
		return "INVALID_CREDENTIALS"
	case errors.Is(err, ErrMissingToken):
		return "MISSING_TOKEN"
	case errors.Is(err, ErrInvalidToken):
		return "INVALID_TOKEN"
	case errors.Is(err, ErrTokenExpired):
		return "TOKEN_EXPIRED"
	case errors.Is(err, ErrMissingFingerprint):
		return "MISSING_FINGERPRINT"
	case errors.Is(err, ErrSessionNotFound):
		return "SESSION_NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

// ユーザー側の原因で拒否されたか（500扱いにしないもの）
func IsRejection(err error) bool {
	r := Reason(err)
	return r != "" && r != "INTERNAL" && r != "PROVIDER_ERROR"
}
