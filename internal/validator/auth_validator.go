package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// 入力が不正
	ErrInvalidInput = errors.New("invalid input")
)

const (
	minPasswordLen = 6
	maxPasswordLen = 100
)

// 簡易メール形式
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// register / login の入力を検証（識別サービスを呼ぶ前に弾く）
func ValidateCredentials(email string, password string, visitorID string, requestID string) error {
	email = strings.TrimSpace(email)

	// 必須チェック
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if strings.TrimSpace(visitorID) == "" {
		return fmt.Errorf("%w: visitorId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(requestID) == "" {
		return fmt.Errorf("%w: requestId is required", ErrInvalidInput)
	}

	// email形式
	if !isEmailLike(email) {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}

	// パスワードは6〜100文字
	if n := utf8.RuneCountInString(password); n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("%w: password must be at least %d and at max %d characters long", ErrInvalidInput, minPasswordLen, maxPasswordLen)
	}

	return nil
}

func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
