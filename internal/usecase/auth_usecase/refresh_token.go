package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// refresh tokenのバイト長（256bit）
const refreshTokenBytes = 32

// ランダムなrefresh tokenを作る。中身に意味はなく、検索キーとしてだけ使う。
func generateSecureToken(bytesLen int) (string, error) {
	if bytesLen <= 0 {
		return "", fmt.Errorf("bytesLen must be positive")
	}

	// ランダムなバイト列を作る（OSが持つ安全な乱数）
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
