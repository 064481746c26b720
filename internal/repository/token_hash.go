package repository

import (
	"crypto/sha256"
	"encoding/hex"
)

// refresh tokenの保存用ハッシュ。DBには平文を置かない
func HashToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
