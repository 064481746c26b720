package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// 検証失敗はすべてこれ（部分的に信用しない）
var ErrInvalidToken = errors.New("invalid access token")

// Claimsはaccess tokenの中身。subがuser id、nameがuser name。
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// JWTIssuerはHS256のaccess tokenを発行・検証する。
// 設定は起動時に一度だけ渡し、以後変更しない。
type JWTIssuer struct {
	secret    []byte
	issuer    string
	audience  string
	accessTTL time.Duration
}

// DI
func NewJWTIssuer(secret string, issuer string, audience string, accessTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:    []byte(secret),
		issuer:    issuer,
		audience:  audience,
		accessTTL: accessTTL,
	}
}

// access tokenを発行
func (i *JWTIssuer) Issue(userID string, userName string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(i.accessTTL)

	claims := Claims{
		Name: userName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return signed, expiresAt, nil
}

// 署名・iss・aud・expを検証してclaimsを返す
func (i *JWTIssuer) Verify(raw string, now time.Time) (*Claims, error) {
	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	tok, err := parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.Subject == "" || claims.Name == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
