package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	testIssuer   = "auth-test"
	testAudience = "auth-test-clients"
)

func newTestIssuer() *JWTIssuer {
	return NewJWTIssuer(testSecret, testIssuer, testAudience, 30*time.Minute)
}

func TestJWTIssuer_RoundTrip(t *testing.T) {
	i := newTestIssuer()
	now := time.Now()

	raw, exp, err := i.Issue("5f1c2a8e-0000-4000-8000-000000000001", "user@test.com", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*time.Minute), exp)

	claims, err := i.Verify(raw, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "5f1c2a8e-0000-4000-8000-000000000001", claims.Subject)
	assert.Equal(t, "user@test.com", claims.Name)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, jwt.ClaimStrings{testAudience}, claims.Audience)
}

func TestJWTIssuer_DifferentKeyFails(t *testing.T) {
	now := time.Now()
	raw, _, err := newTestIssuer().Issue("u1", "user@test.com", now)
	require.NoError(t, err)

	other := NewJWTIssuer("another-secret-another-secret-xx", testIssuer, testAudience, 30*time.Minute)
	_, err = other.Verify(raw, now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTIssuer_WrongIssuerOrAudienceFails(t *testing.T) {
	now := time.Now()
	raw, _, err := newTestIssuer().Issue("u1", "user@test.com", now)
	require.NoError(t, err)

	_, err = NewJWTIssuer(testSecret, "someone-else", testAudience, time.Minute).Verify(raw, now)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewJWTIssuer(testSecret, testIssuer, "other-audience", time.Minute).Verify(raw, now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTIssuer_ExpiredFails(t *testing.T) {
	i := newTestIssuer()
	now := time.Now()
	raw, _, err := i.Issue("u1", "user@test.com", now)
	require.NoError(t, err)

	_, err = i.Verify(raw, now.Add(31*time.Minute))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTIssuer_RejectsOtherAlgorithms(t *testing.T) {
	now := time.Now()
	claims := Claims{
		Name: "user@test.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = newTestIssuer().Verify(raw, now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTIssuer_Garbage(t *testing.T) {
	_, err := newTestIssuer().Verify("not-a-jwt", time.Now())
	assert.ErrorIs(t, err, ErrInvalidToken)
}
