package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := NewManager("test-secret")
	token, err := m.GenerateToken(42, "admin", time.Hour)
	require.NoError(t, err)

	claims, err := m.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret")
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := m.GenerateToken(1, "customer", time.Hour)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.VerifyToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyRejectsTampering(t *testing.T) {
	m := NewManager("test-secret")
	token, err := m.GenerateToken(1, "customer", time.Hour)
	require.NoError(t, err)

	_, err = NewManager("other-secret").VerifyToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = m.VerifyToken("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// alg none must never be accepted
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           1,
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.VerifyToken(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
