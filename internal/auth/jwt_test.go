package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("test-secret", "auth.example")
	token, err := m.Generate("user-1", time.Hour)
	assert.NoError(t, err)

	claims, err := m.Validate(token)
	assert.NoError(t, err)
	check.Equal(t, "user-1", claims.UserID())
	check.Equal(t, "auth.example", claims.Issuer)
}

func TestJWTManager_Rejects(t *testing.T) {
	m := NewJWTManager("test-secret", "auth.example")

	expired, err := m.Generate("user-1", -time.Hour)
	assert.NoError(t, err)

	otherSecret, err := NewJWTManager("other-secret", "auth.example").Generate("user-1", time.Hour)
	assert.NoError(t, err)

	otherIssuer, err := NewJWTManager("test-secret", "elsewhere").Generate("user-1", time.Hour)
	assert.NoError(t, err)

	noSubject, err := m.Generate("", time.Hour)
	assert.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	assert.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", otherSecret},
		{"wrong issuer", otherIssuer},
		{"missing subject", noSubject},
		{"alg none", unsigned},
		{"garbage", "not.a.token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Validate(tt.token)
			check.True(t, errors.Is(err, ErrInvalidToken))
		})
	}
}
