package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"equimarket/internal/common/logger"
)

func TestTokenService_RoundTrip(t *testing.T) {
	s := NewTokenService("secret", 0, logger.NewTestLogger(t))

	token, err := s.GenerateJWT(Claims{UserID: "u1", Email: "rider@example.com"})
	require.NoError(t, err)

	claims, err := s.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestTokenService_FailuresCollapseToOneError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewZapAdapter(zap.New(core))

	s := NewTokenService("secret", time.Hour, log)
	other := NewTokenService("other-secret", time.Hour, log)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return issued }
	expired, err := s.GenerateJWT(Claims{UserID: "u1"})
	require.NoError(t, err)
	s.now = func() time.Time { return issued.Add(2 * time.Hour) }

	forged, err := other.GenerateJWT(Claims{UserID: "u1"})
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{"expired", expired, "expired"},
		{"wrong secret", forged, "signature"},
		{"malformed", "not.a.jwt", "malformed"},
		{"none algorithm", noneAlg, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.VerifyJWT(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Equal(t, ErrInvalidToken, err)
		})
	}

	reasons := map[string]bool{}
	for _, e := range logs.FilterMessage("token rejected").All() {
		reasons[e.ContextMap()["reason"].(string)] = true
	}
	assert.True(t, reasons["expired"])
	assert.True(t, reasons["signature"])
	assert.True(t, reasons["malformed"])
}

func TestTokenService_RequiresUserID(t *testing.T) {
	s := NewTokenService("secret", time.Hour, logger.NewNoOpLogger())
	token, err := s.GenerateJWT(Claims{})
	require.NoError(t, err)

	_, err = s.VerifyJWT(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
