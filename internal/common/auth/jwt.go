// internal/common/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"equimarket/internal/common/logger"
)

// ErrInvalidToken is the only failure VerifyJWT reports. The underlying
// reason is logged, never returned.
var ErrInvalidToken = errors.New("INVALID_TOKEN")

// DefaultExpiry is the lifetime of issued tokens.
const DefaultExpiry = time.Hour

// Claims is the session payload carried in the token.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens with one secret.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
	logger logger.Logger
}

func NewTokenService(secret string, expiry time.Duration, log logger.Logger) *TokenService {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
		logger: log.WithFields(map[string]interface{}{"component": "jwt"}),
	}
}

// GenerateJWT signs claims with an expiry of now+expiry.
func (s *TokenService) GenerateJWT(claims Claims) (string, error) {
	now := s.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.expiry))
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyJWT returns the claims of a valid token and ErrInvalidToken otherwise.
func (s *TokenService) VerifyJWT(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		s.logger.Debug("token rejected", map[string]interface{}{"reason": rejectReason(err)})
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" {
		s.logger.Debug("token rejected", map[string]interface{}{"reason": "missing user id"})
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func rejectReason(err error) string {
	switch {
	case err == nil:
		return "invalid"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "signature"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return err.Error()
	}
}
