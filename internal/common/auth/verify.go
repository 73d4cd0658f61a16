// internal/common/auth/verify.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "equimarket/internal/common/errors"
	httpclient "equimarket/internal/common/http"
	"equimarket/internal/common/logger"
	"equimarket/internal/models"
)

// Verifier resolves a session token to a user.
type Verifier interface {
	Verify(ctx context.Context, sessionToken string) (*models.User, error)
}

// VerifyHandler serves GET /api/auth/verify from the session cookie.
// It always answers 200 with {authenticated, user?}.
func VerifyHandler(tokens *TokenService, cookieName string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := models.VerifyResponse{}

		if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" {
			if claims, err := tokens.VerifyJWT(cookie.Value); err == nil {
				resp.Authenticated = true
				resp.User = &models.User{ID: claims.UserID, Email: claims.Email, Name: claims.Name}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// VerifyClient asks the verify endpoint whether a session token is live.
type VerifyClient struct {
	url        string
	cookieName string
	http       *httpclient.Client
	logger     logger.Logger
}

func NewVerifyClient(verifyURL, cookieName string, timeout time.Duration, log logger.Logger) *VerifyClient {
	return &VerifyClient{
		url:        verifyURL,
		cookieName: cookieName,
		http:       httpclient.NewClient(timeout),
		logger:     log.WithFields(map[string]interface{}{"component": "auth-verify"}),
	}
}

func (c *VerifyClient) Verify(ctx context.Context, sessionToken string) (*models.User, error) {
	if sessionToken == "" {
		return nil, apperrors.NewNotAuthenticatedError("no session token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, apperrors.NewAuthVerifyFailedError(err)
	}
	req.AddCookie(&http.Cookie{Name: c.cookieName, Value: sessionToken})

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.NewAuthVerifyFailedError(err)
	}
	body, err := c.http.ReadBody(resp)
	if err != nil {
		return nil, apperrors.NewAuthVerifyFailedError(err)
	}

	var out models.VerifyResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, apperrors.NewAuthVerifyFailedError(fmt.Errorf("decode verify response: %w", err))
	}
	if !out.Authenticated || out.User == nil || out.User.ID == "" {
		return nil, apperrors.NewNotAuthenticatedError("session not authenticated")
	}
	return out.User, nil
}

// LocalVerifier checks tokens in-process with the same TokenService the
// verify endpoint uses.
type LocalVerifier struct {
	tokens *TokenService
}

func NewLocalVerifier(tokens *TokenService) *LocalVerifier {
	return &LocalVerifier{tokens: tokens}
}

func (v *LocalVerifier) Verify(_ context.Context, sessionToken string) (*models.User, error) {
	if sessionToken == "" {
		return nil, apperrors.NewNotAuthenticatedError("no session token")
	}
	claims, err := v.tokens.VerifyJWT(sessionToken)
	if err != nil {
		return nil, apperrors.NewNotAuthenticatedError("invalid session token")
	}
	return &models.User{ID: claims.UserID, Email: claims.Email, Name: claims.Name}, nil
}
