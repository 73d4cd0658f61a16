package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ReadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("maintenance"))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(5 * time.Second)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ok", nil)
	resp, err := c.DoWithContext(context.Background(), req)
	require.NoError(t, err)
	body, err := c.ReadBody(resp)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))

	req, _ = http.NewRequest(http.MethodGet, srv.URL+"/fail", nil)
	resp, err = c.Do(req)
	require.NoError(t, err)
	_, err = c.ReadBody(resp)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance", statusErr.Body)
	assert.True(t, statusErr.Transient())
}

func TestIsTransientStatus(t *testing.T) {
	assert.True(t, IsTransientStatus(http.StatusTooManyRequests))
	assert.True(t, IsTransientStatus(http.StatusBadGateway))
	assert.False(t, IsTransientStatus(http.StatusBadRequest))
	assert.False(t, IsTransientStatus(http.StatusConflict))
}
