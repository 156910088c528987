package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ntce/share-front/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	fakeOAuthClient
	fakePublisher
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := session.NewStore(
		[]byte("test-signing-key-32-bytes-long!!"),
		[]byte("test-sealing-key-32-bytes-long!!"),
		time.Hour,
		5*time.Minute,
		false,
	)
	return NewRouter(testConfig(), store, &fakeClient{})
}

func TestRouter_Health(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/auth/start", http.StatusFound},
		{http.MethodGet, "/auth/status", http.StatusOK},
		{http.MethodGet, "/auth/logout", http.StatusFound},
		{http.MethodPost, "/publish", http.StatusUnauthorized},
		{http.MethodDelete, "/publish", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, rec.Code, "%s %s", tt.method, tt.path)
	}
}
