package middleware_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoanle0126/LuxeBeauty-sub003/internal/auth"
	"github.com/hoanle0126/LuxeBeauty-sub003/internal/server/middleware"
	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

type fakeVerifier struct {
	calls   int
	token   string
	profile *state.Profile
	err     error
}

func (f *fakeVerifier) Verify(ctx context.Context, token string) (*state.Profile, error) {
	f.calls++
	f.token = token
	return f.profile, f.err
}

// builds metadata -> auth -> next, recording what the inner handler saw.
func newAuthChain(verifier middleware.TokenVerifier) (http.Handler, *struct {
	called  bool
	profile *state.Profile
}) {
	seen := &struct {
		called  bool
		profile *state.Profile
	}{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.called = true
		if meta, ok := middleware.ReqMetadataFrom(r.Context()); ok {
			seen.profile = meta.Profile
		}
	})
	h := middleware.Chain(next,
		middleware.RequestMetadataMiddleware(),
		middleware.NewAuthMiddleware(newTestLogger(), verifier),
	)
	return h, seen
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	verifier := &fakeVerifier{}
	h, seen := newAuthChain(verifier)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token required")
	assert.Equal(t, 0, verifier.calls, "verifier must not be consulted without a token")
	assert.False(t, seen.called)
}

func TestAuthMiddlewareQueryToken(t *testing.T) {
	profile := &state.Profile{ID: "7", Name: "Lan", Roles: state.NewRoleSet("customer")}
	verifier := &fakeVerifier{profile: profile}
	h, seen := newAuthChain(verifier)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=tok-123", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, seen.called)
	assert.Equal(t, "tok-123", verifier.token)
	assert.Equal(t, profile, seen.profile)
}

func TestAuthMiddlewareBearerHeader(t *testing.T) {
	verifier := &fakeVerifier{profile: &state.Profile{ID: "9"}}
	h, seen := newAuthChain(verifier)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer tok-456")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, seen.called)
	assert.Equal(t, "tok-456", verifier.token)
}

func TestAuthMiddlewareVerificationFailure(t *testing.T) {
	verifier := &fakeVerifier{err: auth.ErrVerificationFailed}
	h, seen := newAuthChain(verifier)

	req := httptest.NewRequest(http.MethodGet, "/ws?token=bad", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "authentication failed")
	assert.False(t, seen.called)
}
