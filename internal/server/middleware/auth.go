package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state"
)

// TokenVerifier resolves a bearer token into a user profile. Implemented by
// the auth gateway; tests substitute fakes.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*state.Profile, error)
}

// NewAuthMiddleware rejects the handshake before the WebSocket upgrade when
// the token is missing or the backend refuses it. Browser WebSocket clients
// cannot set headers, so the token is read from the `token` query parameter
// first, then from an Authorization bearer header.
func NewAuthMiddleware(logger *slog.Logger, verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// couldn't extract metadata from request so something went wrong with previous middlewares
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			token := r.URL.Query().Get("token")
			if token == "" {
				if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
					token = strings.TrimPrefix(authHeader, "Bearer ")
				}
			}

			// no token, no network call.
			if token == "" {
				logger.Warn("Connection attempt without token", slog.String("ip", reqMeta.IP))
				http.Error(w, "token required", http.StatusUnauthorized)
				return
			}

			profile, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Warn("Token verification failed",
					slog.String("ip", reqMeta.IP),
					slog.Any("error", err),
				)
				http.Error(w, "authentication failed", http.StatusUnauthorized)
				return
			}

			reqMeta.Profile = profile
			next.ServeHTTP(w, r)
		})
	}
}
