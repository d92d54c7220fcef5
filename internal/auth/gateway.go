package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hoanle0126/LuxeBeauty-sub003/pkg/state"
)

var (
	// ErrTokenMissing is returned before any network call is made.
	ErrTokenMissing = errors.New("token required")
	// ErrVerificationFailed covers every backend-side failure; the detail is
	// logged, never surfaced to the client.
	ErrVerificationFailed = errors.New("authentication failed")
)

// Gateway verifies bearer tokens against the storefront backend's identity
// endpoint. A token is valid iff GET <backend>/api/user answers with a user
// object carrying a non-empty id.
type Gateway struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
	timeout time.Duration
}

func NewGateway(logger *slog.Logger, baseURL string, timeout time.Duration) *Gateway {
	return &Gateway{
		logger:  logger.With(slog.String("component", "auth_gateway")),
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// wire shape of the backend's current-user response.
type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Roles []struct {
		Name string `json:"name"`
	} `json:"roles"`
}

// Verify resolves the profile behind a bearer token. A missing token fails
// immediately with ErrTokenMissing; any other failure (bad status, malformed
// body, missing id, timeout) collapses to ErrVerificationFailed.
func (g *Gateway) Verify(ctx context.Context, token string) (*state.Profile, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/user", nil)
	if err != nil {
		return nil, fmt.Errorf("building verification request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("Identity verification call failed", slog.Any("error", err))
		return nil, ErrVerificationFailed
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("Identity endpoint rejected token", slog.Int("status", resp.StatusCode))
		return nil, ErrVerificationFailed
	}

	var user userResponse
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		g.logger.Warn("Identity endpoint returned malformed body", slog.Any("error", err))
		return nil, ErrVerificationFailed
	}
	if user.ID == 0 {
		g.logger.Warn("Identity endpoint response missing user id")
		return nil, ErrVerificationFailed
	}

	roles := make([]string, 0, len(user.Roles))
	for _, role := range user.Roles {
		roles = append(roles, role.Name)
	}

	return &state.Profile{
		ID:    strconv.FormatInt(user.ID, 10),
		Name:  user.Name,
		Email: user.Email,
		Roles: state.NewRoleSet(roles...),
	}, nil
}
