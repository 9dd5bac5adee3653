// Package auth verifies bearer tokens against a Supabase-style auth
// endpoint. It is deliberately thin: token in, authenticated identity out.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"research-rag/internal/config"
)

// ErrInvalidToken means the token was missing, malformed or rejected by the
// auth backend.
var ErrInvalidToken = errors.New("invalid token")

// User is the authenticated identity behind a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Verifier struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		serviceKey: cfg.ServiceKey,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify resolves a bearer token to a user.
func (v *Verifier) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.serviceKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("decoding auth response: %w", err)
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

// TokenFromHeader extracts the bearer token from an Authorization header
// value, or returns an empty string.
func TokenFromHeader(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
