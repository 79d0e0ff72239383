package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrUnauthorized indicates the backend rejected the credentials or token.
	ErrUnauthorized = errors.New("auth: unauthorized")
	// ErrBackendUnavailable indicates the backend could not be reached or answered unexpectedly.
	ErrBackendUnavailable = errors.New("auth: backend unavailable")
)

// Backend is the recruitment backend's authentication API.
type Backend interface {
	Login(ctx context.Context, email, password string) (LoginResult, error)
	Verify(ctx context.Context, token string) (LoginResult, error)
}

// envelope is the backend's response wrapper.
type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	IsError bool            `json:"isError"`
}

// BackendClient talks to the backend over HTTP.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	verifies   singleflight.Group
}

// NewBackendClient constructs a client for baseURL.
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Login exchanges email and password for a token and role set.
func (c *BackendClient) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return LoginResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// Verify resolves a bearer token to its principal. Concurrent calls for the
// same token share one backend round trip.
func (c *BackendClient) Verify(ctx context.Context, token string) (LoginResult, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return LoginResult{}, ErrUnauthorized
	}
	ch := c.verifies.DoChan(token, func() (interface{}, error) {
		req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, c.baseURL+"/api/auth/verify", nil)
		if err != nil {
			return LoginResult{}, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return c.do(req)
	})
	select {
	case <-ctx.Done():
		return LoginResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return LoginResult{}, res.Err
		}
		return res.Val.(LoginResult), nil
	}
}

func (c *BackendClient) do(req *http.Request) (LoginResult, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return LoginResult{}, ErrUnauthorized
	case resp.StatusCode >= 400:
		return LoginResult{}, fmt.Errorf("%w: status %d", ErrBackendUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return LoginResult{}, fmt.Errorf("%w: read body: %v", ErrBackendUnavailable, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return LoginResult{}, fmt.Errorf("%w: decode envelope: %v", ErrBackendUnavailable, err)
	}
	if env.IsError {
		if env.Status == http.StatusUnauthorized || env.Status == http.StatusForbidden {
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, fmt.Errorf("%w: %s", ErrBackendUnavailable, env.Message)
	}
	var result LoginResult
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return LoginResult{}, fmt.Errorf("%w: decode principal: %v", ErrBackendUnavailable, err)
	}
	return result, nil
}

// TokenExpiry reads the exp claim of a backend token. The signature is not
// checked; the backend remains the authority on token validity.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
