package authsdk

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
)

// ErrMissingToken is returned when a successful login response carried no
// bearer token in its Authorization header.
var ErrMissingToken = errors.New("authsdk: login response has no bearer token")

// SDKClient is a client for the directory authentication service.
// It provides access to unauthenticated operations and can create authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new auth service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Login authenticates username against the directory and returns a session
// holding the issued token.
//
// A forbidden account yields ErrForbidden, a throttled client a
// *RateLimitError and rejected input a *ValidationError.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*Session, error) {
	body, err := json.Marshal(LoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to encode login request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/login", bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, parseErrorResponse(resp, bodyBytes)
	}

	token, ok := strings.CutPrefix(resp.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return nil, ErrMissingToken
	}

	return c.NewSession(token), nil
}

// NewSession wraps a previously issued token.
func (c *SDKClient) NewSession(token string) *Session {
	return &Session{client: c, accessToken: token}
}
