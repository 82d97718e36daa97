package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Credentials supply token for mutating calls.
type Credentials interface {
	Token(ctx context.Context) (string, error)
	// Refresh drops current token, next Token call obtains fresh one.
	Refresh(ctx context.Context) error
}

// NewCredentials returns static token when no token URL is configured,
// token fetched from the URL otherwise.
func NewCredentials(token, tokenURL string, timeout time.Duration) Credentials {
	if len(tokenURL) == 0 {
		return StaticToken(token)
	}
	return &TokenEndpoint{URL: tokenURL, Client: &http.Client{Timeout: timeout}, token: token}
}

// StaticToken never changes.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

func (StaticToken) Refresh(context.Context) error {
	return nil
}

// TokenEndpoint obtains token with GET request returning {"token": "..."}.
type TokenEndpoint struct {
	URL    string
	Client *http.Client

	mu    sync.Mutex
	token string
}

func (t *TokenEndpoint) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.token) > 0 {
		return t.token, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return "", err
	}
	resp, err := t.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("unable to obtain token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unable to obtain token: %s", resp.Status)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&body); err != nil {
		return "", fmt.Errorf("unable to decode token: %w", err)
	}
	t.token = body.Token
	return t.token, nil
}

func (t *TokenEndpoint) Refresh(context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = ""
	return nil
}
