package stackauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-chat-be/pkg/retryhttp"

	"golang.org/x/oauth2"
)

// ErrUnavailable is returned when Stack Auth stays unreachable through the
// whole retry budget and degraded mode is off.
var ErrUnavailable = errors.New("stack auth unavailable")

// Profile is the identity document Stack Auth returns for an access token.
type Profile struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`

	// Degraded marks a sentinel identity substituted after retry exhaustion.
	Degraded bool `json:"-"`
}

// Config is injected; client id/secret never live in code.
type Config struct {
	BaseURL        string
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	MaxRetries     int
	AttemptTimeout time.Duration

	// AllowDegraded substitutes a sentinel identity when Stack Auth is
	// unreachable so the login flow can proceed offline. Off by default.
	AllowDegraded bool
}

// Client performs the code-for-token exchange and profile fetch against a
// Stack Auth deployment. Both network calls run through a bounded-retry
// policy with a per-attempt timeout.
type Client struct {
	conf          *oauth2.Config
	baseURL       string
	retry         *retryhttp.Client
	allowDegraded bool
}

func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://app.stack-auth.com"
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"read_user"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   baseURL + "/oauth/authorize",
			TokenURL:  baseURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	retry := retryhttp.New(
		retryhttp.WithMaxRetries(cfg.MaxRetries),
		retryhttp.WithAttemptTimeout(cfg.AttemptTimeout),
	)

	return &Client{
		conf:          conf,
		baseURL:       baseURL,
		retry:         retry,
		allowDegraded: cfg.AllowDegraded,
	}
}

// AuthCodeURL builds the authorization redirect for the login button.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange swaps an authorization code for an access token. The oauth2
// transport is overridden with the retrying client so each attempt is
// individually timed out.
func (c *Client) Exchange(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.retry.HTTPClient())
	token, err := c.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("token exchange failed: %w", err)
	}
	return token.AccessToken, nil
}

// FetchProfile loads the userinfo document for an access token.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/api/userinfo", nil)
	if err != nil {
		return nil, fmt.Errorf("create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.retry.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo fetch failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read userinfo response: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, fmt.Errorf("parse userinfo response: %w", err)
	}
	return &profile, nil
}

// Authenticate runs the full callback flow: code exchange, then profile
// fetch. When both retry budgets are exhausted and degraded mode is on, a
// sentinel identity is substituted so the flow can complete offline.
func (c *Client) Authenticate(ctx context.Context, code string) (*Profile, error) {
	accessToken, err := c.Exchange(ctx, code)
	if err != nil {
		if c.allowDegraded {
			return degradedProfile(), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	profile, err := c.FetchProfile(ctx, accessToken)
	if err != nil {
		if c.allowDegraded {
			return degradedProfile(), nil
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return profile, nil
}

func degradedProfile() *Profile {
	return &Profile{
		Sub:      "mock-user-id",
		Name:     "Demo User",
		Email:    "demo@example.com",
		Degraded: true,
	}
}
