package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/testutil"
	"ai-chat-be/pkg/auth"
	"ai-chat-be/pkg/auth/stackauth"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newStackAuthServer(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"access_token": "tok", "token_type": "Bearer"})
	})
	mux.HandleFunc("/api/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"sub":     "sa-42",
			"name":    "Alice",
			"email":   "alice@example.com",
			"picture": "https://example.com/a.png",
		})
	})
	return httptest.NewServer(mux)
}

func newOAuthService(store *testutil.Store, baseURL string, allowDegraded bool) IOAuthService {
	client := stackauth.NewClient(stackauth.Config{
		BaseURL:        baseURL,
		ClientID:       "cid",
		ClientSecret:   "secret",
		RedirectURL:    "http://localhost:3000/api/stackauth/callback",
		MaxRetries:     2,
		AttemptTimeout: 2 * time.Second,
		AllowDegraded:  allowDegraded,
	})
	return NewOAuthService(
		testutil.NewFactory(store),
		client,
		auth.NewTokenCodec("test-secret", time.Hour),
		testutil.NullPublisher{},
		testutil.NullLogger{},
	)
}

func TestCallbackProvisionsNewUser(t *testing.T) {
	srv := newStackAuthServer(t, true)
	defer srv.Close()

	store := testutil.NewStore()
	svc := newOAuthService(store, srv.URL, false)

	res, err := svc.HandleCallback(context.Background(), "auth-code")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "alice@example.com", res.User.Email)

	assert.Len(t, store.Users, 1)
	assert.Len(t, store.Providers, 1)
	assert.Equal(t, "stackauth", store.Providers[0].ProviderName)
	assert.Equal(t, "sa-42", store.Providers[0].ProviderUserId)
}

func TestCallbackLinksExistingUser(t *testing.T) {
	srv := newStackAuthServer(t, true)
	defer srv.Close()

	store := testutil.NewStore()
	existing := &entity.User{Id: uuid.New(), Email: "alice@example.com", Name: "Alice", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	store.Users[existing.Id] = existing

	svc := newOAuthService(store, srv.URL, false)

	res, err := svc.HandleCallback(context.Background(), "auth-code")
	assert.NoError(t, err)
	assert.Equal(t, existing.Id, res.User.Id)
	assert.Len(t, store.Users, 1)

	// Avatar synced from the provider profile.
	assert.NotNil(t, store.Users[existing.Id].AvatarURL)
	assert.Equal(t, "https://example.com/a.png", *store.Users[existing.Id].AvatarURL)
}

func TestCallbackFailsWhenProviderDown(t *testing.T) {
	srv := newStackAuthServer(t, false)
	defer srv.Close()

	store := testutil.NewStore()
	svc := newOAuthService(store, srv.URL, false)

	_, err := svc.HandleCallback(context.Background(), "auth-code")
	assert.ErrorIs(t, err, stackauth.ErrUnavailable)
	assert.Empty(t, store.Users)
}

func TestCallbackDegradedIdentity(t *testing.T) {
	srv := newStackAuthServer(t, false)
	defer srv.Close()

	store := testutil.NewStore()
	svc := newOAuthService(store, srv.URL, true)

	res, err := svc.HandleCallback(context.Background(), "auth-code")
	assert.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "demo@example.com", res.User.Email)
	assert.Equal(t, "Demo User", res.User.Name)
}
