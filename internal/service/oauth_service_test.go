package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"mavon-shop/internal/model"
)

func (f *fakeUserStore) FindByGithubLogin(_ context.Context, login string) (model.User, error) {
	for _, u := range f.byID {
		if u.GithubLogin == login {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

// fakeOAuthStore gives states and exchange codes strict one-time semantics.
type fakeOAuthStore struct {
	states    map[string]bool
	exchanges map[string]model.TokenPair
}

func newFakeOAuthStore() *fakeOAuthStore {
	return &fakeOAuthStore{
		states:    map[string]bool{},
		exchanges: map[string]model.TokenPair{},
	}
}

func (f *fakeOAuthStore) SaveState(_ context.Context, state string, _ time.Duration) error {
	f.states[state] = true
	return nil
}

func (f *fakeOAuthStore) ConsumeState(_ context.Context, state string) error {
	if !f.states[state] {
		return model.ErrInvalidOAuthState
	}
	delete(f.states, state)
	return nil
}

func (f *fakeOAuthStore) SaveExchange(_ context.Context, code string, pair model.TokenPair, _ time.Duration) error {
	f.exchanges[code] = pair
	return nil
}

func (f *fakeOAuthStore) ConsumeExchange(_ context.Context, code string) (model.TokenPair, error) {
	pair, ok := f.exchanges[code]
	if !ok {
		return model.TokenPair{}, model.ErrExchangeCodeNotFound
	}
	delete(f.exchanges, code)
	return pair, nil
}

// githubStub stands in for both GitHub's token endpoint and its REST API.
func githubStub(t *testing.T, profile githubProfile) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "gh-access",
			"token_type":   "bearer",
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})

	return httptest.NewServer(mux)
}

func newTestOAuthService(t *testing.T, users *fakeUserStore, store *fakeOAuthStore, gh *httptest.Server) *OAuthService {
	t.Helper()

	auth := newTestAuthService(t, users, newFakeTokenStore())
	svc := NewOAuthService(auth, users, store,
		"client-id", "client-secret", "http://localhost:8080/api/v1/auth/github/callback",
		"http://localhost:3000", 10*time.Minute, time.Minute)

	svc.conf.Endpoint = oauth2.Endpoint{
		AuthURL:  gh.URL + "/authorize",
		TokenURL: gh.URL + "/token",
	}
	svc.apiBaseURL = gh.URL
	return svc
}

func TestOAuthService_Enabled(t *testing.T) {
	t.Parallel()

	auth := newTestAuthService(t, newFakeUserStore(), newFakeTokenStore())

	configured := NewOAuthService(auth, newFakeUserStore(), newFakeOAuthStore(),
		"id", "secret", "cb", "fe", time.Minute, time.Minute)
	assert.True(t, configured.Enabled())

	unconfigured := NewOAuthService(auth, newFakeUserStore(), newFakeOAuthStore(),
		"", "", "cb", "fe", time.Minute, time.Minute)
	assert.False(t, unconfigured.Enabled())
}

func TestOAuthService_CallbackFlow(t *testing.T) {
	t.Parallel()

	gh := githubStub(t, githubProfile{Login: "mira-gh", Name: "Mira", Email: "mira@example.com"})
	defer gh.Close()

	users := newFakeUserStore()
	store := newFakeOAuthStore()
	svc := newTestOAuthService(t, users, store, gh)

	authURL, err := svc.AuthURL(context.Background())
	require.NoError(t, err)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	state := parsed.Query().Get("state")
	require.NotEmpty(t, state)

	redirect, err := svc.HandleCallback(context.Background(), state, "gh-code")
	require.NoError(t, err)

	// The redirect carries only the one-time code, never tokens.
	redirectURL, err := url.Parse(redirect)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(redirect, "http://localhost:3000/"))
	assert.Empty(t, redirectURL.Query().Get("access_token"))
	assert.Empty(t, redirectURL.Query().Get("refresh_token"))

	code := redirectURL.Query().Get("code")
	require.NotEmpty(t, code)

	pair, err := svc.Exchange(context.Background(), code)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "mira-gh", users.byID[pair.User.ID].GithubLogin)

	// The code is spent.
	_, err = svc.Exchange(context.Background(), code)
	require.ErrorIs(t, err, model.ErrExchangeCodeNotFound)
}

func TestOAuthService_CallbackRejectsUnknownState(t *testing.T) {
	t.Parallel()

	gh := githubStub(t, githubProfile{Login: "mira-gh"})
	defer gh.Close()

	svc := newTestOAuthService(t, newFakeUserStore(), newFakeOAuthStore(), gh)

	_, err := svc.HandleCallback(context.Background(), "forged-state", "gh-code")
	require.ErrorIs(t, err, model.ErrInvalidOAuthState)
}

func TestOAuthService_LinksExistingAccountByEmail(t *testing.T) {
	t.Parallel()

	gh := githubStub(t, githubProfile{Login: "mira-gh", Email: "mira@example.com"})
	defer gh.Close()

	users := newFakeUserStore()
	store := newFakeOAuthStore()
	svc := newTestOAuthService(t, users, store, gh)

	existing := model.User{ID: "u1", Name: "Mira", Email: "mira@example.com", Role: model.RoleUser}
	require.NoError(t, users.Create(context.Background(), existing))

	authURL, err := svc.AuthURL(context.Background())
	require.NoError(t, err)
	state := mustQueryParam(t, authURL, "state")

	redirect, err := svc.HandleCallback(context.Background(), state, "gh-code")
	require.NoError(t, err)

	code := mustQueryParam(t, redirect, "code")
	pair, err := svc.Exchange(context.Background(), code)
	require.NoError(t, err)

	// No duplicate account was created.
	assert.Equal(t, "u1", pair.User.ID)
	assert.Len(t, users.byID, 1)
}

func mustQueryParam(t *testing.T, rawURL string, key string) string {
	t.Helper()

	parsed, err := url.Parse(rawURL)
	require.NoError(t, err)

	value := parsed.Query().Get(key)
	require.NotEmpty(t, value)
	return value
}
