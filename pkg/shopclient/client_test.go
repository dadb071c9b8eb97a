package shopclient

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeToken builds an unsigned JWT-shaped token whose exp claim the client
// can read. The server side in these tests matches tokens by string value.
func makeToken(name string, exp time.Time) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(fmt.Sprintf(`{"sub":"%s","exp":%d}`, name, exp.Unix())))
	return header + "." + payload + "." + name
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func successEnvelope(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

func unauthorizedEnvelope() map[string]any {
	return map[string]any{
		"success": false,
		"error":   map[string]any{"code": "UNAUTHORIZED", "message": "invalid or expired token"},
	}
}

// testBackend is a minimal storefront API: one protected endpoint plus the
// refresh route. acceptedAccess controls which bearer token passes.
type testBackend struct {
	acceptedAccess atomic.Value
	refreshCalls   atomic.Int64
	refreshOK      atomic.Bool

	nextAccess  string
	nextRefresh string

	// refreshUseless leaves acceptedAccess unchanged so even the refreshed
	// token keeps getting rejected.
	refreshUseless bool
}

func newTestBackend(initialAccess string) *testBackend {
	b := &testBackend{}
	b.acceptedAccess.Store(initialAccess)
	b.refreshOK.Store(true)
	return b
}

func (b *testBackend) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if !b.refreshOK.Load() {
			writeJSON(w, http.StatusUnauthorized, unauthorizedEnvelope())
			return
		}

		if !b.refreshUseless {
			b.acceptedAccess.Store(b.nextAccess)
		}
		writeJSON(w, http.StatusOK, successEnvelope(TokenPair{
			AccessToken:  b.nextAccess,
			RefreshToken: b.nextRefresh,
			TokenType:    "Bearer",
		}))
	})

	mux.HandleFunc("/api/v1/cart", func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token != b.acceptedAccess.Load().(string) {
			writeJSON(w, http.StatusUnauthorized, unauthorizedEnvelope())
			return
		}
		writeJSON(w, http.StatusOK, successEnvelope(map[string]any{"entries": []any{}}))
	})

	return mux
}

func TestClient_AuthenticatedRequest(t *testing.T) {
	t.Parallel()

	access := makeToken("a1", time.Now().Add(10*time.Minute))
	backend := newTestBackend(access)
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session := NewMemorySession()
	require.NoError(t, session.SetSession(&TokenPair{AccessToken: access, RefreshToken: "r1"}, nil))

	client := New(server.URL, session)

	var cart struct {
		Entries []any `json:"entries"`
	}
	require.NoError(t, client.Get(context.Background(), "/api/v1/cart", &cart))
	assert.Zero(t, backend.refreshCalls.Load())
}

func TestClient_NotSignedIn(t *testing.T) {
	t.Parallel()

	client := New("http://localhost:0", NewMemorySession())

	err := client.Get(context.Background(), "/api/v1/cart", nil)
	require.ErrorIs(t, err, ErrNotSignedIn)
}

func TestClient_ProactiveRefresh(t *testing.T) {
	t.Parallel()

	// The stored access token is already past its exp claim, so the client
	// must refresh before the request rather than bouncing off a 401.
	stale := makeToken("stale", time.Now().Add(-time.Minute))
	fresh := makeToken("fresh", time.Now().Add(10*time.Minute))

	backend := newTestBackend(stale)
	backend.nextAccess = fresh
	backend.nextRefresh = "r2"
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session := NewMemorySession()
	require.NoError(t, session.SetSession(&TokenPair{AccessToken: stale, RefreshToken: "r1"}, nil))

	client := New(server.URL, session)

	require.NoError(t, client.Get(context.Background(), "/api/v1/cart", nil))
	assert.Equal(t, int64(1), backend.refreshCalls.Load())

	tokens := session.Tokens()
	require.NotNil(t, tokens)
	assert.Equal(t, fresh, tokens.AccessToken)
	assert.Equal(t, "r2", tokens.RefreshToken)
}

func TestClient_RefreshAndRetryOn401(t *testing.T) {
	t.Parallel()

	// The token looks fine by exp but the server revoked it; the client gets
	// a 401, refreshes once, and replays the request.
	revoked := makeToken("revoked", time.Now().Add(10*time.Minute))
	fresh := makeToken("fresh", time.Now().Add(10*time.Minute))

	backend := newTestBackend("something-else")
	backend.nextAccess = fresh
	backend.nextRefresh = "r2"
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session := NewMemorySession()
	require.NoError(t, session.SetSession(&TokenPair{AccessToken: revoked, RefreshToken: "r1"}, nil))

	client := New(server.URL, session)

	require.NoError(t, client.Get(context.Background(), "/api/v1/cart", nil))
	assert.Equal(t, int64(1), backend.refreshCalls.Load())
}

func TestClient_SecondUnauthorizedEndsSession(t *testing.T) {
	t.Parallel()

	access := makeToken("a1", time.Now().Add(10*time.Minute))
	fresh := makeToken("fresh", time.Now().Add(10*time.Minute))

	backend := newTestBackend("never-matches")
	backend.nextAccess = fresh
	backend.nextRefresh = "r2"
	backend.refreshUseless = true
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session := NewMemorySession()
	require.NoError(t, session.SetSession(&TokenPair{AccessToken: access, RefreshToken: "r1"}, nil))

	client := New(server.URL, session)
	expired := false
	client.OnSessionExpired = func() { expired = true }

	err := client.Get(context.Background(), "/api/v1/cart", nil)
	require.ErrorIs(t, err, ErrSessionExpired)

	// Exactly one refresh: no retry loops past the first replay.
	assert.Equal(t, int64(1), backend.refreshCalls.Load())
	assert.Nil(t, session.Tokens())
	assert.True(t, expired)
}

func TestClient_RejectedRefreshEndsSession(t *testing.T) {
	t.Parallel()

	stale := makeToken("stale", time.Now().Add(-time.Minute))

	backend := newTestBackend(stale)
	backend.refreshOK.Store(false)
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session := NewMemorySession()
	require.NoError(t, session.SetSession(&TokenPair{AccessToken: stale, RefreshToken: "r1"}, nil))

	client := New(server.URL, session)
	expired := false
	client.OnSessionExpired = func() { expired = true }

	err := client.Get(context.Background(), "/api/v1/cart", nil)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Nil(t, session.Tokens())
	assert.True(t, expired)
}

func TestFileSession_RoundTrip(t *testing.T) {
	t.Parallel()

	path := t.TempDir() + "/session.json"
	session := NewFileSession(path)

	assert.Nil(t, session.Tokens())

	tokens := &TokenPair{AccessToken: "a", RefreshToken: "r"}
	user := &User{ID: "u1", Email: "mira@example.com"}
	require.NoError(t, session.SetSession(tokens, user))

	reloaded := NewFileSession(path)
	require.NotNil(t, reloaded.Tokens())
	assert.Equal(t, "a", reloaded.Tokens().AccessToken)
	require.NotNil(t, reloaded.User())
	assert.Equal(t, "u1", reloaded.User().ID)

	require.NoError(t, session.Clear())
	assert.Nil(t, session.Tokens())

	// Clearing twice is fine.
	require.NoError(t, session.Clear())
}

func TestExpiringSoon(t *testing.T) {
	t.Parallel()

	now := time.Now()

	assert.False(t, expiringSoon(makeToken("ok", now.Add(time.Hour)), now.Add(30*time.Second)))
	assert.True(t, expiringSoon(makeToken("soon", now.Add(10*time.Second)), now.Add(30*time.Second)))
	assert.True(t, expiringSoon("not-a-jwt", now))
	assert.True(t, expiringSoon("a.%%%.c", now))
}
