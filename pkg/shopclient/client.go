package shopclient

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// ErrSessionExpired is returned once the refresh token itself is rejected;
// the session has been cleared and the user must sign in again.
var ErrSessionExpired = errors.New("shopclient: session expired")

// ErrNotSignedIn is returned for authenticated calls without a session.
var ErrNotSignedIn = errors.New("shopclient: not signed in")

// refreshSkew is how close to expiry an access token may get before the
// client refreshes it ahead of the request instead of waiting for a 401.
const refreshSkew = 30 * time.Second

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a non-2xx response decoded from the server envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopclient: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Client wraps the storefront API with automatic token handling: it attaches
// the bearer token, refreshes it shortly before expiry, and on a 401 performs
// at most one refresh-and-retry before giving up on the session.
type Client struct {
	baseURL string
	http    *http.Client
	session Session

	// OnSessionExpired, when set, runs after the session is cleared because
	// a refresh was rejected.
	OnSessionExpired func()

	refreshMu sync.Mutex
}

func New(baseURL string, session Session, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		session: session,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// Login signs in with email and password and stores the session.
func (c *Client) Login(ctx context.Context, email string, password string) (*User, error) {
	return c.obtainSession(ctx, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account and stores the session it returns.
func (c *Client) Register(ctx context.Context, name string, email string, password string) (*User, error) {
	return c.obtainSession(ctx, "/api/v1/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Exchange trades a one-time code from the OAuth redirect for a session.
func (c *Client) Exchange(ctx context.Context, code string) (*User, error) {
	return c.obtainSession(ctx, "/api/v1/auth/exchange", map[string]string{
		"code": code,
	})
}

// Logout revokes the stored refresh token and clears the session. The local
// session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	tokens := c.session.Tokens()
	if tokens == nil {
		return nil
	}

	body, _ := json.Marshal(map[string]string{"refresh_token": tokens.RefreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/logout", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	return c.session.Clear()
}

func (c *Client) obtainSession(ctx context.Context, path string, payload any) (*User, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var tokens TokenPair
	if err := c.doInto(req, &tokens); err != nil {
		return nil, err
	}

	if err := c.session.SetSession(&tokens, tokens.User); err != nil {
		return nil, err
	}

	return tokens.User, nil
}

// Get performs an authenticated GET and decodes the envelope data into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Call(ctx, http.MethodGet, path, nil, out)
}

// Call performs an authenticated request with an optional JSON payload.
func (c *Client) Call(ctx context.Context, method string, path string, payload any, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// Do executes an authenticated request. The request body must be rewindable
// (GetBody set, as http.NewRequest does for byte readers) so a retry after
// refresh can replay it.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	tokens := c.session.Tokens()
	if tokens == nil {
		return nil, ErrNotSignedIn
	}

	// Refresh ahead of the request when the access token is about to lapse,
	// so the common path never eats a 401 round trip.
	if expiringSoon(tokens.AccessToken, time.Now().Add(refreshSkew)) {
		if err := c.refresh(req.Context(), tokens.AccessToken); err != nil {
			return nil, err
		}
		tokens = c.session.Tokens()
		if tokens == nil {
			return nil, ErrSessionExpired
		}
	}

	resp, err := c.send(req, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	// One refresh, one replay. A second 401 means the session is beyond
	// saving and is dropped.
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if err := c.refresh(req.Context(), tokens.AccessToken); err != nil {
		return nil, err
	}

	tokens = c.session.Tokens()
	if tokens == nil {
		return nil, ErrSessionExpired
	}

	retry, err := c.send(req, tokens.AccessToken)
	if err != nil {
		return nil, err
	}
	if retry.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, retry.Body)
		retry.Body.Close()
		c.expireSession()
		return nil, ErrSessionExpired
	}

	return retry, nil
}

func (c *Client) send(req *http.Request, accessToken string) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		cloned.Body = body
	}

	cloned.Header.Set("Authorization", "Bearer "+accessToken)
	return c.http.Do(cloned)
}

// refresh rotates the token pair. staleAccess is the access token the caller
// saw; if another goroutine already refreshed past it, the stored pair is
// reused instead of burning the new refresh token.
func (c *Client) refresh(ctx context.Context, staleAccess string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.session.Tokens()
	if current == nil {
		return ErrSessionExpired
	}
	if current.AccessToken != staleAccess {
		return nil
	}

	body, err := json.Marshal(map[string]string{"refresh_token": current.RefreshToken})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/refresh", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var tokens TokenPair
	if err := c.doInto(req, &tokens); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			c.expireSession()
			return ErrSessionExpired
		}
		return err
	}

	user := tokens.User
	if user == nil {
		user = c.session.User()
	}
	return c.session.SetSession(&tokens, user)
}

func (c *Client) expireSession() {
	_ = c.session.Clear()
	if c.OnSessionExpired != nil {
		c.OnSessionExpired()
	}
}

func (c *Client) doInto(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *http.Response, out any) error {
	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("shopclient: decode response: %w", err)
	}

	if resp.StatusCode >= 400 || !envelope.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "UNKNOWN", Message: "request failed"}
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}

	return json.Unmarshal(envelope.Data, out)
}

// expiringSoon reports whether the JWT's exp claim falls before deadline. The
// payload is decoded without signature verification; only the server verifies
// tokens, the client just schedules refreshes. Malformed tokens count as
// expiring so the refresh path sorts them out.
func expiringSoon(token string, deadline time.Time) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return true
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return true
	}

	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return true
	}

	return time.Unix(claims.Exp, 0).Before(deadline)
}
