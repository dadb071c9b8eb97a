package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavon-shop/internal/model"
)

type stubVerifier struct {
	claims map[string]*model.AuthClaims
}

func (s *stubVerifier) VerifyAccess(token string) (*model.AuthClaims, error) {
	claims, ok := s.claims[token]
	if !ok {
		return nil, model.ErrTokenInvalid
	}
	return claims, nil
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{claims: map[string]*model.AuthClaims{
		"user-token":  {UserID: "u1", Role: model.RoleUser, Type: "access"},
		"admin-token": {UserID: "a1", Role: model.RoleAdmin, Type: "access"},
	}}
}

func TestAuthMiddleware_RequireAuth(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(newStubVerifier())

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-User", claims.UserID)
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/cart", nil)
		req.Header.Set("Authorization", "Bearer user-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "u1", rec.Header().Get("X-User"))
	})

	t.Run("token in query parameter for websocket upgrades", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/ws?token=user-token", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/cart", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/cart", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/cart", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthMiddleware_RequireRoles(t *testing.T) {
	t.Parallel()

	mw := NewAuthMiddleware(newStubVerifier())

	handler := mw.RequireAuth(mw.RequireRoles(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("allowed role", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/admin/users", nil)
		req.Header.Set("Authorization", "Bearer admin-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("insufficient role", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/v1/admin/users", nil)
		req.Header.Set("Authorization", "Bearer user-token")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
