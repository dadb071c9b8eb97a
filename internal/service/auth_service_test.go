package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mavon-shop/internal/model"
)

type fakeUserStore struct {
	byID    map[string]model.User
	byEmail map[string]model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    map[string]model.User{},
		byEmail: map[string]model.User{},
	}
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) Create(_ context.Context, u model.User) error {
	if _, exists := f.byEmail[u.Email]; exists {
		return model.ErrUserAlreadyExists
	}
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

// fakeTokenStore mimics the single-row-per-user table: Replace overwrites,
// Match only accepts the exact stored hash.
type fakeTokenStore struct {
	hashes   map[string]string
	replaces int
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{hashes: map[string]string{}}
}

func (f *fakeTokenStore) Replace(_ context.Context, userID string, tokenHash string, _ time.Time) error {
	f.hashes[userID] = tokenHash
	f.replaces++
	return nil
}

func (f *fakeTokenStore) Match(_ context.Context, userID string, tokenHash string) error {
	stored, ok := f.hashes[userID]
	if !ok || stored != tokenHash {
		return model.ErrTokenNotFound
	}
	return nil
}

func (f *fakeTokenStore) Revoke(_ context.Context, userID string) error {
	delete(f.hashes, userID)
	return nil
}

func newTestAuthService(t *testing.T, users *fakeUserStore, tokens *fakeTokenStore) *AuthService {
	t.Helper()

	svc, err := NewAuthService(users, tokens, "test-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return svc
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()

	t.Run("issues a pair and stores the account", func(t *testing.T) {
		users := newFakeUserStore()
		tokens := newFakeTokenStore()
		svc := newTestAuthService(t, users, tokens)

		pair, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		assert.Equal(t, "Bearer", pair.TokenType)
		assert.Equal(t, model.RoleUser, pair.User.Role)
		assert.Len(t, tokens.hashes, 1)

		claims, err := svc.VerifyAccess(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, pair.User.ID, claims.UserID)
		assert.Equal(t, "mira@example.com", claims.Email)
		assert.Equal(t, model.RoleUser, claims.Role)
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		svc := newTestAuthService(t, newFakeUserStore(), newFakeTokenStore())

		_, err := svc.Register(context.Background(), "Mira", "mira@example.com", "short")
		require.Error(t, err)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		svc := newTestAuthService(t, newFakeUserStore(), newFakeTokenStore())

		_, err := svc.Register(context.Background(), "Mira", "not-an-email", "longenough")
		require.Error(t, err)
	})

	t.Run("surfaces duplicate email", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newTestAuthService(t, users, newFakeTokenStore())

		_, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		_, err = svc.Register(context.Background(), "Mira Again", "mira@example.com", "longenough")
		require.ErrorIs(t, err, model.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()

	t.Run("wrong password", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newTestAuthService(t, users, newFakeTokenStore())

		_, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		_, err = svc.Login(context.Background(), "mira@example.com", "wrongpass")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("unknown email maps to invalid credentials", func(t *testing.T) {
		svc := newTestAuthService(t, newFakeUserStore(), newFakeTokenStore())

		_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("oauth-only account has no password to compare", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newTestAuthService(t, users, newFakeTokenStore())

		require.NoError(t, users.Create(context.Background(), model.User{
			ID:    "gh-1",
			Email: "gh@example.com",
			Role:  model.RoleUser,
		}))

		_, err := svc.Login(context.Background(), "gh@example.com", "anything")
		require.ErrorIs(t, err, model.ErrInvalidCredentials)
	})

	t.Run("login elsewhere replaces the stored refresh token", func(t *testing.T) {
		users := newFakeUserStore()
		tokens := newFakeTokenStore()
		svc := newTestAuthService(t, users, tokens)

		first, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		_, err = svc.Login(context.Background(), "mira@example.com", "longenough")
		require.NoError(t, err)

		// The earlier session's refresh token no longer matches.
		_, err = svc.Refresh(context.Background(), first.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})
}

func TestAuthService_VerifyAccess(t *testing.T) {
	t.Parallel()

	t.Run("rejects refresh token in access position", func(t *testing.T) {
		svc := newTestAuthService(t, newFakeUserStore(), newFakeTokenStore())

		pair, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		_, err = svc.VerifyAccess(pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("expired is distinct from invalid", func(t *testing.T) {
		users := newFakeUserStore()
		tokens := newFakeTokenStore()

		// Negative access TTL mints tokens that are already expired.
		expired, err := NewAuthService(users, tokens, "test-secret", -time.Minute, 7*24*time.Hour)
		require.NoError(t, err)

		pair, err := expired.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		_, err = expired.VerifyAccess(pair.AccessToken)
		require.ErrorIs(t, err, model.ErrTokenExpired)
	})

	t.Run("garbage token is invalid", func(t *testing.T) {
		svc := newTestAuthService(t, newFakeUserStore(), newFakeTokenStore())

		_, err := svc.VerifyAccess("definitely.not.ajwt")
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("token signed with another secret is invalid", func(t *testing.T) {
		users := newFakeUserStore()
		other, err := NewAuthService(users, newFakeTokenStore(), "other-secret", 15*time.Minute, 7*24*time.Hour)
		require.NoError(t, err)

		pair, err := other.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		svc := newTestAuthService(t, users, newFakeTokenStore())
		_, err = svc.VerifyAccess(pair.AccessToken)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("rotates the pair and invalidates the used token", func(t *testing.T) {
		users := newFakeUserStore()
		tokens := newFakeTokenStore()
		svc := newTestAuthService(t, users, tokens)

		pair, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		rotated, err := svc.Refresh(context.Background(), pair.RefreshToken)
		require.NoError(t, err)
		require.NotEmpty(t, rotated.AccessToken)
		assert.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

		// Register + refresh: the store was overwritten twice.
		assert.Equal(t, 2, tokens.replaces)

		// The consumed token is single-use.
		_, err = svc.Refresh(context.Background(), pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenNotFound)

		// The rotated one still works.
		_, err = svc.Refresh(context.Background(), rotated.RefreshToken)
		require.NoError(t, err)
	})

	t.Run("access token cannot refresh", func(t *testing.T) {
		svc := newTestAuthService(t, newFakeUserStore(), newFakeTokenStore())

		pair, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), pair.AccessToken)
		require.ErrorIs(t, err, model.ErrTokenInvalid)
	})

	t.Run("deleted user cannot refresh", func(t *testing.T) {
		users := newFakeUserStore()
		svc := newTestAuthService(t, users, newFakeTokenStore())

		pair, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
		require.NoError(t, err)

		delete(users.byID, pair.User.ID)

		_, err = svc.Refresh(context.Background(), pair.RefreshToken)
		require.ErrorIs(t, err, model.ErrTokenNotFound)
	})
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()

	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	svc := newTestAuthService(t, users, tokens)

	pair, err := svc.Register(context.Background(), "Mira", "mira@example.com", "longenough")
	require.NoError(t, err)

	svc.Logout(context.Background(), pair.RefreshToken)
	assert.Empty(t, tokens.hashes)

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, model.ErrTokenNotFound)

	// Unparsable tokens are a no-op.
	svc.Logout(context.Background(), "garbage")
}
