package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"mavon-shop/internal/model"
	"mavon-shop/pkg/apierror"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) error
}

type tokenStore interface {
	Replace(ctx context.Context, userID string, tokenHash string, expiresAt time.Time) error
	Match(ctx context.Context, userID string, tokenHash string) error
	Revoke(ctx context.Context, userID string) error
}

// AuthService owns the token lifecycle: issuing the access/refresh pair,
// verifying access tokens, and rotating the single stored refresh token on
// every successful refresh.
type AuthService struct {
	users      userStore
	tokens     tokenStore
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(users userStore, tokens tokenStore, jwtSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	return &AuthService{
		users:      users,
		tokens:     tokens,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, name string, email string, password string) (model.TokenPair, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if name == "" || email == "" || password == "" {
		return model.TokenPair{}, apierror.BadRequest("name, email and password are required", "")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return model.TokenPair{}, apierror.BadRequest("invalid email address", email)
	}
	if len(password) < 8 {
		return model.TokenPair{}, apierror.BadRequest("password must be at least 8 characters", "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.TokenPair{}, err
	}

	return s.IssueTokens(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, model.ErrInvalidCredentials
		}
		return model.TokenPair{}, err
	}

	if user.PasswordHash == "" {
		// OAuth-only account, no password to compare.
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	return s.IssueTokens(ctx, user)
}

// IssueTokens signs a fresh pair and persists the refresh token's hash,
// overwriting whatever was stored before. One active refresh token per
// user: a login elsewhere ends this session's refresh capability.
func (s *AuthService) IssueTokens(ctx context.Context, user model.User) (model.TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := s.signToken(jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  user.Role,
		"typ":   tokenTypeAccess,
		"jti":   uuid.NewString(),
		"iat":   now.Unix(),
		"exp":   now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}

	refreshExpiry := now.Add(s.refreshTTL)
	refreshToken, err := s.signToken(jwt.MapClaims{
		"sub": user.ID,
		"typ": tokenTypeRefresh,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": refreshExpiry.Unix(),
	})
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := s.tokens.Replace(ctx, user.ID, hashToken(refreshToken), refreshExpiry); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         user.Public(),
	}, nil
}

// VerifyAccess decodes and checks an access token. Expiry and a bad
// signature are distinct outcomes: ErrTokenExpired vs ErrTokenInvalid.
func (s *AuthService) VerifyAccess(tokenString string) (*model.AuthClaims, error) {
	claims, err := s.parseToken(tokenString, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Refresh rotates the pair. The presented token must verify AND match the
// exact stored hash for its user; a rotated-out token no longer matches,
// which is what rejects replays.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		slog.Warn("refresh rejected", "reason", err.Error())
		return model.TokenPair{}, err
	}

	if err := s.tokens.Match(ctx, claims.UserID, hashToken(refreshToken)); err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			slog.Warn("refresh rejected: presented token does not match stored token", "user_id", claims.UserID)
			return model.TokenPair{}, model.ErrTokenNotFound
		}
		return model.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, model.ErrTokenNotFound
		}
		return model.TokenPair{}, err
	}

	return s.IssueTokens(ctx, user)
}

// Logout drops the stored refresh token. An unparsable token is a no-op:
// there is nothing to revoke for it.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	claims, err := s.parseToken(refreshToken, tokenTypeRefresh)
	if err != nil {
		return
	}
	if err := s.tokens.Revoke(ctx, claims.UserID); err != nil {
		slog.Error("revoke refresh token on logout", "user_id", claims.UserID, "error", err)
	}
}

func (s *AuthService) GetUserByID(ctx context.Context, id string) (model.AuthUser, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.AuthUser{}, err
	}
	return user.Public(), nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) parseToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrTokenInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.ErrTokenExpired
		}
		return nil, model.ErrTokenInvalid
	}
	if !parsed.Valid {
		return nil, model.ErrTokenInvalid
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrTokenInvalid
	}

	typ, _ := claimsMap["typ"].(string)
	if typ != expectedType {
		return nil, model.ErrTokenInvalid
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, model.ErrTokenInvalid
	}

	return claims, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
