package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"mavon-shop/internal/model"
)

type oauthStore interface {
	SaveState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeState(ctx context.Context, state string) error
	SaveExchange(ctx context.Context, code string, pair model.TokenPair, ttl time.Duration) error
	ConsumeExchange(ctx context.Context, code string) (model.TokenPair, error)
}

type oauthUserStore interface {
	FindByGithubLogin(ctx context.Context, login string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Create(ctx context.Context, u model.User) error
}

// OAuthService drives the GitHub login flow. Tokens never ride the redirect
// URL: the callback parks the freshly issued pair under a one-time exchange
// code and the client trades the code for the pair over POST.
type OAuthService struct {
	conf        *oauth2.Config
	auth        *AuthService
	users       oauthUserStore
	store       oauthStore
	frontendURL string
	stateTTL    time.Duration
	exchangeTTL time.Duration

	// overridable in tests
	apiBaseURL string
}

func NewOAuthService(auth *AuthService, users oauthUserStore, store oauthStore,
	clientID string, clientSecret string, callbackURL string,
	frontendURL string, stateTTL time.Duration, exchangeTTL time.Duration) *OAuthService {

	return &OAuthService{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     github.Endpoint,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
		},
		auth:        auth,
		users:       users,
		store:       store,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		stateTTL:    stateTTL,
		exchangeTTL: exchangeTTL,
		apiBaseURL:  "https://api.github.com",
	}
}

func (s *OAuthService) Enabled() bool {
	return s.conf.ClientID != "" && s.conf.ClientSecret != ""
}

// AuthURL mints a state nonce, stores it, and returns the GitHub authorize URL.
func (s *OAuthService) AuthURL(ctx context.Context) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := base64.RawURLEncoding.EncodeToString(buf)

	if err := s.store.SaveState(ctx, state, s.stateTTL); err != nil {
		return "", err
	}

	return s.conf.AuthCodeURL(state), nil
}

type githubProfile struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HandleCallback validates state, resolves the GitHub identity to a local
// user (creating one on first login), issues a pair, and returns the
// frontend redirect URL carrying only the one-time exchange code.
func (s *OAuthService) HandleCallback(ctx context.Context, state string, code string) (string, error) {
	if err := s.store.ConsumeState(ctx, state); err != nil {
		return "", err
	}

	ghToken, err := s.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("github code exchange: %w", err)
	}

	profile, err := s.fetchProfile(ctx, ghToken)
	if err != nil {
		return "", err
	}

	user, err := s.resolveUser(ctx, profile)
	if err != nil {
		return "", err
	}

	pair, err := s.auth.IssueTokens(ctx, user)
	if err != nil {
		return "", err
	}

	exchangeCode := uuid.NewString()
	if err := s.store.SaveExchange(ctx, exchangeCode, pair, s.exchangeTTL); err != nil {
		return "", err
	}

	redirect := fmt.Sprintf("%s/?code=%s&source=github", s.frontendURL, url.QueryEscape(exchangeCode))
	return redirect, nil
}

func (s *OAuthService) Exchange(ctx context.Context, code string) (model.TokenPair, error) {
	return s.store.ConsumeExchange(ctx, strings.TrimSpace(code))
}

func (s *OAuthService) fetchProfile(ctx context.Context, token *oauth2.Token) (githubProfile, error) {
	client := s.conf.Client(ctx, token)

	resp, err := client.Get(s.apiBaseURL + "/user")
	if err != nil {
		return githubProfile{}, fmt.Errorf("fetch github profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return githubProfile{}, fmt.Errorf("fetch github profile: status %d", resp.StatusCode)
	}

	var profile githubProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return githubProfile{}, fmt.Errorf("decode github profile: %w", err)
	}
	if profile.Login == "" {
		return githubProfile{}, fmt.Errorf("github profile has no login")
	}
	return profile, nil
}

func (s *OAuthService) resolveUser(ctx context.Context, profile githubProfile) (model.User, error) {
	user, err := s.users.FindByGithubLogin(ctx, profile.Login)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, err
	}

	// Link to an existing account by email when GitHub exposes one.
	if profile.Email != "" {
		if existing, err := s.users.FindByEmail(ctx, profile.Email); err == nil {
			return existing, nil
		} else if !errors.Is(err, model.ErrUserNotFound) {
			return model.User{}, err
		}
	}

	name := profile.Name
	if name == "" {
		name = profile.Login
	}
	email := profile.Email
	if email == "" {
		email = profile.Login + "@users.noreply.github.com"
	}

	now := time.Now().UTC()
	user = model.User{
		ID:          uuid.NewString(),
		Name:        name,
		Email:       email,
		Role:        model.RoleUser,
		GithubLogin: profile.Login,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}
	return user, nil
}
