package shopclient

import (
	"encoding/json"
	"errors"
	"os"
	"sync"
)

// User is the account snapshot kept alongside the token pair.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// TokenPair mirrors the server's issued pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         *User  `json:"user,omitempty"`
}

// Session stores the signed-in state between requests. Implementations must
// be safe for concurrent use; the client reads and rewrites the session from
// multiple goroutines.
type Session interface {
	// Tokens returns the current pair, or nil when signed out.
	Tokens() *TokenPair
	// User returns the account snapshot, or nil when signed out.
	User() *User
	// SetSession replaces the stored state after login or refresh.
	SetSession(tokens *TokenPair, user *User) error
	// Clear wipes the stored state.
	Clear() error
}

// MemorySession keeps the session in process memory.
type MemorySession struct {
	mu     sync.RWMutex
	tokens *TokenPair
	user   *User
}

func NewMemorySession() *MemorySession {
	return &MemorySession{}
}

func (s *MemorySession) Tokens() *TokenPair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tokens
}

func (s *MemorySession) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *MemorySession) SetSession(tokens *TokenPair, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	s.user = user
	return nil
}

func (s *MemorySession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = nil
	s.user = nil
	return nil
}

type sessionFile struct {
	Tokens *TokenPair `json:"tokens"`
	User   *User      `json:"user"`
}

// FileSession persists the session as a JSON file so a CLI or desktop client
// stays signed in across restarts.
type FileSession struct {
	mu   sync.Mutex
	path string
}

func NewFileSession(path string) *FileSession {
	return &FileSession{path: path}
}

func (s *FileSession) Tokens() *TokenPair {
	state, err := s.load()
	if err != nil {
		return nil
	}
	return state.Tokens
}

func (s *FileSession) User() *User {
	state, err := s.load()
	if err != nil {
		return nil
	}
	return state.User
}

func (s *FileSession) SetSession(tokens *TokenPair, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(sessionFile{Tokens: tokens, User: user}, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0o600)
}

func (s *FileSession) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileSession) load() (sessionFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state sessionFile
	data, err := os.ReadFile(s.path)
	if err != nil {
		return state, err
	}

	if err := json.Unmarshal(data, &state); err != nil {
		return state, err
	}
	return state, nil
}
