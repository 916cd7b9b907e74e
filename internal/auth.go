package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// tokenKey is the storage key of the bearer credential
const tokenKey = "access_token"

// StaticToken is a TokenSource that always returns the same token
type StaticToken string

func (t StaticToken) Token() (string, error) {
	return string(t), nil
}

// TokenStore persists the access token in the data directory. Writes are
// serialized across processes with a lock file.
type TokenStore struct {
	path string
	lock *flock.Flock
}

// NewTokenStore creates a store rooted at dataDir
func NewTokenStore(dataDir string) *TokenStore {
	return &TokenStore{
		path: filepath.Join(dataDir, "auth.json"),
		lock: flock.New(filepath.Join(dataDir, "auth.lock")),
	}
}

// Path returns the location of the token file
func (s *TokenStore) Path() string {
	return s.path
}

// Token returns the stored token, or "" when none has been saved
func (s *TokenStore) Token() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}

	var stored map[string]string
	if err := json.Unmarshal(data, &stored); err != nil {
		return "", fmt.Errorf("parsing token file: %w", err)
	}
	return stored[tokenKey], nil
}

// Save replaces the stored token
func (s *TokenStore) Save(token string) error {
	if err := EnsureDirs(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking token file: %w", err)
	}
	defer s.lock.Unlock()

	data, err := json.Marshal(map[string]string{tokenKey: token})
	if err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}
	return nil
}

// Clear removes the stored token
func (s *TokenStore) Clear() error {
	if !FileExists(s.path) {
		return nil
	}

	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking token file: %w", err)
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// Auth groups the account operations that touch the token store
type Auth struct {
	client *Client
	store  *TokenStore
}

// NewAuth creates an Auth bound to client and store
func NewAuth(client *Client, store *TokenStore) *Auth {
	return &Auth{client: client, store: store}
}

// Login authenticates and persists the returned token
func (a *Auth) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := a.store.Save(res.AccessToken); err != nil {
		return nil, err
	}
	return res, nil
}

// Register creates an account and logs into it
func (a *Auth) Register(ctx context.Context, email, password, name string) (*LoginResult, error) {
	if _, err := a.client.Register(ctx, email, password, name); err != nil {
		return nil, err
	}
	return a.Login(ctx, email, password)
}

// Logout forgets the stored token
func (a *Auth) Logout() error {
	return a.store.Clear()
}

// LoggedIn reports whether a token is stored
func (a *Auth) LoggedIn() bool {
	token, err := a.store.Token()
	return err == nil && token != ""
}
