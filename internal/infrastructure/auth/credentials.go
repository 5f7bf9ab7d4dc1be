package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultBcryptCost matches bcrypt.DefaultCost
	DefaultBcryptCost = 10

	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin"
)

// User is one operator account in the credentials file
type User struct {
	Username string `json:"username"`
	Password string `json:"password"` // bcrypt hash
	Role     string `json:"role"`
}

type credentialsFile struct {
	Users []User `json:"users"`
}

// CredentialStore authenticates operators against bcrypt hashes
type CredentialStore interface {
	Authenticate(ctx context.Context, username, password string) (*User, error)
}

// FileCredentialStore loads operators from a JSON file
type FileCredentialStore struct {
	mu        sync.RWMutex
	users     map[string]User
	dummyHash []byte
}

// HashPassword returns a bcrypt hash of password at DefaultBcryptCost
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), DefaultBcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// LoadCredentials reads the credentials file. When it does not exist a
// file with a single admin/admin account is written and a warning logged.
func LoadCredentials(path string, logger *zap.Logger) (*FileCredentialStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		logger.Warn("Credentials file not found, seeding default admin account; change its password",
			zap.String("path", path))
		data, err = seedCredentials(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	var file credentialsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", path, err)
	}
	return NewCredentialStore(file.Users)
}

// NewCredentialStore builds a store from in-memory users
func NewCredentialStore(users []User) (*FileCredentialStore, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("spoolgate-dummy-password"), DefaultBcryptCost)
	if err != nil {
		return nil, err
	}

	store := &FileCredentialStore{
		users:     make(map[string]User, len(users)),
		dummyHash: dummy,
	}
	for _, u := range users {
		if u.Username == "" || u.Password == "" {
			return nil, fmt.Errorf("credentials entry with empty username or password")
		}
		if _, dup := store.users[u.Username]; dup {
			return nil, fmt.Errorf("duplicate credentials entry for %q", u.Username)
		}
		store.users[u.Username] = u
	}
	return store, nil
}

func seedCredentials(path string) ([]byte, error) {
	hash, err := HashPassword(defaultAdminPassword)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(credentialsFile{Users: []User{{
		Username: defaultAdminUsername,
		Password: hash,
		Role:     RoleAdmin,
	}}}, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, err
	}
	return data, nil
}

// Authenticate checks a username and password. Unknown users are compared
// against a dummy hash so both failure paths cost the same.
func (s *FileCredentialStore) Authenticate(_ context.Context, username, password string) (*User, error) {
	s.mu.RLock()
	user, ok := s.users[username]
	s.mu.RUnlock()

	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	out := user
	out.Password = ""
	return &out, nil
}

// Len returns the number of accounts
func (s *FileCredentialStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

var _ CredentialStore = (*FileCredentialStore)(nil)
