// Package users maintains the secondary JSON user-record store. The flat
// credential file remains authoritative for login; this store exists for the
// surrounding application and must stay in sync for enrolled users.
package users

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/justinvest/justinvest/internal/shared"
)

// User is one entry in users.json.
type User struct {
	Username     string `json:"username" validate:"required"`
	FullName     string `json:"full_name"`
	Role         string `json:"role" validate:"required"`
	PasswordHash string `json:"password_hash" validate:"required"`
}

type payload struct {
	Users []User `json:"users"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Store reads and appends user records.
type Store struct {
	path string

	mu sync.Mutex
}

// NewStore constructs a store over the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the user-records file location.
func (s *Store) Path() string { return s.path }

// Load returns every user record. A missing file is an empty store.
func (s *Store) Load() ([]User, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("users: read %s: %w", s.path, err)
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("users: parse %s: %w", s.path, err)
	}
	return p.Users, nil
}

// Get returns the record for username, if present.
func (s *Store) Get(username string) (User, bool, error) {
	records, err := s.Load()
	if err != nil {
		return User{}, false, err
	}
	for _, record := range records {
		if record.Username == username {
			return record, true, nil
		}
	}
	return User{}, false, nil
}

// Append adds a user record, rejecting duplicates. An empty full name defaults
// to the username. The file is rewritten whole; records are few.
func (s *Store) Append(user User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.FullName == "" {
		user.FullName = user.Username
	}
	if err := validate.Struct(&user); err != nil {
		return fmt.Errorf("%w: user record: %v", shared.ErrValidation, err)
	}
	records, err := s.Load()
	if err != nil {
		return err
	}
	for _, record := range records {
		if record.Username == user.Username {
			return fmt.Errorf("%w: %q already present in %s", shared.ErrDuplicateUser, user.Username, s.path)
		}
	}

	out, err := json.MarshalIndent(payload{Users: append(records, user)}, "", "  ")
	if err != nil {
		return fmt.Errorf("users: encode %s: %w", s.path, err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("users: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(s.path, append(out, '\n'), 0o600); err != nil {
		return fmt.Errorf("users: write %s: %w", s.path, err)
	}
	return nil
}
