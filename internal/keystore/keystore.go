// Package keystore persists the session credential in a small YAML file.
//
// The file holds two keys, token and user, which are written and cleared
// together. Other keys are preserved so the file can carry future settings.
package keystore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/naveenspark/tempo/pkg/domain"
)

// FileName is the key store file inside the state directory.
const FileName = "state.yml"

const (
	KeyToken = "token"
	KeyUser  = "user"
)

// State is the decoded file. The session keys are typed so timestamps in
// the profile survive a round trip; anything else lands in Extra.
type State struct {
	Token string         `yaml:"token,omitempty"`
	User  *domain.User   `yaml:"user,omitempty"`
	Extra map[string]any `yaml:",inline"`
}

// Store reads and writes the state file. Safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store backed by dir/state.yml. The file is created lazily.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, FileName)}
}

// Path returns the file location.
func (s *Store) Path() string { return s.path }

// Load returns the current state, or an empty state if the file doesn't exist.
func (s *Store) Load() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() (State, error) {
	state := State{Extra: make(map[string]any)}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return state, nil
		}
		return State{}, fmt.Errorf("read state file: %w", err)
	}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("parse state file: %w", err)
	}
	if state.Extra == nil {
		state.Extra = make(map[string]any)
	}
	return state, nil
}

// save writes through a temp file so a crash never leaves half a token.
func (s *Store) save(state State) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

func (s *Store) update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.load()
	if err != nil {
		return err
	}
	fn(&state)
	return s.save(state)
}

// GetString returns the string stored at key, or "" if absent or not a string.
func (s *Store) GetString(key string) (string, error) {
	state, err := s.Load()
	if err != nil {
		return "", err
	}
	if key == KeyToken {
		return state.Token, nil
	}
	str, _ := state.Extra[key].(string)
	return str, nil
}

// Set stores a plain value at key. The session keys go through SaveSession.
func (s *Store) Set(key string, value any) error {
	if key == KeyToken || key == KeyUser {
		return fmt.Errorf("keystore: %s is written with SaveSession", key)
	}
	return s.update(func(st *State) { st.Extra[key] = value })
}

// Delete removes key.
func (s *Store) Delete(key string) error {
	return s.update(func(st *State) {
		switch key {
		case KeyToken:
			st.Token = ""
		case KeyUser:
			st.User = nil
		default:
			delete(st.Extra, key)
		}
	})
}

// SaveSession writes the token and user profile in one file write.
func (s *Store) SaveSession(token string, u domain.User) error {
	if token == "" {
		return errors.New("keystore: empty token")
	}
	return s.update(func(st *State) {
		st.Token = token
		st.User = &u
	})
}

// LoadSession returns the persisted token and profile. user is nil when no
// profile is stored; token is "" when nothing is stored.
func (s *Store) LoadSession() (token string, user *domain.User, err error) {
	state, err := s.Load()
	if err != nil {
		return "", nil, err
	}
	return state.Token, state.User, nil
}

// ClearSession removes both the token and the user profile.
func (s *Store) ClearSession() error {
	return s.update(func(st *State) {
		st.Token = ""
		st.User = nil
	})
}
