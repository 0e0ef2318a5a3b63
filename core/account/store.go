package account

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store persists one account per CA directory host, so staging and
// production registrations never collide.
type Store interface {
	// Load returns the account for the directory host, or ErrAccountNotFound.
	Load(ctx context.Context, directoryHost string) (*Account, error)

	// Save persists the account for the directory host.
	Save(ctx context.Context, directoryHost string, acct *Account) error
}

// FileStore keeps accounts as JSON files under dir/<directory-host>/account.json.
type FileStore struct {
	dir string
}

// NewFileStore creates a store rooted at dir, creating the directory if
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create account directory %q: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Load(ctx context.Context, directoryHost string) (*Account, error) {
	data, err := os.ReadFile(s.path(directoryHost))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("read account file: %w", err)
	}

	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("decode account file: %w", err)
	}
	return &acct, nil
}

func (s *FileStore) Save(ctx context.Context, directoryHost string, acct *Account) error {
	data, err := json.MarshalIndent(acct, "", "  ")
	if err != nil {
		return fmt.Errorf("encode account: %w", err)
	}

	final := s.path(directoryHost)
	if err := os.MkdirAll(filepath.Dir(final), 0o700); err != nil {
		return fmt.Errorf("create account directory: %w", err)
	}

	tmp := final + "." + uuid.NewString() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write account file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename account file: %w", err)
	}
	return nil
}

func (s *FileStore) path(directoryHost string) string {
	return filepath.Join(s.dir, sanitizeHost(directoryHost), "account.json")
}

// sanitizeHost keeps directory hosts filesystem-safe.
func sanitizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, host)
}
