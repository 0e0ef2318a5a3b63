package certstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/certkeeper/core/logger"
)

// FileStore keeps certificate bundles as password-protected PKCS#12 files
// named `<THUMBPRINT>.pfx` in a single directory. It implements both
// Repository and Source.
type FileStore struct {
	dir      string
	password string
	logger   *slog.Logger
}

// NewFileStore creates a store rooted at dir, creating the directory if
// needed. The password protects the PKCS#12 payloads.
func NewFileStore(dir, password string, opts ...FileStoreOption) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create certificate directory %q: %w", dir, err)
	}

	s := &FileStore{
		dir:      dir,
		password: password,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FileStoreOption configures a FileStore during initialization.
type FileStoreOption func(*FileStore)

// WithFileStoreLogger sets the logger for storage events.
func WithFileStoreLogger(log *slog.Logger) FileStoreOption {
	return func(s *FileStore) {
		if log != nil {
			s.logger = log
		}
	}
}

// SaveCertificate writes the bundle as <THUMBPRINT>.pfx. The file is written
// to a temporary name first and renamed into place, so readers never observe
// a partial bundle.
func (s *FileStore) SaveCertificate(ctx context.Context, cert *Certificate) error {
	pfxData, err := EncodePFX(cert, s.password)
	if err != nil {
		return err
	}

	final := filepath.Join(s.dir, cert.Thumbprint()+".pfx")
	tmp := final + "." + uuid.NewString() + ".tmp"

	if err := os.WriteFile(tmp, pfxData, 0o600); err != nil {
		return fmt.Errorf("write certificate file: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename certificate file: %w", err)
	}

	s.logger.InfoContext(ctx, "certificate saved",
		"thumbprint", cert.Thumbprint(),
		"path", final,
		"not_after", cert.NotAfter())
	return nil
}

// LoadCertificates reads every .pfx bundle in the directory. Files that fail
// to decode are skipped with a warning so one corrupt bundle does not block
// startup.
func (s *FileStore) LoadCertificates(ctx context.Context) ([]*Certificate, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read certificate directory %q: %w", s.dir, err)
	}

	var certs []*Certificate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pfx") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to read certificate file", "path", path, logger.Error(err))
			continue
		}

		cert, err := DecodePFX(data, s.password)
		if err != nil {
			s.logger.WarnContext(ctx, "failed to decode certificate file", "path", path, logger.Error(err))
			continue
		}
		certs = append(certs, cert)
	}
	return certs, nil
}
