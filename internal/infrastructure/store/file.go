// Package store provides the durable credential store adapters: a local
// JSON file (the per-profile default) and a Redis-backed variant shared
// across surfaces.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/invenly/dashboard-session/internal/core/domain"
	"github.com/invenly/dashboard-session/internal/core/ports"
)

const fileMode = 0o600

// FileStore persists the credential record as a single JSON document on
// disk. Writes are atomic (temp file + rename) so a concurrent reader
// never observes a partial record. Mutations fan out to Watch subscribers
// in-process.
type FileStore struct {
	path string
	log  zerolog.Logger
	now  func() time.Time

	mu   sync.Mutex
	subs []chan struct{}
}

// FileStoreOption customises a FileStore at construction time.
type FileStoreOption func(*FileStore)

// WithFileClock overrides the expiry clock, primarily for tests.
func WithFileClock(now func() time.Time) FileStoreOption {
	return func(fs *FileStore) { fs.now = now }
}

// NewFileStore builds a FileStore rooted at path. The parent directory is
// created if missing; the file itself is created on first write.
func NewFileStore(path string, log zerolog.Logger, opts ...FileStoreOption) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("credential dir: %w", err)
	}
	s := &FileStore{path: path, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

var _ ports.WatchableStore = (*FileStore)(nil)

func (s *FileStore) AccessToken() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Tokens.AccessToken
}

func (s *FileStore) RefreshToken() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Tokens.RefreshToken
}

func (s *FileStore) User() *domain.SessionUser {
	creds, err := s.Credentials()
	if err != nil {
		return nil
	}
	return creds.User
}

func (s *FileStore) OrganizationID() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Org.ID
}

func (s *FileStore) OrganizationSlug() string {
	creds, err := s.Credentials()
	if err != nil {
		return ""
	}
	return creds.Org.Slug
}

// TokenExpired treats a missing record or missing expiry as expired.
func (s *FileStore) TokenExpired() bool {
	creds, err := s.Credentials()
	if err != nil {
		return true
	}
	return creds.Tokens.Expired(s.now())
}

// Credentials reads and decodes the stored record. A missing file maps to
// domain.ErrNoCredentials; a corrupt record is treated the same way after
// a warning, so a damaged profile degrades to "logged out" rather than a
// hard failure.
func (s *FileStore) Credentials() (domain.Credentials, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Credentials{}, domain.ErrNoCredentials
		}
		return domain.Credentials{}, fmt.Errorf("read credentials: %w", err)
	}

	var creds domain.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("store: corrupt credential file, treating as absent")
		return domain.Credentials{}, domain.ErrNoCredentials
	}
	return creds, nil
}

// SetCredentials replaces the stored record atomically.
func (s *FileStore) SetCredentials(creds domain.Credentials) error {
	raw, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, fileMode); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit credentials: %w", err)
	}

	s.broadcast()
	return nil
}

// Clear removes the stored record. Clearing an already-empty store is not
// an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear credentials: %w", err)
	}
	s.broadcast()
	return nil
}

// Watch returns a channel that fires after every mutation of the store.
// Notifications coalesce: a subscriber that has not drained the channel
// misses intermediate signals but always sees the final state on its next
// read. The channel closes when ctx is cancelled.
func (s *FileStore) Watch(ctx context.Context) <-chan struct{} {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, sub := range s.subs {
			if sub == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()

	return ch
}

func (s *FileStore) broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub <- struct{}{}:
		default: // subscriber already has a pending signal
		}
	}
}
