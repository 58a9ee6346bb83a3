// Package store owns the on-disk representation of saved sessions: one JSON
// file per session under the sessions directory, whole-file read/replace on
// every mutation.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/exsess/exsess/internal/config"
	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/session"
	"github.com/exsess/exsess/internal/shell"
)

// Store persists and retrieves named sessions.
type Store struct {
	dir  string
	enum shell.Enumerator
	cfg  *config.Config
	log  zerolog.Logger
}

// New creates a store rooted at cfg.SessionsDir, or baseDir/sessions when
// unset. The baseDir parameter allows tests to use t.TempDir() instead of
// ~/.exsess.
func New(baseDir string, enum shell.Enumerator, cfg *config.Config, log zerolog.Logger) (*Store, error) {
	dir := cfg.SessionsDir
	if dir == "" {
		dir = filepath.Join(baseDir, "sessions")
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	_ = os.Chmod(dir, 0700)

	return &Store{
		dir:  dir,
		enum: enum,
		cfg:  cfg,
		log:  log,
	}, nil
}

// Dir returns the directory holding session files.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads a stored session. Fails with NOT_FOUND if the key does not
// resolve to a file, or CORRUPT_DATA if the file does not parse.
func (s *Store) Load(key string) (*session.Session, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(key)
		}
		return nil, errors.NewInternal(err)
	}

	sess := &session.Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, errors.NewCorruptData(key, err)
	}

	return sess, nil
}

// Delete removes a stored session. Deleting a nonexistent key is not an error.
func (s *Store) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(s.filePath(key)); err != nil && !os.IsNotExist(err) {
		return errors.NewInternal(err)
	}
	return nil
}

// write replaces the stored session for key with sess.
func (s *Store) write(key string, sess *session.Session) error {
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := os.WriteFile(s.filePath(key), data, 0600); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

func (s *Store) filePath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// validateKey rejects keys that would escape the sessions directory.
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.NewInvalidRequest("session key must not be empty")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid session key %q", key))
	}
	return nil
}

// defaultRect resolves the geometry for entries added without one: the
// configured default when valid, the built-in default otherwise.
func (s *Store) defaultRect() session.Rect {
	if r := s.cfg.DefaultRect; len(r) == 4 {
		return session.Rect{Left: r[0], Top: r[1], Width: r[2], Height: r[3]}
	}
	return session.DefaultRect
}
