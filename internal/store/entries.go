package store

import (
	"strings"

	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/session"
)

// RemoveEntry removes all entries matching path from a stored session.
// Returns false when the removal empties the session, in which case the
// whole session is deleted and the caller must treat the key as gone.
func (s *Store) RemoveEntry(key, path string) (bool, error) {
	sess, err := s.Load(key)
	if err != nil {
		return false, err
	}

	remaining := make([]session.Entry, 0, len(sess.Entries))
	for _, e := range sess.Entries {
		if e.Path != path {
			remaining = append(remaining, e)
		}
	}

	if len(remaining) == 0 {
		if err := s.Delete(key); err != nil {
			return false, err
		}
		s.log.Info().Str("key", key).Msg("session emptied and deleted")
		return false, nil
	}

	sess.Entries = remaining
	if err := s.write(key, sess); err != nil {
		return false, err
	}
	return true, nil
}

// AddEntry appends a new entry to a stored session. Returns false without
// mutation if the path is already present. A nil rect or state gets the
// configured defaults.
func (s *Store) AddEntry(key, path string, rect *session.Rect, state *session.ShowState) (bool, error) {
	if strings.TrimSpace(path) == "" {
		return false, errors.NewInvalidRequest("path must not be empty")
	}

	sess, err := s.Load(key)
	if err != nil {
		return false, err
	}

	if session.HasPath(sess.Entries, path) {
		return false, nil
	}

	entry := session.Entry{Path: path, Rect: s.defaultRect(), ShowState: session.ShowNormal}
	if rect != nil {
		entry.Rect = *rect
	}
	if state != nil {
		entry.ShowState = *state
	}

	sess.Entries = append(sess.Entries, entry)
	if err := s.write(key, sess); err != nil {
		return false, err
	}
	return true, nil
}
