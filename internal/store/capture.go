package store

import (
	"time"

	"github.com/exsess/exsess/internal/session"
)

// CaptureOutput contains the result of the Capture operation.
type CaptureOutput struct {
	Key     string           `json:"key"`
	Session *session.Session `json:"session"`
}

// Capture snapshots the current live folder windows into a stored session.
// Entries are deduplicated by path (first seen wins, order preserved). With
// no name given, the name and storage key are derived from the capture time.
func (s *Store) Capture(name string) (*CaptureOutput, error) {
	records, err := s.enum.Enumerate()
	if err != nil {
		return nil, err
	}

	entries := make([]session.Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, session.Entry{
			Path:      rec.Path,
			Rect:      rec.Rect,
			ShowState: rec.ShowState,
		})
	}
	entries = session.Dedupe(entries)

	now := time.Now()
	sessionName := name
	if sessionName == "" {
		sessionName = session.DeriveName(now)
	}
	key := session.KeyFor(name, now)

	sess := &session.Session{
		Name:    sessionName,
		SavedAt: now,
		Entries: entries,
	}

	if err := s.write(key, sess); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("key", key).
		Int("windows", len(entries)).
		Msg("session captured")

	return &CaptureOutput{Key: key, Session: sess}, nil
}
