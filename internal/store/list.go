package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/session"
)

// List returns summaries for all stored sessions, most recent first.
// A file that fails to parse is logged and skipped, never fatal.
func (s *Store) List() ([]session.Summary, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []session.Summary{}, nil
		}
		return nil, errors.NewInternal(err)
	}

	summaries := make([]session.Summary, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key := strings.TrimSuffix(name, ".json")

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("skipping unreadable session file")
			continue
		}

		sess := &session.Session{}
		if err := json.Unmarshal(data, sess); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("skipping corrupt session file")
			continue
		}

		summaries = append(summaries, session.Summarize(key, sess))
	}

	// Newest first; ties broken by key for a stable order.
	sort.SliceStable(summaries, func(i, j int) bool {
		if !summaries[i].SavedAt.Equal(summaries[j].SavedAt) {
			return summaries[i].SavedAt.After(summaries[j].SavedAt)
		}
		return summaries[i].Key < summaries[j].Key
	})

	return summaries, nil
}
