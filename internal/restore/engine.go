// Package restore converges the live window set to match a saved session:
// match what is already open, launch what is missing, poll for launched
// windows to appear, then apply geometry. Every per-window failure degrades
// to a skip count; nothing here aborts the pass.
package restore

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/exsess/exsess/internal/session"
	"github.com/exsess/exsess/internal/shell"
)

// Result is the aggregate outcome of one restore pass. Restored plus
// Skipped always equals the number of entries in the session.
type Result struct {
	Restored int `json:"restored"`
	Skipped  int `json:"skipped"`
}

// Engine reconciles saved sessions against live windows.
type Engine struct {
	enum     shell.Enumerator
	launcher shell.Launcher
	pos      shell.Positioner
	log      zerolog.Logger
}

// New creates a restore engine over the given window-system boundaries.
func New(enum shell.Enumerator, launcher shell.Launcher, pos shell.Positioner, log zerolog.Logger) *Engine {
	return &Engine{
		enum:     enum,
		launcher: launcher,
		pos:      pos,
		log:      log,
	}
}

// target is one session entry still waiting for a live window.
type target struct {
	path  string
	rect  session.Rect
	state session.ShowState
}

// placement is a matched (live window, desired geometry) pair.
type placement struct {
	handle uintptr
	rect   session.Rect
	state  session.ShowState
}

// Restore converges the live window set to sess. It blocks the caller for up
// to openTimeout while polling for launched windows; cancellation via ctx is
// observed only between polling rounds, never mid-round.
func (e *Engine) Restore(ctx context.Context, sess *session.Session, openTimeout, pollInterval time.Duration) Result {
	var res Result

	// One claimed-handle set spans the whole pass so two entries can never
	// be matched to the same live window.
	claimed := make(map[uintptr]bool)
	var matched []placement
	var pending []target

	live := e.snapshotLive()
	for _, entry := range sess.Entries {
		if entry.Path == "" {
			res.Skipped++
			continue
		}

		tgt := target{path: entry.Path, rect: entry.Rect, state: entry.ShowState}
		if handle, ok := findUnclaimed(live, entry.Path, claimed); ok {
			claimed[handle] = true
			matched = append(matched, placement{handle: handle, rect: tgt.rect, state: tgt.state})
		} else {
			pending = append(pending, tgt)
		}
	}

	// Launch everything that is missing before any waiting starts, so the
	// total wait is bounded by openTimeout rather than multiplied by the
	// window count.
	remaining := pending[:0]
	for _, tgt := range pending {
		if err := e.launcher.Launch(tgt.path); err != nil {
			e.log.Warn().Err(err).Str("path", tgt.path).Msg("window launch failed")
			res.Skipped++
			continue
		}
		remaining = append(remaining, tgt)
	}

	matched = append(matched, e.pollForWindows(ctx, remaining, claimed, openTimeout, pollInterval, &res)...)

	for _, p := range matched {
		if err := e.pos.Apply(p.handle, p.rect, p.state); err != nil {
			e.log.Warn().Err(err).Uint64("handle", uint64(p.handle)).Msg("geometry apply failed")
			res.Skipped++
			continue
		}
		res.Restored++
	}

	e.log.Info().
		Str("session", sess.Name).
		Int("restored", res.Restored).
		Int("skipped", res.Skipped).
		Msg("restore pass complete")

	return res
}

// pollForWindows re-enumerates until every remaining target is matched or
// the deadline passes. Targets still unmatched at the deadline are skipped.
func (e *Engine) pollForWindows(ctx context.Context, remaining []target, claimed map[uintptr]bool, openTimeout, pollInterval time.Duration, res *Result) []placement {
	var matched []placement

	deadline := time.Now().Add(openTimeout)
	for len(remaining) > 0 && time.Now().Before(deadline) && ctx.Err() == nil {
		live := e.snapshotLive()
		for i := len(remaining) - 1; i >= 0; i-- {
			tgt := remaining[i]
			handle, ok := findUnclaimed(live, tgt.path, claimed)
			if !ok {
				continue
			}
			claimed[handle] = true
			matched = append(matched, placement{handle: handle, rect: tgt.rect, state: tgt.state})
			remaining = append(remaining[:i], remaining[i+1:]...)
		}

		if len(remaining) > 0 {
			time.Sleep(pollInterval)
		}
	}

	for _, tgt := range remaining {
		e.log.Warn().Str("path", tgt.path).Msg("timed out waiting for window")
		res.Skipped++
	}

	return matched
}

// snapshotLive enumerates the live window set, folding enumeration failures
// into an empty set. A failed scan means no matches this round, not a
// failed pass.
func (e *Engine) snapshotLive() []shell.WindowRecord {
	records, err := e.enum.Enumerate()
	if err != nil {
		e.log.Warn().Err(err).Msg("window enumeration failed")
		return nil
	}
	return records
}

// findUnclaimed returns the first live window in enumeration order showing
// path whose handle has not been claimed by this pass.
func findUnclaimed(live []shell.WindowRecord, path string, claimed map[uintptr]bool) (uintptr, bool) {
	for _, rec := range live {
		if rec.Path == path && !claimed[rec.Handle] {
			return rec.Handle, true
		}
	}
	return 0, false
}
