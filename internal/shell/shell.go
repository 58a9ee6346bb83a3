// Package shell is the boundary to the OS windowing layer: it enumerates
// live folder windows, launches new ones, and applies geometry to them.
// Everything above this package works against the three interfaces so the
// store and restore engine stay portable and testable.
package shell

import "github.com/exsess/exsess/internal/session"

// WindowRecord describes one live folder window at enumeration time.
// Records are produced fresh on every Enumerate call and must not be
// cached across calls.
type WindowRecord struct {
	Path      string
	Handle    uintptr
	Rect      session.Rect
	ShowState session.ShowState
}

// Enumerator produces the current set of live folder windows.
// Each call re-scans; individual windows that fail to answer (closed
// mid-scan, inaccessible handle) are skipped, never fatal. No windows
// is an empty slice, not an error.
type Enumerator interface {
	Enumerate() ([]WindowRecord, error)
}

// Launcher asks the OS to open a new folder window. Fire-and-forget: no
// handle comes back; the window is discovered later by re-enumeration.
type Launcher interface {
	Launch(path string) error
}

// Positioner moves, resizes, and sets the display state of a live window.
type Positioner interface {
	Apply(handle uintptr, rect session.Rect, state session.ShowState) error
}
