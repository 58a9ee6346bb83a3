package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// ShowState is the display mode of a folder window.
type ShowState int

const (
	ShowNormal ShowState = iota
	ShowMinimized
	ShowMaximized
)

// Win32 SW_* show command values used in the persisted format.
const (
	swShowNormal    = 1
	swShowMinimized = 2
	swShowMaximized = 3
	swMinimize      = 6
)

// ShowCmd returns the Win32 show command for the persisted format.
func (s ShowState) ShowCmd() int {
	switch s {
	case ShowMinimized:
		return swShowMinimized
	case ShowMaximized:
		return swShowMaximized
	default:
		return swShowNormal
	}
}

// FromShowCmd maps a Win32 show command to a ShowState.
// Unknown values decode as ShowNormal rather than failing the record.
func FromShowCmd(cmd int) ShowState {
	switch cmd {
	case swShowMinimized, swMinimize:
		return ShowMinimized
	case swShowMaximized:
		return ShowMaximized
	default:
		return ShowNormal
	}
}

// String returns a human-readable state name.
func (s ShowState) String() string {
	switch s {
	case ShowMinimized:
		return "minimized"
	case ShowMaximized:
		return "maximized"
	default:
		return "normal"
	}
}

// ParseShowState parses a state name as accepted on the CLI and MCP surface.
func ParseShowState(s string) (ShowState, error) {
	switch s {
	case "", "normal":
		return ShowNormal, nil
	case "minimized":
		return ShowMinimized, nil
	case "maximized":
		return ShowMaximized, nil
	}
	return ShowNormal, fmt.Errorf("unknown show state %q (want normal, minimized, or maximized)", s)
}

// MarshalJSON encodes the state as its Win32 show command integer.
func (s ShowState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.ShowCmd())
}

// UnmarshalJSON decodes a Win32 show command integer.
func (s *ShowState) UnmarshalJSON(data []byte) error {
	var cmd int
	if err := json.Unmarshal(data, &cmd); err != nil {
		return fmt.Errorf("show_cmd: %w", err)
	}
	*s = FromShowCmd(cmd)
	return nil
}

// Rect is a window's screen geometry.
type Rect struct {
	Left   int
	Top    int
	Width  int
	Height int
}

// DefaultRect is the geometry assigned to entries added without one.
var DefaultRect = Rect{Left: 100, Top: 100, Width: 1000, Height: 600}

// MarshalJSON encodes the rect as [left, top, width, height].
func (r Rect) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{r.Left, r.Top, r.Width, r.Height})
}

// UnmarshalJSON decodes a [left, top, width, height] array.
func (r *Rect) UnmarshalJSON(data []byte) error {
	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("rect: %w", err)
	}
	if len(vals) != 4 {
		return fmt.Errorf("rect: want 4 elements, got %d", len(vals))
	}
	r.Left, r.Top, r.Width, r.Height = vals[0], vals[1], vals[2], vals[3]
	return nil
}

// Entry is one folder-window description within a session.
type Entry struct {
	Path      string    `json:"path"`
	Rect      Rect      `json:"rect"`
	ShowState ShowState `json:"show_cmd"`
}

// Session is a persisted named set of folder-window descriptions.
type Session struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	Entries []Entry   `json:"windows"`
}

// Summary describes a stored session for listing. Derived on demand, never persisted.
type Summary struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	SavedAt     time.Time `json:"saved_at"`
	WindowCount int       `json:"window_count"`
	TabCount    int       `json:"tab_count"`
}

// Summarize computes the listing summary for a stored session.
// WindowCount counts distinct paths; TabCount counts raw entries, so
// WindowCount <= TabCount always holds.
func Summarize(key string, s *Session) Summary {
	return Summary{
		Key:         key,
		Name:        s.Name,
		SavedAt:     s.SavedAt,
		WindowCount: DistinctPaths(s.Entries),
		TabCount:    len(s.Entries),
	}
}

// DistinctPaths counts unique entry paths.
func DistinctPaths(entries []Entry) int {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.Path] = true
	}
	return len(seen)
}

// Dedupe removes duplicate-path entries, keeping the first occurrence
// and preserving insertion order.
func Dedupe(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if seen[e.Path] {
			continue
		}
		seen[e.Path] = true
		out = append(out, e)
	}
	return out
}

// HasPath reports whether any entry references the given path.
func HasPath(entries []Entry, path string) bool {
	for _, e := range entries {
		if e.Path == path {
			return true
		}
	}
	return false
}
