package restore

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/session"
	"github.com/exsess/exsess/internal/shell"
)

// scriptedEnumerator returns one scripted live set per call, repeating the
// last set once the script runs out.
type scriptedEnumerator struct {
	mu    sync.Mutex
	sets  [][]shell.WindowRecord
	calls int
}

func (s *scriptedEnumerator) Enumerate() ([]shell.WindowRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if len(s.sets) == 0 {
		return nil, nil
	}
	if i >= len(s.sets) {
		i = len(s.sets) - 1
	}
	return s.sets[i], nil
}

type recordingLauncher struct {
	mu       sync.Mutex
	launched []string
	failFor  map[string]bool
}

func (l *recordingLauncher) Launch(path string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failFor[path] {
		return errors.NewLaunchFailed(path, nil)
	}
	l.launched = append(l.launched, path)
	return nil
}

type recordingPositioner struct {
	mu          sync.Mutex
	applied     map[uintptr]session.Rect
	failHandles map[uintptr]bool
}

func (p *recordingPositioner) Apply(handle uintptr, rect session.Rect, state session.ShowState) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failHandles[handle] {
		return errors.NewGeometryFailed(handle, nil)
	}
	if p.applied == nil {
		p.applied = make(map[uintptr]session.Rect)
	}
	p.applied[handle] = rect
	return nil
}

func newTestEngine(enum shell.Enumerator, launcher *recordingLauncher, pos *recordingPositioner) *Engine {
	return New(enum, launcher, pos, zerolog.Nop())
}

func twoEntrySession() *session.Session {
	return &session.Session{
		Name:    "two",
		SavedAt: time.Now(),
		Entries: []session.Entry{
			{Path: "/A", Rect: session.Rect{Left: 0, Top: 0, Width: 800, Height: 600}, ShowState: session.ShowNormal},
			{Path: "/B", Rect: session.Rect{Left: 100, Top: 100, Width: 1024, Height: 768}, ShowState: session.ShowMaximized},
		},
	}
}

func TestRestore_AllAlreadyOpen(t *testing.T) {
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{{
		{Path: "/A", Handle: 11},
		{Path: "/B", Handle: 22},
	}}}
	launcher := &recordingLauncher{}
	pos := &recordingPositioner{}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), twoEntrySession(), 2*time.Second, time.Millisecond)

	if res.Restored != 2 || res.Skipped != 0 {
		t.Errorf("Restore = %+v, want (2, 0)", res)
	}
	if len(launcher.launched) != 0 {
		t.Errorf("launched = %v, want no launches", launcher.launched)
	}
	if pos.applied[11] != (session.Rect{Left: 0, Top: 0, Width: 800, Height: 600}) {
		t.Errorf("applied[11] = %+v, want /A geometry", pos.applied[11])
	}
}

func TestRestore_LaunchesMissingAndPolls(t *testing.T) {
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{
		{}, // partition round: nothing open
		{{Path: "/A", Handle: 11}, {Path: "/B", Handle: 22}},
	}}
	launcher := &recordingLauncher{}
	pos := &recordingPositioner{}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), twoEntrySession(), 2*time.Second, time.Millisecond)

	if res.Restored != 2 || res.Skipped != 0 {
		t.Errorf("Restore = %+v, want (2, 0)", res)
	}
	if len(launcher.launched) != 2 {
		t.Errorf("launched = %v, want exactly 2 launch calls", launcher.launched)
	}
}

func TestRestore_TimeoutSkipsUnmatched(t *testing.T) {
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{
		{},
		{{Path: "/A", Handle: 11}}, // /B never appears
	}}
	launcher := &recordingLauncher{}
	pos := &recordingPositioner{}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), twoEntrySession(), 50*time.Millisecond, time.Millisecond)

	if res.Restored != 1 || res.Skipped != 1 {
		t.Errorf("Restore = %+v, want (1, 1)", res)
	}
	if _, ok := pos.applied[11]; !ok {
		t.Error("matched window /A should still get geometry applied")
	}
}

func TestRestore_ZeroTimeout(t *testing.T) {
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{{}}}
	launcher := &recordingLauncher{}
	pos := &recordingPositioner{}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), twoEntrySession(), 0, time.Millisecond)

	// No time to wait: every needs-launch entry is skipped, but launches
	// are still issued before the deadline check.
	if res.Restored != 0 || res.Skipped != 2 {
		t.Errorf("Restore = %+v, want (0, 2)", res)
	}
	if len(launcher.launched) != 2 {
		t.Errorf("launched = %v, want 2 fire-and-forget launches", launcher.launched)
	}
}

func TestRestore_EmptyPathCountsAsSkipped(t *testing.T) {
	sess := &session.Session{
		Name: "gappy",
		Entries: []session.Entry{
			{Path: "", Rect: session.Rect{Left: 1, Top: 1, Width: 1, Height: 1}},
			{Path: "/A"},
		},
	}
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{{{Path: "/A", Handle: 11}}}}
	launcher := &recordingLauncher{}
	pos := &recordingPositioner{}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), sess, 0, time.Millisecond)

	if res.Restored != 1 || res.Skipped != 1 {
		t.Errorf("Restore = %+v, want (1, 1)", res)
	}
	if len(launcher.launched) != 0 {
		t.Errorf("launched = %v, empty-path entry must not be launched", launcher.launched)
	}
}

func TestRestore_LaunchFailureSkips(t *testing.T) {
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{
		{},
		{{Path: "/A", Handle: 11}},
	}}
	launcher := &recordingLauncher{failFor: map[string]bool{"/B": true}}
	pos := &recordingPositioner{}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), twoEntrySession(), time.Second, time.Millisecond)

	if res.Restored != 1 || res.Skipped != 1 {
		t.Errorf("Restore = %+v, want (1, 1)", res)
	}
}

func TestRestore_GeometryFailureSkipsOnlyThatWindow(t *testing.T) {
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{{
		{Path: "/A", Handle: 11},
		{Path: "/B", Handle: 22},
	}}}
	launcher := &recordingLauncher{}
	pos := &recordingPositioner{failHandles: map[uintptr]bool{22: true}}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), twoEntrySession(), time.Second, time.Millisecond)

	if res.Restored != 1 || res.Skipped != 1 {
		t.Errorf("Restore = %+v, want (1, 1)", res)
	}
	if _, ok := pos.applied[11]; !ok {
		t.Error("window 11 should be restored despite window 22 failing")
	}
}

func TestRestore_DuplicatePathsCompeteForOneWindow(t *testing.T) {
	// Two entries referencing the same path with only one live window: the
	// claimed-handle set lets exactly one win; the other times out.
	sess := &session.Session{
		Name: "dup",
		Entries: []session.Entry{
			{Path: "/A", Rect: session.Rect{Left: 0, Top: 0, Width: 10, Height: 10}},
			{Path: "/A", Rect: session.Rect{Left: 9, Top: 9, Width: 90, Height: 90}},
		},
	}
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{{{Path: "/A", Handle: 11}}}}
	launcher := &recordingLauncher{}
	pos := &recordingPositioner{}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), sess, 30*time.Millisecond, time.Millisecond)

	if res.Restored != 1 || res.Skipped != 1 {
		t.Errorf("Restore = %+v, want (1, 1)", res)
	}
	// First entry in enumeration order claims the handle.
	if pos.applied[11] != (session.Rect{Left: 0, Top: 0, Width: 10, Height: 10}) {
		t.Errorf("applied[11] = %+v, want first entry's geometry", pos.applied[11])
	}
	// The loser was launched (no unclaimed window existed for it) but never matched.
	if len(launcher.launched) != 1 {
		t.Errorf("launched = %v, want 1 launch for the unmatched duplicate", launcher.launched)
	}
}

func TestRestore_CountsAlwaysSumToEntries(t *testing.T) {
	sess := &session.Session{
		Name: "sum",
		Entries: []session.Entry{
			{Path: "/A"},
			{Path: ""},
			{Path: "/B"},
			{Path: "/C"},
		},
	}
	enum := &scriptedEnumerator{sets: [][]shell.WindowRecord{{{Path: "/A", Handle: 11}}}}
	launcher := &recordingLauncher{failFor: map[string]bool{"/B": true}}
	pos := &recordingPositioner{}
	e := newTestEngine(enum, launcher, pos)

	res := e.Restore(context.Background(), sess, 20*time.Millisecond, time.Millisecond)

	// Every entry ends up in exactly one bucket: matched-and-restored, or
	// skipped (empty path, launch failure, or timeout).
	if res.Restored+res.Skipped != len(sess.Entries) {
		t.Errorf("Restored+Skipped = %d, want %d", res.Restored+res.Skipped, len(sess.Entries))
	}
	if res.Restored != 1 {
		t.Errorf("Restored = %d, want 1 (only /A is live)", res.Restored)
	}
}
