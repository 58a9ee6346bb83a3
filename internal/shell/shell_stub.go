//go:build !windows

package shell

import (
	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/session"
)

// Folder-window enumeration rides on the Windows shell. On other platforms
// the constructors return stubs so the store and engine still link; every
// call reports the platform gap.

// NewEnumerator returns a stub enumerator on non-Windows platforms.
func NewEnumerator() Enumerator {
	return unsupported{}
}

// NewLauncher returns a stub launcher on non-Windows platforms.
func NewLauncher() Launcher {
	return unsupported{}
}

// NewPositioner returns a stub positioner on non-Windows platforms.
func NewPositioner() Positioner {
	return unsupported{}
}

type unsupported struct{}

func (unsupported) Enumerate() ([]WindowRecord, error) {
	return nil, errors.NewInvalidRequest("folder window enumeration requires windows")
}

func (unsupported) Launch(string) error {
	return errors.NewLaunchFailed("", errors.NewInvalidRequest("window launch requires windows"))
}

func (unsupported) Apply(uintptr, session.Rect, session.ShowState) error {
	return errors.NewGeometryFailed(0, errors.NewInvalidRequest("window geometry requires windows"))
}
