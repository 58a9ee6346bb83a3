//go:build windows

package shell

import (
	"fmt"
	"os/exec"
	"runtime"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"golang.org/x/sys/windows"

	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/session"
)

// Win32 ShowWindow commands used when applying state.
const (
	swMaximize = 3
	swMinimize = 6
	swRestore  = 9
)

// sFalse is the COM "already initialized on this thread" status.
const sFalse = 0x00000001

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	procGetWindowPlacement = user32.NewProc("GetWindowPlacement")
	procGetWindowRect      = user32.NewProc("GetWindowRect")
	procMoveWindow         = user32.NewProc("MoveWindow")
	procShowWindow         = user32.NewProc("ShowWindow")
)

type point struct {
	X int32
	Y int32
}

type winRect struct {
	Left   int32
	Top    int32
	Right  int32
	Bottom int32
}

type windowPlacement struct {
	Length         uint32
	Flags          uint32
	ShowCmd        uint32
	MinPosition    point
	MaxPosition    point
	NormalPosition winRect
}

// NewEnumerator returns the Shell.Application-backed window enumerator.
func NewEnumerator() Enumerator {
	return &explorerEnumerator{}
}

// NewLauncher returns a launcher that spawns explorer.exe for a path.
func NewLauncher() Launcher {
	return &explorerLauncher{}
}

// NewPositioner returns the user32-backed window positioner.
func NewPositioner() Positioner {
	return &user32Positioner{}
}

// explorerEnumerator walks Shell.Application's window collection. The COM
// apartment is entered and left on every call; no connection state survives
// between calls.
type explorerEnumerator struct{}

func (e *explorerEnumerator) Enumerate() ([]WindowRecord, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitialize(0); err != nil {
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != sFalse {
			return nil, errors.NewInternal(fmt.Errorf("CoInitialize: %w", err))
		}
	}
	defer ole.CoUninitialize()

	unknown, err := oleutil.CreateObject("Shell.Application")
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("Shell.Application: %w", err))
	}
	defer unknown.Release()

	shell, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("IDispatch: %w", err))
	}
	defer shell.Release()

	windowsVar, err := oleutil.CallMethod(shell, "Windows")
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("Shell.Windows: %w", err))
	}
	collection := windowsVar.ToIDispatch()
	if collection == nil {
		return nil, nil
	}
	defer collection.Release()

	countVar, err := oleutil.GetProperty(collection, "Count")
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("Windows.Count: %w", err))
	}
	count := int(countVar.Val)

	records := make([]WindowRecord, 0, count)
	for i := 0; i < count; i++ {
		itemVar, err := oleutil.CallMethod(collection, "Item", i)
		if err != nil {
			continue
		}
		item := itemVar.ToIDispatch()
		if item == nil {
			continue
		}
		if rec, ok := describeWindow(item); ok {
			records = append(records, rec)
		}
		item.Release()
	}

	return records, nil
}

// describeWindow extracts path, handle, and geometry for one shell window.
// Any failure (non-folder window, window closed mid-scan) skips the window.
func describeWindow(w *ole.IDispatch) (WindowRecord, bool) {
	var rec WindowRecord

	docVar, err := oleutil.GetProperty(w, "Document")
	if err != nil {
		return rec, false
	}
	doc := docVar.ToIDispatch()
	if doc == nil {
		return rec, false
	}
	defer doc.Release()

	folderVar, err := oleutil.GetProperty(doc, "Folder")
	if err != nil {
		return rec, false
	}
	folder := folderVar.ToIDispatch()
	if folder == nil {
		return rec, false
	}
	defer folder.Release()

	selfVar, err := oleutil.GetProperty(folder, "Self")
	if err != nil {
		return rec, false
	}
	self := selfVar.ToIDispatch()
	if self == nil {
		return rec, false
	}
	defer self.Release()

	pathVar, err := oleutil.GetProperty(self, "Path")
	if err != nil {
		return rec, false
	}
	rec.Path = pathVar.ToString()

	hwndVar, err := oleutil.GetProperty(w, "HWND")
	if err != nil {
		return rec, false
	}
	rec.Handle = uintptr(hwndVar.Val)

	rect, state, ok := queryGeometry(rec.Handle)
	if !ok {
		return rec, false
	}
	rec.Rect = rect
	rec.ShowState = state

	return rec, true
}

// queryGeometry reads placement for a window, falling back to the plain
// window rect (reported as normal state) when placement is unavailable.
func queryGeometry(handle uintptr) (session.Rect, session.ShowState, bool) {
	var wp windowPlacement
	wp.Length = uint32(unsafe.Sizeof(wp))

	ret, _, _ := procGetWindowPlacement.Call(handle, uintptr(unsafe.Pointer(&wp)))
	if ret != 0 {
		r := wp.NormalPosition
		return session.Rect{
			Left:   int(r.Left),
			Top:    int(r.Top),
			Width:  int(r.Right - r.Left),
			Height: int(r.Bottom - r.Top),
		}, session.FromShowCmd(int(wp.ShowCmd)), true
	}

	var r winRect
	ret, _, _ = procGetWindowRect.Call(handle, uintptr(unsafe.Pointer(&r)))
	if ret == 0 {
		return session.Rect{}, session.ShowNormal, false
	}
	return session.Rect{
		Left:   int(r.Left),
		Top:    int(r.Top),
		Width:  int(r.Right - r.Left),
		Height: int(r.Bottom - r.Top),
	}, session.ShowNormal, true
}

type explorerLauncher struct{}

func (l *explorerLauncher) Launch(path string) error {
	cmd := exec.Command("explorer", path)
	if err := cmd.Start(); err != nil {
		return errors.NewLaunchFailed(path, err)
	}
	// Reap the short-lived explorer stub without blocking the caller.
	go func() { _ = cmd.Wait() }()
	return nil
}

type user32Positioner struct{}

func (p *user32Positioner) Apply(handle uintptr, rect session.Rect, state session.ShowState) error {
	ret, _, callErr := procMoveWindow.Call(
		handle,
		uintptr(rect.Left),
		uintptr(rect.Top),
		uintptr(rect.Width),
		uintptr(rect.Height),
		1, // repaint
	)
	if ret == 0 {
		return errors.NewGeometryFailed(handle, callErr)
	}

	cmd := swRestore
	switch state {
	case session.ShowMaximized:
		cmd = swMaximize
	case session.ShowMinimized:
		cmd = swMinimize
	}
	// ShowWindow's return value reports previous visibility, not failure.
	procShowWindow.Call(handle, uintptr(cmd))

	return nil
}
