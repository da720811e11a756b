//go:build windows

package preview

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"

	"github.com/soocke/hdr-snip/domain/action"
	"github.com/soocke/hdr-snip/domain/selection"
)

const windowClassName = "HdrSnipPreview"

var (
	registerClassOnce sync.Once
	registerClassErr  error
	wndProcCallback   uintptr

	// liveWindows maps live handles to their owner; pending holds the window
	// under construction, which receives messages before CreateWindowEx
	// returns.
	windowsMu   sync.Mutex
	liveWindows = map[win.HWND]*nativeWindow{}
	pending     *nativeWindow
)

// nativeWindow is a topmost borderless window covering the primary display.
// Input is queued by the window procedure and drained by pump.
type nativeWindow struct {
	hwnd   win.HWND
	w, h   int
	keymap *action.Keymap
	events []Event
	cursor win.HCURSOR
	closed bool
}

func registerWindowClass() error {
	registerClassOnce.Do(func() {
		wndProcCallback = syscall.NewCallback(wndProc)
		var wc win.WNDCLASSEX
		wc.CbSize = uint32(unsafe.Sizeof(wc))
		wc.LpfnWndProc = wndProcCallback
		wc.HInstance = win.GetModuleHandle(nil)
		wc.HCursor = win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS))
		wc.Style = win.CS_OWNDC
		wc.LpszClassName = syscall.StringToUTF16Ptr(windowClassName)
		if win.RegisterClassEx(&wc) == 0 {
			registerClassErr = fmt.Errorf("RegisterClassEx: %w", syscall.GetLastError())
		}
	})
	return registerClassErr
}

func newNativeWindow(keymap *action.Keymap) (*nativeWindow, error) {
	if err := registerWindowClass(); err != nil {
		return nil, err
	}
	nw := &nativeWindow{
		w:      int(win.GetSystemMetrics(win.SM_CXSCREEN)),
		h:      int(win.GetSystemMetrics(win.SM_CYSCREEN)),
		keymap: keymap,
		cursor: win.LoadCursor(0, win.MAKEINTRESOURCE(win.IDC_CROSS)),
	}
	if nw.w <= 0 || nw.h <= 0 {
		return nil, errors.New("primary display size unavailable")
	}
	windowsMu.Lock()
	pending = nw
	windowsMu.Unlock()
	hwnd := win.CreateWindowEx(
		win.WS_EX_TOPMOST,
		syscall.StringToUTF16Ptr(windowClassName),
		syscall.StringToUTF16Ptr("hdr-snip"),
		win.WS_POPUP|win.WS_VISIBLE,
		0, 0, int32(nw.w), int32(nw.h),
		0, 0, win.GetModuleHandle(nil), nil,
	)
	windowsMu.Lock()
	pending = nil
	if hwnd != 0 {
		nw.hwnd = hwnd
		liveWindows[hwnd] = nw
	}
	windowsMu.Unlock()
	if hwnd == 0 {
		return nil, fmt.Errorf("CreateWindowEx: %w", syscall.GetLastError())
	}
	win.SetForegroundWindow(hwnd)
	return nw, nil
}

func lookupWindow(hwnd win.HWND) *nativeWindow {
	windowsMu.Lock()
	defer windowsMu.Unlock()
	if nw, ok := liveWindows[hwnd]; ok {
		return nw
	}
	if pending != nil {
		pending.hwnd = hwnd
		return pending
	}
	return nil
}

// pump dispatches every queued message and returns the input they produced.
func (nw *nativeWindow) pump() []Event {
	var msg win.MSG
	for win.PeekMessage(&msg, 0, 0, 0, win.PM_REMOVE) {
		win.TranslateMessage(&msg)
		win.DispatchMessage(&msg)
	}
	ev := nw.events
	nw.events = nil
	return ev
}

func (nw *nativeWindow) push(e Event) { nw.events = append(nw.events, e) }

var cursorIDs = map[selection.CursorHint]uintptr{
	selection.CursorCross:    win.IDC_CROSS,
	selection.CursorSizeNWSE: win.IDC_SIZENWSE,
	selection.CursorSizeNESW: win.IDC_SIZENESW,
	selection.CursorSizeNS:   win.IDC_SIZENS,
	selection.CursorSizeWE:   win.IDC_SIZEWE,
	selection.CursorSizeAll:  win.IDC_SIZEALL,
}

func (nw *nativeWindow) setCursor(c selection.CursorHint) {
	id, ok := cursorIDs[c]
	if !ok {
		id = win.IDC_ARROW
	}
	nw.cursor = win.LoadCursor(0, win.MAKEINTRESOURCE(id))
	win.SetCursor(nw.cursor)
}

func (nw *nativeWindow) destroy() {
	if nw.hwnd != 0 && !nw.closed {
		win.DestroyWindow(nw.hwnd)
	}
	windowsMu.Lock()
	delete(liveWindows, nw.hwnd)
	windowsMu.Unlock()
	nw.hwnd = 0
	nw.closed = true
}

func wndProc(hwnd win.HWND, msg uint32, wParam, lParam uintptr) uintptr {
	nw := lookupWindow(hwnd)
	if nw == nil {
		return win.DefWindowProc(hwnd, msg, wParam, lParam)
	}
	x, y := int(win.GET_X_LPARAM(lParam)), int(win.GET_Y_LPARAM(lParam))
	switch msg {
	case win.WM_LBUTTONDOWN:
		win.SetCapture(hwnd)
		nw.push(Event{Kind: EventPointerDown, X: x, Y: y})
		return 0
	case win.WM_MOUSEMOVE:
		nw.push(Event{Kind: EventPointerMove, X: x, Y: y})
		return 0
	case win.WM_LBUTTONUP:
		win.ReleaseCapture()
		nw.push(Event{Kind: EventPointerUp, X: x, Y: y})
		return 0
	case win.WM_RBUTTONUP:
		nw.push(Event{Kind: EventSecondaryUp, X: x, Y: y})
		return 0
	case win.WM_KEYDOWN:
		if k := nw.keymap.FromVK(uint16(wParam)); k != selection.KeyNone {
			nw.push(Event{Kind: EventKey, Key: k})
		}
		return 0
	case win.WM_SETCURSOR:
		if win.LOWORD(uint32(lParam)) == win.HTCLIENT {
			win.SetCursor(nw.cursor)
			return 1
		}
	case win.WM_DESTROY:
		nw.closed = true
		nw.push(Event{Kind: EventClose})
		return 0
	}
	return win.DefWindowProc(hwnd, msg, wParam, lParam)
}
