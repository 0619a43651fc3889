// Package display wraps github.com/go-vgo/robotgo behind the narrow
// adapter contract the core needs: capture a rectangle, enumerate
// monitors, and inject synthetic pointer/button/key events. It is the
// only package that imports robotgo directly; Region and the matcher
// never see raw robotgo types.
//
// A Handle is not shareable across goroutines without external
// synchronization: robotgo itself serializes through a single C
// binding, so two goroutines racing Capture/MoveMouseAbsolute on the
// same Handle have undefined ordering.
package display

import (
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/anxuanzi/zikuli/pkg/geom"
	"github.com/anxuanzi/zikuli/pkg/logging"
	"github.com/anxuanzi/zikuli/pkg/ximage"
)

var log = logging.WithPrefix("display")

// Button identifies a synthetic pointer button, numbered per the X11
// convention: 1=left, 2=middle, 3=right, 4=wheel-up, 5=wheel-down.
type Button int

const (
	ButtonLeft     Button = 1
	ButtonMiddle   Button = 2
	ButtonRight    Button = 3
	ButtonWheelUp  Button = 4
	ButtonWheelDn  Button = 5
)

func (b Button) robotgoName() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonMiddle:
		return "center"
	case ButtonRight:
		return "right"
	default:
		return "left"
	}
}

// Monitor describes one connected display.
type Monitor struct {
	ID        uint32
	Bounds    geom.Rectangle
	IsPrimary bool
	Name      string
}

// Handle is a live connection to the display server. It owns no
// resource beyond the process-wide robotgo binding, but is deliberately
// non-copyable (pass by pointer) so callers cannot fork a second handle
// that silently shares robotgo's single global state.
type Handle struct {
	connected bool
	monitors  []Monitor
}

// Open connects to the display and performs the initial monitor
// enumeration. The Handle only tracks whether Close has been called:
// after Close, every call returns DisplayError. A lost connection is
// not detected; backend failures surface as CaptureError or InputError
// and leave the Handle usable.
func Open() (*Handle, error) {
	h := &Handle{connected: true}
	if err := h.refreshMonitors(); err != nil {
		return nil, err
	}
	return h, nil
}

// Close invalidates the handle. robotgo holds no per-handle resource to
// release, so this only flips the connected flag.
func (h *Handle) Close() error {
	h.connected = false
	return nil
}

func (h *Handle) checkConnected() error {
	if !h.connected {
		return &DisplayError{Cause: fmt.Errorf("display: handle closed")}
	}
	return nil
}

// refreshMonitors re-enumerates monitors. Called at Open and may be
// called again explicitly via Refresh; it is never called implicitly
// on every query.
func (h *Handle) refreshMonitors() error {
	n := robotgo.DisplaysNum()
	if n <= 0 {
		return &DisplayError{Cause: fmt.Errorf("display: no monitors found")}
	}

	monitors := make([]Monitor, n)
	primaryIdx := -1
	for i := 0; i < n; i++ {
		x, y, w, h := robotgo.GetDisplayBounds(i)
		bounds := geom.NewRectangle(int32(x), int32(y), uint32(w), uint32(h))
		monitors[i] = Monitor{
			ID:     uint32(i),
			Bounds: bounds,
		}
		if bounds.Contains(geom.Point{X: 0, Y: 0}) && primaryIdx == -1 {
			primaryIdx = i
		}
	}

	// No monitor reported owning (0,0): fall back to the
	// geometrically leftmost-topmost, per the registry invariant.
	if primaryIdx == -1 {
		primaryIdx = 0
		for i, m := range monitors {
			cur := monitors[primaryIdx]
			if m.Bounds.Y < cur.Bounds.Y || (m.Bounds.Y == cur.Bounds.Y && m.Bounds.X < cur.Bounds.X) {
				primaryIdx = i
			}
		}
	}

	// Primary monitor is always reported with id 0 after enumeration:
	// swap so index/id 0 is the primary.
	if primaryIdx != 0 {
		monitors[0], monitors[primaryIdx] = monitors[primaryIdx], monitors[0]
	}
	for i := range monitors {
		monitors[i].ID = uint32(i)
		monitors[i].IsPrimary = i == 0
		monitors[i].Name = fmt.Sprintf("display-%d", i)
	}

	h.monitors = monitors
	return nil
}

// Refresh re-enumerates monitors explicitly; enumeration otherwise
// happens only once, at Open.
func (h *Handle) Refresh() error {
	if err := h.checkConnected(); err != nil {
		return err
	}
	return h.refreshMonitors()
}

// Monitors returns the enumerated monitors, primary first.
func (h *Handle) Monitors() []Monitor {
	out := make([]Monitor, len(h.monitors))
	copy(out, h.monitors)
	return out
}

// VirtualScreenBounds is the axis-aligned bounding box of all monitors;
// its origin may be negative on multi-monitor layouts.
func (h *Handle) VirtualScreenBounds() geom.Rectangle {
	if len(h.monitors) == 0 {
		return geom.Rectangle{}
	}
	bounds := h.monitors[0].Bounds
	for _, m := range h.monitors[1:] {
		bounds = unionRect(bounds, m.Bounds)
	}
	return bounds
}

func unionRect(a, b geom.Rectangle) geom.Rectangle {
	x0 := min32(a.X, b.X)
	y0 := min32(a.Y, b.Y)
	x1 := max64(a.Right(), b.Right())
	y1 := max64(a.Bottom(), b.Bottom())
	return geom.NewRectangle(x0, y0, uint32(x1-int64(x0)), uint32(y1-int64(y0)))
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// MonitorForPoint returns the first monitor (by id order) whose bounds
// contains p, and false if no monitor contains it.
func (h *Handle) MonitorForPoint(p geom.Point) (Monitor, bool) {
	for _, m := range h.monitors {
		if m.Bounds.Contains(p) {
			return m, true
		}
	}
	return Monitor{}, false
}

// Capture captures rect, clamped against the virtual screen bounds,
// and returns a BGRA Image whose (0,0) corresponds to the clamped
// rect's origin. Callers that need screen-absolute coordinates must
// add the rect origin back themselves.
func (h *Handle) Capture(rect geom.Rectangle) (*ximage.Image, error) {
	if err := h.checkConnected(); err != nil {
		return nil, err
	}

	clamped := rect.Clamp(h.VirtualScreenBounds())
	if clamped.IsEmpty() {
		return nil, &InvalidRegionError{Rect: rect, Clamped: clamped}
	}

	std, err := robotgo.CaptureImg(int(clamped.X), int(clamped.Y), int(clamped.Width), int(clamped.Height))
	if err != nil {
		return nil, &CaptureError{Rect: rect, Clamped: clamped, Cause: err}
	}

	img := ximage.FromStdImage(std)
	if img.Width != int(clamped.Width) || img.Height != int(clamped.Height) {
		return nil, &IncompleteDataError{Rect: rect, Clamped: clamped, Got: img.Width * img.Height * 4, Want: int(clamped.Width) * int(clamped.Height) * 4}
	}

	log.Debug("captured %dx%d at (%d,%d)", img.Width, img.Height, clamped.X, clamped.Y)
	return img, nil
}

// MoveMouseAbsolute moves the pointer to virtual-screen coordinates,
// which may be negative on multi-monitor layouts. It flushes
// immediately and does not wait for any visual effect.
func (h *Handle) MoveMouseAbsolute(x, y int32) error {
	if err := h.checkConnected(); err != nil {
		return err
	}
	robotgo.Move(int(x), int(y))
	return nil
}

// ButtonEvent presses or releases a synthetic pointer button.
func (h *Handle) ButtonEvent(b Button, down bool) error {
	if err := h.checkConnected(); err != nil {
		return err
	}
	state := "up"
	if down {
		state = "down"
	}
	robotgo.Toggle(b.robotgoName(), state)
	return nil
}

// KeyEvent presses or releases a synthetic key by robotgo keycode name.
func (h *Handle) KeyEvent(keycode string, down bool) error {
	if err := h.checkConnected(); err != nil {
		return err
	}
	state := "up"
	if down {
		state = "down"
	}
	if err := robotgo.KeyToggle(keycode, state); err != nil {
		return &InputError{Kind: "key", Cause: err}
	}
	return nil
}

// TypeText types text one rune at a time with no modifiers, for the
// unmodified path of Region.Type.
func (h *Handle) TypeText(text string) error {
	if err := h.checkConnected(); err != nil {
		return err
	}
	if err := robotgo.TypeStr(text); err != nil {
		return &InputError{Kind: "type", Cause: err}
	}
	return nil
}

// QueryPointer returns the current pointer location in virtual-screen
// coordinates. Query failures are retryable by the caller; they do not
// invalidate the handle.
func (h *Handle) QueryPointer() (geom.Point, error) {
	if err := h.checkConnected(); err != nil {
		return geom.Point{}, err
	}
	x, y := robotgo.Location()
	return geom.Point{X: int32(x), Y: int32(y)}, nil
}
