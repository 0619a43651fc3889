package zikuli

import (
	"strings"
	"time"

	"github.com/anxuanzi/zikuli/pkg/display"
	"github.com/anxuanzi/zikuli/pkg/geom"
)

// dwell is the fixed pause between a pointer move and the button event
// that follows it, and between the two clicks of a double-click.
const dwell = 50 * time.Millisecond

// Modifier is a keyboard modifier held down around a key press.
type Modifier string

const (
	ModShift Modifier = "shift"
	ModCtrl  Modifier = "ctrl"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "cmd"
)

// targetPoint resolves the click point for an optional Pattern: with a
// target, it finds the pattern and returns its match center (applying
// FindFailedResponse); with nil, it returns the Region's own center.
func (r *Region) targetPoint(target *Pattern) (geom.Point, error) {
	if target == nil {
		return r.Bounds.Center(), nil
	}
	m, err := r.Find(target)
	if err != nil {
		return geom.Point{}, err
	}
	return m.Center(), nil
}

func (r *Region) press(pt geom.Point, button display.Button) error {
	if err := r.disp.MoveMouseAbsolute(pt.X, pt.Y); err != nil {
		return err
	}
	time.Sleep(dwell)
	if err := r.disp.ButtonEvent(button, true); err != nil {
		return err
	}
	return r.disp.ButtonEvent(button, false)
}

// Click moves to target's match center (or the Region's own center
// with a nil target) and presses the left button once.
func (r *Region) Click(target *Pattern) error {
	r.state = StateActing
	defer func() { r.state = StateIdle }()

	pt, err := r.targetPoint(target)
	if err != nil {
		return err
	}
	return r.press(pt, display.ButtonLeft)
}

// DoubleClick is Click twice, separated by dwell.
func (r *Region) DoubleClick(target *Pattern) error {
	r.state = StateActing
	defer func() { r.state = StateIdle }()

	pt, err := r.targetPoint(target)
	if err != nil {
		return err
	}
	if err := r.press(pt, display.ButtonLeft); err != nil {
		return err
	}
	time.Sleep(dwell)
	return r.press(pt, display.ButtonLeft)
}

// RightClick is Click with the right button.
func (r *Region) RightClick(target *Pattern) error {
	r.state = StateActing
	defer func() { r.state = StateIdle }()

	pt, err := r.targetPoint(target)
	if err != nil {
		return err
	}
	return r.press(pt, display.ButtonRight)
}

// DragDrop finds from and to, moves to from's center, holds the left
// button, moves to to's center, and releases, dwelling at each stop.
func (r *Region) DragDrop(from, to *Pattern) error {
	r.state = StateActing
	defer func() { r.state = StateIdle }()

	fromPt, err := r.targetPoint(from)
	if err != nil {
		return err
	}
	toPt, err := r.targetPoint(to)
	if err != nil {
		return err
	}

	if err := r.disp.MoveMouseAbsolute(fromPt.X, fromPt.Y); err != nil {
		return err
	}
	time.Sleep(dwell)
	if err := r.disp.ButtonEvent(display.ButtonLeft, true); err != nil {
		return err
	}
	if err := r.disp.MoveMouseAbsolute(toPt.X, toPt.Y); err != nil {
		return err
	}
	time.Sleep(dwell)
	return r.disp.ButtonEvent(display.ButtonLeft, false)
}

// Type enters text one code point at a time. With no modifiers it
// delegates to the display's native string-typing path; with
// modifiers, each code point is wrapped individually: press modifiers
// (in order), press+release the key, release modifiers in LIFO order.
func (r *Region) Type(text string, modifiers []Modifier) error {
	r.state = StateActing
	defer func() { r.state = StateIdle }()

	if len(modifiers) == 0 {
		return r.disp.TypeText(text)
	}

	for _, ch := range text {
		if err := r.typeRuneWithModifiers(ch, modifiers); err != nil {
			return err
		}
	}
	return nil
}

func (r *Region) typeRuneWithModifiers(ch rune, modifiers []Modifier) error {
	for _, m := range modifiers {
		if err := r.disp.KeyEvent(string(m), true); err != nil {
			return err
		}
	}

	keycode := strings.ToLower(string(ch))
	keyErr := r.disp.KeyEvent(keycode, true)
	if keyErr == nil {
		keyErr = r.disp.KeyEvent(keycode, false)
	}

	// Release in LIFO order regardless of the key event outcome so a
	// failed key press never leaves a modifier stuck down.
	for i := len(modifiers) - 1; i >= 0; i-- {
		if err := r.disp.KeyEvent(string(modifiers[i]), false); err != nil && keyErr == nil {
			keyErr = err
		}
	}
	return keyErr
}

// Offset returns a new Region translated by (dx, dy), clamped to the
// virtual screen bounds.
func (r *Region) Offset(dx, dy int32) *Region {
	nr := *r
	nr.Bounds = r.Bounds.Offset(dx, dy).Clamp(r.disp.VirtualScreenBounds())
	return &nr
}

// Grow returns a new Region expanded by n pixels on every side, clamped
// to the virtual screen bounds.
func (r *Region) Grow(n int32) *Region {
	nr := *r
	nr.Bounds = r.Bounds.Grow(n).Clamp(r.disp.VirtualScreenBounds())
	return &nr
}

// Nearby is an alias for Grow, matching the spec's region-manipulation
// vocabulary.
func (r *Region) Nearby(n int32) *Region {
	return r.Grow(n)
}

// Above returns the n-pixel-tall strip immediately above the Region
// (n defaults to the Region's own height when 0), clamped to the
// virtual screen bounds.
func (r *Region) Above(n int32) (*Region, error) {
	h := n
	if h <= 0 {
		h = int32(r.Bounds.Height)
	}
	rect := geom.NewRectangle(r.Bounds.X, r.Bounds.Y-h, r.Bounds.Width, uint32(h))
	return r.clampedOrError(rect)
}

// Below returns the n-pixel-tall strip immediately below the Region.
func (r *Region) Below(n int32) (*Region, error) {
	h := n
	if h <= 0 {
		h = int32(r.Bounds.Height)
	}
	rect := geom.NewRectangle(r.Bounds.X, int32(r.Bounds.Bottom()), r.Bounds.Width, uint32(h))
	return r.clampedOrError(rect)
}

// Left returns the n-pixel-wide strip immediately to the left of the
// Region.
func (r *Region) Left(n int32) (*Region, error) {
	w := n
	if w <= 0 {
		w = int32(r.Bounds.Width)
	}
	rect := geom.NewRectangle(r.Bounds.X-w, r.Bounds.Y, uint32(w), r.Bounds.Height)
	return r.clampedOrError(rect)
}

// Right returns the n-pixel-wide strip immediately to the right of the
// Region.
func (r *Region) Right(n int32) (*Region, error) {
	w := n
	if w <= 0 {
		w = int32(r.Bounds.Width)
	}
	rect := geom.NewRectangle(int32(r.Bounds.Right()), r.Bounds.Y, uint32(w), r.Bounds.Height)
	return r.clampedOrError(rect)
}

func (r *Region) clampedOrError(rect geom.Rectangle) (*Region, error) {
	virtual := r.disp.VirtualScreenBounds()
	clamped := rect.Clamp(virtual)
	if clamped.IsEmpty() {
		return nil, &RegionOutOfBoundsError{Attempted: rect, Virtual: virtual}
	}
	nr := *r
	nr.Bounds = clamped
	return &nr, nil
}
