package display

import (
	"fmt"

	"github.com/anxuanzi/zikuli/pkg/geom"
)

// DisplayError indicates the display cannot be used: Open found no
// monitors, or the call was made on a closed Handle.
type DisplayError struct {
	Cause error
}

func (e *DisplayError) Error() string {
	return fmt.Sprintf("display: connection lost: %v", e.Cause)
}

func (e *DisplayError) Unwrap() error { return e.Cause }

// InvalidRegionError indicates a capture rectangle had zero width or
// height after being clamped to the virtual screen.
type InvalidRegionError struct {
	Rect, Clamped geom.Rectangle
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("display: invalid region %+v clamped to %+v", e.Rect, e.Clamped)
}

// CaptureError wraps a lower-level capture failure together with the
// requested and clamped rectangles, so callers can tell "target
// absent" apart from "cannot see the screen".
type CaptureError struct {
	Rect, Clamped geom.Rectangle
	Cause         error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("display: capture failed for %+v (clamped %+v): %v", e.Rect, e.Clamped, e.Cause)
}

func (e *CaptureError) Unwrap() error { return e.Cause }

// RegionOutOfBoundsError indicates a Region's bounds, after
// Above/Below/Left/Right, no longer overlap the virtual screen at all.
// Offset, Grow and Nearby do not return it; they clamp and may yield a
// Region with empty bounds.
type RegionOutOfBoundsError struct {
	Attempted geom.Rectangle
	Virtual   geom.Rectangle
}

func (e *RegionOutOfBoundsError) Error() string {
	return fmt.Sprintf("display: region %+v lies entirely outside virtual screen %+v", e.Attempted, e.Virtual)
}

// IncompleteDataError indicates the display server returned fewer
// bytes than width*height*bpp for a capture.
type IncompleteDataError struct {
	Rect, Clamped geom.Rectangle
	Got, Want     int
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("display: incomplete capture data for %+v: got %d bytes, want %d", e.Rect, e.Got, e.Want)
}

// InputError wraps a failed key event (Kind "key") or text-typing call
// (Kind "type"). Pointer motion and button events report no failure.
// An InputError never invalidates the Handle.
type InputError struct {
	Kind  string
	Cause error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("display: input event %q failed: %v", e.Kind, e.Cause)
}

func (e *InputError) Unwrap() error { return e.Cause }
