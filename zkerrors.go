package zikuli

import (
	"errors"
	"fmt"
	"time"

	"github.com/anxuanzi/zikuli/pkg/display"
	"github.com/anxuanzi/zikuli/pkg/geom"
)

// Sentinel errors for conditions that do not carry richer context.
var (
	// ErrInvalidArgument indicates a caller-supplied argument was
	// invalid; see InvalidArgumentError for which one.
	ErrInvalidArgument = errors.New("zikuli: invalid argument")

	// ErrOutOfMemory indicates an allocation could not be satisfied;
	// see OutOfMemoryError for the requested size.
	ErrOutOfMemory = errors.New("zikuli: out of memory")
)

// FindFailedError indicates the condition of no match at or above the
// Pattern's similarity existing in the searched region, raised by
// Region.find/wait/click-with-target. It is the only error kind
// subject to FindFailedResponse translation.
type FindFailedError struct {
	Target      string // descriptor of the search target (e.g. a pattern's name)
	RegionBound geom.Rectangle
	ElapsedMs   int64
}

func (e *FindFailedError) Error() string {
	return fmt.Sprintf("zikuli: find failed for %q in %+v after %dms", e.Target, e.RegionBound, e.ElapsedMs)
}

// TimeoutError indicates an operation exceeded its time budget. No
// Region operation returns it: Region.Wait reports its timeout as a
// FindFailedError, and Region.Type has no time budget.
type TimeoutError struct {
	Operation string
	BudgetMs  int64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("zikuli: %s timed out after %dms", e.Operation, e.BudgetMs)
}

// InvalidArgumentError names the invalid argument.
type InvalidArgumentError struct {
	Name string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("zikuli: invalid argument %q", e.Name)
}

func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// OutOfMemoryError names the allocation size that could not be
// satisfied.
type OutOfMemoryError struct {
	RequestedBytes int
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("zikuli: out of memory allocating %d bytes", e.RequestedBytes)
}

func (e *OutOfMemoryError) Is(target error) bool { return target == ErrOutOfMemory }

// Display, capture, and input errors propagate unchanged from
// pkg/display; re-exported here so callers of the root package do not
// need to import pkg/display just to errors.As against them.
type (
	DisplayError           = display.DisplayError
	CaptureError           = display.CaptureError
	InvalidRegionError     = display.InvalidRegionError
	RegionOutOfBoundsError = display.RegionOutOfBoundsError
	IncompleteDataError    = display.IncompleteDataError
	InputError             = display.InputError
)

// IsRetryable reports whether err might succeed if the caller retries
// the same operation. Capture errors are not retryable in general
// (the display connection may be gone); FindFailed is retryable
// because the target may simply not be on screen yet.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var findFailed *FindFailedError
	if errors.As(err, &findFailed) {
		return true
	}
	var timeout *TimeoutError
	return errors.As(err, &timeout)
}

// IsFatal reports whether err cannot be recovered from without
// reconnecting the display.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var disp *DisplayError
	return errors.As(err, &disp)
}

// elapsedMillis is a small helper shared by find/wait for computing
// the elapsed-time context carried by FindFailedError/TimeoutError.
func elapsedMillis(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
