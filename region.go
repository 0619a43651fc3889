package zikuli

import (
	"time"

	"github.com/anxuanzi/zikuli/pkg/display"
	"github.com/anxuanzi/zikuli/pkg/geom"
	"github.com/anxuanzi/zikuli/pkg/logging"
	"github.com/anxuanzi/zikuli/pkg/match"
	"github.com/anxuanzi/zikuli/pkg/ximage"
)

var log = logging.WithPrefix("region")

// State is a Region's current activity, per the Idle/Searching/Acting
// state machine in spec §3.
type State int

const (
	StateIdle State = iota
	StateSearching
	StateActing
)

// Region is a rectangle bound to a display handle that can be
// searched and acted upon. A Region does not own its display; the
// handle's lifetime is the caller's responsibility unless the Region
// was built with NewScreenRegion, which opens and therefore owns one.
type Region struct {
	Bounds geom.Rectangle
	disp   *display.Handle
	owns   bool
	cfg    Config
	state  State
}

// NewRegion builds a Region over bounds using an existing display
// Handle that the caller continues to own.
func NewRegion(bounds geom.Rectangle, disp *display.Handle, opts ...RegionOption) *Region {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return &Region{Bounds: bounds, disp: disp, cfg: cfg, state: StateIdle}
}

// NewScreenRegion opens a display connection and returns a Region
// covering its virtual screen bounds. The Region owns the resulting
// handle and closes it in Close.
func NewScreenRegion(opts ...RegionOption) (*Region, error) {
	disp, err := display.Open()
	if err != nil {
		return nil, err
	}
	r := NewRegion(disp.VirtualScreenBounds(), disp, opts...)
	r.owns = true
	return r, nil
}

// Close releases the Region's display handle if the Region owns it
// (i.e. it was built with NewScreenRegion). It is a no-op otherwise.
func (r *Region) Close() error {
	if r.owns {
		return r.disp.Close()
	}
	return nil
}

// State returns the Region's current activity.
func (r *Region) State() State { return r.state }

// NewPattern builds a Pattern from img using this Region's
// DefaultSimilarity instead of the package default, so callers that
// configured a Region with WithDefaultSimilarity don't need to repeat
// WithSimilarity on every Pattern they search with.
func (r *Region) NewPattern(img *ximage.Image) *Pattern {
	return NewPattern(img).WithSimilarity(r.cfg.DefaultSimilarity)
}

func (r *Region) toPatternTarget(target *Pattern) string {
	if target == nil {
		return "<region center>"
	}
	return target.String()
}

// captureSource captures the Region's bounds clamped to the virtual
// screen and returns the Image with the clamped rectangle (source (0,0)
// == the clamped rectangle's origin).
func (r *Region) captureSource() (*ximage.Image, geom.Rectangle, error) {
	clamped := r.Bounds.Clamp(r.disp.VirtualScreenBounds())
	img, err := r.disp.Capture(clamped)
	if err != nil {
		return nil, clamped, err
	}
	return img, clamped, nil
}

// find is the single-shot search: capture once, run the matcher, and
// translate the result into screen-absolute coordinates. It does not
// apply FindFailedResponse; callers (Find/Wait) do that.
func (r *Region) find(target *Pattern) (Match, error) {
	r.state = StateSearching
	defer func() { r.state = StateIdle }()

	start := time.Now()
	img, clamped, err := r.captureSource()
	if err != nil {
		return Match{}, err
	}

	opts := match.Options{MinSimilarity: target.similarity, Grayscale: r.cfg.Grayscale}

	var result match.Match
	var ok bool
	if target.lastSeen.valid {
		result, ok = match.FindWithHint(img, target.image, target.lastSeen.rect, opts)
	} else {
		result, ok = match.FindBest(img, target.image, opts)
	}

	if !ok {
		return Match{}, &FindFailedError{
			Target:      r.toPatternTarget(target),
			RegionBound: r.Bounds,
			ElapsedMs:   elapsedMillis(start),
		}
	}

	target.lastSeen = lastSeenCache{rect: result.Bounds, score: result.Score, valid: true}
	log.Debug("found %q at %+v score %.4f", r.toPatternTarget(target), result.Bounds, result.Score)

	absolute := result
	absolute.Bounds = result.Bounds.Offset(clamped.X, clamped.Y)
	return fromMatchResult(absolute, target.offset), nil
}

// Find captures the Region and searches for target, applying the
// Region's FindFailedResponse policy on failure.
func (r *Region) Find(target *Pattern) (Match, error) {
	m, err := r.find(target)
	if err == nil {
		return m, nil
	}
	if _, ok := err.(*FindFailedError); !ok {
		return Match{}, err // only FindFailed is subject to FindFailedResponse
	}
	return r.handleFindFailed(err, func() (Match, error) { return r.find(target) })
}

// Wait polls find at the Region's poll interval until it succeeds or
// timeout elapses (defaulting to the Region's AutoWaitTimeout). It
// fails with FindFailedError carrying the elapsed time on timeout, and
// never returns before the deadline when no match is ever present.
// The Region's FindFailedResponse policy is applied to that
// FindFailedError only; FindFailedRetry runs the polling loop once more.
func (r *Region) Wait(target *Pattern, timeout *time.Duration) (Match, error) {
	m, err := r.wait(target, timeout)
	if err == nil {
		return m, nil
	}
	if _, ok := err.(*FindFailedError); !ok {
		return Match{}, err
	}
	return r.handleFindFailed(err, func() (Match, error) { return r.wait(target, timeout) })
}

// wait is Wait's polling loop; it does not apply FindFailedResponse.
func (r *Region) wait(target *Pattern, timeout *time.Duration) (Match, error) {
	budget := r.cfg.AutoWaitTimeout
	if timeout != nil {
		budget = *timeout
	}
	deadline := time.Now().Add(budget)
	start := time.Now()

	for {
		m, err := r.find(target)
		if err == nil {
			return m, nil
		}

		if _, ok := err.(*FindFailedError); !ok {
			return Match{}, err // capture and display errors bypass FindFailedResponse entirely
		}

		if time.Now().After(deadline) {
			return Match{}, &FindFailedError{
				Target:      r.toPatternTarget(target),
				RegionBound: r.Bounds,
				ElapsedMs:   elapsedMillis(start),
			}
		}
		time.Sleep(r.cfg.PollInterval)
	}
}

// Exists is like Wait but returns a nil Match instead of an error on
// timeout, and never applies the Region's FindFailedResponse policy.
func (r *Region) Exists(target *Pattern, timeout time.Duration) (*Match, error) {
	deadline := time.Now().Add(timeout)
	for {
		m, err := r.find(target)
		if err == nil {
			return &m, nil
		}
		var capErr *CaptureError
		if asCaptureError(err, &capErr) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		time.Sleep(r.cfg.PollInterval)
	}
}

// FindAll captures once and enumerates all matches at or above
// target's similarity, sorted by descending score.
func (r *Region) FindAll(target *Pattern) ([]Match, error) {
	r.state = StateSearching
	defer func() { r.state = StateIdle }()

	img, clamped, err := r.captureSource()
	if err != nil {
		return nil, err
	}

	results := match.FindAll(img, target.image, match.Options{
		MinSimilarity: target.similarity,
		Grayscale:     r.cfg.Grayscale,
		FindAll:       true,
	})

	matches := make([]Match, len(results))
	for i, res := range results {
		res.Bounds = res.Bounds.Offset(clamped.X, clamped.Y)
		matches[i] = fromMatchResult(res, target.offset)
	}
	return matches, nil
}

// handleFindFailed applies the Region's FindFailedResponse policy to
// a FindFailedError from find or wait; Find and Wait return every other
// error, CaptureError included, without calling it (propagation policy).
func (r *Region) handleFindFailed(err error, retry func() (Match, error)) (Match, error) {
	policy := r.cfg.policy()

	for {
		switch policy {
		case FindFailedSkip:
			return Match{}, nil
		case FindFailedRetry:
			return retry()
		case FindFailedHandle:
			if r.cfg.FindFailedOnError == nil {
				return Match{}, err
			}
			next := r.cfg.FindFailedOnError(err)
			if next == FindFailedHandle {
				// A handler that keeps returning "handle" would spin
				// forever; treat it as abort to guarantee progress.
				return Match{}, err
			}
			policy = next
			continue
		case FindFailedPrompt:
			// Not implemented in non-interactive contexts; degrades
			// to abort per spec §4.5.
			return Match{}, err
		default: // FindFailedAbort
			return Match{}, err
		}
	}
}

func asCaptureError(err error, target **CaptureError) bool {
	ce, ok := err.(*CaptureError)
	if ok {
		*target = ce
	}
	return ok
}
