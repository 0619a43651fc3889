package zikuli

import "time"

// FindFailedResponse controls what Region.find/wait/click-with-target
// do when no match is found. abort is the process-wide default; each
// Region may override it, and a Region with no override reads the
// process default at call time rather than at construction.
type FindFailedResponse int

const (
	// FindFailedAbort surfaces the FindFailedError to the caller.
	FindFailedAbort FindFailedResponse = iota
	// FindFailedSkip returns a zero-value result / no-op action.
	FindFailedSkip
	// FindFailedPrompt is not implemented in non-interactive contexts
	// and degrades to FindFailedAbort.
	FindFailedPrompt
	// FindFailedRetry re-invokes the failed operation exactly once.
	FindFailedRetry
	// FindFailedHandle invokes a caller-registered callback that
	// returns a (possibly different) response to apply.
	FindFailedHandle
)

// defaultFindFailedResponse is the process-wide default, read by any
// Region with no per-instance override. It is itself mutable so a
// process can change its global policy at runtime (e.g. for tests).
var defaultFindFailedResponse = FindFailedAbort

// SetDefaultFindFailedResponse changes the process-wide default
// FindFailedResponse used by Regions with no explicit override.
func SetDefaultFindFailedResponse(r FindFailedResponse) {
	defaultFindFailedResponse = r
}

// FindFailedHandler is invoked when a Region's policy is
// FindFailedHandle; it receives the failure and returns the response
// to apply instead.
type FindFailedHandler func(err error) FindFailedResponse

// Config holds a Region's tunable behavior. Use the functional
// RegionOption constructors below rather than constructing Config
// directly.
type Config struct {
	AutoWaitTimeout time.Duration
	PollInterval    time.Duration
	// FindFailedPolicy, when non-nil, overrides the process default
	// for this Region. nil means "read the process default at call
	// time."
	FindFailedPolicy  *FindFailedResponse
	FindFailedOnError FindFailedHandler
	// DefaultSimilarity seeds Patterns built through Region.NewPattern,
	// in place of the package default used by the free-standing
	// NewPattern constructor.
	DefaultSimilarity float64
	// Grayscale requests grayscale correlation for non-plain-color
	// targets on this Region.
	Grayscale bool
}

func defaultConfig() Config {
	return Config{
		AutoWaitTimeout:   3 * time.Second,
		PollInterval:      100 * time.Millisecond,
		DefaultSimilarity: 0.7,
	}
}

// RegionOption configures a Region at construction time.
type RegionOption func(*Config)

// WithAutoWaitTimeout sets the default deadline used by Wait when no
// per-call timeout is given. Click and the other actions search once,
// through Find, and do not wait.
func WithAutoWaitTimeout(d time.Duration) RegionOption {
	return func(c *Config) { c.AutoWaitTimeout = d }
}

// WithPollInterval sets the delay between successive find attempts
// inside wait.
func WithPollInterval(d time.Duration) RegionOption {
	return func(c *Config) { c.PollInterval = d }
}

// WithFindFailedResponse overrides the process-wide default policy for
// this Region only.
func WithFindFailedResponse(r FindFailedResponse) RegionOption {
	return func(c *Config) {
		rc := r
		c.FindFailedPolicy = &rc
	}
}

// WithFindFailedHandler registers the callback invoked when the policy
// is FindFailedHandle.
func WithFindFailedHandler(h FindFailedHandler) RegionOption {
	return func(c *Config) { c.FindFailedOnError = h }
}

// WithDefaultSimilarity sets the similarity Patterns get when built
// through Region.NewPattern.
func WithDefaultSimilarity(s float64) RegionOption {
	return func(c *Config) { c.DefaultSimilarity = s }
}

// WithGrayscale requests grayscale correlation for non-plain-color
// targets searched by this Region.
func WithGrayscale(enabled bool) RegionOption {
	return func(c *Config) { c.Grayscale = enabled }
}

// policy resolves the effective FindFailedResponse for this call,
// reading the process default at call time when the Region carries no
// override (Design Note: "a Region with no override reads the default
// at call time, not at construction").
func (c Config) policy() FindFailedResponse {
	if c.FindFailedPolicy != nil {
		return *c.FindFailedPolicy
	}
	return defaultFindFailedResponse
}
