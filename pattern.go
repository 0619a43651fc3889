package zikuli

import (
	"os"

	"github.com/anxuanzi/zikuli/pkg/geom"
	"github.com/anxuanzi/zikuli/pkg/match"
	"github.com/anxuanzi/zikuli/pkg/ximage"
)

// lastSeenCache is Pattern's still-there optimization state: the
// bounds and score of the last successful find, invalidated whenever
// the Pattern is mutated.
type lastSeenCache struct {
	rect  geom.Rectangle
	score float64
	valid bool
}

// Pattern is a search target: an image plus its similarity threshold,
// an optional click-point offset from the match center, and an
// optional still-there cache. The cache is set on any successful find
// and invalidated on mutation (WithSimilarity/WithOffset); the matcher
// only ever reads it.
type Pattern struct {
	image      *ximage.Image
	similarity float64
	offset     geom.Point
	name       string
	lastSeen   lastSeenCache
}

// NewPattern builds a Pattern from an image with the default
// similarity (0.7) and no click-point offset.
func NewPattern(img *ximage.Image) *Pattern {
	return &Pattern{image: img, similarity: match.DefaultSimilarity}
}

// NewPatternFromFile loads a PNG from disk and builds a Pattern from
// it; file-path resolution is the caller's responsibility, per the
// spec's "file paths are resolved by the caller" external interface.
func NewPatternFromFile(path string) (*Pattern, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, err := ximage.DecodePNG(data)
	if err != nil {
		return nil, err
	}
	return NewPattern(img), nil
}

// WithSimilarity returns a copy of p with a new similarity threshold;
// mutating the similarity invalidates the still-there cache.
func (p *Pattern) WithSimilarity(s float64) *Pattern {
	np := p.clone()
	np.similarity = s
	np.lastSeen = lastSeenCache{}
	return np
}

// WithOffset returns a copy of p with a click-point offset from the
// match center; mutating the offset invalidates the still-there cache.
func (p *Pattern) WithOffset(dx, dy int32) *Pattern {
	np := p.clone()
	np.offset = geom.Point{X: dx, Y: dy}
	np.lastSeen = lastSeenCache{}
	return np
}

// WithName attaches a human-readable name used in error context; it
// does not affect matching and does not invalidate the cache.
func (p *Pattern) WithName(name string) *Pattern {
	np := p.clone()
	np.name = name
	return np
}

func (p *Pattern) clone() *Pattern {
	np := *p
	return &np
}

// Similarity returns the pattern's acceptance threshold.
func (p *Pattern) Similarity() float64 { return p.similarity }

// Image returns the pattern's template image.
func (p *Pattern) Image() *ximage.Image { return p.image }

// String returns the pattern's descriptor for error messages, falling
// back to its pixel dimensions when unnamed.
func (p *Pattern) String() string {
	if p.name != "" {
		return p.name
	}
	if p.image == nil {
		return "<nil pattern>"
	}
	return p.image.Bounds().String()
}

// Match is a search result, re-expressed in screen-absolute
// coordinates whenever it was minted by a Region (see Region.find).
type Match struct {
	Bounds        geom.Rectangle
	Score         float64
	PatternOffset geom.Point
}

// Center returns the match's click point: its bounds center plus the
// pattern's target offset.
func (m Match) Center() geom.Point {
	c := m.Bounds.Center()
	return geom.Point{X: c.X + m.PatternOffset.X, Y: c.Y + m.PatternOffset.Y}
}

func fromMatchResult(mr match.Match, offset geom.Point) Match {
	return Match{Bounds: mr.Bounds, Score: mr.Score, PatternOffset: offset}
}
