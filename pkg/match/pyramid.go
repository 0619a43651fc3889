package match

import (
	"sort"

	"github.com/anxuanzi/zikuli/pkg/geom"
	"github.com/anxuanzi/zikuli/pkg/logging"
	"github.com/anxuanzi/zikuli/pkg/ximage"
)

var log = logging.WithPrefix("match")

// resizeRatios is the fixed search order of the coarse-to-fine pass.
// Preserved exactly per spec §9: changing the order or the ≥0.9
// early-exit alters which match is reported when multiple
// near-identical candidates exist.
var resizeRatios = []float64{1.0, 0.75, 0.5, 0.25}

// Options configures a FindBest/FindAll call.
type Options struct {
	// MinSimilarity is the acceptance threshold; FindBest and FindAll
	// only return a Match when Score >= MinSimilarity. FindWithHint's
	// still-there probe accepts Score >= MinSimilarity-0.01.
	MinSimilarity float64
	// Grayscale requests grayscale correlation for the non-plain-color
	// path (CCOEFF); plain-color targets always use their own path.
	Grayscale bool
	// FindAll raises the dimension floor used to decide how
	// aggressively to pyramid down from MinTargetDimension to
	// MinTargetDimensionAll. FindAll sets it itself.
	FindAll bool
}

func (o Options) dimensionFloor() float64 {
	if o.FindAll {
		return MinTargetDimensionAll
	}
	return MinTargetDimension
}

// baseRatio computes the spec's ratio = max(1.0, min(target.h,
// target.w)/floor).
func baseRatio(target *ximage.Image, floor float64) float64 {
	minDim := float64(target.Width)
	if target.Height < target.Width {
		minDim = float64(target.Height)
	}
	r := minDim / floor
	if r < 1.0 {
		return 1.0
	}
	return r
}

// FindBest runs the coarse-to-fine search described in spec §4.4 and
// returns the single best Match, or false if nothing reaches
// MinSimilarity.
func FindBest(source, target *ximage.Image, opts Options) (Match, bool) {
	ratio := baseRatio(target, opts.dimensionFloor())
	threshold := opts.MinSimilarity
	if RematchThreshold > threshold {
		threshold = RematchThreshold
	}

	var best Match
	found := false

	for _, r := range resizeRatios {
		factor := ratio * r
		if factor < 1.0 {
			continue
		}
		m, ok := findAtScale(source, target, factor, geom.Rectangle{}, opts.Grayscale)
		if !ok {
			continue
		}
		if !found || m.Score > best.Score {
			best, found = m, true
		}
		if best.Score >= threshold {
			log.Debug("pyramid early-exit at factor %.3f score %.4f", factor, best.Score)
			break
		}
	}

	if found && best.Score >= opts.MinSimilarity {
		return best, true
	}

	// Fallback: single level at original resolution, grayscale first
	// if requested, then full color.
	if opts.Grayscale {
		if m, ok := findBest(source, target.Convert(ximage.GRAY8), geom.Rectangle{}, true); ok {
			if m.Score >= opts.MinSimilarity && (!found || m.Score > best.Score) {
				best, found = m, true
			}
		}
	}
	if m, ok := findBest(source, target, geom.Rectangle{}, false); ok {
		if !found || m.Score > best.Score {
			best, found = m, true
		}
	}

	if found && best.Score >= opts.MinSimilarity {
		return best, true
	}
	return Match{}, false
}

// findAtScale implements the single-pyramid-level (levels=1) search:
// downsample source and target by factor, find the coarse location,
// then translate it up and re-search a ±factor ROI at full resolution.
// A factor of 1.0 degenerates to a plain full-resolution search.
func findAtScale(source, target *ximage.Image, factor float64, roi geom.Rectangle, grayscale bool) (Match, bool) {
	if factor <= 1.0 {
		return findBest(source, target, roi, grayscale)
	}

	downW := scaleDown(source.Width, factor)
	downH := scaleDown(source.Height, factor)
	tDownW := scaleDown(target.Width, factor)
	tDownH := scaleDown(target.Height, factor)
	if tDownW < 1 || tDownH < 1 || tDownW > downW || tDownH > downH {
		return Match{}, false
	}

	dsSource := source.Resize(downW, downH)
	dsTarget := target.Resize(tDownW, tDownH)

	coarse, ok := findBest(dsSource, dsTarget, geom.Rectangle{}, grayscale)
	if !ok {
		return Match{}, false
	}

	scaledX := int32(float64(coarse.Bounds.X) * factor)
	scaledY := int32(float64(coarse.Bounds.Y) * factor)
	margin := int32(factor)

	refineROI := geom.NewRectangle(
		scaledX-margin,
		scaledY-margin,
		uint32(target.Width)+uint32(2*margin),
		uint32(target.Height)+uint32(2*margin),
	).Clamp(source.Bounds())

	return findBest(source, target, refineROI, grayscale)
}

func scaleDown(dim int, factor float64) int {
	d := int(float64(dim) / factor)
	if d < 1 {
		d = 1
	}
	return d
}

// findAllScale picks the pyramid factor to enumerate at, using the same
// ratio scan and ≥0.9 early-exit as FindBest's top-match probe, but
// against the findAll dimension floor (50px) per spec §4.4 step 1.
func findAllScale(source, target *ximage.Image, opts Options) float64 {
	ratio := baseRatio(target, opts.dimensionFloor())
	threshold := opts.MinSimilarity
	if RematchThreshold > threshold {
		threshold = RematchThreshold
	}

	bestFactor := 1.0
	bestScore := -1.0
	found := false

	for _, r := range resizeRatios {
		factor := ratio * r
		if factor < 1.0 {
			continue
		}
		m, ok := findAtScale(source, target, factor, geom.Rectangle{}, opts.Grayscale)
		if !ok {
			continue
		}
		if !found || m.Score > bestScore {
			bestFactor, bestScore, found = factor, m.Score, true
		}
		if bestScore >= threshold {
			break
		}
	}

	if found && bestScore >= opts.MinSimilarity {
		return bestFactor
	}
	return 1.0
}

// FindAll enumerates every match at or above MinSimilarity, coarse-to-
// fine: it picks a working pyramid scale via findAllScale (using the
// findAll dimension floor), locates every coarse peak, refines each
// into a full-resolution Match in a ±factor ROI, and erases an
// ERASE_MARGIN box at the coarse resolution after each hit so the next
// argmax finds the next peak. Results are emitted in descending score
// order.
func FindAll(source, target *ximage.Image, opts Options) []Match {
	if target.Width > source.Width || target.Height > source.Height {
		return nil
	}
	opts.FindAll = true

	factor := findAllScale(source, target, opts)
	matches := findAllAtScale(source, target, factor, opts)

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// findAllAtScale enumerates matches at factor (1.0 = full resolution).
// For factor > 1, it enumerates coarse peaks in the downsampled pair
// and refines each one individually back at full resolution, mirroring
// findAtScale's single coarse-then-refine step.
func findAllAtScale(source, target *ximage.Image, factor float64, opts Options) []Match {
	if factor <= 1.0 {
		return enumerateFullRes(source, target, geom.Rectangle{}, opts.MinSimilarity, opts.Grayscale)
	}

	downW := scaleDown(source.Width, factor)
	downH := scaleDown(source.Height, factor)
	tDownW := scaleDown(target.Width, factor)
	tDownH := scaleDown(target.Height, factor)
	if tDownW < 1 || tDownH < 1 || tDownW > downW || tDownH > downH {
		return enumerateFullRes(source, target, geom.Rectangle{}, opts.MinSimilarity, opts.Grayscale)
	}

	dsSource := source.Resize(downW, downH)
	dsTarget := target.Resize(tDownW, tDownH)

	m := correlate(dsSource, dsTarget, geom.Rectangle{}, opts.Grayscale)
	xmargin := dsTarget.Width / 3
	ymargin := dsTarget.Height / 3
	if xmargin == 0 {
		xmargin = 1
	}
	if ymargin == 0 {
		ymargin = 1
	}
	margin := int32(factor)

	var matches []Match
	for {
		x, y, score := m.argmax()
		if score < opts.MinSimilarity {
			break
		}

		scaledX := int32(float64(x) * factor)
		scaledY := int32(float64(y) * factor)
		refineROI := geom.NewRectangle(
			scaledX-margin,
			scaledY-margin,
			uint32(target.Width)+uint32(2*margin),
			uint32(target.Height)+uint32(2*margin),
		).Clamp(source.Bounds())

		if refined, ok := findBest(source, target, refineROI, opts.Grayscale); ok && refined.Score >= opts.MinSimilarity {
			matches = append(matches, refined)
		}
		m.eraseAround(x, y, xmargin, ymargin)
	}
	return matches
}

// enumerateFullRes is the terminal single-resolution enumeration: erase
// an ERASE_MARGIN box after each accepted peak and re-argmax until the
// next peak falls below threshold or the map is exhausted.
func enumerateFullRes(source, target *ximage.Image, roi geom.Rectangle, minSimilarity float64, grayscale bool) []Match {
	m := correlate(source, target, roi, grayscale)
	xmargin := target.Width / 3
	ymargin := target.Height / 3

	var matches []Match
	for {
		x, y, score := m.argmax()
		if score < minSimilarity {
			break
		}
		matches = append(matches, Match{
			Bounds: geom.NewRectangle(int32(x), int32(y), uint32(target.Width), uint32(target.Height)),
			Score:  score,
		})
		m.eraseAround(x, y, xmargin, ymargin)
	}
	return matches
}

// FindWithHint implements the still-there optimization: it first
// searches only within lastSeen (expanded by a small halo, clamped to
// source bounds) at a slightly relaxed threshold, short-circuiting on
// a hit; a miss falls through to the full pyramid search.
func FindWithHint(source, target *ximage.Image, lastSeen geom.Rectangle, opts Options) (Match, bool) {
	const halo = 10
	relaxed := opts.MinSimilarity - 0.01
	if relaxed < 0 {
		relaxed = 0
	}

	hintROI := lastSeen.Grow(halo).Clamp(source.Bounds())
	if !hintROI.IsEmpty() {
		if m, ok := findBest(source, target, hintROI, opts.Grayscale); ok && m.Score >= relaxed {
			log.Debug("still-there hit at %+v score %.4f", m.Bounds, m.Score)
			return m, true
		}
	}

	return FindBest(source, target, opts)
}
