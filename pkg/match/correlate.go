// Package match implements the single-resolution template correlation
// engine (component T) and the coarse-to-fine pyramid finder built on
// top of it (component P). The numeric methods are pinned to SikuliX's
// semantics by spec and are not sourced from any example repo or
// third-party CV library — see DESIGN.md for why this stays on the
// standard library.
package match

import (
	"math"

	"github.com/anxuanzi/zikuli/pkg/geom"
	"github.com/anxuanzi/zikuli/pkg/ximage"
)

// Tunable constants pinned to SikuliX/spec semantics. Changing these
// changes which match is reported when multiple near-identical
// candidates exist, so they are not configurable.
const (
	MinTargetDimension    = 12
	MinTargetDimensionAll = 50
	RematchThreshold      = 0.9
	PlainColorStddev      = 1e-5
	DefaultSimilarity     = 0.7
)

// Match is a single correlation result in the coordinate frame of the
// source Image it was found in.
type Match struct {
	Bounds geom.Rectangle
	Score  float64
}

// resultMap is a dense grid of correlation scores, one per valid
// template position within the searched source.
type resultMap struct {
	scores        [][]float64
	originX       int // offset of scores[0][0] within the full source
	originY       int
	targetW       int
	targetH       int
}

func (m *resultMap) width() int  { return len(m.scores[0]) }
func (m *resultMap) height() int { return len(m.scores) }

// argmax returns the highest score and its position, in source
// coordinates. Ties are broken by raster-scan order (row-major, first
// occurrence wins).
func (m *resultMap) argmax() (x, y int, score float64) {
	best := math.Inf(-1)
	bx, by := 0, 0
	for j := 0; j < m.height(); j++ {
		for i := 0; i < m.width(); i++ {
			if m.scores[j][i] > best {
				best = m.scores[j][i]
				bx, by = i, j
			}
		}
	}
	return m.originX + bx, m.originY + by, best
}

// eraseAround sets an axis-aligned box centered at (x,y) in source
// coordinates to -Inf so a subsequent argmax finds the next peak.
// Callers pass target width/height divided by 3 as the margins.
func (m *resultMap) eraseAround(x, y, xmargin, ymargin int) {
	lx := x - m.originX - xmargin
	hx := x - m.originX + xmargin
	ly := y - m.originY - ymargin
	hy := y - m.originY + ymargin
	if lx < 0 {
		lx = 0
	}
	if ly < 0 {
		ly = 0
	}
	if hx >= m.width() {
		hx = m.width() - 1
	}
	if hy >= m.height() {
		hy = m.height() - 1
	}
	for j := ly; j <= hy; j++ {
		for i := lx; i <= hx; i++ {
			m.scores[j][i] = math.Inf(-1)
		}
	}
}

// channelStats reports the per-channel mean and population standard
// deviation of an Image's native (non-alpha) channels.
func channelStats(img *ximage.Image) (means, stddevs []float64) {
	bpp := img.Format.BytesPerPixel()
	channels := bpp
	if img.Format == ximage.BGRA || img.Format == ximage.RGBA {
		channels = 3 // ignore alpha for plain-color/black classification
	}

	n := float64(img.Width * img.Height)
	sums := make([]float64, channels)
	sqSums := make([]float64, channels)

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.Pixel(x, y)
			for c := 0; c < channels; c++ {
				v := float64(px[c])
				sums[c] += v
				sqSums[c] += v * v
			}
		}
	}

	means = make([]float64, channels)
	stddevs = make([]float64, channels)
	for c := 0; c < channels; c++ {
		mean := sums[c] / n
		variance := sqSums[c]/n - mean*mean
		if variance < 0 {
			variance = 0
		}
		means[c] = mean
		stddevs[c] = math.Sqrt(variance)
	}
	return means, stddevs
}

// isPlainColor reports whether target's per-channel standard
// deviation sums to <= PlainColorStddev.
func isPlainColor(target *ximage.Image) bool {
	_, stddevs := channelStats(target)
	sum := 0.0
	for _, s := range stddevs {
		sum += s
	}
	return sum <= PlainColorStddev
}

// isBlack reports whether target's per-channel mean sums to <=
// PlainColorStddev (only meaningful once isPlainColor is true).
func isBlack(target *ximage.Image) bool {
	means, _ := channelStats(target)
	sum := 0.0
	for _, m := range means {
		sum += m
	}
	return sum <= PlainColorStddev
}

// invertBitwise returns a copy of img with every byte bitwise
// inverted (255-v), used for the plain-color-black correlation path.
func invertBitwise(img *ximage.Image) *ximage.Image {
	out := img.Clone()
	for i := range out.Data {
		out.Data[i] = 255 - out.Data[i]
	}
	return out
}

// correlate computes the correlation map of target against source,
// restricted to roi (the full source bounds if roi is empty),
// selecting the method by target's properties per spec §4.3:
//   - plain-color target: SQDIFF_NORMED, result transformed to
//     similarity via 1-result; additionally bitwise-inverted first if
//     target is also black.
//   - otherwise: CCOEFF_NORMED, on grayscale if requested.
func correlate(source, target *ximage.Image, roi geom.Rectangle, grayscale bool) *resultMap {
	if roi.IsEmpty() {
		roi = source.Bounds()
	} else {
		roi = roi.Clamp(source.Bounds())
	}

	if isPlainColor(target) {
		src, tgt := source, target
		if isBlack(target) {
			src = invertBitwise(source)
			tgt = invertBitwise(target)
		}
		return sqdiffNormed(src, tgt, roi)
	}

	src, tgt := source, target
	if grayscale {
		src = source.Convert(ximage.GRAY8)
		tgt = target.Convert(ximage.GRAY8)
	}
	return ccoeffNormed(src, tgt, roi)
}

// channels returns the comparable channel count (alpha excluded).
func channels(format ximage.Format) int {
	switch format {
	case ximage.BGRA, ximage.RGBA:
		return 3
	case ximage.BGR, ximage.RGB:
		return 3
	case ximage.GRAY8:
		return 1
	default:
		return 1
	}
}

// windowBounds returns the valid top-left positions for target within
// roi of source: roi intersected with [0, source.W-target.W] x
// [0, source.H-target.H].
func windowBounds(source, target *ximage.Image, roi geom.Rectangle) (x0, y0, x1, y1 int) {
	maxX := source.Width - target.Width
	maxY := source.Height - target.Height
	x0 = int(roi.X)
	y0 = int(roi.Y)
	x1 = int(roi.Right()) - target.Width
	y1 = int(roi.Bottom()) - target.Height
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x1 > maxX {
		x1 = maxX
	}
	if y1 > maxY {
		y1 = maxY
	}
	return
}

// sqdiffNormed computes OpenCV's TM_SQDIFF_NORMED over every valid
// window position, producing similarity = 1 - SQDIFF_NORMED so the map
// is directly comparable to CCOEFF_NORMED's score range.
func sqdiffNormed(source, target *ximage.Image, roi geom.Rectangle) *resultMap {
	x0, y0, x1, y1 := windowBounds(source, target, roi)
	nc := channels(target.Format)

	targetSqSum := sumOfSquares(target, nc)

	m := newResultMap(x0, y0, x1, y1, target.Width, target.Height)
	for wy := y0; wy <= y1; wy++ {
		for wx := x0; wx <= x1; wx++ {
			diffSq := 0.0
			winSq := 0.0
			for ty := 0; ty < target.Height; ty++ {
				for tx := 0; tx < target.Width; tx++ {
					sp := source.Pixel(wx+tx, wy+ty)
					tp := target.Pixel(tx, ty)
					for c := 0; c < nc; c++ {
						sv := float64(sp[c])
						tv := float64(tp[c])
						diffSq += (sv - tv) * (sv - tv)
						winSq += sv * sv
					}
				}
			}
			denom := math.Sqrt(winSq * targetSqSum)
			sqdiff := 0.0
			if denom > 0 {
				sqdiff = diffSq / denom
			}
			m.scores[wy-y0][wx-x0] = 1 - sqdiff
		}
	}
	return m
}

func sumOfSquares(img *ximage.Image, nc int) float64 {
	sum := 0.0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.Pixel(x, y)
			for c := 0; c < nc; c++ {
				v := float64(px[c])
				sum += v * v
			}
		}
	}
	return sum
}

// ccoeffNormed computes a TM_CCOEFF_NORMED-style coefficient over every
// valid window position: the template's mean is subtracted once over the
// whole template; each window's mean is subtracted per-position. Each
// mean is a single value pooled over all channels, not one per channel.
func ccoeffNormed(source, target *ximage.Image, roi geom.Rectangle) *resultMap {
	x0, y0, x1, y1 := windowBounds(source, target, roi)
	nc := channels(target.Format)
	n := float64(target.Width * target.Height * nc)

	targetMean := meanOf(target, nc)
	targetCentered := make([]float64, 0, target.Width*target.Height*nc)
	targetSS := 0.0
	for ty := 0; ty < target.Height; ty++ {
		for tx := 0; tx < target.Width; tx++ {
			tp := target.Pixel(tx, ty)
			for c := 0; c < nc; c++ {
				d := float64(tp[c]) - targetMean
				targetCentered = append(targetCentered, d)
				targetSS += d * d
			}
		}
	}

	m := newResultMap(x0, y0, x1, y1, target.Width, target.Height)
	for wy := y0; wy <= y1; wy++ {
		for wx := x0; wx <= x1; wx++ {
			winSum := 0.0
			for ty := 0; ty < target.Height; ty++ {
				for tx := 0; tx < target.Width; tx++ {
					sp := source.Pixel(wx+tx, wy+ty)
					for c := 0; c < nc; c++ {
						winSum += float64(sp[c])
					}
				}
			}
			winMean := winSum / n

			num := 0.0
			winSS := 0.0
			idx := 0
			for ty := 0; ty < target.Height; ty++ {
				for tx := 0; tx < target.Width; tx++ {
					sp := source.Pixel(wx+tx, wy+ty)
					for c := 0; c < nc; c++ {
						wd := float64(sp[c]) - winMean
						num += wd * targetCentered[idx]
						winSS += wd * wd
						idx++
					}
				}
			}

			denom := math.Sqrt(winSS * targetSS)
			score := 0.0
			if denom > 0 {
				score = num / denom
			}
			m.scores[wy-y0][wx-x0] = score
		}
	}
	return m
}

func meanOf(img *ximage.Image, nc int) float64 {
	sum := 0.0
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			px := img.Pixel(x, y)
			for c := 0; c < nc; c++ {
				sum += float64(px[c])
			}
		}
	}
	return sum / float64(img.Width*img.Height*nc)
}

func newResultMap(x0, y0, x1, y1, targetW, targetH int) *resultMap {
	w := x1 - x0 + 1
	h := y1 - y0 + 1
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	scores := make([][]float64, h)
	for i := range scores {
		scores[i] = make([]float64, w)
	}
	return &resultMap{scores: scores, originX: x0, originY: y0, targetW: targetW, targetH: targetH}
}

// findBest runs correlate over roi and returns the argmax as a Match.
// roi may be the empty Rectangle to mean "whole source".
func findBest(source, target *ximage.Image, roi geom.Rectangle, grayscale bool) (Match, bool) {
	if target.Width > source.Width || target.Height > source.Height {
		return Match{}, false
	}
	m := correlate(source, target, roi, grayscale)
	x, y, score := m.argmax()
	return Match{
		Bounds: geom.NewRectangle(int32(x), int32(y), uint32(target.Width), uint32(target.Height)),
		Score:  score,
	}, true
}
