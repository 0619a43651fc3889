package match

import (
	"testing"

	"github.com/anxuanzi/zikuli/pkg/ximage"
)

func solidImage(w, h int, b, g, r, a byte) *ximage.Image {
	img := ximage.New(w, h, ximage.BGRA)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetPixel(x, y, []byte{b, g, r, a})
		}
	}
	return img
}

func patchImage(base *ximage.Image, x, y, w, h int, b, g, r, a byte) *ximage.Image {
	out := base.Clone()
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			out.SetPixel(x+dx, y+dy, []byte{b, g, r, a})
		}
	}
	return out
}

// S1: exact-match find.
func TestFindBestExactMatch(t *testing.T) {
	source := solidImage(100, 100, 200, 150, 50, 255)
	source = patchImage(source, 30, 40, 10, 10, 0, 0, 255, 255)
	target := solidImage(10, 10, 0, 0, 255, 255)

	m, ok := FindBest(source, target, Options{MinSimilarity: 0.9})
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Bounds.X != 30 || m.Bounds.Y != 40 {
		t.Errorf("match at (%d,%d), want (30,40)", m.Bounds.X, m.Bounds.Y)
	}
	if m.Score < 0.999 {
		t.Errorf("score = %.6f, want >= 0.999", m.Score)
	}
}

// S2: no-match returns nothing at a high threshold.
func TestFindBestNoMatch(t *testing.T) {
	source := solidImage(100, 100, 200, 150, 50, 255)
	source = patchImage(source, 30, 40, 10, 10, 0, 0, 255, 255) // red patch
	target := solidImage(10, 10, 0, 255, 0, 255)                // green target

	_, ok := FindBest(source, target, Options{MinSimilarity: 0.9})
	if ok {
		t.Fatal("expected no match above threshold 0.9")
	}
}

// S3: plain-color black path.
func TestFindBestPlainBlackTarget(t *testing.T) {
	source := solidImage(50, 50, 10, 20, 30, 255)
	source = patchImage(source, 5, 5, 8, 8, 0, 0, 0, 255)
	target := solidImage(8, 8, 0, 0, 0, 255)

	if !isPlainColor(target) {
		t.Fatal("expected all-zero target to be classified plain-color")
	}
	if !isBlack(target) {
		t.Fatal("expected all-zero target to be classified black")
	}

	m, ok := FindBest(source, target, Options{MinSimilarity: 0.5})
	if !ok {
		t.Fatal("expected a match for the black patch")
	}
	if m.Score < 0.95 {
		t.Errorf("score = %.4f, want >= 0.95", m.Score)
	}
	if m.Bounds.X != 5 || m.Bounds.Y != 5 {
		t.Errorf("match at (%d,%d), want (5,5)", m.Bounds.X, m.Bounds.Y)
	}
}

// S4: findAll ordering and non-overlap.
func TestFindAllOrderingAndNonOverlap(t *testing.T) {
	source := solidImage(200, 200, 200, 200, 200, 255)
	for _, p := range [][2]int{{10, 10}, {80, 50}, {150, 120}} {
		source = patchImage(source, p[0], p[1], 12, 12, 0, 0, 255, 255)
	}
	target := solidImage(12, 12, 0, 0, 255, 255)

	matches := FindAll(source, target, Options{MinSimilarity: 0.9})
	if len(matches) != 3 {
		t.Fatalf("got %d matches, want 3", len(matches))
	}

	for i := 1; i < len(matches); i++ {
		if matches[i].Score > matches[i-1].Score {
			t.Errorf("matches not descending: %v then %v", matches[i-1], matches[i])
		}
	}

	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			if matches[i].Bounds.Overlaps(matches[j].Bounds) {
				t.Errorf("matches %d and %d overlap: %+v, %+v", i, j, matches[i].Bounds, matches[j].Bounds)
			}
		}
	}
}

// Still-there idempotence: repeated find on an unchanged source
// returns the same bounds and score within tolerance.
func TestFindWithHintIdempotent(t *testing.T) {
	source := solidImage(100, 100, 50, 60, 70, 255)
	source = patchImage(source, 20, 20, 10, 10, 0, 0, 255, 255)
	target := solidImage(10, 10, 0, 0, 255, 255)

	opts := Options{MinSimilarity: 0.9}
	first, ok := FindBest(source, target, opts)
	if !ok {
		t.Fatal("expected initial match")
	}

	second, ok := FindWithHint(source, target, first.Bounds, opts)
	if !ok {
		t.Fatal("expected still-there hit")
	}

	if second.Bounds != first.Bounds {
		t.Errorf("bounds drifted: %+v vs %+v", second.Bounds, first.Bounds)
	}
	if diff := second.Score - first.Score; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("score drifted by %.9f", diff)
	}
}

func TestMatchScoreBounds(t *testing.T) {
	source := solidImage(40, 40, 1, 2, 3, 255)
	source = patchImage(source, 5, 5, 8, 8, 9, 9, 9, 255)
	target := solidImage(8, 8, 9, 9, 9, 255)

	m, ok := FindBest(source, target, Options{MinSimilarity: 0.5})
	if !ok {
		t.Fatal("expected a match")
	}
	if m.Score < 0 || m.Score > 1.0001 {
		t.Errorf("score %.4f out of [0, 1.0001]", m.Score)
	}
	if m.Bounds.Right() > source.Bounds().Right() || m.Bounds.Bottom() > source.Bounds().Bottom() {
		t.Error("match bounds escape source bounds")
	}
}
