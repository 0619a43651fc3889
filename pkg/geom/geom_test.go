package geom

import "testing"

func TestRectangleContains(t *testing.T) {
	r := NewRectangle(10, 10, 20, 20)

	tests := []struct {
		name string
		p    Point
		want bool
	}{
		{"inside", Point{15, 15}, true},
		{"top-left corner", Point{10, 10}, true},
		{"right edge excluded", Point{30, 15}, false},
		{"bottom edge excluded", Point{15, 30}, false},
		{"outside", Point{100, 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Contains(tt.p); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestRectangleIntersectionCommutative(t *testing.T) {
	a := NewRectangle(0, 0, 10, 10)
	b := NewRectangle(5, 5, 10, 10)

	if a.Intersection(b) != b.Intersection(a) {
		t.Errorf("intersection not commutative: %v vs %v", a.Intersection(b), b.Intersection(a))
	}
}

func TestRectangleIntersectionAssociative(t *testing.T) {
	a := NewRectangle(0, 0, 20, 20)
	b := NewRectangle(5, 5, 20, 20)
	c := NewRectangle(10, 10, 20, 20)

	left := a.Intersection(b).Intersection(c)
	right := a.Intersection(b.Intersection(c))

	if left != right {
		t.Errorf("intersection not associative: %v vs %v", left, right)
	}
}

func TestRectangleIsEmptyImpliesNoOverlap(t *testing.T) {
	a := NewRectangle(0, 0, 5, 5)
	b := NewRectangle(10, 10, 5, 5)

	if !a.Intersection(b).IsEmpty() {
		t.Fatal("expected empty intersection")
	}
	if a.Overlaps(b) {
		t.Error("IsEmpty(intersection) should imply !Overlaps")
	}
}

func TestRectangleNegativeOrigin(t *testing.T) {
	// Virtual screens can have negative origin; widened comparisons
	// must not wrap around.
	r := NewRectangle(-1920, -100, 3840, 1080)
	if !r.Contains(Point{-1000, 0}) {
		t.Error("expected point within negative-origin rectangle")
	}
	if r.Right() != 1920 {
		t.Errorf("Right() = %d, want 1920", r.Right())
	}
}

func TestRectangleGrowAndClamp(t *testing.T) {
	bounds := NewRectangle(0, 0, 100, 100)
	r := NewRectangle(90, 90, 20, 20).Grow(5).Clamp(bounds)

	if r.Right() > bounds.Right() || r.Bottom() > bounds.Bottom() {
		t.Errorf("grown+clamped rect escapes bounds: %+v", r)
	}
}

func TestRectangleCenter(t *testing.T) {
	r := NewRectangle(100, 100, 200, 200)
	c := r.Center()
	if c.X != 200 || c.Y != 200 {
		t.Errorf("Center() = %+v, want (200,200)", c)
	}
}
