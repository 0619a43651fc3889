package ximage

import (
	"testing"

	"github.com/anxuanzi/zikuli/pkg/geom"
)

func geomRect(x, y int32, w, h uint32) geom.Rectangle {
	return geom.NewRectangle(x, y, w, h)
}

func fillSolid(img *Image, b, g, r, a byte) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.SetPixel(x, y, []byte{b, g, r, a})
		}
	}
}

func TestInvariantStrideAndLen(t *testing.T) {
	img := New(37, 19, BGRA)
	if img.Stride != img.Width*4 {
		t.Errorf("stride = %d, want %d", img.Stride, img.Width*4)
	}
	if len(img.Data) != img.Stride*img.Height {
		t.Errorf("len(Data) = %d, want %d", len(img.Data), img.Stride*img.Height)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	img := New(4, 4, BGRA)
	fillSolid(img, 10, 20, 30, 255)

	roundTripped := img.Convert(RGBA).Convert(BGRA)
	for i := range img.Data {
		if img.Data[i] != roundTripped.Data[i] {
			t.Fatalf("byte %d differs after BGRA->RGBA->BGRA: got %d want %d", i, roundTripped.Data[i], img.Data[i])
		}
	}
}

func TestSubImageLaw(t *testing.T) {
	img := New(20, 20, BGRA)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.SetPixel(x, y, []byte{byte(x), byte(y), 0, 255})
		}
	}

	r := geomRect(5, 5, 10, 10)
	sub := img.Sub(r)

	for y := 0; y < int(r.Height); y++ {
		for x := 0; x < int(r.Width); x++ {
			got := sub.Pixel(x, y)
			want := img.Pixel(int(r.X)+x, int(r.Y)+y)
			if got[0] != want[0] || got[1] != want[1] {
				t.Fatalf("sub(%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestSubImageDoesNotAlias(t *testing.T) {
	img := New(10, 10, BGRA)
	sub := img.Sub(geomRect(0, 0, 5, 5))
	sub.SetPixel(0, 0, []byte{9, 9, 9, 9})

	if img.Pixel(0, 0)[0] == 9 {
		t.Fatal("sub-image aliases source buffer")
	}
}

func TestGrayscaleConversion(t *testing.T) {
	img := New(1, 1, BGRA)
	img.SetPixel(0, 0, []byte{255, 255, 255, 255}) // white
	gray := img.Convert(GRAY8)
	if gray.Pixel(0, 0)[0] != 255 {
		t.Errorf("white->gray = %d, want 255", gray.Pixel(0, 0)[0])
	}
}
