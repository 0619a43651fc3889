// Package ximage provides an owned pixel buffer used by capture and
// matching: a contiguous byte slice tagged with width, height, stride
// and pixel format, independent of any particular capture backend.
//
// Captured pixels are always copied out of adapter-owned memory before
// an Image is returned, so an Image's lifetime never depends on the
// backend that produced it (see pkg/display).
package ximage

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/anxuanzi/zikuli/pkg/geom"
)

// Format identifies the channel layout and order of an Image's bytes.
type Format string

const (
	BGRA  Format = "bgra"
	RGBA  Format = "rgba"
	BGR   Format = "bgr"
	RGB   Format = "rgb"
	GRAY8 Format = "gray8"
)

// BytesPerPixel returns the channel count for f.
func (f Format) BytesPerPixel() int {
	switch f {
	case BGRA, RGBA:
		return 4
	case BGR, RGB:
		return 3
	case GRAY8:
		return 1
	default:
		return 0
	}
}

// Image is an owned, contiguous pixel buffer. Data.len is guaranteed
// >= Stride*Height; Stride is guaranteed >= Width*bpp.
type Image struct {
	Data   []byte
	Width  int
	Height int
	Stride int
	Format Format
}

// New allocates a zeroed Image of the given format with a tightly
// packed stride (Width * bpp).
func New(width, height int, format Format) *Image {
	bpp := format.BytesPerPixel()
	stride := width * bpp
	return &Image{
		Data:   make([]byte, stride*height),
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
	}
}

// NewWithStride allocates an Image honoring an explicit stride, used
// when wrapping capture backends that pad rows.
func NewWithStride(width, height, stride int, format Format) *Image {
	return &Image{
		Data:   make([]byte, stride*height),
		Width:  width,
		Height: height,
		Stride: stride,
		Format: format,
	}
}

// Bounds returns the image's own rectangle, always rooted at (0,0).
func (img *Image) Bounds() geom.Rectangle {
	return geom.NewRectangle(0, 0, uint32(img.Width), uint32(img.Height))
}

func (img *Image) inBounds(x, y int) bool {
	return x >= 0 && x < img.Width && y >= 0 && y < img.Height
}

func (img *Image) offset(x, y int) int {
	return y*img.Stride + x*img.Format.BytesPerPixel()
}

// Pixel reads the bpp-length byte slice at (x, y). Panics if out of
// bounds, matching the invariant that reads require 0<=x<width and
// 0<=y<height.
func (img *Image) Pixel(x, y int) []byte {
	if !img.inBounds(x, y) {
		panic(fmt.Sprintf("ximage: pixel (%d,%d) out of bounds %dx%d", x, y, img.Width, img.Height))
	}
	off := img.offset(x, y)
	bpp := img.Format.BytesPerPixel()
	return img.Data[off : off+bpp]
}

// SetPixel writes bpp bytes at (x, y).
func (img *Image) SetPixel(x, y int, px []byte) {
	if !img.inBounds(x, y) {
		panic(fmt.Sprintf("ximage: pixel (%d,%d) out of bounds %dx%d", x, y, img.Width, img.Height))
	}
	off := img.offset(x, y)
	bpp := img.Format.BytesPerPixel()
	copy(img.Data[off:off+bpp], px[:bpp])
}

// Sub extracts the sub-image over r intersected with img's own bounds,
// copying into a newly owned buffer so the result never aliases img's
// backing array (no aliasing to source lifetime, per the sub-image
// invariant).
func (img *Image) Sub(r geom.Rectangle) *Image {
	clamped := r.Clamp(img.Bounds())
	out := New(int(clamped.Width), int(clamped.Height), img.Format)
	bpp := img.Format.BytesPerPixel()
	for y := 0; y < out.Height; y++ {
		srcOff := img.offset(int(clamped.X), int(clamped.Y)+y)
		dstOff := y * out.Stride
		copy(out.Data[dstOff:dstOff+out.Width*bpp], img.Data[srcOff:srcOff+out.Width*bpp])
	}
	return out
}

// Convert returns a new Image in the target format. BGRA<->RGBA swaps
// the red/blue channels in place semantics (byte order only, alpha and
// green untouched); conversions to/from GRAY8 use the standard
// luminance weighting.
func (img *Image) Convert(to Format) *Image {
	if img.Format == to {
		return img.Clone()
	}

	out := New(img.Width, img.Height, to)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			r, g, b, a := img.rgbaAt(x, y)
			out.SetPixel(x, y, packPixel(to, r, g, b, a))
		}
	}
	return out
}

// Clone returns a deep copy of img.
func (img *Image) Clone() *Image {
	out := &Image{
		Data:   make([]byte, len(img.Data)),
		Width:  img.Width,
		Height: img.Height,
		Stride: img.Stride,
		Format: img.Format,
	}
	copy(out.Data, img.Data)
	return out
}

// rgbaAt decodes the pixel at (x,y) into normalized 8-bit RGBA
// regardless of source format.
func (img *Image) rgbaAt(x, y int) (r, g, b, a byte) {
	px := img.Pixel(x, y)
	switch img.Format {
	case BGRA:
		return px[2], px[1], px[0], px[3]
	case RGBA:
		return px[0], px[1], px[2], px[3]
	case BGR:
		return px[2], px[1], px[0], 255
	case RGB:
		return px[0], px[1], px[2], 255
	case GRAY8:
		return px[0], px[0], px[0], 255
	default:
		return 0, 0, 0, 255
	}
}

func packPixel(format Format, r, g, b, a byte) []byte {
	switch format {
	case BGRA:
		return []byte{b, g, r, a}
	case RGBA:
		return []byte{r, g, b, a}
	case BGR:
		return []byte{b, g, r}
	case RGB:
		return []byte{r, g, b}
	case GRAY8:
		// ITU-R BT.601 luma weighting.
		y := (299*int(r) + 587*int(g) + 114*int(b)) / 1000
		return []byte{byte(y)}
	default:
		return nil
	}
}

// FromStdImage wraps a standard library image.Image as a BGRA Image,
// copying pixels (capture backends hand back image.Image values whose
// lifetime zikuli does not control).
func FromStdImage(src image.Image) *Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := New(w, h, BGRA)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, a := src.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.SetPixel(x, y, []byte{byte(b >> 8), byte(g >> 8), byte(r >> 8), byte(a >> 8)})
		}
	}
	return out
}

// ToStdImage converts img to a standard library *image.RGBA, used at
// the PNG-encode and OCR boundaries which expect image.Image.
func (img *Image) ToStdImage() *image.RGBA {
	rgba := img.Convert(RGBA)
	out := image.NewRGBA(image.Rect(0, 0, rgba.Width, rgba.Height))
	for y := 0; y < rgba.Height; y++ {
		srcOff := y * rgba.Stride
		dstOff := y * out.Stride
		copy(out.Pix[dstOff:dstOff+rgba.Width*4], rgba.Data[srcOff:srcOff+rgba.Width*4])
	}
	return out
}

// EncodePNG encodes img as a PNG byte slice, delegating to the
// standard library codec (the core never implements its own PNG
// reader/writer).
func (img *Image) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.ToStdImage()); err != nil {
		return nil, fmt.Errorf("ximage: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodePNG decodes a PNG byte slice into an Image.
func DecodePNG(data []byte) (*Image, error) {
	std, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("ximage: decode png: %w", err)
	}
	return FromStdImage(std), nil
}

// Resize scales img to exactly width x height using CatmullRom
// interpolation, the same resampler used for pyramid level
// construction.
func (img *Image) Resize(width, height int) *Image {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	src := img.ToStdImage()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return FromStdImage(dst).Convert(img.Format)
}
