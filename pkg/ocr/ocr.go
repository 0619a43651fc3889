// Package ocr provides the read-only text-from-bitmap adapter
// (component O). It is consumed through the Engine interface; Region
// never imports gosseract directly, matching the "FFI to display and
// OCR engines: wrap each in a narrow adapter owning a single resource"
// design note.
package ocr

import (
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/anxuanzi/zikuli/pkg/geom"
	"github.com/anxuanzi/zikuli/pkg/ximage"
)

// PageSegMode mirrors Tesseract's page segmentation modes, narrowed to
// the handful a desktop-automation caller plausibly needs.
type PageSegMode int

const (
	PSMAuto             PageSegMode = iota // Fully automatic page segmentation (default).
	PSMSingleLine                          // Treat the image as a single text line.
	PSMSingleWord                          // Treat the image as a single word.
	PSMSingleBlock                         // Treat the image as a single uniform block of text.
	PSMSparseText                          // Find as much text as possible, no particular order.
)

// Word is one recognized word with its bounding box in the supplied
// image's local coordinates and a confidence in [0,100].
type Word struct {
	Text       string
	Bounds     geom.Rectangle
	Confidence float64
}

// Engine reads text and word bounding boxes from an Image. An Engine
// owns its own engine handle and is not safe for concurrent use by
// multiple goroutines.
type Engine interface {
	ReadText(img *ximage.Image) (string, error)
	ReadWords(img *ximage.Image) ([]Word, error)
	SetPageSegMode(mode PageSegMode) error
	Close() error
}

// TesseractEngine implements Engine over github.com/otiai10/gosseract,
// a cgo binding to the Tesseract OCR library.
type TesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine creates an Engine backed by a fresh Tesseract
// client. Callers must Close it when done to release the underlying
// C++ engine handle.
func NewTesseractEngine() *TesseractEngine {
	return &TesseractEngine{client: gosseract.NewClient()}
}

// Close releases the Tesseract engine handle.
func (e *TesseractEngine) Close() error {
	return e.client.Close()
}

// SetPageSegMode configures the page segmentation mode used by
// subsequent ReadText/ReadWords calls.
func (e *TesseractEngine) SetPageSegMode(mode PageSegMode) error {
	var psm gosseract.PageSegMode
	switch mode {
	case PSMSingleLine:
		psm = gosseract.PSM_SINGLE_LINE
	case PSMSingleWord:
		psm = gosseract.PSM_SINGLE_WORD
	case PSMSingleBlock:
		psm = gosseract.PSM_SINGLE_BLOCK
	case PSMSparseText:
		psm = gosseract.PSM_SPARSE_TEXT
	default:
		psm = gosseract.PSM_AUTO
	}
	return e.client.SetPageSegMode(psm)
}

// ReadText extracts all recognized text from img.
func (e *TesseractEngine) ReadText(img *ximage.Image) (string, error) {
	png, err := img.EncodePNG()
	if err != nil {
		return "", fmt.Errorf("ocr: encode image: %w", err)
	}
	if err := e.client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("ocr: set image: %w", err)
	}
	text, err := e.client.Text()
	if err != nil {
		return "", fmt.Errorf("ocr: read text: %w", err)
	}
	return text, nil
}

// ReadWords extracts recognized words with their bounding boxes, in
// img's local coordinate frame, and a confidence in [0,100].
func (e *TesseractEngine) ReadWords(img *ximage.Image) ([]Word, error) {
	png, err := img.EncodePNG()
	if err != nil {
		return nil, fmt.Errorf("ocr: encode image: %w", err)
	}
	if err := e.client.SetImageFromBytes(png); err != nil {
		return nil, fmt.Errorf("ocr: set image: %w", err)
	}

	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("ocr: read word boxes: %w", err)
	}

	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text: b.Word,
			Bounds: geom.NewRectangle(
				int32(b.Box.Min.X), int32(b.Box.Min.Y),
				uint32(b.Box.Dx()), uint32(b.Box.Dy()),
			),
			Confidence: b.Confidence,
		})
	}
	return words, nil
}
