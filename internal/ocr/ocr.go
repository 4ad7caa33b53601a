// Package ocr defines the OCR collaborator contract. The engine is a black
// box: one rendered page image in, recognized text with word-level
// confidences out. The rotation corrector consumes these signals; it never
// depends on a concrete engine.
package ocr

import "context"

// Input is a single rendered page submitted for recognition.
type Input struct {
	// Image is PNG-encoded page raster data.
	Image []byte

	// RotationHint carries the rotation (clockwise degrees) already
	// applied to Image relative to the stored page. Engines may use it
	// to bias layout analysis; the default Tesseract adapter ignores it.
	RotationHint int

	// Languages lists trained-data hints (e.g. "eng").
	Languages []string

	// DPI is the effective render resolution; zero means unknown.
	DPI int
}

// Word is one recognized token with its confidence in [0,100].
type Word struct {
	Text       string
	Confidence float64
}

// Result is the recognition outcome for one input image.
type Result struct {
	Text  string
	Words []Word

	// MeanConfidence is the average word confidence in [0,100], or 0
	// when nothing was recognized.
	MeanConfidence float64
}

// Engine is implemented by OCR providers.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}
