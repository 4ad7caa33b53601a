// Package tesseract adapts the gosseract client to the ocr.Engine contract.
// It lives in its own package so the core never links cgo; only the CLI
// wires it in.
package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"

	"github.com/docketpdf/docket/internal/ocr"
)

// Engine is a Tesseract-backed OCR engine. A fresh client is created per
// recognition; gosseract clients are not safe for concurrent reuse.
type Engine struct {
	clientFactory func() *gosseract.Client
}

// New constructs a Tesseract engine.
func New() *Engine {
	return &Engine{clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "tesseract" }

// Recognize runs OCR on a PNG-encoded page image.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(in.Image); err != nil {
		return ocr.Result{}, fmt.Errorf("set image: %w", err)
	}
	if len(in.Languages) > 0 {
		if err := c.SetLanguage(in.Languages...); err != nil {
			return ocr.Result{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if in.DPI > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(in.DPI)); err != nil {
			return ocr.Result{}, fmt.Errorf("set dpi: %w", err)
		}
	}

	text, err := c.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognize: %w", err)
	}

	res := ocr.Result{Text: text}
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return res, nil // text-only result still usable for scoring
	}
	var sum float64
	for _, b := range boxes {
		res.Words = append(res.Words, ocr.Word{Text: b.Word, Confidence: b.Confidence})
		sum += b.Confidence
	}
	if len(res.Words) > 0 {
		res.MeanConfidence = sum / float64(len(res.Words))
	}
	return res, nil
}
