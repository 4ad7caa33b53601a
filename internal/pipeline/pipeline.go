// Package pipeline implements the three processing strategies behind one
// contract: Text lays structured text onto fresh PDF pages, ScanImage
// rasterizes and rotation-corrects scanned content, and NativePDF preserves
// vector content verbatim. The router picks the tag; the lookup table built
// by NewSet maps tag to implementation, so exactly three strategies exist.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/rotate"
)

// TextLine is one numbering anchor on a normalized page: a baseline with a
// horizontal extent, in page coordinates (origin bottom-left, points).
type TextLine struct {
	Y     float64
	Left  float64
	Right float64

	// Confidence is 1 for exact positions (Text/NativePDF) and 0 for
	// grid slots whose placement carries no content signal.
	Confidence float64
}

// Page describes one normalized output page.
type Page struct {
	Width  float64
	Height float64
	Lines  []TextLine

	// AppliedRotation records the physical correction in clockwise
	// degrees (ScanImage only; 0 elsewhere).
	AppliedRotation int

	// LowConfidenceOrientation marks pages left upright because no
	// rotation cleared the confidence floor. Audit-only.
	LowConfidenceOrientation bool

	// Grid reports that Lines are evenly spaced slots rather than
	// content positions.
	Grid bool
}

// Result is a pipeline's output: a normalized PDF on disk plus per-page
// numbering metadata. The file lives in the per-document work directory and
// is discarded after stamping.
type Result struct {
	PDFPath string
	Pages   []Page
}

// Pipeline is the common processing contract.
type Pipeline interface {
	ID() document.PipelineID

	// Process consumes the source document and produces a normalized
	// page stream in workDir. It never partially writes outside
	// workDir; failures surface as document-scoped errors.
	Process(ctx context.Context, doc document.Document, workDir string) (*Result, error)
}

// Deps carries the collaborators pipelines share.
type Deps struct {
	Corrector    *rotate.Corrector
	LinesPerPage int
	Logger       *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d Deps) linesPerPage() int {
	if d.LinesPerPage > 0 {
		return d.LinesPerPage
	}
	return DefaultLinesPerPage
}

// NewSet builds the tag-to-implementation lookup table.
func NewSet(deps Deps) map[document.PipelineID]Pipeline {
	return map[document.PipelineID]Pipeline{
		document.PipelineText:      &TextPipeline{deps: deps},
		document.PipelineScanImage: &ScanImagePipeline{deps: deps},
		document.PipelineNativePDF: &NativePDFPipeline{deps: deps},
	}
}

// Grid geometry, shared by the ScanImage pipeline and the numbering engine.
// A 10 inch rail is centered vertically with slots spaced evenly along it,
// numbers resetting each page.
const (
	DefaultLinesPerPage = 28

	// RailLength is the grid rail length in points (10 inches).
	RailLength = 720.0

	// railMargin keeps the rail off the page edge on short pages.
	railMargin = 36.0
)

// GridLines returns n evenly spaced slot baselines for a page of the given
// height, top slot first.
func GridLines(width, height float64, n int) []TextLine {
	rail := RailLength
	if height-railMargin < rail {
		rail = height - railMargin
	}
	top := (height + rail) / 2
	step := rail / float64(n)
	lines := make([]TextLine, n)
	for i := 0; i < n; i++ {
		lines[i] = TextLine{
			Y:     top - step*float64(i+1),
			Left:  GutterMargin,
			Right: width - GutterMargin,
		}
	}
	return lines
}

// GutterMargin is the left-edge offset of the numbering gutter in points
// (0.25 inch).
const GutterMargin = 18.0
