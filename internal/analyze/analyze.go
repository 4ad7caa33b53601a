// Package analyze implements the Content Analyzer: it inspects one input
// document and produces the classification signal set the router decides on.
// Analysis is side-effect free; files are opened read-only and released
// before returning.
package analyze

import (
	"fmt"
	"log/slog"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/pdf"
)

// MaxFileSizeBytes guards against pathological input; the original tool
// enforced the same 200 MB ceiling.
const MaxFileSizeBytes = 200 << 20

// Analyzer derives classification signals from input documents.
type Analyzer struct {
	Logger *slog.Logger
}

func (a *Analyzer) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Analyze inspects doc and returns its classification signals.
// Unreadable or protected input fails with the corresponding taxonomy kind;
// such documents bypass the router entirely.
func (a *Analyzer) Analyze(doc document.Document) (document.Signals, error) {
	if doc.Size == 0 {
		return document.Signals{}, document.NewError(document.KindUnreadable, "file is empty", nil)
	}
	if doc.Size > MaxFileSizeBytes {
		return document.Signals{}, document.NewError(document.KindUnreadable,
			fmt.Sprintf("file exceeds %d MB limit", MaxFileSizeBytes>>20), nil)
	}

	switch doc.Format {
	case document.FormatTXT:
		return a.analyzeText(doc, pdf.ReadTXT)
	case document.FormatDOCX:
		return a.analyzeText(doc, pdf.ReadDOCX)
	case document.FormatDOC:
		return document.Signals{}, document.NewError(document.KindConversion,
			"legacy .doc format requires conversion to .docx", nil)
	case document.FormatTIFF:
		return a.analyzeTIFF(doc)
	case document.FormatPDF:
		return a.analyzePDF(doc)
	default:
		return document.Signals{}, document.NewError(document.KindUnreadable,
			fmt.Sprintf("unsupported format %q", doc.Format), nil)
	}
}

// analyzeText covers TXT and DOCX: text is extractable by definition and
// page structure is synthesized later by the Text pipeline.
func (a *Analyzer) analyzeText(doc document.Document, read func(string) ([]string, error)) (document.Signals, error) {
	paragraphs, err := read(doc.Path)
	if err != nil {
		return document.Signals{}, err
	}
	chars := 0
	for _, p := range paragraphs {
		chars += len(p)
	}
	return document.Signals{
		Format:             doc.Format,
		PageCount:          1, // layout determines the real count later
		HasExtractableText: true,
		ExtractedCharCount: chars,
		Orientation:        document.OrientationUpright,
	}, nil
}

func (a *Analyzer) analyzeTIFF(doc document.Document) (document.Signals, error) {
	pages, err := pdf.TIFFPageCount(doc.Path)
	if err != nil {
		return document.Signals{}, err
	}
	return document.Signals{
		Format:      doc.Format,
		PageCount:   pages,
		HasImages:   true,
		IsTIFF:      true,
		Orientation: document.OrientationUnknown,
	}, nil
}

func (a *Analyzer) analyzePDF(doc document.Document) (document.Signals, error) {
	f, err := pdf.Read(doc.Path)
	if err != nil {
		return document.Signals{}, err
	}

	sig := document.Signals{
		Format:        doc.Format,
		PageCount:     len(f.Pages),
		HasFormFields: f.HasForms,
	}
	for _, p := range f.Pages {
		sig.ExtractedCharCount += p.CharCount
		if p.HasImages {
			sig.HasImages = true
		}
		if effectiveLandscape(p) {
			sig.Landscape = true
		}
	}
	sig.HasExtractableText = sig.ExtractedCharCount > 0
	sig.Orientation = overallOrientation(f.Pages)

	a.logger().Debug("analyzed PDF",
		"file", doc.Basename(),
		"pages", sig.PageCount,
		"chars", sig.ExtractedCharCount,
		"images", sig.HasImages,
		"forms", sig.HasFormFields,
		"orientation", sig.Orientation)
	return sig, nil
}

// effectiveLandscape reports whether the page renders wider than tall once
// its rotation tag is applied.
func effectiveLandscape(p pdf.Page) bool {
	if p.Width <= 0 || p.Height <= 0 {
		return false
	}
	if p.Rotation == 90 || p.Rotation == 270 {
		return p.Height > p.Width
	}
	return p.Width > p.Height
}

// overallOrientation folds per-page rotation tags into one document signal:
// uniform tags map to the matching orientation, anything mixed is unknown.
func overallOrientation(pages []pdf.Page) document.Orientation {
	if len(pages) == 0 {
		return document.OrientationUnknown
	}
	first := pages[0].Rotation
	for _, p := range pages[1:] {
		if p.Rotation != first {
			return document.OrientationUnknown
		}
	}
	switch first {
	case 0:
		return document.OrientationUpright
	case 90:
		return document.OrientationRotated90
	case 180:
		return document.OrientationRotated180
	case 270:
		return document.OrientationRotated270
	default:
		return document.OrientationUnknown
	}
}
