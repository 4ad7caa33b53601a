// Package pdf is the codec boundary: positioned text extraction and raw
// structure probes on the read side, and pdfcpu-backed page operations
// (import, rotate, stamp, reprint) on the write side. All low-level PDF,
// TIFF and DOCX access is confined to this package.
package pdf

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/docketpdf/docket/internal/document"
)

// Line is one extracted text line with its baseline and horizontal extent in
// page coordinates (origin bottom-left, points).
type Line struct {
	Y     float64
	Left  float64
	Right float64
	Text  string
}

// Page holds the per-page read results used for classification and for
// content-aware line numbering.
type Page struct {
	Number    int
	Width     float64
	Height    float64
	Rotation  int // /Rotate tag, normalized to 0/90/180/270
	HasImages bool
	CharCount int
	Lines     []Line
}

// File is the read-side view of a PDF document.
type File struct {
	Pages    []Page
	HasForms bool
}

// baselineTolerance groups text fragments whose baselines differ by less
// than this many points into one line.
const baselineTolerance = 2.0

// Read opens a PDF and extracts structure signals plus positioned text.
// Password-protected input maps to a protected_document error, anything
// else that fails to parse maps to unreadable_document.
func Read(path string) (*File, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if isEncryptionErr(err) {
			return nil, document.NewError(document.KindProtected, "password-protected PDF", err)
		}
		return nil, document.NewError(document.KindUnreadable, "cannot open PDF", err)
	}
	defer f.Close()

	trailer := r.Trailer()
	if !trailer.Key("Encrypt").IsNull() {
		return nil, document.NewError(document.KindProtected, "password-protected PDF", nil)
	}

	out := &File{}
	out.HasForms = trailer.Key("Root").Key("AcroForm").Key("Fields").Len() > 0

	total := r.NumPage()
	if total == 0 {
		return nil, document.NewError(document.KindUnreadable, "PDF has no pages", nil)
	}

	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			return nil, document.NewError(document.KindUnreadable,
				fmt.Sprintf("page %d is missing", i), nil)
		}
		page := Page{Number: i}

		if box := inherited(p.V, "MediaBox"); !box.IsNull() && box.Len() == 4 {
			page.Width = box.Index(2).Float64() - box.Index(0).Float64()
			page.Height = box.Index(3).Float64() - box.Index(1).Float64()
		}
		page.Rotation = normalizeRotation(int(inherited(p.V, "Rotate").Int64()))
		page.HasImages = pageHasImages(p.V)

		content, err := safeContent(p)
		if err == nil {
			page.Lines, page.CharCount = groupLines(content.Text)
		}
		// Content-stream parse failures leave the page textless; the
		// router then treats it as scanned content.

		out.Pages = append(out.Pages, page)
	}
	return out, nil
}

// safeContent shields callers from parser panics on malformed streams.
func safeContent(p pdf.Page) (c pdf.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("content parse: %v", r)
		}
	}()
	return p.Content(), nil
}

// groupLines clusters text fragments that share a baseline.
func groupLines(frags []pdf.Text) ([]Line, int) {
	if len(frags) == 0 {
		return nil, 0
	}
	sorted := make([]pdf.Text, len(frags))
	copy(sorted, frags)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y // top of page first
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []Line
	chars := 0
	for _, t := range sorted {
		chars += len(t.S)
		if n := len(lines); n > 0 && abs(lines[n-1].Y-t.Y) < baselineTolerance {
			cur := &lines[n-1]
			cur.Text += t.S
			if right := t.X + t.W; right > cur.Right {
				cur.Right = right
			}
			if t.X < cur.Left {
				cur.Left = t.X
			}
			continue
		}
		lines = append(lines, Line{Y: t.Y, Left: t.X, Right: t.X + t.W, Text: t.S})
	}
	return lines, chars
}

// inherited resolves a page attribute, walking the page tree parents.
func inherited(v pdf.Value, key string) pdf.Value {
	for depth := 0; depth < 32; depth++ {
		if attr := v.Key(key); !attr.IsNull() {
			return attr
		}
		parent := v.Key("Parent")
		if parent.IsNull() {
			break
		}
		v = parent
	}
	return pdf.Value{}
}

func pageHasImages(v pdf.Value) bool {
	xobjs := inherited(v, "Resources").Key("XObject")
	for _, name := range xobjs.Keys() {
		if xobjs.Key(name).Key("Subtype").Name() == "Image" {
			return true
		}
	}
	return false
}

func normalizeRotation(r int) int {
	r %= 360
	if r < 0 {
		r += 360
	}
	// Non-cardinal values are invalid per the PDF spec; treat as unset.
	if r%90 != 0 {
		return 0
	}
	return r
}

func isEncryptionErr(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "password") || strings.Contains(msg, "encrypt")
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
