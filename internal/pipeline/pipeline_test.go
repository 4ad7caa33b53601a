package pipeline

import (
	"archive/zip"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	xtiff "golang.org/x/image/tiff"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/ocr"
	"github.com/docketpdf/docket/internal/pdfgen"
	"github.com/docketpdf/docket/internal/rotate"
)

func TestGridLines(t *testing.T) {
	t.Run("letter page", func(t *testing.T) {
		lines := GridLines(612, 792, 28)
		if len(lines) != 28 {
			t.Fatalf("got %d lines, want 28", len(lines))
		}
		top := (792 + RailLength) / 2
		step := RailLength / 28
		for i, ln := range lines {
			want := top - step*float64(i+1)
			if math.Abs(ln.Y-want) > 1e-9 {
				t.Errorf("line %d: Y = %v, want %v", i, ln.Y, want)
			}
			if ln.Left != GutterMargin {
				t.Errorf("line %d: Left = %v, want %v", i, ln.Left, GutterMargin)
			}
			if ln.Right != 612-GutterMargin {
				t.Errorf("line %d: Right = %v, want %v", i, ln.Right, 612-GutterMargin)
			}
		}
		if lines[0].Y <= lines[27].Y {
			t.Error("lines are not top-first")
		}
	})

	t.Run("short page shrinks rail", func(t *testing.T) {
		lines := GridLines(612, 400, 28)
		rail := 400 - 36.0
		top := (400 + rail) / 2
		if lines[0].Y >= 400 {
			t.Fatalf("top line %v off the page", lines[0].Y)
		}
		want := top - rail/28
		if math.Abs(lines[0].Y-want) > 1e-9 {
			t.Errorf("top line Y = %v, want %v", lines[0].Y, want)
		}
		if lines[27].Y <= 0 {
			t.Errorf("bottom line %v below the page", lines[27].Y)
		}
	})
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxChars int
		want     []string
	}{
		{"fits", "short line", 20, []string{"short line"}},
		{"breaks at space", "one two three", 7, []string{"one two", "three"}},
		{"hard split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"empty", "   ", 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrap(tt.in, tt.maxChars)
			if len(got) != len(tt.want) {
				t.Fatalf("wrap(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewSet(t *testing.T) {
	set := NewSet(Deps{})
	if len(set) != 3 {
		t.Fatalf("got %d pipelines, want 3", len(set))
	}
	for _, id := range []document.PipelineID{
		document.PipelineText, document.PipelineScanImage, document.PipelineNativePDF,
	} {
		p, ok := set[id]
		if !ok {
			t.Fatalf("no pipeline for %s", id)
		}
		if p.ID() != id {
			t.Errorf("pipeline keyed %s reports %s", id, p.ID())
		}
	}
}

func TestTextPipelineTXT(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "memo.txt")
	if err := os.WriteFile(src, []byte("First paragraph.\nSecond paragraph.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &TextPipeline{}
	res, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatTXT,
	}, dir)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(res.Pages))
	}
	pg := res.Pages[0]
	if len(pg.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(pg.Lines))
	}
	if pg.Grid {
		t.Error("text pages must carry exact positions, not grid slots")
	}
	for i, ln := range pg.Lines {
		if ln.Confidence != 1 {
			t.Errorf("line %d confidence = %v, want 1", i, ln.Confidence)
		}
		if ln.Left != textLeftX {
			t.Errorf("line %d left = %v, want %v", i, ln.Left, textLeftX)
		}
	}
	if pg.Lines[0].Y <= pg.Lines[1].Y {
		t.Error("lines out of top-first order")
	}
	if _, err := os.Stat(res.PDFPath); err != nil {
		t.Fatalf("output PDF missing: %v", err)
	}
}

func TestTextPipelineDOCX(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "brief.docx")
	writeDOCX(t, src, []string{"Opening statement.", "Second point.", "Closing."})

	p := &TextPipeline{}
	res, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatDOCX,
	}, dir)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(res.Pages))
	}
	if got := len(res.Pages[0].Lines); got != 3 {
		t.Fatalf("got %d lines, want 3", got)
	}
}

func TestTextPipelineEmptyDocument(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "blank.txt")
	if err := os.WriteFile(src, []byte("\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &TextPipeline{}
	res, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatTXT,
	}, dir)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Pages) != 1 || len(res.Pages[0].Lines) != 1 {
		t.Fatal("empty input should render a single placeholder line")
	}
}

func TestTextPipelinePaginates(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "long.txt")
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "Line %d of the deposition transcript.\n", i+1)
	}
	if err := os.WriteFile(src, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	p := &TextPipeline{deps: Deps{LinesPerPage: 28}}
	res, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatTXT,
	}, dir)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(res.Pages))
	}
	if got := len(res.Pages[0].Lines); got != 28 {
		t.Errorf("first page has %d lines, want 28", got)
	}
	if got := len(res.Pages[1].Lines); got != 2 {
		t.Errorf("second page has %d lines, want 2", got)
	}
}

func TestNativePDFPipeline(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "filed.pdf")
	doc := pdfgen.New()
	pg := doc.AddPage(612, 792)
	pg.Text(72, 700, 12, pdfgen.FontHelvetica, 0, "IN THE DISTRICT COURT")
	pg.Text(72, 680, 12, pdfgen.FontHelvetica, 0, "Case No. 26-cv-1041")
	if err := doc.WriteFile(src); err != nil {
		t.Fatal(err)
	}

	p := &NativePDFPipeline{}
	res, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatPDF,
	}, dir)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(res.Pages))
	}
	if got := len(res.Pages[0].Lines); got != 2 {
		t.Fatalf("got %d lines, want 2", got)
	}
	for i, ln := range res.Pages[0].Lines {
		if ln.Confidence != 1 {
			t.Errorf("line %d confidence = %v, want 1", i, ln.Confidence)
		}
	}

	// Pass-through must be byte-identical.
	in, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	out, err := os.ReadFile(res.PDFPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(in) != string(out) {
		t.Error("native pipeline modified the source PDF")
	}
}

func TestNativePDFPipelineGridFallback(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sep.pdf")
	doc := pdfgen.New()
	doc.AddPage(612, 792) // no text operators at all
	if err := doc.WriteFile(src); err != nil {
		t.Fatal(err)
	}

	p := &NativePDFPipeline{deps: Deps{LinesPerPage: 28}}
	res, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatPDF,
	}, dir)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if !res.Pages[0].Grid {
		t.Error("textless page should fall back to grid slots")
	}
	if got := len(res.Pages[0].Lines); got != 28 {
		t.Errorf("got %d grid slots, want 28", got)
	}
}

// scanCorrector returns a corrector whose engine reports a fixed score per
// rotation via a score function that reads the rotation hint back out of
// the synthetic text.
func scanCorrector(scores map[int]float64) *rotate.Corrector {
	eng := ocr.NewMockEngine()
	for r := range scores {
		eng.ResultsByRotation[r] = ocr.Result{Text: fmt.Sprintf("rot%d", r)}
	}
	return &rotate.Corrector{
		Engine: eng,
		Score: func(res ocr.Result) float64 {
			for r, s := range scores {
				if res.Text == fmt.Sprintf("rot%d", r) {
					return s
				}
			}
			return 0
		},
	}
}

// writeTIFF encodes a single-page grayscale TIFF of the given pixel size.
func writeTIFF(t *testing.T, path string, w, h int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := xtiff.Encode(f, image.NewGray(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}
}

func TestScanImagePipelineUprightTIFF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "scan.tiff")
	writeTIFF(t, src, 612, 792)

	p := &ScanImagePipeline{deps: Deps{
		Corrector:    scanCorrector(map[int]float64{0: 0.9, 90: 0.2, 180: 0.1, 270: 0.2}),
		LinesPerPage: 28,
	}}
	res, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatTIFF,
	}, dir)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(res.Pages))
	}
	pg := res.Pages[0]
	if pg.AppliedRotation != 0 {
		t.Errorf("applied rotation = %d, want 0", pg.AppliedRotation)
	}
	if pg.LowConfidenceOrientation {
		t.Error("winner above floor must not be low confidence")
	}
	if !pg.Grid {
		t.Error("scanned pages should carry grid line positions")
	}
	if got := len(pg.Lines); got != 28 {
		t.Errorf("got %d grid slots, want 28", got)
	}
	if res.PDFPath == src {
		t.Error("scan pipeline must not emit the source path")
	}
	if _, err := os.Stat(res.PDFPath); err != nil {
		t.Errorf("rebuilt PDF missing: %v", err)
	}
}

func TestScanImagePipelineAppliesDetectedRotation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "upside.tiff")
	writeTIFF(t, src, 612, 792)

	p := &ScanImagePipeline{deps: Deps{
		Corrector:    scanCorrector(map[int]float64{0: 0.1, 90: 0.1, 180: 0.9, 270: 0.1}),
		LinesPerPage: 28,
	}}
	res, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatTIFF,
	}, dir)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Pages[0].AppliedRotation != 180 {
		t.Errorf("applied rotation = %d, want 180", res.Pages[0].AppliedRotation)
	}
}

func TestScanImagePipelineRejectsMultiPageTIFF(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "multi.tiff")

	// Two empty IFDs chained together: header, IFD at 8 pointing to a
	// second IFD at 14, which terminates the chain.
	buf := make([]byte, 8+6+6)
	copy(buf, "II")
	binary.LittleEndian.PutUint16(buf[2:], 42)
	binary.LittleEndian.PutUint32(buf[4:], 8)
	binary.LittleEndian.PutUint16(buf[8:], 0)
	binary.LittleEndian.PutUint32(buf[10:], 14)
	binary.LittleEndian.PutUint16(buf[14:], 0)
	binary.LittleEndian.PutUint32(buf[16:], 0)
	if err := os.WriteFile(src, buf, 0o644); err != nil {
		t.Fatal(err)
	}

	p := &ScanImagePipeline{deps: Deps{
		Corrector: scanCorrector(map[int]float64{0: 0.9}),
	}}
	_, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatTIFF,
	}, dir)
	if err == nil {
		t.Fatal("expected multi-page TIFF to be rejected")
	}
	if got := document.KindOf(err); got != document.KindConversion {
		t.Errorf("error kind = %s, want %s", got, document.KindConversion)
	}
}

func TestScanImagePipelineLandscapeLowConfidence(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "wide.tiff")
	writeTIFF(t, src, 792, 612)

	// Every rotation scores zero, so detection stays at 0 degrees below
	// the confidence floor and the page remains landscape.
	p := &ScanImagePipeline{deps: Deps{
		Corrector: &rotate.Corrector{Engine: ocr.NewMockEngine()},
	}}
	_, err := p.Process(context.Background(), document.Document{
		Path: src, Format: document.FormatTIFF,
	}, dir)
	if err == nil {
		t.Fatal("expected undecidable landscape page to be rejected")
	}
	if got := document.KindOf(err); got != document.KindUnsupportedOrientation {
		t.Errorf("error kind = %s, want %s", got, document.KindUnsupportedOrientation)
	}
}

// writeDOCX builds a minimal but well-formed .docx with one w:p per paragraph.
func writeDOCX(t *testing.T, path string, paragraphs []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	zw := zip.NewWriter(f)

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		fmt.Fprintf(&body, `<w:p><w:r><w:t>%s</w:t></w:r></w:p>`, p)
	}
	body.WriteString(`</w:body></w:document>`)

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>` +
			`</Types>`,
		"word/document.xml": body.String(),
	}
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}
