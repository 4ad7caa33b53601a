// Package stamp is the numbering engine: it lays line numbers into the left
// gutter of every page, applies Bates numbers to the bottom-right corner,
// and optionally adds an identification footer. Line numbers are drawn as a
// generated overlay PDF merged page-by-page; Bates and footer text ride
// pdfcpu's text watermarking.
package stamp

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/pdf"
	"github.com/docketpdf/docket/internal/pdfgen"
	"github.com/docketpdf/docket/internal/pipeline"
)

// Line number appearance. Numbers sit in the gutter to the left of the
// separator rule, small and grey so they read as apparatus, not content.
const (
	lineNumberSize = 8.0
	lineNumberGray = 0.5
	separatorX     = pipeline.GutterMargin + 18
	numberRightX   = separatorX - 4
	separatorWidth = 0.5
)

// Bates appearance: bottom-right corner, clear of the page edge.
const batesDesc = "fontname:Times-Roman, points:10, pos:br, off:-18 18, rot:0, scale:1 abs, fillcolor:#000000"

// footerDesc places the identification footer bottom-center.
const footerDesc = "fontname:Helvetica, points:8, pos:bc, off:0 10, rot:0, scale:1 abs, fillcolor:#505050"

// LineConfig controls gutter numbering.
type LineConfig struct {
	Enabled bool

	// Separator draws a vertical rule between the gutter and content.
	Separator bool
}

// BatesConfig controls Bates stamping. Number is the value stamped on this
// document; the orchestrator advances it per committed output.
type BatesConfig struct {
	Enabled bool
	Prefix  string
	Number  int
}

// FooterConfig controls the bottom-center identification footer.
type FooterConfig struct {
	Enabled bool

	// Label is the text stamped as "{Label} - page i of n"; typically
	// the original filename.
	Label string
}

// Stamper applies numbering to normalized PDFs.
type Stamper struct {
	Lines  LineConfig
	Logger *slog.Logger
}

func (s *Stamper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Apply renders all enabled numbering onto the pipeline result, writing the
// final PDF to outPath. Intermediates go to workDir. Line numbers restart
// at 1 on every page.
func (s *Stamper) Apply(res *pipeline.Result, bates BatesConfig, footer FooterConfig, workDir, outPath string) error {
	cur := res.PDFPath

	if s.Lines.Enabled {
		overlayPath := filepath.Join(workDir, "linenumbers.pdf")
		if err := s.writeLineOverlay(res.Pages, overlayPath); err != nil {
			return document.NewError(document.KindConversion, "build line number overlay", err)
		}
		numberedPath := filepath.Join(workDir, "numbered.pdf")
		if err := pdf.StampOverlay(cur, numberedPath, overlayPath, len(res.Pages)); err != nil {
			return document.NewError(document.KindConversion, "merge line number overlay", err)
		}
		cur = numberedPath
	}

	if footer.Enabled && footer.Label != "" {
		texts := make(map[int]string, len(res.Pages))
		for i := range res.Pages {
			texts[i+1] = fmt.Sprintf("%s - page %d of %d", footer.Label, i+1, len(res.Pages))
		}
		footedPath := filepath.Join(workDir, "footed.pdf")
		if err := pdf.StampTextPerPage(cur, footedPath, texts, footerDesc); err != nil {
			return document.NewError(document.KindConversion, "stamp footer", err)
		}
		cur = footedPath
	}

	if bates.Enabled {
		label := document.FormatBates(bates.Prefix, bates.Number)
		if err := pdf.StampText(cur, outPath, label, batesDesc, nil); err != nil {
			return document.NewError(document.KindConversion, "stamp Bates number", err)
		}
		s.logger().Debug("bates stamped", "bates", label, "pages", len(res.Pages))
		return nil
	}

	return copyOut(cur, outPath)
}

// writeLineOverlay generates one overlay page per result page carrying the
// gutter numbers and separator rule at that page's exact dimensions.
func (s *Stamper) writeLineOverlay(pages []pipeline.Page, path string) error {
	doc := pdfgen.New()
	for _, page := range pages {
		pg := doc.AddPage(page.Width, page.Height)
		for i, ln := range page.Lines {
			label := fmt.Sprintf("%d", i+1)
			// Right-align single and double digit numbers against
			// the separator. Times-Roman digits are half an em.
			x := numberRightX - float64(len(label))*lineNumberSize*0.5
			pg.Text(x, ln.Y, lineNumberSize, pdfgen.FontTimesRoman, lineNumberGray, label)
		}
		if s.Lines.Separator && len(page.Lines) > 0 {
			top := page.Lines[0].Y + 10
			bottom := page.Lines[len(page.Lines)-1].Y - 4
			pg.Line(separatorX, bottom, separatorX, top, separatorWidth, lineNumberGray)
		}
	}
	return doc.WriteFile(path)
}

func copyOut(src, dst string) error {
	if src == dst {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
