package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/pdf"
)

// NativePDFPipeline handles born-digital PDFs with a real text layer. The
// source is carried through byte-for-byte so form fields, annotations, and
// vector content survive; line positions come straight from the text layer,
// so numbering lands on actual baselines instead of the fixed grid.
type NativePDFPipeline struct {
	deps Deps
}

func (p *NativePDFPipeline) ID() document.PipelineID { return document.PipelineNativePDF }

func (p *NativePDFPipeline) Process(ctx context.Context, doc document.Document, workDir string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := pdf.Read(doc.Path)
	if err != nil {
		return nil, err
	}

	outPath := filepath.Join(workDir, "native.pdf")
	if err := copyFile(doc.Path, outPath); err != nil {
		return nil, document.NewError(document.KindConversion, "copy source PDF", err)
	}

	result := &Result{PDFPath: outPath}
	for _, pg := range f.Pages {
		page := Page{
			Width:  pg.Width,
			Height: pg.Height,
		}
		for _, ln := range pg.Lines {
			page.Lines = append(page.Lines, TextLine{
				Y:          ln.Y,
				Left:       ln.Left,
				Right:      ln.Right,
				Confidence: 1,
			})
		}
		// Pages with no positioned text (separator sheets, exhibits)
		// still get numbered on the fallback grid.
		if len(page.Lines) == 0 {
			page.Lines = GridLines(pg.Width, pg.Height, p.deps.linesPerPage())
			page.Grid = true
		}
		result.Pages = append(result.Pages, page)
	}

	p.deps.logger().Debug("native PDF passed through",
		"file", doc.Basename(), "pages", len(result.Pages))
	return result, nil
}

func copyFile(src, dst string) error {
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
