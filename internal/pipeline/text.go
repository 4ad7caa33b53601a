package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/pdf"
	"github.com/docketpdf/docket/internal/pdfgen"
)

// Text layout constants. Courier is fixed-pitch, which makes line extents
// exact: every rendered baseline is recorded as a TextLine, so numbering is
// content-aware with no estimation.
const (
	textFontSize  = 12.0
	textCharWidth = textFontSize * 0.6 // Courier advance width
	textLeftX     = 108.0              // 1.5 inch pleading margin
	textRightX    = pdfgen.LetterWidth - 72.0
)

// TextPipeline converts TXT and DOCX input into laid-out PDF pages.
type TextPipeline struct {
	deps Deps
}

func (p *TextPipeline) ID() document.PipelineID { return document.PipelineText }

// Process reads paragraphs, wraps them to the text column and renders them
// onto letter pages aligned with the numbering grid.
func (p *TextPipeline) Process(ctx context.Context, doc document.Document, workDir string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		paragraphs []string
		err        error
	)
	switch doc.Format {
	case document.FormatTXT:
		paragraphs, err = pdf.ReadTXT(doc.Path)
	case document.FormatDOCX:
		paragraphs, err = pdf.ReadDOCX(doc.Path)
	default:
		return nil, document.NewError(document.KindConversion,
			fmt.Sprintf("text pipeline cannot process %s input", doc.Format), nil)
	}
	if err != nil {
		return nil, err
	}

	maxChars := int((textRightX - textLeftX) / textCharWidth)
	var rendered []string
	for _, para := range paragraphs {
		rendered = append(rendered, wrap(para, maxChars)...)
	}
	if len(rendered) == 0 {
		rendered = []string{"[Empty Document]"}
	}

	linesPerPage := p.deps.linesPerPage()
	slots := GridLines(pdfgen.LetterWidth, pdfgen.LetterHeight, linesPerPage)

	out := pdfgen.New()
	result := &Result{}
	for start := 0; start < len(rendered); start += linesPerPage {
		end := start + linesPerPage
		if end > len(rendered) {
			end = len(rendered)
		}
		pg := out.AddPage(pdfgen.LetterWidth, pdfgen.LetterHeight)
		page := Page{Width: pdfgen.LetterWidth, Height: pdfgen.LetterHeight}
		for i, line := range rendered[start:end] {
			y := slots[i].Y
			pg.Text(textLeftX, y, textFontSize, pdfgen.FontCourier, 0, line)
			page.Lines = append(page.Lines, TextLine{
				Y:          y,
				Left:       textLeftX,
				Right:      textLeftX + textCharWidth*float64(len(line)),
				Confidence: 1,
			})
		}
		result.Pages = append(result.Pages, page)
	}

	outPath := filepath.Join(workDir, "text.pdf")
	if err := out.WriteFile(outPath); err != nil {
		return nil, document.NewError(document.KindConversion, "write laid-out PDF", err)
	}
	result.PDFPath = outPath

	p.deps.logger().Debug("text pipeline complete",
		"file", doc.Basename(), "paragraphs", len(paragraphs),
		"lines", len(rendered), "pages", len(result.Pages))
	return result, nil
}

// wrap breaks a paragraph into lines of at most maxChars characters,
// breaking at spaces where possible.
func wrap(s string, maxChars int) []string {
	if maxChars < 1 {
		maxChars = 1
	}
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var (
		lines []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
		}
	}
	for _, word := range words {
		for len(word) > maxChars {
			flush()
			lines = append(lines, word[:maxChars])
			word = word[maxChars:]
		}
		switch {
		case cur.Len() == 0:
			cur.WriteString(word)
		case cur.Len()+1+len(word) <= maxChars:
			cur.WriteByte(' ')
			cur.WriteString(word)
		default:
			flush()
			cur.WriteString(word)
		}
	}
	flush()
	return lines
}
