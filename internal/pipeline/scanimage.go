package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/docketpdf/docket/internal/document"
	"github.com/docketpdf/docket/internal/pdf"
	"github.com/docketpdf/docket/internal/rotate"
)

// ScanImagePipeline handles scanned content: TIFF images and PDFs whose
// pages are rasters. Each page is rotation-corrected by OCR scoring,
// physically re-rendered at the winning rotation, and rebuilt into a PDF
// that is then reprinted to strip stale metadata. Line positions fall back
// to the fixed grid since OCR baselines are not reliable at stamping
// precision.
type ScanImagePipeline struct {
	deps Deps
}

func (p *ScanImagePipeline) ID() document.PipelineID { return document.PipelineScanImage }

func (p *ScanImagePipeline) Process(ctx context.Context, doc document.Document, workDir string) (*Result, error) {
	images, metaRotations, err := p.loadPages(ctx, doc, workDir)
	if err != nil {
		return nil, err
	}

	corrected := make([]string, len(images))
	decisions := make([]rotate.Decision, len(images))
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		decision, err := p.deps.Corrector.Detect(ctx, img, metaRotations[i])
		if err != nil {
			return nil, document.NewError(document.KindConversion,
				fmt.Sprintf("orientation detection on page %d", i+1), err)
		}
		final := rotate.Apply(img, decision.Rotation)

		bounds := final.Bounds()
		if decision.LowConfidence && bounds.Dx() > bounds.Dy() {
			return nil, document.NewError(document.KindUnsupportedOrientation,
				fmt.Sprintf("page %d is landscape with unresolvable orientation", i+1), nil)
		}

		path := filepath.Join(workDir, fmt.Sprintf("page_%04d.png", i+1))
		if err := imaging.Save(final, path); err != nil {
			return nil, document.NewError(document.KindConversion,
				fmt.Sprintf("save corrected page %d", i+1), err)
		}
		corrected[i] = path
		decisions[i] = decision

		p.deps.logger().Debug("page orientation corrected",
			"file", doc.Basename(), "page", i+1,
			"rotation", decision.Rotation,
			"score", decision.Score,
			"low_confidence", decision.LowConfidence)
	}

	rawPath := filepath.Join(workDir, "imported.pdf")
	if err := pdf.ImportImages(corrected, rawPath); err != nil {
		return nil, document.NewError(document.KindConversion, "rebuild PDF from corrected pages", err)
	}

	// Named normalization step: reprint the rebuilt PDF so no stale
	// rotation metadata survives to corrupt stamping coordinates.
	normalizedPath := filepath.Join(workDir, "normalized.pdf")
	if err := pdf.Reprint(rawPath, normalizedPath); err != nil {
		return nil, document.NewError(document.KindConversion, "normalize rebuilt PDF", err)
	}

	dims, err := pdf.PageDims(normalizedPath)
	if err != nil {
		return nil, document.NewError(document.KindConversion, "measure normalized pages", err)
	}
	if len(dims) != len(corrected) {
		return nil, document.NewError(document.KindConversion,
			fmt.Sprintf("normalized PDF has %d pages, expected %d", len(dims), len(corrected)), nil)
	}

	result := &Result{PDFPath: normalizedPath}
	n := p.deps.linesPerPage()
	for i, d := range dims {
		result.Pages = append(result.Pages, Page{
			Width:                    d.Width,
			Height:                   d.Height,
			Lines:                    GridLines(d.Width, d.Height, n),
			AppliedRotation:          decisions[i].Rotation,
			LowConfidenceOrientation: decisions[i].LowConfidence,
			Grid:                     true,
		})
	}
	return result, nil
}

// loadPages produces one raster per source page along with any stored
// rotation metadata consulted before OCR scoring.
func (p *ScanImagePipeline) loadPages(ctx context.Context, doc document.Document, workDir string) ([]image.Image, []int, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	switch doc.Format {
	case document.FormatTIFF:
		pages, err := pdf.TIFFPageCount(doc.Path)
		if err != nil {
			return nil, nil, err
		}
		if pages > 1 {
			return nil, nil, document.NewError(document.KindConversion,
				fmt.Sprintf("multi-page TIFF (%d pages) is not supported; split into single pages", pages), nil)
		}
		img, err := pdf.DecodeTIFF(doc.Path)
		if err != nil {
			return nil, nil, err
		}
		return []image.Image{img}, []int{0}, nil

	case document.FormatPDF:
		imgDir := filepath.Join(workDir, "extracted")
		if err := os.MkdirAll(imgDir, 0o755); err != nil {
			return nil, nil, document.NewError(document.KindConversion, "create extraction dir", err)
		}
		f, err := pdf.Read(doc.Path)
		if err != nil {
			return nil, nil, err
		}
		paths, err := pdf.ExtractPageImages(doc.Path, imgDir)
		if err != nil {
			return nil, nil, document.NewError(document.KindConversion, "extract page images", err)
		}
		if len(paths) != len(f.Pages) {
			return nil, nil, document.NewError(document.KindConversion,
				fmt.Sprintf("found %d page images for %d pages; mixed raster content is not supported",
					len(paths), len(f.Pages)), nil)
		}
		images := make([]image.Image, len(paths))
		rotations := make([]int, len(paths))
		for i, path := range paths {
			img, err := imaging.Open(path)
			if err != nil {
				return nil, nil, document.NewError(document.KindConversion,
					fmt.Sprintf("decode page image %d", i+1), err)
			}
			images[i] = img
			rotations[i] = f.Pages[i].Rotation
		}
		return images, rotations, nil

	default:
		return nil, nil, document.NewError(document.KindConversion,
			fmt.Sprintf("scan pipeline cannot process %s input", doc.Format), nil)
	}
}
