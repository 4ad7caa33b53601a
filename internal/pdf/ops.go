package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Dim is a page size in points.
type Dim struct {
	Width  float64
	Height float64
}

func conf() *model.Configuration {
	c := model.NewDefaultConfiguration()
	c.ValidationMode = model.ValidationRelaxed
	return c
}

// PageCount returns the number of pages in a PDF.
func PageCount(path string) (int, error) {
	n, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("page count %s: %w", filepath.Base(path), err)
	}
	return n, nil
}

// PageDims returns the media box dimensions for every page.
func PageDims(path string) ([]Dim, error) {
	dims, err := api.PageDimsFile(path)
	if err != nil {
		return nil, fmt.Errorf("page dims %s: %w", filepath.Base(path), err)
	}
	out := make([]Dim, len(dims))
	for i, d := range dims {
		out[i] = Dim{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

// Validate runs a relaxed structural validation.
func Validate(path string) error {
	if err := api.ValidateFile(path, conf()); err != nil {
		return fmt.Errorf("validate %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ImportImages builds a PDF with one page per input image, each page sized
// to its image.
func ImportImages(imgPaths []string, outPath string) error {
	if len(imgPaths) == 0 {
		return fmt.Errorf("import images: no input images")
	}
	if err := api.ImportImagesFile(imgPaths, outPath, nil, conf()); err != nil {
		return fmt.Errorf("import images: %w", err)
	}
	return nil
}

// RotatePages physically rotates all pages by the given clockwise degrees.
func RotatePages(inPath, outPath string, degrees int) error {
	if err := api.RotateFile(inPath, outPath, degrees, nil, conf()); err != nil {
		return fmt.Errorf("rotate %d: %w", degrees, err)
	}
	return nil
}

// Reprint rewrites a PDF through pdfcpu's optimizer. This is the named
// normalization step: it drops stale rotation metadata, dead objects and
// conflicting viewer hints so downstream stamping coordinates are
// unambiguous.
func Reprint(inPath, outPath string) error {
	if err := api.OptimizeFile(inPath, outPath, conf()); err != nil {
		return fmt.Errorf("reprint: %w", err)
	}
	return nil
}

// ExtractPageImages extracts embedded raster images into dir and returns
// their paths in page order. Scanned PDFs carry one full-page image per
// page, so the result maps 1:1 onto pages.
func ExtractPageImages(inPath, dir string) ([]string, error) {
	if err := api.ExtractImagesFile(inPath, dir, nil, conf()); err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	// pdfcpu names extracted files <base>_<page>_<resource>.<ext>;
	// lexical order preserves page order for equal-width page numbers,
	// so sort naturally by the embedded page number.
	sort.Strings(paths)
	return paths, nil
}

// StampText stamps a single text watermark onto the selected pages (nil
// selects all pages). desc uses pdfcpu's watermark description syntax.
func StampText(inPath, outPath, text, desc string, pages []string) error {
	wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
	if err != nil {
		return fmt.Errorf("text watermark %q: %w", desc, err)
	}
	if err := api.AddWatermarksFile(inPath, outPath, pages, wm, conf()); err != nil {
		return fmt.Errorf("stamp text: %w", err)
	}
	return nil
}

// StampTextPerPage stamps a different text watermark on each page.
func StampTextPerPage(inPath, outPath string, texts map[int]string, desc string) error {
	m := make(map[int]*model.Watermark, len(texts))
	for page, text := range texts {
		wm, err := api.TextWatermark(text, desc, true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("text watermark page %d: %w", page, err)
		}
		m[page] = wm
	}
	if err := api.AddWatermarksMapFile(inPath, outPath, m, conf()); err != nil {
		return fmt.Errorf("stamp per page: %w", err)
	}
	return nil
}

// StampOverlay stamps page N of the overlay PDF onto page N of the input,
// at original scale, anchored to the page center.
func StampOverlay(inPath, outPath, overlayPath string, pageCount int) error {
	const desc = "pos:c, off:0 0, scale:1 abs, rot:0"
	m := make(map[int]*model.Watermark, pageCount)
	for page := 1; page <= pageCount; page++ {
		wm, err := api.PDFWatermark(fmt.Sprintf("%s:%d", overlayPath, page), desc, true, false, types.POINTS)
		if err != nil {
			return fmt.Errorf("overlay watermark page %d: %w", page, err)
		}
		m[page] = wm
	}
	if err := api.AddWatermarksMapFile(inPath, outPath, m, conf()); err != nil {
		return fmt.Errorf("stamp overlay: %w", err)
	}
	return nil
}
