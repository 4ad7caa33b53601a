package route

import (
	"testing"

	"github.com/docketpdf/docket/internal/document"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name string
		sig  document.Signals
		want document.PipelineID
	}{
		{
			"txt goes to text",
			document.Signals{Format: document.FormatTXT, HasExtractableText: true, ExtractedCharCount: 5000},
			document.PipelineText,
		},
		{
			"docx goes to text",
			document.Signals{Format: document.FormatDOCX, HasExtractableText: true, ExtractedCharCount: 50},
			document.PipelineText,
		},
		{
			"tiff goes to scan",
			document.Signals{Format: document.FormatTIFF, IsTIFF: true, HasImages: true},
			document.PipelineScanImage,
		},
		{
			"form fields force native regardless of text volume",
			document.Signals{Format: document.FormatPDF, HasFormFields: true, HasExtractableText: true, ExtractedCharCount: 10},
			document.PipelineNativePDF,
		},
		{
			"substantial text goes native",
			document.Signals{Format: document.FormatPDF, HasExtractableText: true, ExtractedCharCount: 201},
			document.PipelineNativePDF,
		},
		{
			"threshold is exclusive",
			document.Signals{Format: document.FormatPDF, HasExtractableText: true, ExtractedCharCount: 200, HasImages: true},
			document.PipelineScanImage,
		},
		{
			"sparse text over images is hybrid scan",
			document.Signals{Format: document.FormatPDF, HasExtractableText: true, ExtractedCharCount: 40, HasImages: true},
			document.PipelineScanImage,
		},
		{
			"image-only pdf goes to scan",
			document.Signals{Format: document.FormatPDF, HasImages: true},
			document.PipelineScanImage,
		},
		{
			"empty signal set defaults to scan",
			document.Signals{Format: document.FormatPDF},
			document.PipelineScanImage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Route(tt.sig); got != tt.want {
				t.Errorf("Route(%+v) = %s, want %s", tt.sig, got, tt.want)
			}
		})
	}
}

func TestRouteIsDeterministic(t *testing.T) {
	sig := document.Signals{
		Format:             document.FormatPDF,
		HasExtractableText: true,
		ExtractedCharCount: 350,
		HasImages:          true,
	}
	first := Route(sig)
	for i := 0; i < 100; i++ {
		if got := Route(sig); got != first {
			t.Fatalf("routing is not deterministic: %s then %s", first, got)
		}
	}
}
