// Package route maps a classification signal set to exactly one processing
// pipeline. The policy is a total, deterministic priority list: given the
// same signals it always returns the same tag, and every valid combination
// matches a rule.
package route

import "github.com/docketpdf/docket/internal/document"

// SubstantialTextThreshold separates documents with enough native text to
// justify vector-fidelity handling from sparse hybrids that OCR-style
// handling serves better.
const SubstantialTextThreshold = 200

// Route selects the pipeline for a document. Rules are evaluated in
// priority order; the first match wins:
//
//  1. TXT and DOCX input always takes the Text pipeline.
//  2. TIFF input always takes the ScanImage pipeline.
//  3. Form fields force NativePDF: interactive functionality must survive,
//     which rules out rasterization regardless of OCR quality.
//  4. Substantial native text (> SubstantialTextThreshold chars) takes
//     NativePDF for vector fidelity.
//  5. Sparse text alongside images is hybrid scanned content; ScanImage
//     tolerates the degraded structure best.
//  6. Everything else (no extractable text) is scanned content: ScanImage.
func Route(sig document.Signals) document.PipelineID {
	switch {
	case sig.Format == document.FormatTXT || sig.Format == document.FormatDOCX:
		return document.PipelineText
	case sig.IsTIFF || sig.Format == document.FormatTIFF:
		return document.PipelineScanImage
	case sig.HasFormFields:
		return document.PipelineNativePDF
	case sig.HasExtractableText && sig.ExtractedCharCount > SubstantialTextThreshold:
		return document.PipelineNativePDF
	case sig.HasExtractableText && sig.HasImages:
		return document.PipelineScanImage
	default:
		return document.PipelineScanImage
	}
}
