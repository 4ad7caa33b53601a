// Package document defines the core data model shared by every stage of the
// processing run: input documents, classification signals, pipeline tags,
// output records and the document-scoped error taxonomy.
package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies one of the supported input categories.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatDOC  Format = "doc" // legacy binary Word; detected but not convertible
	FormatTXT  Format = "txt"
	FormatTIFF Format = "tiff"

	FormatUnknown Format = "unknown"
)

// FormatForPath maps a file extension to a Format.
// Unrecognized extensions return FormatUnknown.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".doc":
		return FormatDOC
	case ".txt":
		return FormatTXT
	case ".tif", ".tiff":
		return FormatTIFF
	default:
		return FormatUnknown
	}
}

// Document is one input file. Immutable once discovered.
type Document struct {
	// Path is the absolute path to the source file.
	Path string

	// Format is the detected input category, derived from the extension.
	Format Format

	// Size is the file size in bytes.
	Size int64

	// Index is the zero-based position in discovery order. Used when
	// sequence numbers are allocated in input order.
	Index int
}

// Basename returns the original filename without directories.
func (d Document) Basename() string {
	return filepath.Base(d.Path)
}

// Orientation is the apparent page orientation derived from metadata.
type Orientation string

const (
	OrientationUpright    Orientation = "upright"
	OrientationRotated90  Orientation = "rotated-90"
	OrientationRotated180 Orientation = "rotated-180"
	OrientationRotated270 Orientation = "rotated-270"
	OrientationUnknown    Orientation = "unknown"
)

// Signals is the classification signal set produced by the Content Analyzer
// and consumed by the Pipeline Router. Transient; never persisted.
type Signals struct {
	Format    Format
	PageCount int

	HasExtractableText bool
	ExtractedCharCount int
	HasImages          bool
	HasFormFields      bool
	IsTIFF             bool

	// Orientation is derived from page rotation metadata where present.
	Orientation Orientation

	// Landscape reports whether any page renders wider than tall after
	// applying its rotation tag. Landscape input is only processable by
	// the ScanImage pipeline's rotation correction.
	Landscape bool
}

// PipelineID tags one of the three processing strategies.
// Assigned exactly once per document and immutable for the run.
type PipelineID string

const (
	PipelineText      PipelineID = "Text"
	PipelineScanImage PipelineID = "ScanImage"
	PipelineNativePDF PipelineID = "NativePDF"
)

// NumberingOrder selects how sequence numbers are assigned under concurrency.
type NumberingOrder string

const (
	// OrderCompletion numbers successful documents as they finish.
	OrderCompletion NumberingOrder = "completion"

	// OrderInput numbers successful documents by their discovery order,
	// holding completed documents until all earlier ones are terminal.
	OrderInput NumberingOrder = "input"
)

// RecordStatus is the terminal status captured in an OutputRecord.
type RecordStatus string

const (
	StatusSuccess RecordStatus = "success"
	StatusFailure RecordStatus = "failure"
)

// OutputRecord is the append-only audit record. Exactly one exists per
// discovered document, success or failure.
type OutputRecord struct {
	SequenceNumber   int          `json:"sequence_number,omitempty"`
	OriginalFilename string       `json:"original_filename"`
	PipelineUsed     PipelineID   `json:"pipeline_used,omitempty"`
	BatesNumber      string       `json:"bates_number,omitempty"`
	Status           RecordStatus `json:"status"`
	ErrorKind        string       `json:"error_kind,omitempty"`
	ErrorDetail      string       `json:"error_detail,omitempty"`
	OutputFile       string       `json:"output_file,omitempty"`

	// LowConfidencePages lists pages whose orientation could not be
	// established above the confidence floor. Audit-only, non-fatal.
	LowConfidencePages []int `json:"low_confidence_pages,omitempty"`
}

// FormatSequence renders a sequence number in the 4-digit output convention.
func FormatSequence(n int) string {
	return fmt.Sprintf("%04d", n)
}

// FormatBates renders a Bates identifier as {prefix}{number:04d}.
func FormatBates(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}
