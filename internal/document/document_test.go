package document

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormatForPath(t *testing.T) {
	cases := []struct {
		path string
		want Format
	}{
		{"deposition.pdf", FormatPDF},
		{"Exhibit_A.PDF", FormatPDF},
		{"scan-001.tif", FormatTIFF},
		{"scan-001.tiff", FormatTIFF},
		{"contract.docx", FormatDOCX},
		{"contract.doc", FormatDOC},
		{"notes.txt", FormatTXT},
		{"photo.jpg", FormatUnknown},
		{"noextension", FormatUnknown},
	}
	for _, tc := range cases {
		if got := FormatForPath(tc.path); got != tc.want {
			t.Errorf("FormatForPath(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestFormatBates(t *testing.T) {
	if got := FormatBates("GAR", 7); got != "GAR0007" {
		t.Errorf("expected GAR0007, got %s", got)
	}
	if got := FormatBates("", 1234); got != "1234" {
		t.Errorf("expected 1234, got %s", got)
	}
	if got := FormatSequence(12); got != "0012" {
		t.Errorf("expected 0012, got %s", got)
	}
}

func TestKindOf(t *testing.T) {
	t.Run("typed error", func(t *testing.T) {
		err := NewError(KindProtected, "password required", nil)
		if got := KindOf(err); got != KindProtected {
			t.Errorf("expected %s, got %s", KindProtected, got)
		}
	})

	t.Run("wrapped typed error", func(t *testing.T) {
		err := fmt.Errorf("analyze: %w", NewError(KindUnreadable, "bad xref", errors.New("parse")))
		if got := KindOf(err); got != KindUnreadable {
			t.Errorf("expected %s, got %s", KindUnreadable, got)
		}
	})

	t.Run("untyped error defaults to conversion", func(t *testing.T) {
		if got := KindOf(errors.New("boom")); got != KindConversion {
			t.Errorf("expected %s, got %s", KindConversion, got)
		}
	})
}
