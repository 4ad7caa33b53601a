package pdf

import (
	"encoding/binary"
	"fmt"
	"image"
	"os"

	"golang.org/x/image/tiff"

	"github.com/docketpdf/docket/internal/document"
)

// TIFFPageCount walks the IFD chain of a classic TIFF and counts directory
// entries. x/image/tiff only decodes the first directory, so the count is
// needed to detect multi-page input up front. BigTIFF is not supported.
func TIFFPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, document.NewError(document.KindUnreadable, "cannot open TIFF", err)
	}
	defer f.Close()

	header := make([]byte, 8)
	if _, err := f.ReadAt(header, 0); err != nil {
		return 0, document.NewError(document.KindUnreadable, "short TIFF header", err)
	}

	var order binary.ByteOrder
	switch string(header[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0, document.NewError(document.KindUnreadable, "not a TIFF file", nil)
	}
	if magic := order.Uint16(header[2:4]); magic != 42 {
		if magic == 43 {
			return 0, document.NewError(document.KindUnreadable, "BigTIFF is not supported", nil)
		}
		return 0, document.NewError(document.KindUnreadable, "bad TIFF magic number", nil)
	}

	offset := int64(order.Uint32(header[4:8]))
	pages := 0
	for offset != 0 {
		pages++
		if pages > 10000 {
			return 0, document.NewError(document.KindUnreadable, "TIFF directory chain does not terminate", nil)
		}
		countBuf := make([]byte, 2)
		if _, err := f.ReadAt(countBuf, offset); err != nil {
			return 0, document.NewError(document.KindUnreadable,
				fmt.Sprintf("truncated IFD at offset %d", offset), err)
		}
		entries := int64(order.Uint16(countBuf))
		nextBuf := make([]byte, 4)
		if _, err := f.ReadAt(nextBuf, offset+2+entries*12); err != nil {
			return 0, document.NewError(document.KindUnreadable,
				fmt.Sprintf("truncated IFD at offset %d", offset), err)
		}
		offset = int64(order.Uint32(nextBuf))
	}
	return pages, nil
}

// DecodeTIFF decodes the first directory of a TIFF file.
func DecodeTIFF(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, document.NewError(document.KindUnreadable, "cannot open TIFF", err)
	}
	defer f.Close()
	img, err := tiff.Decode(f)
	if err != nil {
		return nil, document.NewError(document.KindUnreadable, "cannot decode TIFF", err)
	}
	return img, nil
}
