package pdf

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"os"
	"strings"

	"github.com/docketpdf/docket/internal/document"
)

// ReadDOCX extracts paragraph text from a DOCX file. DOCX is a ZIP archive
// with the body in word/document.xml; paragraphs are <w:p> elements and text
// runs are <w:t>. Empty paragraphs are dropped.
func ReadDOCX(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, document.NewError(document.KindUnreadable, "not a DOCX archive", err)
	}
	defer zr.Close()

	var body io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body, err = f.Open()
			if err != nil {
				return nil, document.NewError(document.KindUnreadable, "cannot open document body", err)
			}
			break
		}
	}
	if body == nil {
		return nil, document.NewError(document.KindUnreadable, "DOCX is missing word/document.xml", nil)
	}
	defer body.Close()

	paragraphs, err := parseDocumentXML(body)
	if err != nil {
		return nil, document.NewError(document.KindUnreadable, "malformed document body", err)
	}
	return paragraphs, nil
}

func parseDocumentXML(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		inPara     bool
		inText     bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = inPara
			case "br", "cr":
				if inPara {
					current.WriteByte(' ')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if text := strings.TrimSpace(current.String()); text != "" {
					paragraphs = append(paragraphs, text)
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

// ReadTXT reads a plain-text file as paragraphs, one per non-empty line.
func ReadTXT(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, document.NewError(document.KindUnreadable, "cannot read text file", err)
	}
	normalized := strings.ReplaceAll(string(data), "\r\n", "\n")
	var paragraphs []string
	for _, line := range strings.Split(normalized, "\n") {
		if trimmed := strings.TrimRight(line, " \t"); strings.TrimSpace(trimmed) != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs, nil
}
