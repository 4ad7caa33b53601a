// Package pdfgen writes small, deterministic PDF files with the standard
// library: text pages for the Text pipeline and gutter overlays for the
// numbering engine. Only the base-14 Type1 fonts are supported and content
// streams are left uncompressed, which keeps output reproducible byte for
// byte (no timestamps, no Info dictionary).
package pdfgen

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Font names accepted by Page.Text. These are base-14 fonts every viewer
// provides; nothing is embedded.
const (
	FontCourier    = "Courier"
	FontHelvetica  = "Helvetica"
	FontTimesRoman = "Times-Roman"
)

// Letter page dimensions in points.
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// Doc accumulates pages and serializes them as a PDF.
type Doc struct {
	pages []*Page
	fonts map[string]int // font name -> resource index (1-based)
}

// Page is a single page under construction. Coordinates are PDF points with
// the origin at the bottom-left corner.
type Page struct {
	doc     *Doc
	width   float64
	height  float64
	content bytes.Buffer
}

// New creates an empty document.
func New() *Doc {
	return &Doc{fonts: make(map[string]int)}
}

// AddPage appends a page of the given size in points.
func (d *Doc) AddPage(width, height float64) *Page {
	p := &Page{doc: d, width: width, height: height}
	d.pages = append(d.pages, p)
	return p
}

func (d *Doc) fontIndex(name string) int {
	if idx, ok := d.fonts[name]; ok {
		return idx
	}
	idx := len(d.fonts) + 1
	d.fonts[name] = idx
	return idx
}

// Text draws s with its baseline at (x, y). gray is 0 (black) to 1 (white).
func (p *Page) Text(x, y, size float64, font string, gray float64, s string) {
	idx := p.doc.fontIndex(font)
	fmt.Fprintf(&p.content, "BT\n/F%d %s Tf\n%s rg\n%s %s Td\n(%s) Tj\nET\n",
		idx, num(size), grayRGB(gray), num(x), num(y), escape(s))
}

// Line strokes a straight line of the given width.
func (p *Page) Line(x1, y1, x2, y2, width, gray float64) {
	fmt.Fprintf(&p.content, "q\n%s w\n%s RG\n%s %s m\n%s %s l\nS\nQ\n",
		num(width), grayRGB(gray), num(x1), num(y1), num(x2), num(y2))
}

// Rect fills a rectangle whose lower-left corner is (x, y).
func (p *Page) Rect(x, y, w, h, gray float64) {
	fmt.Fprintf(&p.content, "q\n%s rg\n%s %s %s %s re\nf\nQ\n",
		grayRGB(gray), num(x), num(y), num(w), num(h))
}

// Bytes serializes the document.
func (d *Doc) Bytes() ([]byte, error) {
	if len(d.pages) == 0 {
		return nil, fmt.Errorf("pdfgen: document has no pages")
	}

	// Object layout: 1 catalog, 2 page tree, then page/content pairs,
	// then one object per registered font.
	pageObj := func(i int) int { return 3 + 2*i }
	contentObj := func(i int) int { return 4 + 2*i }
	fontObjBase := 3 + 2*len(d.pages)

	var buf bytes.Buffer
	offsets := make(map[int]int)

	write := func(objNum int, body string) {
		offsets[objNum] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", objNum, body)
	}

	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	write(1, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(d.pages))
	for i := range d.pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj(i))
	}
	write(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>",
		strings.Join(kids, " "), len(d.pages)))

	fontRefs := d.fontResourceDict(fontObjBase)
	for i, p := range d.pages {
		write(pageObj(i), fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %s %s] /Resources << /Font %s >> /Contents %d 0 R >>",
			num(p.width), num(p.height), fontRefs, contentObj(i)))
		content := p.content.Bytes()
		offsets[contentObj(i)] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n<< /Length %d >>\nstream\n", contentObj(i), len(content))
		buf.Write(content)
		buf.WriteString("\nendstream\nendobj\n")
	}

	for _, name := range d.fontNames() {
		write(fontObjBase+d.fonts[name]-1, fmt.Sprintf(
			"<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", name))
	}

	objCount := fontObjBase + len(d.fonts) - 1
	xrefStart := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", objCount+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= objCount; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		objCount+1, xrefStart)

	return buf.Bytes(), nil
}

// WriteFile serializes the document to path.
func (d *Doc) WriteFile(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func (d *Doc) fontNames() []string {
	names := make([]string, 0, len(d.fonts))
	for name := range d.fonts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return d.fonts[names[i]] < d.fonts[names[j]] })
	return names
}

func (d *Doc) fontResourceDict(base int) string {
	var sb strings.Builder
	sb.WriteString("<< ")
	for _, name := range d.fontNames() {
		idx := d.fonts[name]
		fmt.Fprintf(&sb, "/F%d %d 0 R ", idx, base+idx-1)
	}
	sb.WriteString(">>")
	return sb.String()
}

func escape(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '(', ')':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '\n':
			sb.WriteString("\\n")
		case '\r':
			sb.WriteString("\\r")
		case '\t':
			sb.WriteString("\\t")
		default:
			if r < 0x20 || r > 0xfe {
				sb.WriteByte('?')
			} else {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}

// num formats a coordinate without trailing zeros so output stays stable.
func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func grayRGB(gray float64) string {
	g := num(gray)
	return fmt.Sprintf("%s %s %s", g, g, g)
}
