package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	portraitWidth  = 190.0
	landscapeWidth = 277.0
)

// Section is one titled table inside a Document.
type Section struct {
	Title string
	Data  Dataset
	// Emphasis marks row indexes drawn shaded and bold, e.g. break periods.
	Emphasis map[int]bool
}

// Document describes a multi-table PDF.
type Document struct {
	Title     string
	Subtitle  string
	Landscape bool
	Sections  []Section
	// PageBreakEvery starts a new page after that many sections; zero disables.
	PageBreakEvery int
}

// PDFExporter renders documents with gofpdf core fonts.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a single-table PDF.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	return e.RenderDocument(Document{Title: title, Sections: []Section{{Data: data}}})
}

// RenderDocument lays out every section in order and returns the PDF bytes.
func (e *PDFExporter) RenderDocument(doc Document) ([]byte, error) {
	if len(doc.Sections) == 0 {
		return nil, fmt.Errorf("pdf requires at least one section")
	}
	orientation, width := "P", portraitWidth
	if doc.Landscape {
		orientation, width = "L", landscapeWidth
	}

	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 16)
		pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	for i, section := range doc.Sections {
		if len(section.Data.Headers) == 0 {
			return nil, fmt.Errorf("section %d has no headers", i)
		}
		if doc.PageBreakEvery > 0 && i > 0 && i%doc.PageBreakEvery == 0 {
			pdf.AddPage()
		}
		writeSection(pdf, tr, section, width)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSection(pdf *gofpdf.Fpdf, tr func(string) string, s Section, width float64) {
	if s.Title != "" {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 8, tr(s.Title), "", 1, "L", false, 0, "")
	}

	colWidth := width / float64(len(s.Data.Headers))
	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(220, 220, 220)
	for _, h := range s.Data.Headers {
		pdf.CellFormat(colWidth, 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFillColor(245, 230, 200)
	for idx, record := range s.Data.Records() {
		emphasised := s.Emphasis[idx]
		style := ""
		if emphasised {
			style = "B"
		}
		pdf.SetFont("Arial", style, 8)
		for _, value := range record {
			pdf.CellFormat(colWidth, 7, tr(value), "1", 0, "C", emphasised, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(4)
}
