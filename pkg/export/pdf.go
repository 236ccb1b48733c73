package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a Table into a PDF document. Timetables are wide,
// so pages are laid out in landscape and column weights decide how the
// usable width is split.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF with an optional title and the table body.
func (e *PDFExporter) Render(table Table, title string) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("pdf requires at least one column")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	usableWidth, _ := pdf.GetPageSize()
	usableWidth -= 20
	weights := table.columnWeights()
	widths := make([]float64, len(table.Columns))
	for i, weight := range weights {
		widths[i] = usableWidth * weight
	}

	pdf.SetFont("Arial", "B", 10)
	for i, col := range table.Columns {
		pdf.CellFormat(widths[i], 8, col.Name, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	pdf.SetFillColor(240, 240, 240)
	for n, row := range table.Rows {
		fill := n%2 == 1
		for i := range table.Columns {
			pdf.CellFormat(widths[i], 7, table.cell(row, i), "1", 0, "", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
