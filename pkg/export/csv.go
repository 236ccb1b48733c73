package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// CSVExporter renders a Table as CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the column names followed by one record per row. Every
// record carries exactly one cell per column.
func (e *CSVExporter) Render(table Table) ([]byte, error) {
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("csv requires at least one column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(table.headerNames()); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i := range table.Columns {
			record[i] = table.cell(row, i)
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
