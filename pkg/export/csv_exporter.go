package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a header row plus records keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// Records returns the rows ordered by Headers.
func (d Dataset) Records() [][]string {
	out := make([][]string, 0, len(d.Rows))
	for _, row := range d.Rows {
		record := make([]string, len(d.Headers))
		for i, h := range d.Headers {
			record[i] = row[h]
		}
		out = append(out, record)
	}
	return out
}

// CSVExporter renders datasets as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	if err := w.WriteAll(data.Records()); err != nil {
		return nil, fmt.Errorf("write csv rows: %w", err)
	}
	return buf.Bytes(), nil
}
