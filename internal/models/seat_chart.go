package models

import (
	"time"

	"github.com/noah-isme/eduvita-api/internal/allocation"
)

// SeatChartSource tells whether the server rendered the chart or a client uploaded it.
type SeatChartSource string

const (
	SeatChartGenerated SeatChartSource = "generated"
	SeatChartUploaded  SeatChartSource = "uploaded"
)

// SeatChartFormat is the stored file type.
type SeatChartFormat string

const (
	SeatChartPDF SeatChartFormat = "pdf"
	SeatChartCSV SeatChartFormat = "csv"
)

// ContentType returns the MIME type for the format.
func (f SeatChartFormat) ContentType() string {
	if f == SeatChartCSV {
		return "text/csv"
	}
	return "application/pdf"
}

// SeatChart is an exported examination seating plan.
type SeatChart struct {
	ID        string               `json:"id"`
	Title     string               `json:"title"`
	Source    SeatChartSource      `json:"source"`
	Format    SeatChartFormat      `json:"format"`
	FileName  string               `json:"file_name"`
	FilePath  string               `json:"-"`
	SizeBytes int64                `json:"size_bytes"`
	Grid      *allocation.RoomGrid `json:"grid,omitempty"`
	Demand    []allocation.Demand  `json:"demand,omitempty"`
	CreatedBy *string              `json:"created_by,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}
