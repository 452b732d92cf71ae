package dto

import (
	"time"

	"github.com/noah-isme/eduvita-api/internal/allocation"
	"github.com/noah-isme/eduvita-api/internal/models"
)

// DepartmentDemandRequest is the headcount one department sends.
type DepartmentDemandRequest struct {
	Department string `json:"department" validate:"required"`
	Students   int    `json:"students" validate:"min=0,max=100000"`
}

// AllocateSeatsRequest is the venue geometry plus per-department headcounts.
type AllocateSeatsRequest struct {
	Floors        int                       `json:"floors" validate:"min=0,max=100"`
	RoomsPerFloor int                       `json:"roomsPerFloor" validate:"min=0,max=200"`
	SeatsPerRoom  int                       `json:"seatsPerRoom" validate:"min=0,max=500"`
	Departments   []DepartmentDemandRequest `json:"departments" validate:"max=6,dive"`
}

// Grid returns the request geometry.
func (r AllocateSeatsRequest) Grid() allocation.RoomGrid {
	return allocation.RoomGrid{Floors: r.Floors, RoomsPerFloor: r.RoomsPerFloor, SeatsPerRoom: r.SeatsPerRoom}
}

// Demand returns the headcounts in request order.
func (r AllocateSeatsRequest) Demand() []allocation.Demand {
	out := make([]allocation.Demand, len(r.Departments))
	for i, d := range r.Departments {
		out[i] = allocation.Demand{Department: d.Department, Students: d.Students}
	}
	return out
}

// AllocateSeatsResponse is a computed seating plan.
type AllocateSeatsResponse struct {
	Grid          allocation.RoomGrid            `json:"grid"`
	Capacity      int                            `json:"capacity"`
	TotalStudents int                            `json:"totalStudents"`
	EmptySeats    int                            `json:"emptySeats"`
	Seats         allocation.Allocation          `json:"seats"`
	Summary       []allocation.DepartmentSummary `json:"summary"`
}

// CreateSeatChartRequest allocates and renders a chart in one step.
type CreateSeatChartRequest struct {
	AllocateSeatsRequest
	Title  string `json:"title" validate:"omitempty,max=120"`
	Format string `json:"format" validate:"omitempty,oneof=pdf csv"`
}

// SeatChartResponse pairs a stored chart with a signed download link.
type SeatChartResponse struct {
	Chart       models.SeatChart `json:"chart"`
	DownloadURL string           `json:"downloadUrl"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}
