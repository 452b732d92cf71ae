package models

import (
	"time"

	"github.com/noah-isme/eduvita-api/internal/timetable"
)

// Timetable is a generated weekly grid stored as one document.
type Timetable struct {
	ID           string               `json:"id"`
	Department   string               `json:"department"`
	DaysOpen     []string             `json:"days_open"`
	PeriodCount  int                  `json:"period_count"`
	StartTime    string               `json:"start_time"`
	EndTime      string               `json:"end_time"`
	TimeSlots    []timetable.TimeSlot `json:"time_slots"`
	BreakSlot    timetable.TimeSlot   `json:"break_slot"`
	BreakPeriods []int                `json:"break_periods"`
	Pairs        []timetable.Pair     `json:"pairs"`
	Schedule     timetable.Schedule   `json:"schedule"`
	Randomized   bool                 `json:"randomized"`
	Seed         *int64               `json:"seed,omitempty"`
	CreatedBy    *string              `json:"created_by,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
}

// TimetableSummary is the compact projection shown on the admin dashboard.
type TimetableSummary struct {
	ID          string    `json:"id"`
	Department  string    `json:"department"`
	PeriodCount int       `json:"period_count"`
	Randomized  bool      `json:"randomized"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary projects the timetable onto its dashboard fields.
func (t Timetable) Summary() TimetableSummary {
	return TimetableSummary{ID: t.ID, Department: t.Department, PeriodCount: t.PeriodCount, Randomized: t.Randomized, CreatedAt: t.CreatedAt}
}

// TimetableFilter narrows timetable listings.
type TimetableFilter struct {
	Department string
	Page       int
	PageSize   int
}
