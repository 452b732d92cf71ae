package dto

import "github.com/noah-isme/eduvita-api/internal/timetable"

// PairRequest is one subject taught by a teacher.
type PairRequest struct {
	Subject string `json:"subject" validate:"required,max=100"`
	Teacher string `json:"teacher" validate:"required,max=100"`
}

// GenerateTimetableRequest describes a weekly timetable to build.
// Empty days or pairs are reported as EMPTY_SELECTION by the generator.
type GenerateTimetableRequest struct {
	Department string        `json:"department" validate:"required,max=50"`
	Days       []string      `json:"days" validate:"max=7,dive,required"`
	Periods    int           `json:"periods" validate:"required,min=1,max=16"`
	StartTime  string        `json:"startTime" validate:"required"`
	EndTime    string        `json:"endTime" validate:"required"`
	BreakStart string        `json:"breakStart" validate:"required"`
	BreakEnd   string        `json:"breakEnd" validate:"required"`
	Pairs      []PairRequest `json:"pairs" validate:"max=50,dive"`
	Randomize  bool          `json:"randomize"`
	Seed       *int64        `json:"seed"`
}

// ToPairs converts the request pairs to generator pairs.
func (r GenerateTimetableRequest) ToPairs() []timetable.Pair {
	out := make([]timetable.Pair, len(r.Pairs))
	for i, p := range r.Pairs {
		out[i] = timetable.Pair{Subject: p.Subject, Teacher: p.Teacher}
	}
	return out
}

// TimetableCatalogResponse lists the defaults offered when creating a timetable.
type TimetableCatalogResponse struct {
	Departments []string                    `json:"departments"`
	Days        []string                    `json:"days"`
	Pairs       map[string][]timetable.Pair `json:"pairs"`
	Defaults    TimetableDefaults           `json:"defaults"`
}

// TimetableDefaults are the initial form values.
type TimetableDefaults struct {
	Periods    int    `json:"periods"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	BreakStart string `json:"breakStart"`
	BreakEnd   string `json:"breakEnd"`
}

// CreatedResponse returns the identifier of a stored document.
type CreatedResponse struct {
	ID string `json:"id"`
}
