package dto

import (
	"time"

	"github.com/noah-isme/eduvita-api/internal/models"
)

// AdminDashboardResponse captures the aggregated admin dashboard payload.
type AdminDashboardResponse struct {
	Users            UserCounts                `json:"users"`
	Timetables       int                       `json:"timetables"`
	SeatCharts       int                       `json:"seatCharts"`
	Submissions      int                       `json:"submissions"`
	ActiveTests      int                       `json:"activeTests"`
	RecentTimetables []models.TimetableSummary `json:"recentTimetables"`
	GeneratedAt      time.Time                 `json:"generatedAt"`
}

// UserCounts breaks down active users by role.
type UserCounts struct {
	Total    int `json:"total"`
	Admins   int `json:"admins"`
	Teachers int `json:"teachers"`
	Students int `json:"students"`
}

// OAuthURLResponse carries the provider consent URL.
type OAuthURLResponse struct {
	URL string `json:"url"`
}
