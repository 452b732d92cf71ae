package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduvita-api/internal/models"
)

func TestDashboardServiceAdmin(t *testing.T) {
	inactive := testUser(t, "u4", "gone@example.com", "password123", models.RoleStudent)
	inactive.Active = false
	users := newFakeUserRepo(
		testUser(t, "u1", "admin@example.com", "password123", models.RoleAdmin),
		testUser(t, "u2", "t@example.com", "password123", models.RoleTeacher),
		testUser(t, "u3", "s@example.com", "password123", models.RoleStudent),
		inactive,
	)
	timetables := &fakeTimetableRepo{}
	require.NoError(t, timetables.Create(context.Background(), &models.Timetable{Department: "IT", PeriodCount: 6}))
	charts := &fakeSeatChartRepo{}
	require.NoError(t, charts.Create(context.Background(), &models.SeatChart{ID: "c1"}))
	submissions := &fakeSubmissionRepo{items: []models.Submission{{ID: "s1"}, {ID: "s2"}}}
	now := time.Now().UTC()
	sessions := &fakeSessionRepo{sessions: map[string]models.TestSession{
		"u3": {UserID: "u3", Deadline: now.Add(time.Hour)},
		"u4": {UserID: "u4", Deadline: now.Add(time.Hour), Completed: true},
	}}
	cacheRepo := newMemCache()

	svc := NewDashboardService(DashboardServiceParams{
		Users:       users,
		Timetables:  timetables,
		SeatCharts:  charts,
		Submissions: submissions,
		Sessions:    sessions,
		Cache:       NewCacheService(cacheRepo, nil, time.Minute, nil, true),
	})

	summary, hit, err := svc.Admin(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 3, summary.Users.Total)
	assert.Equal(t, 1, summary.Users.Admins)
	assert.Equal(t, 1, summary.Users.Teachers)
	assert.Equal(t, 1, summary.Users.Students)
	assert.Equal(t, 1, summary.Timetables)
	assert.Equal(t, 1, summary.SeatCharts)
	assert.Equal(t, 2, summary.Submissions)
	assert.Equal(t, 1, summary.ActiveTests)
	require.Len(t, summary.RecentTimetables, 1)
	assert.Equal(t, "IT", summary.RecentTimetables[0].Department)

	cached, hit, err := svc.Admin(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, summary.Users, cached.Users)
	assert.Contains(t, cacheRepo.items, "eduvita:dashboard:admin")

	require.NoError(t, charts.Create(context.Background(), &models.SeatChart{ID: "c2"}))
	stale, hit, err := svc.Admin(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, stale.SeatCharts)

	fresh, hit, err := svc.Admin(context.Background(), true)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, fresh.SeatCharts)
}
