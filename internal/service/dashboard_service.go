package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
)

type userCounter interface {
	CountByRole(ctx context.Context) (map[models.UserRole]int, error)
}

type recordCounter interface {
	Count(ctx context.Context) (int, error)
}

type recentTimetableLister interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	Count(ctx context.Context) (int, error)
}

type activeTestCounter interface {
	CountActive(ctx context.Context, now time.Time) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL    time.Duration
	RecentLimit int
}

// DashboardService composes the admin overview.
type DashboardService struct {
	users       userCounter
	timetables  recentTimetableLister
	seatCharts  recordCounter
	submissions recordCounter
	sessions    activeTestCounter
	cache       *CacheService
	logger      *zap.Logger
	now         func() time.Time
	cfg         DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users       userCounter
	Timetables  recentTimetableLister
	SeatCharts  recordCounter
	Submissions recordCounter
	Sessions    activeTestCounter
	Cache       *CacheService
	Logger      *zap.Logger
	Config      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:       params.Users,
		timetables:  params.Timetables,
		seatCharts:  params.SeatCharts,
		submissions: params.Submissions,
		sessions:    params.Sessions,
		cache:       params.Cache,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
		cfg:         cfg,
	}
}

// Admin returns the admin dashboard summary and reports whether it came from
// cache. refresh recomputes the summary and replaces the cached copy.
func (s *DashboardService) Admin(ctx context.Context, refresh bool) (*dto.AdminDashboardResponse, bool, error) {
	key := CacheKey(cacheNSDashboard, "admin")
	var cached dto.AdminDashboardResponse
	if !refresh && s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	summary, err := s.composeAdminSummary(ctx)
	if err != nil {
		return nil, false, err
	}
	s.cache.Set(ctx, key, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

func (s *DashboardService) composeAdminSummary(ctx context.Context) (*dto.AdminDashboardResponse, error) {
	fail := func(err error, what string) error {
		s.logger.Error("dashboard aggregation failed", zap.String("part", what), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
	}

	byRole, err := s.users.CountByRole(ctx)
	if err != nil {
		return nil, fail(err, "users")
	}
	counts := dto.UserCounts{
		Admins:   byRole[models.RoleAdmin],
		Teachers: byRole[models.RoleTeacher],
		Students: byRole[models.RoleStudent],
	}
	counts.Total = counts.Admins + counts.Teachers + counts.Students

	summary := &dto.AdminDashboardResponse{Users: counts, GeneratedAt: s.now()}
	if summary.Timetables, err = s.timetables.Count(ctx); err != nil {
		return nil, fail(err, "timetables")
	}
	if summary.SeatCharts, err = s.seatCharts.Count(ctx); err != nil {
		return nil, fail(err, "seat_charts")
	}
	if summary.Submissions, err = s.submissions.Count(ctx); err != nil {
		return nil, fail(err, "submissions")
	}
	if summary.ActiveTests, err = s.sessions.CountActive(ctx, summary.GeneratedAt); err != nil {
		return nil, fail(err, "test_sessions")
	}
	recent, _, err := s.timetables.List(ctx, models.TimetableFilter{Page: 1, PageSize: s.cfg.RecentLimit})
	if err != nil {
		return nil, fail(err, "recent_timetables")
	}
	summary.RecentTimetables = make([]models.TimetableSummary, 0, len(recent))
	for _, t := range recent {
		summary.RecentTimetables = append(summary.RecentTimetables, t.Summary())
	}
	return summary, nil
}
