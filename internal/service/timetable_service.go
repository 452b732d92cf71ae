package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	"github.com/noah-isme/eduvita-api/internal/timetable"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/export"
)

type timetableRepository interface {
	Create(ctx context.Context, t *models.Timetable) error
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	Delete(ctx context.Context, id string) error
}

type documentRenderer interface {
	RenderDocument(doc export.Document) ([]byte, error)
}

// TimetableList is the cached shape of a timetable listing.
type TimetableList struct {
	Items      []models.Timetable `json:"items"`
	Pagination models.Pagination  `json:"pagination"`
}

// TimetableService generates, stores and renders weekly timetables.
type TimetableService struct {
	repo      timetableRepository
	cache     *CacheService
	audit     auditWriter
	metrics   *MetricsService
	renderer  documentRenderer
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(repo timetableRepository, cache *CacheService, audit auditWriter, metrics *MetricsService, renderer documentRenderer, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if renderer == nil {
		renderer = export.NewPDFExporter()
	}
	return &TimetableService{
		repo: repo, cache: cache, audit: audit, metrics: metrics, renderer: renderer,
		validator: validate, logger: logger, cacheTTL: cacheTTL,
	}
}

// Catalog returns the departments, weekdays and default pairs for the form.
func (s *TimetableService) Catalog() dto.TimetableCatalogResponse {
	pairs := make(map[string][]timetable.Pair, len(timetable.Departments))
	for _, dept := range timetable.Departments {
		pairs[dept], _ = timetable.CatalogFor(dept)
	}
	return dto.TimetableCatalogResponse{
		Departments: append([]string(nil), timetable.Departments...),
		Days:        append([]string(nil), timetable.DefaultDays...),
		Pairs:       pairs,
		Defaults: dto.TimetableDefaults{
			Periods:    timetable.DefaultPeriods,
			StartTime:  timetable.DefaultStartTime,
			EndTime:    timetable.DefaultEndTime,
			BreakStart: timetable.DefaultBreakStart,
			BreakEnd:   timetable.DefaultBreakEnd,
		},
	}
}

// Preview generates a timetable without storing it.
func (s *TimetableService) Preview(ctx context.Context, req dto.GenerateTimetableRequest) (*models.Timetable, error) {
	return s.generate(req)
}

// Create generates and stores a timetable.
func (s *TimetableService) Create(ctx context.Context, req dto.GenerateTimetableRequest, meta RequestMeta) (*models.Timetable, error) {
	t, err := s.generate(req)
	if err != nil {
		return nil, err
	}
	if meta.ActorID != "" {
		t.CreatedBy = &meta.ActorID
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save timetable")
	}
	s.cache.Invalidate(ctx, cacheNSTimetables)
	s.cache.Invalidate(ctx, cacheNSDashboard)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionTimetableCreate, "timetables", t.ID, nil,
		map[string]interface{}{"department": t.Department, "periods": t.PeriodCount, "randomized": t.Randomized})
	s.logger.Info("timetable created", zap.String("id", t.ID), zap.String("department", t.Department))
	return t, nil
}

// List returns stored timetables newest first and reports whether the cache served it.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, *models.Pagination, bool, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	key := CacheKey(cacheNSTimetables, "list", filter.Department, strconv.Itoa(page), strconv.Itoa(size))

	var cached TimetableList
	if s.cache.Get(ctx, key, &cached) {
		return cached.Items, &cached.Pagination, true, nil
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	result := TimetableList{Items: items, Pagination: models.Pagination{Page: page, PageSize: size, TotalCount: total}}
	s.cache.Set(ctx, key, result, s.cacheTTL)
	return result.Items, &result.Pagination, false, nil
}

// Get loads one timetable.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return t, nil
}

// Delete removes a timetable.
func (s *TimetableService) Delete(ctx context.Context, id string, meta RequestMeta) error {
	if !validID(id) {
		return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	s.cache.Invalidate(ctx, cacheNSTimetables)
	s.cache.Invalidate(ctx, cacheNSDashboard)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionTimetableDelete, "timetables", id, nil, nil)
	return nil
}

// RenderPDF renders a stored timetable as a landscape weekly grid.
func (s *TimetableService) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	data, err := s.renderer.RenderDocument(TimetableDocument(t))
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return data, fmt.Sprintf("timetable_%s_%s.pdf", slug(t.Department), t.CreatedAt.Format("20060102")), nil
}

// TimetableDocument lays the schedule out as periods by days; break periods
// are shaded and read BREAK in every day column.
func TimetableDocument(t *models.Timetable) export.Document {
	headers := append([]string{"Period", "Time"}, t.DaysOpen...)
	breaks := make(map[int]bool, len(t.BreakPeriods))
	for _, i := range t.BreakPeriods {
		breaks[i] = true
	}

	rows := make([]map[string]string, len(t.TimeSlots))
	for i, slot := range t.TimeSlots {
		row := map[string]string{
			"Period": strconv.Itoa(i + 1),
			"Time":   slot.Start + " - " + slot.End,
		}
		for _, day := range t.DaysOpen {
			if breaks[i] {
				row[day] = "BREAK"
				continue
			}
			if seq := t.Schedule[day]; i < len(seq) {
				row[day] = seq[i].Subject + " (" + seq[i].Teacher + ")"
			}
		}
		rows[i] = row
	}

	return export.Document{
		Title:     "Timetable - " + t.Department,
		Subtitle:  fmt.Sprintf("%s to %s, break %s - %s", t.StartTime, t.EndTime, t.BreakSlot.Start, t.BreakSlot.End),
		Landscape: true,
		Sections: []export.Section{{
			Data:     export.Dataset{Headers: headers, Rows: rows},
			Emphasis: breaks,
		}},
	}
}

func (s *TimetableService) generate(req dto.GenerateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}
	if !timetable.IsDepartment(req.Department) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown department %q; expected one of %s", req.Department, strings.Join(timetable.Departments, ", ")))
	}

	opts := timetable.Options{Randomize: req.Randomize}
	var seed *int64
	if req.Randomize {
		value := time.Now().UnixNano()
		if req.Seed != nil {
			value = *req.Seed
		}
		seed = &value
		opts.Rand = rand.New(rand.NewSource(value))
	}
	pairs := req.ToPairs()
	schedule, err := timetable.GenerateSchedule(req.Days, req.Periods, pairs, opts)
	if err != nil {
		return nil, translateTimetableError(err)
	}
	days, err := timetable.NormalizeDays(req.Days)
	if err != nil {
		return nil, translateTimetableError(err)
	}

	slots, err := timetable.GenerateSlots(req.Periods, req.StartTime, req.EndTime)
	if err != nil {
		return nil, translateTimetableError(err)
	}
	dayStart, dayEnd, _ := timetable.ValidateRange(req.StartTime, req.EndTime)
	breakStart, breakEnd, err := timetable.ValidateRange(req.BreakStart, req.BreakEnd)
	if err != nil {
		return nil, translateTimetableError(err)
	}
	if breakStart.Before(dayStart) || breakEnd.After(dayEnd) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTimeRange, "break must fall within the teaching day")
	}
	brk := timetable.TimeSlot{Start: breakStart.Format("15:04"), End: breakEnd.Format("15:04")}

	s.metrics.RecordTimetable(req.Randomize)
	return &models.Timetable{
		Department:   strings.TrimSpace(req.Department),
		DaysOpen:     days,
		PeriodCount:  req.Periods,
		StartTime:    dayStart.Format("15:04"),
		EndTime:      dayEnd.Format("15:04"),
		TimeSlots:    slots,
		BreakSlot:    brk,
		BreakPeriods: timetable.BreakPeriods(slots, brk),
		Pairs:        pairs,
		Schedule:     schedule,
		Randomized:   req.Randomize,
		Seed:         seed,
	}, nil
}

func translateTimetableError(err error) error {
	msg := strings.TrimPrefix(err.Error(), "timetable: ")
	switch {
	case errors.Is(err, timetable.ErrEmptySelection):
		return appErrors.Clone(appErrors.ErrEmptySelection, "")
	case errors.Is(err, timetable.ErrInvalidTimeRange):
		return appErrors.Wrap(err, appErrors.ErrInvalidTimeRange.Code, appErrors.ErrInvalidTimeRange.Status, msg)
	case errors.Is(err, timetable.ErrInvalidInput):
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate timetable")
}

func slug(v string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(v) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
