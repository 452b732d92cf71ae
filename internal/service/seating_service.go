package service

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/eduvita-api/internal/allocation"
	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/export"
	"github.com/noah-isme/eduvita-api/pkg/storage"
)

type seatChartRepository interface {
	Create(ctx context.Context, chart *models.SeatChart) error
	List(ctx context.Context, page, size int) ([]models.SeatChart, int, error)
	FindByID(ctx context.Context, id string) (*models.SeatChart, error)
	Delete(ctx context.Context, id string) error
	DeleteByFilePaths(ctx context.Context, paths []string) (int64, error)
}

type fileStore interface {
	Save(name string, data []byte) (string, error)
	SaveStream(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(objectID, name string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (objectID, name string, expiresAt time.Time, err error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

const seatChartDir = "seating"

// SeatingConfig tunes chart storage.
type SeatingConfig struct {
	// DownloadBase prefixes signed tokens, e.g. /api/v1/files.
	DownloadBase     string
	RetentionTTL     time.Duration
	MaxUploadBytes   int64
	AllowedMIMETypes []string
}

// SeatingService allocates exam seats and manages exported seat charts.
type SeatingService struct {
	repo      seatChartRepository
	store     fileStore
	signer    urlSigner
	pdf       documentRenderer
	csv       datasetRenderer
	audit     auditWriter
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       SeatingConfig
	now       func() time.Time
}

// SeatingServiceParams groups constructor dependencies.
type SeatingServiceParams struct {
	Repo      seatChartRepository
	Store     fileStore
	Signer    urlSigner
	PDF       documentRenderer
	CSV       datasetRenderer
	Audit     auditWriter
	Cache     *CacheService
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
	Config    SeatingConfig
}

// NewSeatingService constructs a SeatingService with defaults for optional collaborators.
func NewSeatingService(p SeatingServiceParams) *SeatingService {
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.PDF == nil {
		p.PDF = export.NewPDFExporter()
	}
	if p.CSV == nil {
		p.CSV = export.NewCSVExporter()
	}
	if p.Config.DownloadBase == "" {
		p.Config.DownloadBase = "/api/v1/files"
	}
	if p.Config.MaxUploadBytes <= 0 {
		p.Config.MaxUploadBytes = 10 * 1024 * 1024
	}
	if len(p.Config.AllowedMIMETypes) == 0 {
		p.Config.AllowedMIMETypes = []string{"application/pdf"}
	}
	return &SeatingService{
		repo: p.Repo, store: p.Store, signer: p.Signer, pdf: p.PDF, csv: p.CSV,
		audit: p.Audit, cache: p.Cache, metrics: p.Metrics, validator: p.Validator,
		logger: p.Logger, cfg: p.Config, now: time.Now,
	}
}

// Allocate computes a seating plan without storing anything.
func (s *SeatingService) Allocate(ctx context.Context, req dto.AllocateSeatsRequest) (*dto.AllocateSeatsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid allocation payload")
	}
	grid, demand := req.Grid(), req.Demand()

	seats, err := allocation.Allocate(grid, demand)
	if err != nil {
		switch {
		case errors.Is(err, allocation.ErrCapacityExceeded):
			s.metrics.RecordAllocation("capacity_exceeded", 0)
			total, capacity := allocation.Total(demand), grid.Capacity()
			return nil, appErrors.WithDetails(
				appErrors.Clone(appErrors.ErrCapacityExceeded, fmt.Sprintf("%d students cannot fit in %d seats", total, capacity)),
				map[string]int{"capacity": capacity, "requested": total},
			)
		case errors.Is(err, allocation.ErrInvalidInput):
			s.metrics.RecordAllocation("invalid", 0)
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, strings.TrimPrefix(err.Error(), "allocation: "))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate seats")
	}

	assigned := seats.Assigned()
	s.metrics.RecordAllocation("ok", assigned)
	return &dto.AllocateSeatsResponse{
		Grid:          grid,
		Capacity:      grid.Capacity(),
		TotalStudents: assigned,
		EmptySeats:    grid.Capacity() - assigned,
		Seats:         seats,
		Summary:       seats.Summary(),
	}, nil
}

// CreateChart allocates, renders and stores a seat chart.
func (s *SeatingService) CreateChart(ctx context.Context, req dto.CreateSeatChartRequest, meta RequestMeta) (*dto.SeatChartResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid seat chart payload")
	}
	plan, err := s.Allocate(ctx, req.AllocateSeatsRequest)
	if err != nil {
		return nil, err
	}

	format := models.SeatChartFormat(req.Format)
	if format == "" {
		format = models.SeatChartPDF
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Examination Seating Plan"
	}

	var data []byte
	if format == models.SeatChartCSV {
		data, err = s.csv.Render(SeatDataset(plan.Seats))
	} else {
		data, err = s.pdf.RenderDocument(SeatChartDocument(title, plan))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render seat chart")
	}

	grid := plan.Grid
	chart := &models.SeatChart{
		ID:        uuid.NewString(),
		Title:     title,
		Source:    models.SeatChartGenerated,
		Format:    format,
		FileName:  fmt.Sprintf("seating_%d.%s", s.now().UnixMilli(), format),
		SizeBytes: int64(len(data)),
		Grid:      &grid,
		Demand:    req.Demand(),
	}
	chart.FilePath = path.Join(seatChartDir, chart.ID, chart.FileName)
	if _, err := s.store.Save(chart.FilePath, data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store seat chart")
	}
	return s.persist(ctx, chart, meta, models.AuditActionSeatChartCreate)
}

// UploadChart stores a client-rendered PDF chart read from r.
func (s *SeatingService) UploadChart(ctx context.Context, contentType string, size int64, r io.Reader, meta RequestMeta) (*dto.SeatChartResponse, error) {
	if size > s.cfg.MaxUploadBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes))
	}
	if !s.allowedType(contentType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "only PDF files are accepted")
	}
	br := bufio.NewReader(r)
	if head, err := br.Peek(5); err != nil || !bytes.Equal(head, []byte("%PDF-")) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is not a PDF document")
	}

	chart := &models.SeatChart{
		ID:       uuid.NewString(),
		Title:    "Uploaded seating plan",
		Source:   models.SeatChartUploaded,
		Format:   models.SeatChartPDF,
		FileName: "allocation_" + strconv.FormatInt(s.now().UnixMilli(), 10) + ".pdf",
	}
	chart.FilePath = path.Join(seatChartDir, chart.ID, chart.FileName)

	written, err := s.store.SaveStream(chart.FilePath, io.LimitReader(br, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	if written > s.cfg.MaxUploadBytes {
		s.removeFile(chart.FilePath)
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxUploadBytes))
	}
	chart.SizeBytes = written
	return s.persist(ctx, chart, meta, models.AuditActionSeatChartUpload)
}

// ListCharts returns stored charts newest first with fresh download links.
func (s *SeatingService) ListCharts(ctx context.Context, page, size int) ([]dto.SeatChartResponse, *models.Pagination, error) {
	page, size = models.NormalizePage(page, size)
	charts, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list seat charts")
	}
	out := make([]dto.SeatChartResponse, 0, len(charts))
	for _, chart := range charts {
		res, err := s.withLink(chart)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, *res)
	}
	return out, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// DeleteChart removes the chart record and its file.
func (s *SeatingService) DeleteChart(ctx context.Context, id string, meta RequestMeta) error {
	chart, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "seat chart not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete seat chart")
	}
	s.removeFile(chart.FilePath)
	s.cache.Invalidate(ctx, cacheNSDashboard)
	writeAudit(ctx, s.audit, s.logger, meta, models.AuditActionSeatChartDelete, "seat_charts", id, map[string]string{"file": chart.FileName}, nil)
	return nil
}

// Open resolves a signed token to the stored chart. The caller closes the file.
func (s *SeatingService) Open(ctx context.Context, token string) (*os.File, *models.SeatChart, error) {
	id, name, _, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	chart, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if chart.FileName != name {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	file, err := s.store.Open(chart.FilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "seat chart file not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open seat chart")
	}
	return file, chart, nil
}

// Cleanup removes files older than the retention window and their records.
func (s *SeatingService) Cleanup(ctx context.Context) (int, error) {
	if s.cfg.RetentionTTL <= 0 {
		return 0, nil
	}
	removed, err := s.store.CleanupOlderThan(s.cfg.RetentionTTL)
	if err != nil {
		return 0, err
	}
	if len(removed) == 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteByFilePaths(ctx, removed)
	if err != nil {
		return len(removed), err
	}
	s.cache.Invalidate(ctx, cacheNSDashboard)
	s.logger.Info("expired seat charts removed", zap.Int("files", len(removed)), zap.Int64("records", n))
	return len(removed), nil
}

// RunCleanup calls Cleanup every interval until ctx is done.
func (s *SeatingService) RunCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Cleanup(ctx); err != nil {
				s.logger.Warn("seat chart cleanup failed", zap.Error(err))
			}
		}
	}
}

func (s *SeatingService) persist(ctx context.Context, chart *models.SeatChart, meta RequestMeta, action string) (*dto.SeatChartResponse, error) {
	if meta.ActorID != "" {
		chart.CreatedBy = &meta.ActorID
	}
	if err := s.repo.Create(ctx, chart); err != nil {
		s.removeFile(chart.FilePath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save seat chart")
	}
	s.cache.Invalidate(ctx, cacheNSDashboard)
	writeAudit(ctx, s.audit, s.logger, meta, action, "seat_charts", chart.ID, nil,
		map[string]interface{}{"file": chart.FileName, "format": chart.Format, "size": chart.SizeBytes})
	return s.withLink(*chart)
}

func (s *SeatingService) withLink(chart models.SeatChart) (*dto.SeatChartResponse, error) {
	token, expires, err := s.signer.Generate(chart.ID, chart.FileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return &dto.SeatChartResponse{
		Chart:       chart,
		DownloadURL: strings.TrimRight(s.cfg.DownloadBase, "/") + "/" + token,
		ExpiresAt:   expires,
	}, nil
}

func (s *SeatingService) find(ctx context.Context, id string) (*models.SeatChart, error) {
	if !validID(id) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "seat chart not found")
	}
	chart, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "seat chart not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load seat chart")
	}
	return chart, nil
}

func (s *SeatingService) allowedType(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for _, allowed := range s.cfg.AllowedMIMETypes {
		if ct == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func (s *SeatingService) removeFile(name string) {
	if err := s.store.Delete(name); err != nil {
		s.logger.Warn("failed to remove seat chart file", zap.String("path", name), zap.Error(err))
	}
}

// SeatDataset flattens an allocation into one row per seat, empty seats included.
func SeatDataset(seats allocation.Allocation) export.Dataset {
	ds := export.Dataset{Headers: []string{"Floor", "Room", "Seat", "Department"}}
	for f, floor := range seats {
		for r, room := range floor {
			for i, dept := range room {
				ds.Rows = append(ds.Rows, map[string]string{
					"Floor":      strconv.Itoa(f + 1),
					"Room":       strconv.Itoa(r + 1),
					"Seat":       strconv.Itoa(i + 1),
					"Department": dept,
				})
			}
		}
	}
	return ds
}

// SeatChartDocument renders a summary table followed by one table per room.
func SeatChartDocument(title string, plan *dto.AllocateSeatsResponse) export.Document {
	summary := export.Dataset{Headers: []string{"Department", "Students", "Rooms"}}
	for _, d := range plan.Summary {
		rooms := make([]string, len(d.Rooms))
		for i, r := range d.Rooms {
			rooms[i] = fmt.Sprintf("F%d-R%d", r.Floor, r.Room)
		}
		summary.Rows = append(summary.Rows, map[string]string{
			"Department": d.Department,
			"Students":   strconv.Itoa(d.Seats),
			"Rooms":      strings.Join(rooms, ", "),
		})
	}
	sections := []export.Section{{Title: "Summary", Data: summary}}

	for f, floor := range plan.Seats {
		for r, room := range floor {
			ds := export.Dataset{Headers: []string{"Seat", "Department"}}
			empty := map[int]bool{}
			for i, dept := range room {
				if dept == "" {
					empty[i] = true
					dept = "-"
				}
				ds.Rows = append(ds.Rows, map[string]string{"Seat": strconv.Itoa(i + 1), "Department": dept})
			}
			sections = append(sections, export.Section{
				Title:    fmt.Sprintf("Floor %d - Room %d", f+1, r+1),
				Data:     ds,
				Emphasis: empty,
			})
		}
	}

	return export.Document{
		Title:          title,
		Subtitle:       fmt.Sprintf("%d students, %d seats, %d empty", plan.TotalStudents, plan.Capacity, plan.EmptySeats),
		Sections:       sections,
		PageBreakEvery: 2,
	}
}
