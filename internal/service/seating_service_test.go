package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduvita-api/internal/allocation"
	"github.com/noah-isme/eduvita-api/internal/dto"
	"github.com/noah-isme/eduvita-api/internal/models"
	appErrors "github.com/noah-isme/eduvita-api/pkg/errors"
	"github.com/noah-isme/eduvita-api/pkg/storage"
)

type fakeSeatChartRepo struct {
	charts map[string]models.SeatChart
}

func (r *fakeSeatChartRepo) Create(ctx context.Context, chart *models.SeatChart) error {
	if r.charts == nil {
		r.charts = map[string]models.SeatChart{}
	}
	chart.CreatedAt = time.Now().UTC()
	r.charts[chart.ID] = *chart
	return nil
}

func (r *fakeSeatChartRepo) List(ctx context.Context, page, size int) ([]models.SeatChart, int, error) {
	out := make([]models.SeatChart, 0, len(r.charts))
	for _, c := range r.charts {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *fakeSeatChartRepo) FindByID(ctx context.Context, id string) (*models.SeatChart, error) {
	c, ok := r.charts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

func (r *fakeSeatChartRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.charts[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.charts, id)
	return nil
}

func (r *fakeSeatChartRepo) DeleteByFilePaths(ctx context.Context, paths []string) (int64, error) {
	var n int64
	for id, c := range r.charts {
		for _, p := range paths {
			if c.FilePath == p {
				delete(r.charts, id)
				n++
			}
		}
	}
	return n, nil
}

func (r *fakeSeatChartRepo) Count(ctx context.Context) (int, error) {
	return len(r.charts), nil
}

type seatingFixture struct {
	svc   *SeatingService
	repo  *fakeSeatChartRepo
	dir   string
	audit *fakeAudit
}

func newSeatingFixture(t *testing.T, cfg SeatingConfig) *seatingFixture {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	f := &seatingFixture{repo: &fakeSeatChartRepo{}, dir: dir, audit: &fakeAudit{}}
	f.svc = NewSeatingService(SeatingServiceParams{
		Repo:   f.repo,
		Store:  store,
		Signer: storage.NewSignedURLSigner("signing-secret", time.Hour),
		Audit:  f.audit,
		Config: cfg,
	})
	return f
}

func seatRequest(floors, rooms, seats int, demand map[string]int, order ...string) dto.AllocateSeatsRequest {
	req := dto.AllocateSeatsRequest{Floors: floors, RoomsPerFloor: rooms, SeatsPerRoom: seats}
	for _, d := range order {
		req.Departments = append(req.Departments, dto.DepartmentDemandRequest{Department: d, Students: demand[d]})
	}
	return req
}

func TestSeatingAllocate(t *testing.T) {
	f := newSeatingFixture(t, SeatingConfig{})

	res, err := f.svc.Allocate(context.Background(), seatRequest(1, 2, 3, map[string]int{"ME": 1, "IT": 3}, "ME", "IT"))
	require.NoError(t, err)
	assert.Equal(t, 6, res.Capacity)
	assert.Equal(t, 4, res.TotalStudents)
	assert.Equal(t, 2, res.EmptySeats)
	assert.Equal(t, allocation.Allocation{{{"IT", "IT", "IT"}, {"ME", "", ""}}}, res.Seats)
	require.Len(t, res.Summary, 2)
	assert.Equal(t, "IT", res.Summary[0].Department)
}

func TestSeatingAllocateCapacityExceeded(t *testing.T) {
	f := newSeatingFixture(t, SeatingConfig{})

	_, err := f.svc.Allocate(context.Background(), seatRequest(1, 1, 2, map[string]int{"IT": 3}, "IT"))
	require.True(t, errors.Is(err, appErrors.ErrCapacityExceeded))
	appErr := appErrors.FromError(err)
	assert.Equal(t, map[string]int{"capacity": 2, "requested": 3}, appErr.Details)

	_, err = f.svc.Allocate(context.Background(), seatRequest(1, 1, 2, map[string]int{"Physics": 1}, "Physics"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSeatingCreateChartAndDownload(t *testing.T) {
	f := newSeatingFixture(t, SeatingConfig{})
	ctx := context.Background()

	res, err := f.svc.CreateChart(ctx, dto.CreateSeatChartRequest{
		AllocateSeatsRequest: seatRequest(1, 1, 2, map[string]int{"IT": 1}, "IT"),
		Format:               "csv",
	}, RequestMeta{ActorID: "admin-1"})
	require.NoError(t, err)

	assert.Equal(t, models.SeatChartGenerated, res.Chart.Source)
	assert.Equal(t, "Examination Seating Plan", res.Chart.Title)
	assert.True(t, strings.HasPrefix(res.Chart.FileName, "seating_"))
	assert.True(t, strings.HasSuffix(res.Chart.FileName, ".csv"))
	assert.True(t, strings.HasPrefix(res.DownloadURL, "/api/v1/files/"))
	assert.Contains(t, f.repo.charts, res.Chart.ID)
	assert.Equal(t, []string{models.AuditActionSeatChartCreate}, f.audit.actions())

	token := strings.TrimPrefix(res.DownloadURL, "/api/v1/files/")
	file, chart, err := f.svc.Open(ctx, token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, res.Chart.ID, chart.ID)

	body, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Floor,Room,Seat,Department")
	assert.Contains(t, string(body), "1,1,2,")

	_, _, err = f.svc.Open(ctx, token+"x")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestSeatingCreateChartPDF(t *testing.T) {
	f := newSeatingFixture(t, SeatingConfig{})

	res, err := f.svc.CreateChart(context.Background(), dto.CreateSeatChartRequest{
		AllocateSeatsRequest: seatRequest(2, 1, 2, map[string]int{"IT": 2, "ECE": 1}, "IT", "ECE"),
		Title:                "Midterm",
	}, RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.SeatChartPDF, res.Chart.Format)

	data, err := os.ReadFile(filepath.Join(f.dir, filepath.FromSlash(res.Chart.FilePath)))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Equal(t, int64(len(data)), res.Chart.SizeBytes)
}

func TestSeatingUploadChart(t *testing.T) {
	f := newSeatingFixture(t, SeatingConfig{MaxUploadBytes: 32})
	ctx := context.Background()
	pdf := []byte("%PDF-1.4 tiny document")

	_, err := f.svc.UploadChart(ctx, "image/png", int64(len(pdf)), bytes.NewReader(pdf), RequestMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.UploadChart(ctx, "application/pdf", 5, strings.NewReader("hello"), RequestMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "magic bytes are checked")

	_, err = f.svc.UploadChart(ctx, "application/pdf", 100, bytes.NewReader(pdf), RequestMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "declared size is checked")

	big := append([]byte("%PDF-"), bytes.Repeat([]byte("a"), 64)...)
	_, err = f.svc.UploadChart(ctx, "application/pdf", 0, bytes.NewReader(big), RequestMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation), "streamed size is checked")
	assert.Empty(t, f.repo.charts)

	res, err := f.svc.UploadChart(ctx, "application/pdf; charset=binary", int64(len(pdf)), bytes.NewReader(pdf), RequestMeta{ActorID: "admin-1"})
	require.NoError(t, err)
	assert.Equal(t, models.SeatChartUploaded, res.Chart.Source)
	assert.Equal(t, int64(len(pdf)), res.Chart.SizeBytes)
	assert.True(t, strings.HasPrefix(res.Chart.FileName, "allocation_"))

	stored, err := os.ReadFile(filepath.Join(f.dir, filepath.FromSlash(res.Chart.FilePath)))
	require.NoError(t, err)
	assert.Equal(t, pdf, stored)
}

func TestSeatingDeleteChart(t *testing.T) {
	f := newSeatingFixture(t, SeatingConfig{})
	ctx := context.Background()
	res, err := f.svc.CreateChart(ctx, dto.CreateSeatChartRequest{
		AllocateSeatsRequest: seatRequest(1, 1, 1, map[string]int{"IT": 1}, "IT"),
		Format:               "csv",
	}, RequestMeta{})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteChart(ctx, res.Chart.ID, RequestMeta{}))
	_, statErr := os.Stat(filepath.Join(f.dir, filepath.FromSlash(res.Chart.FilePath)))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))

	err = f.svc.DeleteChart(ctx, res.Chart.ID, RequestMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	err = f.svc.DeleteChart(ctx, "not-a-uuid", RequestMeta{})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestSeatingCleanupRemovesExpired(t *testing.T) {
	f := newSeatingFixture(t, SeatingConfig{RetentionTTL: time.Hour})
	ctx := context.Background()
	req := dto.CreateSeatChartRequest{AllocateSeatsRequest: seatRequest(1, 1, 1, map[string]int{"IT": 1}, "IT"), Format: "csv"}

	old, err := f.svc.CreateChart(ctx, req, RequestMeta{})
	require.NoError(t, err)
	fresh, err := f.svc.CreateChart(ctx, req, RequestMeta{})
	require.NoError(t, err)

	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.dir, filepath.FromSlash(old.Chart.FilePath)), stale, stale))

	removed, err := f.svc.Cleanup(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NotContains(t, f.repo.charts, old.Chart.ID)
	assert.Contains(t, f.repo.charts, fresh.Chart.ID)
}

func TestSeatDatasetIncludesEmptySeats(t *testing.T) {
	ds := SeatDataset(allocation.Allocation{{{"IT", ""}}})
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, "", ds.Rows[1]["Department"])
	assert.Equal(t, "2", ds.Rows[1]["Seat"])
}
