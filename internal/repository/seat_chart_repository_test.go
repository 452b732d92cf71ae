package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/eduvita-api/internal/allocation"
	"github.com/noah-isme/eduvita-api/internal/models"
)

var seatChartRowColumns = []string{"id", "title", "source", "format", "file_name", "file_path", "size_bytes", "grid", "demand", "created_by", "created_at"}

func TestSeatChartRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSeatChartRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO seat_charts")).WillReturnResult(sqlmock.NewResult(1, 1))

	chart := &models.SeatChart{
		Title: "Mid-term", Source: models.SeatChartGenerated, Format: models.SeatChartPDF,
		FileName: "allocation_1.pdf", FilePath: "seating/allocation_1.pdf",
		Grid:   &allocation.RoomGrid{Floors: 1, RoomsPerFloor: 1, SeatsPerRoom: 5},
		Demand: []allocation.Demand{{Department: "IT", Students: 2}},
	}
	require.NoError(t, repo.Create(context.Background(), chart))
	assert.NotEmpty(t, chart.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatChartRepositoryListDecodes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSeatChartRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + seatChartColumns + " FROM seat_charts ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows(seatChartRowColumns).
			AddRow("c2", "Upload", "uploaded", "pdf", "allocation_2.pdf", "seating/allocation_2.pdf", 10, nil, []byte(`[]`), nil, now).
			AddRow("c1", "Gen", "generated", "csv", "c1.csv", "seating/c1.csv", 20, []byte(`{"floors":1,"roomsPerFloor":2,"seatsPerRoom":3}`), []byte(`[{"department":"ME","students":4}]`), "admin", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM seat_charts")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	charts, total, err := repo.List(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, charts, 2)
	assert.Equal(t, 2, total)
	assert.Nil(t, charts[0].Grid)
	require.NotNil(t, charts[1].Grid)
	assert.Equal(t, 6, charts[1].Grid.Capacity())
	assert.Equal(t, []allocation.Demand{{Department: "ME", Students: 4}}, charts[1].Demand)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatChartRepositoryDeleteByFilePaths(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSeatChartRepository(db)

	n, err := repo.DeleteByFilePaths(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_charts WHERE file_path = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	n, err = repo.DeleteByFilePaths(context.Background(), []string{"a.pdf", "b.pdf"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
