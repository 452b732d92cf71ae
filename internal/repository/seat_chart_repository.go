package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"

	"github.com/noah-isme/eduvita-api/internal/allocation"
	"github.com/noah-isme/eduvita-api/internal/models"
)

const seatChartColumns = "id, title, source, format, file_name, file_path, size_bytes, grid, demand, created_by, created_at"

type seatChartRow struct {
	ID        string                 `db:"id"`
	Title     string                 `db:"title"`
	Source    models.SeatChartSource `db:"source"`
	Format    models.SeatChartFormat `db:"format"`
	FileName  string                 `db:"file_name"`
	FilePath  string                 `db:"file_path"`
	SizeBytes int64                  `db:"size_bytes"`
	Grid      types.NullJSONText     `db:"grid"`
	Demand    types.JSONText         `db:"demand"`
	CreatedBy *string                `db:"created_by"`
	CreatedAt time.Time              `db:"created_at"`
}

func (row seatChartRow) toModel() (models.SeatChart, error) {
	chart := models.SeatChart{
		ID: row.ID, Title: row.Title, Source: row.Source, Format: row.Format,
		FileName: row.FileName, FilePath: row.FilePath, SizeBytes: row.SizeBytes,
		CreatedBy: row.CreatedBy, CreatedAt: row.CreatedAt,
	}
	if row.Grid.Valid {
		var grid allocation.RoomGrid
		if err := row.Grid.Unmarshal(&grid); err != nil {
			return chart, fmt.Errorf("decode seat chart grid: %w", err)
		}
		chart.Grid = &grid
	}
	if len(row.Demand) > 0 {
		if err := row.Demand.Unmarshal(&chart.Demand); err != nil {
			return chart, fmt.Errorf("decode seat chart demand: %w", err)
		}
	}
	return chart, nil
}

// SeatChartRepository stores metadata for exported seating plans.
type SeatChartRepository struct {
	db *sqlx.DB
}

// NewSeatChartRepository constructs a SeatChartRepository.
func NewSeatChartRepository(db *sqlx.DB) *SeatChartRepository {
	return &SeatChartRepository{db: db}
}

// Create inserts chart metadata.
func (r *SeatChartRepository) Create(ctx context.Context, chart *models.SeatChart) error {
	if chart.ID == "" {
		chart.ID = uuid.NewString()
	}
	if chart.CreatedAt.IsZero() {
		chart.CreatedAt = time.Now().UTC()
	}
	row := seatChartRow{
		ID: chart.ID, Title: chart.Title, Source: chart.Source, Format: chart.Format,
		FileName: chart.FileName, FilePath: chart.FilePath, SizeBytes: chart.SizeBytes,
		Demand: types.JSONText(`[]`), CreatedBy: chart.CreatedBy, CreatedAt: chart.CreatedAt,
	}
	if chart.Grid != nil {
		raw, err := json.Marshal(chart.Grid)
		if err != nil {
			return fmt.Errorf("encode seat chart grid: %w", err)
		}
		row.Grid = types.NullJSONText{JSONText: raw, Valid: true}
	}
	if len(chart.Demand) > 0 {
		raw, err := json.Marshal(chart.Demand)
		if err != nil {
			return fmt.Errorf("encode seat chart demand: %w", err)
		}
		row.Demand = raw
	}

	const query = `INSERT INTO seat_charts (id, title, source, format, file_name, file_path, size_bytes, grid, demand, created_by, created_at) VALUES (:id, :title, :source, :format, :file_name, :file_path, :size_bytes, :grid, :demand, :created_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert seat chart: %w", err)
	}
	return nil
}

// List returns charts newest first.
func (r *SeatChartRepository) List(ctx context.Context, page, size int) ([]models.SeatChart, int, error) {
	page, size = models.NormalizePage(page, size)
	query := fmt.Sprintf("SELECT %s FROM seat_charts ORDER BY created_at DESC LIMIT %d OFFSET %d", seatChartColumns, size, (page-1)*size)
	var rows []seatChartRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, 0, fmt.Errorf("list seat charts: %w", err)
	}
	charts := make([]models.SeatChart, 0, len(rows))
	for _, row := range rows {
		chart, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		charts = append(charts, chart)
	}
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return charts, total, nil
}

// FindByID loads one chart.
func (r *SeatChartRepository) FindByID(ctx context.Context, id string) (*models.SeatChart, error) {
	var row seatChartRow
	if err := r.db.GetContext(ctx, &row, "SELECT "+seatChartColumns+" FROM seat_charts WHERE id = $1", id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find seat chart: %w", err)
	}
	chart, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &chart, nil
}

// Delete removes chart metadata, returning sql.ErrNoRows when absent.
func (r *SeatChartRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_charts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete seat chart: %w", err)
	}
	return requireAffected(res, "delete seat chart")
}

// DeleteByFilePaths drops metadata whose files were purged from storage.
func (r *SeatChartRepository) DeleteByFilePaths(ctx context.Context, paths []string) (int64, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM seat_charts WHERE file_path = ANY($1)`, pq.Array(paths))
	if err != nil {
		return 0, fmt.Errorf("delete seat charts by path: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored charts.
func (r *SeatChartRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM seat_charts`); err != nil {
		return 0, fmt.Errorf("count seat charts: %w", err)
	}
	return total, nil
}
