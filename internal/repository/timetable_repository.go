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

	"github.com/noah-isme/eduvita-api/internal/models"
)

// timetableRow keeps the generated timetable as an opaque JSONB document and
// lifts the fields used for filtering into columns.
type timetableRow struct {
	ID          string         `db:"id"`
	Department  string         `db:"department"`
	PeriodCount int            `db:"period_count"`
	Randomized  bool           `db:"randomized"`
	CreatedBy   *string        `db:"created_by"`
	CreatedAt   time.Time      `db:"created_at"`
	Document    types.JSONText `db:"document"`
}

func (row timetableRow) toModel() (models.Timetable, error) {
	var t models.Timetable
	if err := row.Document.Unmarshal(&t); err != nil {
		return t, fmt.Errorf("decode timetable %s: %w", row.ID, err)
	}
	t.ID, t.CreatedAt, t.CreatedBy = row.ID, row.CreatedAt, row.CreatedBy
	return t, nil
}

const timetableColumns = "id, department, period_count, randomized, created_by, created_at, document"

// TimetableRepository persists generated timetables.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// Create inserts the timetable, assigning its id and creation time.
func (r *TimetableRepository) Create(ctx context.Context, t *models.Timetable) error {
	if t == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode timetable: %w", err)
	}
	row := timetableRow{
		ID:          t.ID,
		Department:  t.Department,
		PeriodCount: t.PeriodCount,
		Randomized:  t.Randomized,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		Document:    types.JSONText(doc),
	}
	const query = `INSERT INTO timetables (id, department, period_count, randomized, created_by, created_at, document) VALUES (:id, :department, :period_count, :randomized, :created_by, :created_at, :document)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert timetable: %w", err)
	}
	return nil
}

// List returns full timetables newest first.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	base := `FROM timetables`
	var args []interface{}
	if filter.Department != "" {
		args = append(args, filter.Department)
		base += ` WHERE department = $1`
	}
	page, size := models.NormalizePage(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", timetableColumns, base, size, (page-1)*size)
	var rows []timetableRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}
	items := make([]models.Timetable, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}
	return items, total, nil
}

// FindByID loads a full timetable.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := "SELECT " + timetableColumns + " FROM timetables WHERE id = $1"
	var row timetableRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find timetable: %w", err)
	}
	t, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a timetable, returning sql.ErrNoRows when absent.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete timetable: %w", err)
	}
	return requireAffected(res, "delete timetable")
}

// Count returns the number of stored timetables.
func (r *TimetableRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM timetables`); err != nil {
		return 0, fmt.Errorf("count timetables: %w", err)
	}
	return total, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
