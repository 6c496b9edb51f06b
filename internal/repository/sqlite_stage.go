package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dkarlsen/stagewatch/internal/db"
	"github.com/dkarlsen/stagewatch/internal/domain"
)

// SQLiteStageRepo implements StageRepo using a SQLite database.
type SQLiteStageRepo struct {
	db db.DBTX
}

// NewSQLiteStageRepo creates a new SQLiteStageRepo.
func NewSQLiteStageRepo(dbtx db.DBTX) *SQLiteStageRepo {
	return &SQLiteStageRepo{db: dbtx}
}

const stageColumns = `id, project_type_id, name, sort_order, color, assigned_role,
	max_instance_time_hours, max_total_time_hours, is_final, created_at, updated_at`

func (r *SQLiteStageRepo) Create(ctx context.Context, s *domain.Stage) error {
	query := `INSERT INTO stages (` + stageColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.ProjectTypeID,
		s.Name,
		s.Order,
		s.Color,
		s.AssignedRole,
		nullableFloatToValue(s.MaxInstanceTimeHours),
		nullableFloatToValue(s.MaxTotalTimeHours),
		boolToInt(s.IsFinal),
		s.CreatedAt.Format(time.RFC3339),
		s.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("stage order %d already taken in type %s: %w",
				s.Order, s.ProjectTypeID, ErrConflict)
		}
		return fmt.Errorf("inserting stage: %w", err)
	}
	return nil
}

func (r *SQLiteStageRepo) GetByID(ctx context.Context, id string) (*domain.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	s, err := scanStage(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stage: %w", ErrNotFound)
	}
	return s, err
}

func (r *SQLiteStageRepo) ListByType(ctx context.Context, projectTypeID string) ([]*domain.Stage, error) {
	query := `SELECT ` + stageColumns + ` FROM stages WHERE project_type_id = ? ORDER BY sort_order`
	rows, err := r.db.QueryContext(ctx, query, projectTypeID)
	if err != nil {
		return nil, fmt.Errorf("listing stages: %w", err)
	}
	defer rows.Close()

	var stages []*domain.Stage
	for rows.Next() {
		s, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		stages = append(stages, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stages: %w", err)
	}
	return stages, nil
}

func (r *SQLiteStageRepo) Update(ctx context.Context, s *domain.Stage) error {
	query := `UPDATE stages SET name = ?, sort_order = ?, color = ?, assigned_role = ?,
		max_instance_time_hours = ?, max_total_time_hours = ?, is_final = ?, updated_at = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		s.Name,
		s.Order,
		s.Color,
		s.AssignedRole,
		nullableFloatToValue(s.MaxInstanceTimeHours),
		nullableFloatToValue(s.MaxTotalTimeHours),
		boolToInt(s.IsFinal),
		s.UpdatedAt.Format(time.RFC3339),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("updating stage: %w", err)
	}
	return nil
}

func (r *SQLiteStageRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM stages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting stage: %w", err)
	}
	return nil
}

func (r *SQLiteStageRepo) CountReferences(ctx context.Context, id string) (int, error) {
	query := `SELECT
		(SELECT COUNT(*) FROM chronology_entries WHERE to_stage_id = ? OR from_stage_id = ?) +
		(SELECT COUNT(*) FROM notification_rules WHERE stage_id = ?)`
	var count int
	if err := r.db.QueryRowContext(ctx, query, id, id, id).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting stage references: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

func scanStage(row scanner) (*domain.Stage, error) {
	var s domain.Stage
	var maxInstance, maxTotal sql.NullFloat64
	var isFinalInt int
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&s.ID, &s.ProjectTypeID, &s.Name, &s.Order, &s.Color, &s.AssignedRole,
		&maxInstance, &maxTotal, &isFinalInt, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning stage: %w", err)
	}

	if maxInstance.Valid {
		v := maxInstance.Float64
		s.MaxInstanceTimeHours = &v
	}
	if maxTotal.Valid {
		v := maxTotal.Float64
		s.MaxTotalTimeHours = &v
	}
	s.IsFinal = intToBool(isFinalInt)

	var parseErr error
	s.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	s.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &s, nil
}
