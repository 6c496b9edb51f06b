package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkarlsen/stagewatch/internal/db"
	"github.com/dkarlsen/stagewatch/internal/domain"
)

// SQLiteProjectTypeRepo implements ProjectTypeRepo using a SQLite database.
type SQLiteProjectTypeRepo struct {
	db db.DBTX
}

// NewSQLiteProjectTypeRepo creates a new SQLiteProjectTypeRepo.
func NewSQLiteProjectTypeRepo(dbtx db.DBTX) *SQLiteProjectTypeRepo {
	return &SQLiteProjectTypeRepo{db: dbtx}
}

func (r *SQLiteProjectTypeRepo) Create(ctx context.Context, pt *domain.ProjectType) error {
	query := `INSERT INTO project_types (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		pt.ID,
		pt.Name,
		pt.CreatedAt.Format(time.RFC3339),
		pt.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting project type: %w", err)
	}
	return nil
}

func (r *SQLiteProjectTypeRepo) GetByID(ctx context.Context, id string) (*domain.ProjectType, error) {
	query := `SELECT id, name, created_at, updated_at FROM project_types WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var pt domain.ProjectType
	var createdAtStr, updatedAtStr string
	if err := row.Scan(&pt.ID, &pt.Name, &createdAtStr, &updatedAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project type: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning project type: %w", err)
	}

	var parseErr error
	pt.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	pt.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &pt, nil
}

func (r *SQLiteProjectTypeRepo) List(ctx context.Context) ([]*domain.ProjectType, error) {
	query := `SELECT id, name, created_at, updated_at FROM project_types ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing project types: %w", err)
	}
	defer rows.Close()

	var types []*domain.ProjectType
	for rows.Next() {
		var pt domain.ProjectType
		var createdAtStr, updatedAtStr string
		if err := rows.Scan(&pt.ID, &pt.Name, &createdAtStr, &updatedAtStr); err != nil {
			return nil, fmt.Errorf("scanning project type row: %w", err)
		}
		pt.CreatedAt, _ = time.Parse(time.RFC3339, createdAtStr)
		pt.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)
		types = append(types, &pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project types: %w", err)
	}
	return types, nil
}
