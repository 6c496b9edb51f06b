package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dkarlsen/stagewatch/internal/db"
	"github.com/dkarlsen/stagewatch/internal/domain"
)

// SQLiteChronologyRepo implements ChronologyRepo using a SQLite database.
// The table is append-only; there are deliberately no update or delete
// methods.
type SQLiteChronologyRepo struct {
	db db.DBTX
}

// NewSQLiteChronologyRepo creates a new SQLiteChronologyRepo.
func NewSQLiteChronologyRepo(dbtx db.DBTX) *SQLiteChronologyRepo {
	return &SQLiteChronologyRepo{db: dbtx}
}

const chronologyColumns = `id, project_id, from_stage_id, to_stage_id, reason, changed_by, ts, field_responses, created_at`

func (r *SQLiteChronologyRepo) Create(ctx context.Context, e *domain.ChronologyEntry) error {
	responses := e.FieldResponses
	if responses == nil {
		responses = []domain.FieldResponse{}
	}
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return fmt.Errorf("encoding field responses: %w", err)
	}

	var fromStage interface{}
	if e.FromStageID != nil {
		fromStage = *e.FromStageID
	}

	query := `INSERT INTO chronology_entries (` + chronologyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		e.ID,
		e.ProjectID,
		fromStage,
		e.ToStageID,
		e.Reason,
		e.ChangedBy,
		nullableTimeToString(e.Timestamp, time.RFC3339),
		string(responsesJSON),
		e.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting chronology entry: %w", err)
	}
	return nil
}

func (r *SQLiteChronologyRepo) Latest(ctx context.Context, projectID string) (*domain.ChronologyEntry, error) {
	query := `SELECT ` + chronologyColumns + ` FROM chronology_entries
		WHERE project_id = ? ORDER BY ts DESC, created_at DESC LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, projectID)
	e, err := scanChronologyEntry(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("chronology entry: %w", ErrNotFound)
	}
	return e, err
}

func (r *SQLiteChronologyRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.ChronologyEntry, error) {
	query := `SELECT ` + chronologyColumns + ` FROM chronology_entries
		WHERE project_id = ? ORDER BY ts DESC, created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing chronology entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ChronologyEntry
	for rows.Next() {
		e, err := scanChronologyEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chronology entries: %w", err)
	}
	return entries, nil
}

func scanChronologyEntry(row scanner) (*domain.ChronologyEntry, error) {
	var e domain.ChronologyEntry
	var fromStage, tsStr sql.NullString
	var responsesJSON, createdAtStr string

	err := row.Scan(
		&e.ID, &e.ProjectID, &fromStage, &e.ToStageID,
		&e.Reason, &e.ChangedBy, &tsStr, &responsesJSON, &createdAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning chronology entry: %w", err)
	}

	if fromStage.Valid {
		v := fromStage.String
		e.FromStageID = &v
	}
	e.Timestamp = parseNullableTime(tsStr, time.RFC3339)

	if err := json.Unmarshal([]byte(responsesJSON), &e.FieldResponses); err != nil {
		return nil, fmt.Errorf("decoding field responses: %w", err)
	}

	var parseErr error
	e.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	return &e, nil
}
