package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dkarlsen/stagewatch/internal/db"
	"github.com/dkarlsen/stagewatch/internal/domain"
)

// SQLiteRuleRepo implements RuleRepo using a SQLite database. The two rule
// shapes share one table tagged by trigger_kind; the Go side reconstructs
// the typed trigger on scan.
type SQLiteRuleRepo struct {
	db db.DBTX
}

// NewSQLiteRuleRepo creates a new SQLiteRuleRepo.
func NewSQLiteRuleRepo(dbtx db.DBTX) *SQLiteRuleRepo {
	return &SQLiteRuleRepo{db: dbtx}
}

const ruleColumns = `id, project_type_id, category, channel, notification_type_id, template_id,
	has_client_task, is_active, trigger_kind, stage_id, date_reference, offset_type, offset_days,
	created_at, updated_at`

func (r *SQLiteRuleRepo) Create(ctx context.Context, rule *domain.NotificationRule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("validating rule: %w", err)
	}

	var stageID, dateRef, offsetType interface{}
	var offsetDays interface{}
	switch t := rule.Trigger.(type) {
	case domain.StageTrigger:
		stageID = t.StageID
	case domain.DateOffsetTrigger:
		dateRef = string(t.Reference)
		offsetType = string(t.OffsetType)
		offsetDays = t.OffsetDays
	}

	query := `INSERT INTO notification_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rule.ID,
		rule.ProjectTypeID,
		string(rule.Category),
		string(rule.Channel),
		rule.NotificationTypeID,
		rule.TemplateID,
		boolToInt(rule.HasClientTask),
		boolToInt(rule.IsActive),
		string(rule.Trigger.Kind()),
		stageID,
		dateRef,
		offsetType,
		offsetDays,
		rule.CreatedAt.Format(time.RFC3339),
		rule.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting notification rule: %w", err)
	}
	return nil
}

func (r *SQLiteRuleRepo) GetByID(ctx context.Context, id string) (*domain.NotificationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM notification_rules WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	rule, err := scanRule(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("notification rule: %w", ErrNotFound)
	}
	return rule, err
}

func (r *SQLiteRuleRepo) ListByType(ctx context.Context, projectTypeID string) ([]*domain.NotificationRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM notification_rules WHERE project_type_id = ? ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, projectTypeID)
	if err != nil {
		return nil, fmt.Errorf("listing notification rules: %w", err)
	}
	defer rows.Close()

	var out []*domain.NotificationRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rules: %w", err)
	}
	return out, nil
}

func (r *SQLiteRuleRepo) SetActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE notification_rules SET is_active = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, boolToInt(active), nowUTC(), id)
	if err != nil {
		return fmt.Errorf("toggling notification rule: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("toggling notification rule: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("notification rule: %w", ErrNotFound)
	}
	return nil
}

func scanRule(row scanner) (*domain.NotificationRule, error) {
	var rule domain.NotificationRule
	var category, channel, triggerKind string
	var hasTaskInt, isActiveInt int
	var stageID, dateRef, offsetType sql.NullString
	var offsetDays sql.NullInt64
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&rule.ID, &rule.ProjectTypeID, &category, &channel,
		&rule.NotificationTypeID, &rule.TemplateID,
		&hasTaskInt, &isActiveInt, &triggerKind,
		&stageID, &dateRef, &offsetType, &offsetDays,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning notification rule: %w", err)
	}

	rule.Category = domain.Category(category)
	rule.Channel = domain.Channel(channel)
	rule.HasClientTask = intToBool(hasTaskInt)
	rule.IsActive = intToBool(isActiveInt)

	switch domain.TriggerKind(triggerKind) {
	case domain.TriggerStageEntry, domain.TriggerStageExit:
		rule.Trigger = domain.StageTrigger{
			StageID: stageID.String,
			On:      domain.TriggerKind(triggerKind),
		}
	case domain.TriggerDateOffset:
		rule.Trigger = domain.DateOffsetTrigger{
			Reference:  domain.DateReference(dateRef.String),
			OffsetType: domain.OffsetType(offsetType.String),
			OffsetDays: int(offsetDays.Int64),
		}
	default:
		return nil, fmt.Errorf("unknown trigger kind %q", triggerKind)
	}

	var parseErr error
	rule.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	rule.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &rule, nil
}
