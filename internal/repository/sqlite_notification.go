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

// SQLiteNotificationRepo implements NotificationRepo using a SQLite database.
//
// The unique index on (project_id, rule_id, recipient_id, scheduled_for) is
// the idempotency key for generation, and every status transition is a
// compare-and-swap guarded by the expected prior status, so concurrent
// processing passes cannot both record an outcome for the same row.
type SQLiteNotificationRepo struct {
	db db.DBTX
}

// NewSQLiteNotificationRepo creates a new SQLiteNotificationRepo.
func NewSQLiteNotificationRepo(dbtx db.DBTX) *SQLiteNotificationRepo {
	return &SQLiteNotificationRepo{db: dbtx}
}

const notificationColumns = `id, project_id, rule_id, category, channel, trigger_kind,
	date_reference, offset_type, offset_days, scheduled_for, status, sent_at,
	failure_code, failure_reason, recipient_id, notification_type_id, has_client_task,
	created_at, updated_at`

func (r *SQLiteNotificationRepo) InsertIfAbsent(ctx context.Context, n *domain.ScheduledNotification) (bool, error) {
	var dateRef, offsetType interface{}
	if n.DateReference != nil {
		dateRef = string(*n.DateReference)
	}
	if n.OffsetType != nil {
		offsetType = string(*n.OffsetType)
	}

	query := `INSERT OR IGNORE INTO scheduled_notifications (` + notificationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		n.ID,
		n.ProjectID,
		n.RuleID,
		string(n.Category),
		string(n.Channel),
		string(n.TriggerKind),
		dateRef,
		offsetType,
		nullableIntToValue(n.OffsetDays),
		n.ScheduledFor.UTC().Format(time.RFC3339),
		string(n.Status),
		nullableTimeToString(n.SentAt, time.RFC3339),
		n.FailureCode,
		n.FailureReason,
		n.RecipientID,
		n.NotificationTypeID,
		boolToInt(n.HasClientTask),
		n.CreatedAt.Format(time.RFC3339),
		n.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("inserting scheduled notification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("inserting scheduled notification: %w", err)
	}
	return affected == 1, nil
}

func (r *SQLiteNotificationRepo) GetByID(ctx context.Context, id string) (*domain.ScheduledNotification, error) {
	query := `SELECT ` + notificationColumns + ` FROM scheduled_notifications WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	n, err := scanNotification(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("scheduled notification: %w", ErrNotFound)
	}
	return n, err
}

func (r *SQLiteNotificationRepo) ListForProject(ctx context.Context, projectID string, filter domain.NotificationFilter) ([]*domain.ScheduledNotification, error) {
	conds := []string{"project_id = ?"}
	args := []any{projectID}

	// The active view is implicit: no status filter means scheduled only,
	// unless AllStatuses lifts the default.
	switch {
	case filter.Status != nil:
		conds = append(conds, "status = ?")
		args = append(args, string(*filter.Status))
	case filter.AllStatuses:
		// every state
	default:
		conds = append(conds, "status = ?")
		args = append(args, string(domain.StatusScheduled))
	}
	if filter.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, string(*filter.Category))
	}
	if filter.Channel != nil {
		conds = append(conds, "channel = ?")
		args = append(args, string(*filter.Channel))
	}
	if filter.RecipientID != "" {
		conds = append(conds, "recipient_id = ?")
		args = append(args, filter.RecipientID)
	}
	if filter.DateFrom != nil {
		conds = append(conds, "scheduled_for >= ?")
		args = append(args, filter.DateFrom.UTC().Format(time.RFC3339))
	}
	if filter.DateTo != nil {
		conds = append(conds, "scheduled_for <= ?")
		args = append(args, filter.DateTo.UTC().Format(time.RFC3339))
	}

	query := `SELECT ` + notificationColumns + ` FROM scheduled_notifications WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY scheduled_for`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled notifications: %w", err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r *SQLiteNotificationRepo) ListDue(ctx context.Context, asOf time.Time) ([]*domain.ScheduledNotification, error) {
	query := `SELECT ` + notificationColumns + ` FROM scheduled_notifications
		WHERE status = 'scheduled' AND scheduled_for <= ? ORDER BY scheduled_for`
	rows, err := r.db.QueryContext(ctx, query, asOf.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("listing due notifications: %w", err)
	}
	defer rows.Close()
	return collectNotifications(rows)
}

func (r *SQLiteNotificationRepo) MarkSent(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE scheduled_notifications
		SET status = 'sent', sent_at = ?, updated_at = ?
		WHERE id = ? AND status = 'scheduled'`
	return r.swap(ctx, "marking sent", query, at.UTC().Format(time.RFC3339), at.UTC().Format(time.RFC3339), id)
}

func (r *SQLiteNotificationRepo) MarkFailed(ctx context.Context, id, code, reason string, at time.Time) (bool, error) {
	query := `UPDATE scheduled_notifications
		SET status = 'failed', failure_code = ?, failure_reason = ?, updated_at = ?
		WHERE id = ? AND status = 'scheduled'`
	return r.swap(ctx, "marking failed", query, code, reason, at.UTC().Format(time.RFC3339), id)
}

func (r *SQLiteNotificationRepo) Cancel(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE scheduled_notifications
		SET status = 'cancelled', updated_at = ?
		WHERE id = ? AND status = 'scheduled'`
	return r.swap(ctx, "cancelling", query, at.UTC().Format(time.RFC3339), id)
}

func (r *SQLiteNotificationRepo) Reactivate(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE scheduled_notifications
		SET status = 'scheduled', updated_at = ?
		WHERE id = ? AND status = 'cancelled'`
	return r.swap(ctx, "reactivating", query, at.UTC().Format(time.RFC3339), id)
}

func (r *SQLiteNotificationRepo) RescheduleImmediate(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE scheduled_notifications
		SET status = 'scheduled', scheduled_for = ?, failure_code = '', failure_reason = '', updated_at = ?
		WHERE id = ? AND status IN ('scheduled','failed')`
	return r.swap(ctx, "rescheduling", query, at.UTC().Format(time.RFC3339), at.UTC().Format(time.RFC3339), id)
}

func (r *SQLiteNotificationRepo) swap(ctx context.Context, op, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s notification: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s notification: %w", op, err)
	}
	return affected == 1, nil
}

func collectNotifications(rows *sql.Rows) ([]*domain.ScheduledNotification, error) {
	var out []*domain.ScheduledNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating scheduled notifications: %w", err)
	}
	return out, nil
}

func scanNotification(row scanner) (*domain.ScheduledNotification, error) {
	var n domain.ScheduledNotification
	var category, channel, triggerKind, statusStr string
	var dateRef, offsetType, sentAtStr sql.NullString
	var offsetDays sql.NullInt64
	var hasTaskInt int
	var scheduledForStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&n.ID, &n.ProjectID, &n.RuleID, &category, &channel, &triggerKind,
		&dateRef, &offsetType, &offsetDays, &scheduledForStr, &statusStr, &sentAtStr,
		&n.FailureCode, &n.FailureReason, &n.RecipientID, &n.NotificationTypeID, &hasTaskInt,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning scheduled notification: %w", err)
	}

	n.Category = domain.Category(category)
	n.Channel = domain.Channel(channel)
	n.TriggerKind = domain.TriggerKind(triggerKind)
	n.Status = domain.NotificationStatus(statusStr)
	n.HasClientTask = intToBool(hasTaskInt)

	if dateRef.Valid {
		v := domain.DateReference(dateRef.String)
		n.DateReference = &v
	}
	if offsetType.Valid {
		v := domain.OffsetType(offsetType.String)
		n.OffsetType = &v
	}
	if offsetDays.Valid {
		v := int(offsetDays.Int64)
		n.OffsetDays = &v
	}
	n.SentAt = parseNullableTime(sentAtStr, time.RFC3339)

	var parseErr error
	n.ScheduledFor, parseErr = time.Parse(time.RFC3339, scheduledForStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing scheduled_for: %w", parseErr)
	}
	n.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	n.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAtStr)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}
	return &n, nil
}
