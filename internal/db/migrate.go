package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS project_types (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS stages (
		id                      TEXT PRIMARY KEY,
		project_type_id         TEXT NOT NULL REFERENCES project_types(id) ON DELETE CASCADE,
		name                    TEXT NOT NULL,
		sort_order              INTEGER NOT NULL DEFAULT 0,
		color                   TEXT NOT NULL DEFAULT '',
		assigned_role           TEXT NOT NULL DEFAULT '',
		max_instance_time_hours REAL,
		max_total_time_hours    REAL,
		is_final                INTEGER NOT NULL DEFAULT 0,
		created_at              TEXT NOT NULL,
		updated_at              TEXT NOT NULL,
		UNIQUE(project_type_id, sort_order)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_stages_type ON stages(project_type_id)`,

	`CREATE TABLE IF NOT EXISTS projects (
		id              TEXT PRIMARY KEY,
		project_type_id TEXT NOT NULL REFERENCES project_types(id),
		name            TEXT NOT NULL,
		client_id       TEXT NOT NULL DEFAULT '',
		start_date      TEXT,
		due_date        TEXT,
		status          TEXT NOT NULL DEFAULT 'active'
		                CHECK(status IN ('active','archived')),
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_projects_type ON projects(project_type_id)`,

	`CREATE TABLE IF NOT EXISTS notification_rules (
		id                   TEXT PRIMARY KEY,
		project_type_id      TEXT NOT NULL REFERENCES project_types(id) ON DELETE CASCADE,
		category             TEXT NOT NULL
		                     CHECK(category IN ('project_notification','client_request_reminder')),
		channel              TEXT NOT NULL
		                     CHECK(channel IN ('email','sms','push')),
		notification_type_id TEXT NOT NULL DEFAULT '',
		template_id          TEXT NOT NULL DEFAULT '',
		has_client_task      INTEGER NOT NULL DEFAULT 0,
		is_active            INTEGER NOT NULL DEFAULT 1,
		trigger_kind         TEXT NOT NULL
		                     CHECK(trigger_kind IN ('stage_entry','stage_exit','date_offset')),
		stage_id             TEXT REFERENCES stages(id),
		date_reference       TEXT
		                     CHECK(date_reference IS NULL OR date_reference IN ('start_date','due_date')),
		offset_type          TEXT
		                     CHECK(offset_type IS NULL OR offset_type IN ('before','on','after')),
		offset_days          INTEGER,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_rules_type ON notification_rules(project_type_id)`,
	`CREATE INDEX IF NOT EXISTS idx_rules_stage ON notification_rules(stage_id)`,

	`CREATE TABLE IF NOT EXISTS chronology_entries (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		from_stage_id   TEXT REFERENCES stages(id),
		to_stage_id     TEXT NOT NULL REFERENCES stages(id),
		reason          TEXT NOT NULL DEFAULT '',
		changed_by      TEXT NOT NULL DEFAULT '',
		ts              TEXT,
		field_responses TEXT NOT NULL DEFAULT '[]',
		created_at      TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_chronology_project ON chronology_entries(project_id, ts)`,

	`CREATE TABLE IF NOT EXISTS scheduled_notifications (
		id                   TEXT PRIMARY KEY,
		project_id           TEXT NOT NULL REFERENCES projects(id),
		rule_id              TEXT NOT NULL REFERENCES notification_rules(id),
		category             TEXT NOT NULL
		                     CHECK(category IN ('project_notification','client_request_reminder')),
		channel              TEXT NOT NULL
		                     CHECK(channel IN ('email','sms','push')),
		trigger_kind         TEXT NOT NULL
		                     CHECK(trigger_kind IN ('stage_entry','stage_exit','date_offset')),
		date_reference       TEXT,
		offset_type          TEXT,
		offset_days          INTEGER,
		scheduled_for        TEXT NOT NULL,
		status               TEXT NOT NULL DEFAULT 'scheduled'
		                     CHECK(status IN ('scheduled','sent','failed','cancelled')),
		sent_at              TEXT,
		failure_code         TEXT NOT NULL DEFAULT '',
		failure_reason       TEXT NOT NULL DEFAULT '',
		recipient_id         TEXT NOT NULL DEFAULT '',
		notification_type_id TEXT NOT NULL DEFAULT '',
		has_client_task      INTEGER NOT NULL DEFAULT 0,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL,
		UNIQUE(project_id, rule_id, recipient_id, scheduled_for)
	)`,

	`CREATE INDEX IF NOT EXISTS idx_notifications_project ON scheduled_notifications(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_due ON scheduled_notifications(status, scheduled_for)`,
}
