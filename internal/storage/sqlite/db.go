package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"scrumtrack/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS backlog_items (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'todo',
	client_id    TEXT DEFAULT '',
	task_type    TEXT DEFAULT '',
	priority     TEXT NOT NULL DEFAULT 'medium',
	story_points INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL,
	updated_at   DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backlog_client ON backlog_items(client_id);

CREATE TABLE IF NOT EXISTS sprints (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	start_date DATETIME NOT NULL,
	end_date   DATETIME NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sprint_tasks (
	id              TEXT PRIMARY KEY,
	sprint_id       TEXT NOT NULL REFERENCES sprints(id) ON DELETE CASCADE,
	backlog_item_id TEXT NOT NULL REFERENCES backlog_items(id) ON DELETE CASCADE,
	status          TEXT NOT NULL DEFAULT 'todo',
	responsible     TEXT DEFAULT '',
	created_at      DATETIME NOT NULL,
	UNIQUE (sprint_id, backlog_item_id)
);
CREATE INDEX IF NOT EXISTS idx_sprint_tasks_item ON sprint_tasks(backlog_item_id);

CREATE TABLE IF NOT EXISTS subtasks (
	id             TEXT PRIMARY KEY,
	sprint_task_id TEXT NOT NULL REFERENCES sprint_tasks(id) ON DELETE CASCADE,
	title          TEXT NOT NULL,
	responsible    TEXT DEFAULT '',
	start_date     DATETIME,
	end_date       DATETIME,
	status         TEXT NOT NULL DEFAULT 'todo',
	created_at     DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_subtasks_sprint_task ON subtasks(sprint_task_id);

CREATE TABLE IF NOT EXISTS schedule_lists (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedule_lists_client ON schedule_lists(client_id);

CREATE TABLE IF NOT EXISTS schedule_tasks (
	id            TEXT PRIMARY KEY,
	list_id       TEXT NOT NULL REFERENCES schedule_lists(id) ON DELETE CASCADE,
	parent_id     TEXT DEFAULT '',
	title         TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'not_started',
	start_at      DATETIME,
	end_at        DATETIME,
	duration_days INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_schedule_tasks_list ON schedule_tasks(list_id);

CREATE TABLE IF NOT EXISTS productivity_snapshots (
	id                TEXT PRIMARY KEY,
	client_id         TEXT NOT NULL,
	period_start      DATETIME NOT NULL,
	period_end        DATETIME NOT NULL,
	opened            INTEGER NOT NULL DEFAULT 0,
	closed            INTEGER NOT NULL DEFAULT 0,
	backlog           INTEGER NOT NULL DEFAULT 0,
	open_over_15_days INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_productivity_client_end ON productivity_snapshots(client_id, period_end);

CREATE TABLE IF NOT EXISTS risks (
	id            TEXT PRIMARY KEY,
	client_id     TEXT NOT NULL,
	title         TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'Open',
	probability   INTEGER NOT NULL DEFAULT 1,
	impact        INTEGER NOT NULL DEFAULT 1,
	identified_at DATETIME NOT NULL,
	created_at    DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_risks_client ON risks(client_id, identified_at);

CREATE TABLE IF NOT EXISTS dailies (
	id          TEXT PRIMARY KEY,
	sprint_id   TEXT NOT NULL REFERENCES sprints(id) ON DELETE CASCADE,
	day         DATETIME NOT NULL,
	participant TEXT NOT NULL,
	yesterday   TEXT DEFAULT '',
	today       TEXT DEFAULT '',
	blockers    TEXT DEFAULT '',
	created_at  DATETIME NOT NULL,
	UNIQUE (sprint_id, participant, day)
);

CREATE TABLE IF NOT EXISTS retro_items (
	id         TEXT PRIMARY KEY,
	sprint_id  TEXT NOT NULL REFERENCES sprints(id) ON DELETE CASCADE,
	category   TEXT NOT NULL,
	content    TEXT NOT NULL,
	author     TEXT DEFAULT '',
	votes      INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_retro_items_sprint ON retro_items(sprint_id);
`

// InitDB opens (creating if needed) the database at path and brings the
// schema up to date.
func InitDB(path string) (*sql.DB, error) {
	dsn := path
	if strings.Contains(dsn, "?") {
		dsn += "&_foreign_keys=on"
	} else {
		dsn += "?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// A single connection keeps :memory: databases and pragmas consistent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	// Migration: schedule rows gained an explicit display order.
	if err := addColumnIfMissing(db, "schedule_tasks", "sort_order", "INTEGER NOT NULL DEFAULT 0"); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func addColumnIfMissing(db *sql.DB, table, column, decl string) error {
	var colCount int
	err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column).Scan(&colCount)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", table, err)
	}
	if colCount > 0 {
		return nil
	}
	_, err = db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func notFound(kind, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return err
}

// constraint maps unique and foreign-key violations to ErrInvalid.
func constraint(kind string, err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrConstraint {
		return fmt.Errorf("%w: %s violates a constraint (%s)", domain.ErrInvalid, kind, se.ExtendedCode)
	}
	return err
}

func expectOneRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
