package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"scrumtrack/internal/domain"
)

func InsertScheduleList(db *sql.DB, l domain.ScheduleList) (domain.ScheduleList, error) {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	l.CreatedAt = utc(l.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO schedule_lists (id, client_id, name, created_at) VALUES (?, ?, ?, ?)`,
		l.ID, l.ClientID, l.Name, l.CreatedAt,
	)
	return l, err
}

func GetScheduleList(db *sql.DB, id string) (domain.ScheduleList, error) {
	var l domain.ScheduleList
	err := db.QueryRow(
		`SELECT id, client_id, name, created_at FROM schedule_lists WHERE id = ?`, id,
	).Scan(&l.ID, &l.ClientID, &l.Name, &l.CreatedAt)
	if err != nil {
		return domain.ScheduleList{}, notFound("schedule list", id, err)
	}
	return l, nil
}

// ListScheduleLists returns every list, or one client's when clientID is set.
func ListScheduleLists(ctx context.Context, db *sql.DB, clientID string) ([]domain.ScheduleList, error) {
	query := `SELECT id, client_id, name, created_at FROM schedule_lists`
	var args []any
	if clientID != "" {
		query += ` WHERE client_id = ?`
		args = append(args, clientID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []domain.ScheduleList
	for rows.Next() {
		var l domain.ScheduleList
		if err := rows.Scan(&l.ID, &l.ClientID, &l.Name, &l.CreatedAt); err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	return lists, rows.Err()
}

func DeleteScheduleList(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM schedule_lists WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "schedule list", id)
}

const scheduleTaskColumns = `id, list_id, parent_id, title, status, start_at, end_at, duration_days, sort_order, created_at`

func scanScheduleTask(s rowScanner) (domain.ScheduleTask, error) {
	var t domain.ScheduleTask
	var status string
	var start, end sql.NullTime
	err := s.Scan(
		&t.ID, &t.ListID, &t.ParentID, &t.Title, &status,
		&start, &end, &t.DurationDays, &t.SortOrder, &t.CreatedAt,
	)
	if err != nil {
		return domain.ScheduleTask{}, err
	}
	t.StartAt, t.EndAt = timePtr(start), timePtr(end)
	if t.Status, err = domain.ParseScheduleStatus(status); err != nil {
		return domain.ScheduleTask{}, err
	}
	return t, nil
}

func InsertScheduleTask(db *sql.DB, t domain.ScheduleTask) (domain.ScheduleTask, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = domain.ScheduleNotStarted
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.CreatedAt = utc(t.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO schedule_tasks (`+scheduleTaskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ListID, t.ParentID, t.Title, string(t.Status),
		nullTime(t.StartAt), nullTime(t.EndAt), t.DurationDays, t.SortOrder, t.CreatedAt,
	)
	return t, constraint("schedule task", err)
}

func GetScheduleTask(db *sql.DB, id string) (domain.ScheduleTask, error) {
	t, err := scanScheduleTask(db.QueryRow(`SELECT `+scheduleTaskColumns+` FROM schedule_tasks WHERE id = ?`, id))
	if err != nil {
		return domain.ScheduleTask{}, notFound("schedule task", id, err)
	}
	return t, nil
}

// ListScheduleTasks returns every row, or one list's when listID is set,
// in display order.
func ListScheduleTasks(ctx context.Context, db *sql.DB, listID string) ([]domain.ScheduleTask, error) {
	query := `SELECT ` + scheduleTaskColumns + ` FROM schedule_tasks`
	var args []any
	if listID != "" {
		query += ` WHERE list_id = ?`
		args = append(args, listID)
	}
	query += ` ORDER BY list_id, sort_order, created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.ScheduleTask
	for rows.Next() {
		t, err := scanScheduleTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func UpdateScheduleTask(db *sql.DB, t domain.ScheduleTask) error {
	res, err := db.Exec(
		`UPDATE schedule_tasks
		 SET parent_id = ?, title = ?, status = ?, start_at = ?, end_at = ?, duration_days = ?, sort_order = ?
		 WHERE id = ?`,
		t.ParentID, t.Title, string(t.Status), nullTime(t.StartAt), nullTime(t.EndAt),
		t.DurationDays, t.SortOrder, t.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, "schedule task", t.ID)
}

func DeleteScheduleTask(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM schedule_tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "schedule task", id)
}
