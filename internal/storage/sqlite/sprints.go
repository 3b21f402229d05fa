package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scrumtrack/internal/domain"
)

func InsertSprint(db *sql.DB, s domain.Sprint) (domain.Sprint, error) {
	if s.EndDate.Before(s.StartDate) {
		return domain.Sprint{}, fmt.Errorf("%w: sprint ends before it starts", domain.ErrInvalid)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	s.StartDate, s.EndDate, s.CreatedAt = utc(s.StartDate), utc(s.EndDate), utc(s.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO sprints (id, name, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.StartDate, s.EndDate, s.CreatedAt,
	)
	return s, err
}

func GetSprint(db *sql.DB, id string) (domain.Sprint, error) {
	var s domain.Sprint
	err := db.QueryRow(
		`SELECT id, name, start_date, end_date, created_at FROM sprints WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.CreatedAt)
	if err != nil {
		return domain.Sprint{}, notFound("sprint", id, err)
	}
	return s, nil
}

func ListSprints(ctx context.Context, db *sql.DB) ([]domain.Sprint, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, start_date, end_date, created_at FROM sprints ORDER BY start_date, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sprints []domain.Sprint
	for rows.Next() {
		var s domain.Sprint
		if err := rows.Scan(&s.ID, &s.Name, &s.StartDate, &s.EndDate, &s.CreatedAt); err != nil {
			return nil, err
		}
		sprints = append(sprints, s)
	}
	return sprints, rows.Err()
}

func DeleteSprint(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM sprints WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "sprint", id)
}

const sprintTaskColumns = `id, sprint_id, backlog_item_id, status, responsible, created_at`

func scanSprintTask(s rowScanner) (domain.SprintTask, error) {
	var st domain.SprintTask
	var status string
	if err := s.Scan(&st.ID, &st.SprintID, &st.BacklogItemID, &status, &st.Responsible, &st.CreatedAt); err != nil {
		return domain.SprintTask{}, err
	}
	var err error
	if st.Status, err = domain.ParseItemStatus(status); err != nil {
		return domain.SprintTask{}, err
	}
	return st, nil
}

// InsertSprintTask plans a backlog item into a sprint.
func InsertSprintTask(db *sql.DB, st domain.SprintTask) (domain.SprintTask, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.Status == "" {
		st.Status = domain.StatusTodo
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	st.CreatedAt = utc(st.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO sprint_tasks (`+sprintTaskColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		st.ID, st.SprintID, st.BacklogItemID, string(st.Status), st.Responsible, st.CreatedAt,
	)
	return st, constraint("sprint task", err)
}

func GetSprintTask(db *sql.DB, id string) (domain.SprintTask, error) {
	st, err := scanSprintTask(db.QueryRow(`SELECT `+sprintTaskColumns+` FROM sprint_tasks WHERE id = ?`, id))
	if err != nil {
		return domain.SprintTask{}, notFound("sprint task", id, err)
	}
	return st, nil
}

// ListSprintTasks returns every link, or one sprint's when sprintID is set.
func ListSprintTasks(ctx context.Context, db *sql.DB, sprintID string) ([]domain.SprintTask, error) {
	query := `SELECT ` + sprintTaskColumns + ` FROM sprint_tasks`
	var args []any
	if sprintID != "" {
		query += ` WHERE sprint_id = ?`
		args = append(args, sprintID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SprintTask
	for rows.Next() {
		st, err := scanSprintTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func DeleteSprintTask(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM sprint_tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "sprint task", id)
}

const subtaskColumns = `id, sprint_task_id, title, responsible, start_date, end_date, status, created_at`

func scanSubtask(s rowScanner) (domain.Subtask, error) {
	var st domain.Subtask
	var start, end sql.NullTime
	var status string
	if err := s.Scan(&st.ID, &st.SprintTaskID, &st.Title, &st.Responsible, &start, &end, &status, &st.CreatedAt); err != nil {
		return domain.Subtask{}, err
	}
	st.StartDate, st.EndDate = timePtr(start), timePtr(end)
	var err error
	if st.Status, err = domain.ParseItemStatus(status); err != nil {
		return domain.Subtask{}, err
	}
	return st, nil
}

func InsertSubtask(db *sql.DB, st domain.Subtask) (domain.Subtask, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	if st.Status == "" {
		st.Status = domain.StatusTodo
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = time.Now()
	}
	st.CreatedAt = utc(st.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO subtasks (`+subtaskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.SprintTaskID, st.Title, st.Responsible,
		nullTime(st.StartDate), nullTime(st.EndDate), string(st.Status), st.CreatedAt,
	)
	return st, constraint("subtask", err)
}

func GetSubtask(db *sql.DB, id string) (domain.Subtask, error) {
	st, err := scanSubtask(db.QueryRow(`SELECT `+subtaskColumns+` FROM subtasks WHERE id = ?`, id))
	if err != nil {
		return domain.Subtask{}, notFound("subtask", id, err)
	}
	return st, nil
}

// ListSubtasks returns every subtask, or one sprint task's when sprintTaskID
// is set.
func ListSubtasks(ctx context.Context, db *sql.DB, sprintTaskID string) ([]domain.Subtask, error) {
	query := `SELECT ` + subtaskColumns + ` FROM subtasks`
	var args []any
	if sprintTaskID != "" {
		query += ` WHERE sprint_task_id = ?`
		args = append(args, sprintTaskID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Subtask
	for rows.Next() {
		st, err := scanSubtask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func UpdateSubtask(db *sql.DB, st domain.Subtask) error {
	res, err := db.Exec(
		`UPDATE subtasks SET title = ?, responsible = ?, start_date = ?, end_date = ?, status = ? WHERE id = ?`,
		st.Title, st.Responsible, nullTime(st.StartDate), nullTime(st.EndDate), string(st.Status), st.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, "subtask", st.ID)
}

func DeleteSubtask(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM subtasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "subtask", id)
}
