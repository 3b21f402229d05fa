package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"scrumtrack/internal/domain"
)

const backlogColumns = `id, title, description, status, client_id, task_type, priority, story_points, created_at, updated_at`

func scanBacklogItem(s rowScanner) (domain.BacklogItem, error) {
	var item domain.BacklogItem
	var status, priority string
	err := s.Scan(
		&item.ID, &item.Title, &item.Description, &status, &item.ClientID,
		&item.TaskType, &priority, &item.StoryPoints, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return domain.BacklogItem{}, err
	}
	if item.Status, err = domain.ParseItemStatus(status); err != nil {
		return domain.BacklogItem{}, err
	}
	if item.Priority, err = domain.ParsePriority(priority); err != nil {
		return domain.BacklogItem{}, err
	}
	return item, nil
}

func InsertBacklogItem(db *sql.DB, item domain.BacklogItem) (domain.BacklogItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = domain.StatusTodo
	}
	if item.Priority == "" {
		item.Priority = domain.PriorityMedium
	}
	now := utc(time.Now())
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.CreatedAt = utc(item.CreatedAt)
	item.UpdatedAt = item.CreatedAt

	_, err := db.Exec(
		`INSERT INTO backlog_items (`+backlogColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Title, item.Description, string(item.Status), item.ClientID,
		item.TaskType, string(item.Priority), item.StoryPoints, item.CreatedAt, item.UpdatedAt,
	)
	return item, err
}

func GetBacklogItem(db *sql.DB, id string) (domain.BacklogItem, error) {
	item, err := scanBacklogItem(db.QueryRow(`SELECT `+backlogColumns+` FROM backlog_items WHERE id = ?`, id))
	if err != nil {
		return domain.BacklogItem{}, notFound("backlog item", id, err)
	}
	return item, nil
}

// ListBacklogItems returns every item, or only the client's when clientID is
// set.
func ListBacklogItems(ctx context.Context, db *sql.DB, clientID string) ([]domain.BacklogItem, error) {
	query := `SELECT ` + backlogColumns + ` FROM backlog_items`
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

	var items []domain.BacklogItem
	for rows.Next() {
		item, err := scanBacklogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func UpdateBacklogItem(db *sql.DB, item domain.BacklogItem) error {
	res, err := db.Exec(
		`UPDATE backlog_items
		 SET title = ?, description = ?, status = ?, client_id = ?, task_type = ?, priority = ?, story_points = ?, updated_at = ?
		 WHERE id = ?`,
		item.Title, item.Description, string(item.Status), item.ClientID, item.TaskType,
		string(item.Priority), item.StoryPoints, utc(time.Now()), item.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, "backlog item", item.ID)
}

func UpdateBacklogStatus(db *sql.DB, id string, status domain.ItemStatus) error {
	res, err := db.Exec(
		`UPDATE backlog_items SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), utc(time.Now()), id,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, "backlog item", id)
}

// DeleteBacklogItem removes the item together with its sprint links and
// their subtasks.
func DeleteBacklogItem(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM backlog_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "backlog item", id)
}
