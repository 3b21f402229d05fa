package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"scrumtrack/internal/domain"
)

const dailyColumns = `id, sprint_id, day, participant, yesterday, today, blockers, created_at`

func scanDaily(s rowScanner) (domain.Daily, error) {
	var d domain.Daily
	err := s.Scan(&d.ID, &d.SprintID, &d.Day, &d.Participant, &d.Yesterday, &d.Today, &d.Blockers, &d.CreatedAt)
	return d, err
}

// InsertDaily records a stand-up update. A participant posts at most one
// update per sprint day; a second one violates the unique constraint.
func InsertDaily(db *sql.DB, d domain.Daily) (domain.Daily, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now()
	}
	d.Day, d.CreatedAt = utc(d.Day), utc(d.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO dailies (`+dailyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.SprintID, d.Day, d.Participant, d.Yesterday, d.Today, d.Blockers, d.CreatedAt,
	)
	return d, constraint("daily", err)
}

func GetDaily(db *sql.DB, id string) (domain.Daily, error) {
	d, err := scanDaily(db.QueryRow(`SELECT `+dailyColumns+` FROM dailies WHERE id = ?`, id))
	if err != nil {
		return domain.Daily{}, notFound("daily", id, err)
	}
	return d, nil
}

// ListDailies returns every update, or one sprint's when sprintID is set,
// by day then participant.
func ListDailies(ctx context.Context, db *sql.DB, sprintID string) ([]domain.Daily, error) {
	query := `SELECT ` + dailyColumns + ` FROM dailies`
	var args []any
	if sprintID != "" {
		query += ` WHERE sprint_id = ?`
		args = append(args, sprintID)
	}
	query += ` ORDER BY day, participant, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Daily
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// UpdateDaily rewrites the update text; sprint, day and participant stay.
func UpdateDaily(db *sql.DB, d domain.Daily) error {
	res, err := db.Exec(
		`UPDATE dailies SET yesterday = ?, today = ?, blockers = ? WHERE id = ?`,
		d.Yesterday, d.Today, d.Blockers, d.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, "daily", d.ID)
}

func DeleteDaily(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM dailies WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "daily", id)
}

const retroColumns = `id, sprint_id, category, content, author, votes, created_at`

func scanRetroItem(s rowScanner) (domain.RetroItem, error) {
	var it domain.RetroItem
	var category string
	if err := s.Scan(&it.ID, &it.SprintID, &category, &it.Content, &it.Author, &it.Votes, &it.CreatedAt); err != nil {
		return domain.RetroItem{}, err
	}
	var err error
	if it.Category, err = domain.ParseRetroCategory(category); err != nil {
		return domain.RetroItem{}, err
	}
	return it, nil
}

func InsertRetroItem(db *sql.DB, it domain.RetroItem) (domain.RetroItem, error) {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now()
	}
	it.CreatedAt = utc(it.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO retro_items (`+retroColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.SprintID, string(it.Category), it.Content, it.Author, it.Votes, it.CreatedAt,
	)
	return it, constraint("retrospective item", err)
}

func GetRetroItem(db *sql.DB, id string) (domain.RetroItem, error) {
	it, err := scanRetroItem(db.QueryRow(`SELECT `+retroColumns+` FROM retro_items WHERE id = ?`, id))
	if err != nil {
		return domain.RetroItem{}, notFound("retrospective item", id, err)
	}
	return it, nil
}

// ListRetroItems returns every card, or one sprint's when sprintID is set,
// most voted first within each category.
func ListRetroItems(ctx context.Context, db *sql.DB, sprintID string) ([]domain.RetroItem, error) {
	query := `SELECT ` + retroColumns + ` FROM retro_items`
	var args []any
	if sprintID != "" {
		query += ` WHERE sprint_id = ?`
		args = append(args, sprintID)
	}
	query += ` ORDER BY category, votes DESC, created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RetroItem
	for rows.Next() {
		it, err := scanRetroItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func UpdateRetroItem(db *sql.DB, it domain.RetroItem) error {
	res, err := db.Exec(
		`UPDATE retro_items SET category = ?, content = ?, author = ? WHERE id = ?`,
		string(it.Category), it.Content, it.Author, it.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res, "retrospective item", it.ID)
}

// VoteRetroItem increments the vote count in place.
func VoteRetroItem(db *sql.DB, id string) error {
	res, err := db.Exec(`UPDATE retro_items SET votes = votes + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "retrospective item", id)
}

func DeleteRetroItem(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM retro_items WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "retrospective item", id)
}
