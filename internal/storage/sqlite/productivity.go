package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scrumtrack/internal/domain"
)

const productivityColumns = `id, client_id, period_start, period_end, opened, closed, backlog, open_over_15_days, created_at`

func InsertProductivitySnapshot(db *sql.DB, p domain.ProductivitySnapshot) (domain.ProductivitySnapshot, error) {
	if p.Opened < 0 || p.Closed < 0 || p.Backlog < 0 || p.OpenOver15Days < 0 {
		return domain.ProductivitySnapshot{}, fmt.Errorf("%w: productivity counts must be non-negative", domain.ErrInvalid)
	}
	if p.PeriodEnd.Before(p.PeriodStart) {
		return domain.ProductivitySnapshot{}, fmt.Errorf("%w: period ends before it starts", domain.ErrInvalid)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.PeriodStart, p.PeriodEnd, p.CreatedAt = utc(p.PeriodStart), utc(p.PeriodEnd), utc(p.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO productivity_snapshots (`+productivityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClientID, p.PeriodStart, p.PeriodEnd, p.Opened, p.Closed, p.Backlog, p.OpenOver15Days, p.CreatedAt,
	)
	return p, err
}

// ListProductivitySnapshots filters by client and by period end within
// [from, to]; empty or nil arguments disable that filter.
func ListProductivitySnapshots(ctx context.Context, db *sql.DB, clientID string, from, to *time.Time) ([]domain.ProductivitySnapshot, error) {
	query := `SELECT ` + productivityColumns + ` FROM productivity_snapshots WHERE 1 = 1`
	var args []any
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}
	if from != nil {
		query += ` AND period_end >= ?`
		args = append(args, utc(*from))
	}
	if to != nil {
		query += ` AND period_end <= ?`
		args = append(args, utc(*to))
	}
	query += ` ORDER BY period_end, created_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ProductivitySnapshot
	for rows.Next() {
		var p domain.ProductivitySnapshot
		if err := rows.Scan(
			&p.ID, &p.ClientID, &p.PeriodStart, &p.PeriodEnd,
			&p.Opened, &p.Closed, &p.Backlog, &p.OpenOver15Days, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
