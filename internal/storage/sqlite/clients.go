package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"scrumtrack/internal/domain"
)

func InsertClient(db *sql.DB, c domain.Client) (domain.Client, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.CreatedAt = utc(c.CreatedAt)
	_, err := db.Exec(`INSERT INTO clients (id, name, created_at) VALUES (?, ?, ?)`, c.ID, c.Name, c.CreatedAt)
	return c, err
}

func GetClient(db *sql.DB, id string) (domain.Client, error) {
	var c domain.Client
	err := db.QueryRow(`SELECT id, name, created_at FROM clients WHERE id = ?`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return domain.Client{}, notFound("client", id, err)
	}
	return c, nil
}

func ListClients(ctx context.Context, db *sql.DB) ([]domain.Client, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, created_at FROM clients ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}
