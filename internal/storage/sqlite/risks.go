package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"scrumtrack/internal/domain"
)

const riskColumns = `id, client_id, title, status, probability, impact, identified_at, created_at`

func scanRisk(s rowScanner) (domain.RiskRecord, error) {
	var r domain.RiskRecord
	var status string
	if err := s.Scan(&r.ID, &r.ClientID, &r.Title, &status, &r.Probability, &r.Impact, &r.IdentifiedAt, &r.CreatedAt); err != nil {
		return domain.RiskRecord{}, err
	}
	var err error
	if r.Status, err = domain.ParseRiskStatus(status); err != nil {
		return domain.RiskRecord{}, err
	}
	return r, nil
}

func validRiskScale(v int) bool { return v >= 1 && v <= 5 }

func InsertRisk(db *sql.DB, r domain.RiskRecord) (domain.RiskRecord, error) {
	if !validRiskScale(r.Probability) || !validRiskScale(r.Impact) {
		return domain.RiskRecord{}, fmt.Errorf("%w: probability and impact must be between 1 and 5", domain.ErrInvalid)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Status == "" {
		r.Status = domain.RiskOpen
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.IdentifiedAt.IsZero() {
		r.IdentifiedAt = r.CreatedAt
	}
	r.IdentifiedAt, r.CreatedAt = utc(r.IdentifiedAt), utc(r.CreatedAt)
	_, err := db.Exec(
		`INSERT INTO risks (`+riskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ClientID, r.Title, string(r.Status), r.Probability, r.Impact, r.IdentifiedAt, r.CreatedAt,
	)
	return r, err
}

func GetRisk(db *sql.DB, id string) (domain.RiskRecord, error) {
	r, err := scanRisk(db.QueryRow(`SELECT `+riskColumns+` FROM risks WHERE id = ?`, id))
	if err != nil {
		return domain.RiskRecord{}, notFound("risk", id, err)
	}
	return r, nil
}

// ListRisks filters by client and by identification date within [from, to];
// empty or nil arguments disable that filter.
func ListRisks(ctx context.Context, db *sql.DB, clientID string, from, to *time.Time) ([]domain.RiskRecord, error) {
	query := `SELECT ` + riskColumns + ` FROM risks WHERE 1 = 1`
	var args []any
	if clientID != "" {
		query += ` AND client_id = ?`
		args = append(args, clientID)
	}
	if from != nil {
		query += ` AND identified_at >= ?`
		args = append(args, utc(*from))
	}
	if to != nil {
		query += ` AND identified_at <= ?`
		args = append(args, utc(*to))
	}
	query += ` ORDER BY identified_at, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RiskRecord
	for rows.Next() {
		r, err := scanRisk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func UpdateRiskStatus(db *sql.DB, id string, status domain.RiskStatus) error {
	res, err := db.Exec(`UPDATE risks SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "risk", id)
}

func DeleteRisk(db *sql.DB, id string) error {
	res, err := db.Exec(`DELETE FROM risks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res, "risk", id)
}
