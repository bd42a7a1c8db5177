package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Checkup is the slice of a checkup record that name reconciliation needs.
type Checkup struct {
	ReceiptNo   string
	CompanyName string
	CheckupDate string // YYYY-MM-DD, may be empty
}

// CheckupRepository stores imported records.
type CheckupRepository struct {
	db *sql.DB
}

// Upsert writes records keyed by receipt number in one transaction and
// returns how many rows were written.
func (r *CheckupRepository) Upsert(ctx context.Context, records []Checkup) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO checkups (receipt_no, company_name, checkup_date, imported_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(receipt_no) DO UPDATE SET
			company_name = excluded.company_name,
			checkup_date = excluded.checkup_date,
			imported_at  = excluded.imported_at`)
	if err != nil {
		return 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, c := range records {
		if _, err := stmt.ExecContext(ctx, c.ReceiptNo, c.CompanyName, c.CheckupDate, now); err != nil {
			return 0, fmt.Errorf("import receipt %q: %w", c.ReceiptNo, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return len(records), nil
}

// Count returns the number of stored records.
func (r *CheckupRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM checkups`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count checkups: %w", err)
	}
	return n, nil
}

// Years returns the distinct four-digit checkup years, newest first.
func (r *CheckupRepository) Years(ctx context.Context) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT CAST(substr(checkup_date, 1, 4) AS INTEGER) AS y
		 FROM checkups
		 WHERE substr(checkup_date, 1, 4) GLOB '[0-9][0-9][0-9][0-9]'
		 ORDER BY y DESC`)
	if err != nil {
		return nil, fmt.Errorf("query years: %w", err)
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}
