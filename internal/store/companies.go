package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jinhealth/reconcile/internal/api"
)

// CompanyRepository reads and writes company names and the two mapping tables.
type CompanyRepository struct {
	db *sql.DB
}

// Names returns the distinct non-blank company names found in checkup records.
func (r *CompanyRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT company_name FROM checkups WHERE trim(company_name) <> '' ORDER BY company_name`)
	if err != nil {
		return nil, fmt.Errorf("query company names: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan company name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Maps returns every company_map row in insertion order.
func (r *CompanyRepository) Maps(ctx context.Context) ([]api.MapRow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT original_name, standard_name, memo FROM company_map ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query company map: %w", err)
	}
	defer rows.Close()

	maps := []api.MapRow{}
	for rows.Next() {
		var m api.MapRow
		if err := rows.Scan(&m.OriginalName, &m.StandardName, &m.Memo); err != nil {
			return nil, fmt.Errorf("scan company map: %w", err)
		}
		maps = append(maps, m)
	}
	return maps, rows.Err()
}

// Excludes returns every excluded name in insertion order.
func (r *CompanyRepository) Excludes(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT company_name FROM company_exclude ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query company excludes: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan company exclude: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// UpsertMap inserts a mapping or repoints an existing original name.
func (r *CompanyRepository) UpsertMap(ctx context.Context, m api.MapRow) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO company_map (original_name, standard_name, memo) VALUES (?, ?, ?)
		 ON CONFLICT(original_name) DO UPDATE SET standard_name = excluded.standard_name, memo = excluded.memo`,
		m.OriginalName, m.StandardName, m.Memo)
	if err != nil {
		return fmt.Errorf("upsert company map %q: %w", m.OriginalName, err)
	}
	return nil
}

// DeleteMap removes one mapping, or returns ErrNotFound.
func (r *CompanyRepository) DeleteMap(ctx context.Context, original string) error {
	return r.deleteOne(ctx, `DELETE FROM company_map WHERE original_name = ?`, original)
}

// AddExclude inserts a name into the exclusion table. Existing rows are left
// as they are and reported with added=false.
func (r *CompanyRepository) AddExclude(ctx context.Context, row api.ExcludeRow) (added bool, err error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO company_exclude (company_name, memo) VALUES (?, ?) ON CONFLICT(company_name) DO NOTHING`,
		row.CompanyName, row.Memo)
	if err != nil {
		return false, fmt.Errorf("add company exclude %q: %w", row.CompanyName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add company exclude %q: %w", row.CompanyName, err)
	}
	return n > 0, nil
}

// DeleteExclude removes one excluded name, or returns ErrNotFound.
func (r *CompanyRepository) DeleteExclude(ctx context.Context, name string) error {
	return r.deleteOne(ctx, `DELETE FROM company_exclude WHERE company_name = ?`, name)
}

// Sync replaces both tables with req in one transaction.
func (r *CompanyRepository) Sync(ctx context.Context, req api.SyncRequest) (api.SyncResponse, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return api.SyncResponse{}, fmt.Errorf("begin sync: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM company_map`); err != nil {
		return api.SyncResponse{}, fmt.Errorf("clear company map: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM company_exclude`); err != nil {
		return api.SyncResponse{}, fmt.Errorf("clear company excludes: %w", err)
	}

	insMap, err := tx.PrepareContext(ctx,
		`INSERT INTO company_map (original_name, standard_name, memo) VALUES (?, ?, ?)`)
	if err != nil {
		return api.SyncResponse{}, fmt.Errorf("prepare map insert: %w", err)
	}
	defer insMap.Close()
	for _, m := range req.Maps {
		if _, err := insMap.ExecContext(ctx, m.OriginalName, m.StandardName, m.Memo); err != nil {
			return api.SyncResponse{}, fmt.Errorf("insert map %q: %w", m.OriginalName, err)
		}
	}

	insEx, err := tx.PrepareContext(ctx, `INSERT INTO company_exclude (company_name) VALUES (?)`)
	if err != nil {
		return api.SyncResponse{}, fmt.Errorf("prepare exclude insert: %w", err)
	}
	defer insEx.Close()
	for _, name := range req.Excludes {
		if _, err := insEx.ExecContext(ctx, name); err != nil {
			return api.SyncResponse{}, fmt.Errorf("insert exclude %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return api.SyncResponse{}, fmt.Errorf("commit sync: %w", err)
	}
	return api.SyncResponse{Status: api.StatusSynced, Maps: len(req.Maps), Excludes: len(req.Excludes)}, nil
}

func (r *CompanyRepository) deleteOne(ctx context.Context, query, key string) error {
	res, err := r.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	if n == 0 {
		return fmt.Errorf("%q: %w", key, ErrNotFound)
	}
	return nil
}
