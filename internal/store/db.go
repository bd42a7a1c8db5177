// Package store is the SQLite persistence behind `reconcile serve` and
// `reconcile import`: checkup records plus the company map and exclusion tables.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/jinhealth/reconcile/internal/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrNotFound is returned when a delete targets a missing row.
var ErrNotFound = errors.New("not found")

// DB owns the connection pool for one database file.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates the parent directory and the file if needed, then applies any
// pending migrations. An existing database is copied to path+".bak" first.
func Open(ctx context.Context, path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	dsn := "file:" + path +
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_txlock=immediate"

	log.Debug(log.CatDB, "Opening database", "path", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	log.Info(log.CatDB, "Database ready", "path", path)
	return db, nil
}

// Close releases the pool.
func (db *DB) Close() error { return db.conn.Close() }

// Path is the database file location.
func (db *DB) Path() string { return db.path }

// Companies returns the repository for company names, maps and exclusions.
func (db *DB) Companies() *CompanyRepository { return &CompanyRepository{db: db.conn} }

// Checkups returns the repository for imported records.
func (db *DB) Checkups() *CheckupRepository { return &CheckupRepository{db: db.conn} }

// SchemaVersion is the last applied migration.
func (db *DB) SchemaVersion(ctx context.Context) (uint, error) {
	var v uint
	if err := db.conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// migrate applies embedded migrations above PRAGMA user_version, each in its
// own transaction.
func (db *DB) migrate(ctx context.Context) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	defer func() { _ = src.Close() }()

	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	var pending []uint
	for v, err := src.First(); ; v, err = src.Next(v) {
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		if err != nil {
			return fmt.Errorf("list migrations: %w", err)
		}
		if v > current {
			pending = append(pending, v)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	if current > 0 {
		if err := db.backup(ctx); err != nil {
			return err
		}
	}

	for _, v := range pending {
		r, ident, err := src.ReadUp(v)
		if err != nil {
			return fmt.Errorf("read migration %d: %w", v, err)
		}
		body, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return fmt.Errorf("read migration %d: %w", v, err)
		}

		tx, err := db.conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", v, err)
		}
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d_%s: %w", v, ident, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", v)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", v, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", v, err)
		}
		log.Info(log.CatDB, "Applied migration", "version", v, "name", ident)
	}
	return nil
}

func (db *DB) backup(ctx context.Context) error {
	dst := db.path + ".bak"
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove old backup: %w", err)
	}
	if _, err := db.conn.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return fmt.Errorf("backup before migration: %w", err)
	}
	log.Info(log.CatDB, "Backed up database before migration", "backup", dst)
	return nil
}
