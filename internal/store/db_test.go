package store

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "healthcare.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_CreatesDirectoryAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "healthcare.db")
	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	info, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), info.Mode().Perm())
	}
	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestOpen_AppliesMigrations(t *testing.T) {
	db := openTemp(t)

	v, err := db.SchemaVersion(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 2, v)

	for _, table := range []string{"checkups", "company_map", "company_exclude"} {
		var name string
		err := db.conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	db := openTemp(t)

	var mode string
	require.NoError(t, db.conn.QueryRow("PRAGMA journal_mode").Scan(&mode))
	require.Equal(t, "wal", mode)

	var timeout int
	require.NoError(t, db.conn.QueryRow("PRAGMA busy_timeout").Scan(&timeout))
	require.Equal(t, 5000, timeout)
}

func TestOpen_ReopenIsIdempotentAndKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "healthcare.db")

	db1, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = db1.Checkups().Upsert(ctx, []Checkup{{ReceiptNo: "R1", CompanyName: "A Corp"}})
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := Open(ctx, path)
	require.NoError(t, err)
	defer db2.Close()

	n, err := db2.Checkups().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = os.Stat(path + ".bak")
	require.ErrorIs(t, err, os.ErrNotExist, "no pending migrations, no backup")
}

func TestOpen_BacksUpBeforePendingMigration(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "healthcare.db")

	db1, err := Open(ctx, path)
	require.NoError(t, err)
	_, err = db1.conn.Exec(`DROP INDEX idx_checkups_year`)
	require.NoError(t, err)
	_, err = db1.conn.Exec(`PRAGMA user_version = 1`)
	require.NoError(t, err)
	require.NoError(t, db1.Close())

	db2, err := Open(ctx, path)
	require.NoError(t, err)
	defer db2.Close()

	info, err := os.Stat(path + ".bak")
	require.NoError(t, err)
	require.Positive(t, info.Size())

	v, err := db2.SchemaVersion(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, v)
}

func TestDB_Close(t *testing.T) {
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "healthcare.db"))
	require.NoError(t, err)
	require.NoError(t, db.Close())
	require.Error(t, db.conn.Ping())
}
