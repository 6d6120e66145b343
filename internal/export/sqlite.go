// Package export writes artifact aggregates into a SQLite database so the
// day buckets can be queried with plain SQL.
package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/calvinalkan/testa/pkg/analytics"
)

// sqliteBusyTimeout is the time SQLite waits when the database is locked.
const sqliteBusyTimeout = 10000 // milliseconds

const schema = `
CREATE TABLE IF NOT EXISTS imports (
	id         TEXT PRIMARY KEY,
	artifact   TEXT NOT NULL,
	timestamp  INTEGER NOT NULL,
	num_days   INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS test_days (
	import_id        TEXT NOT NULL REFERENCES imports(id),
	testsuite        TEXT NOT NULL,
	name             TEXT NOT NULL,
	flags            TEXT NOT NULL,
	day_offset       INTEGER NOT NULL,
	pass_count       INTEGER NOT NULL,
	fail_count       INTEGER NOT NULL,
	skip_count       INTEGER NOT NULL,
	flaky_fail_count INTEGER NOT NULL,
	total_duration   REAL NOT NULL,
	last_duration    REAL NOT NULL,
	last_timestamp   INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS test_days_by_test
	ON test_days (testsuite, name, flags);
`

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	_, err = db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
	`, sqliteBusyTimeout))
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	return db, nil
}

// ToSQLite writes every non-empty day bucket of the view into the database
// at dbPath as one import batch. Returns the import id and the number of
// bucket rows written.
func ToSQLite(ctx context.Context, dbPath, artifactPath string, v *analytics.View) (string, int, error) {
	db, err := openSQLite(ctx, dbPath)
	if err != nil {
		return "", 0, err
	}

	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return "", 0, fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("begin export: %w", err)
	}

	defer func() { _ = tx.Rollback() }()

	importID := uuid.NewString()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO imports (id, artifact, timestamp, num_days, created_at) VALUES (?, ?, ?, ?, ?)`,
		importID, artifactPath, v.Timestamp(), v.NumDays(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return "", 0, fmt.Errorf("insert import: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO test_days (
			import_id, testsuite, name, flags, day_offset,
			pass_count, fail_count, skip_count, flaky_fail_count,
			total_duration, last_duration, last_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", 0, fmt.Errorf("prepare insert: %w", err)
	}

	defer func() { _ = stmt.Close() }()

	rows := 0

	for i := range v.NumTests() {
		test := v.Test(i)

		testsuite, err := v.ResolveString(test.TestsuiteOffset)
		if err != nil {
			return "", 0, err
		}

		name, err := v.ResolveString(test.NameOffset)
		if err != nil {
			return "", 0, err
		}

		flags, err := v.ResolveFlagSet(test.FlagSetOffset)
		if err != nil {
			return "", 0, err
		}

		flagsCol := strings.Join(flags, ",")

		for k := range v.NumDays() {
			b := v.Bucket(i, k)
			if b == (analytics.TestData{}) {
				continue
			}

			_, err = stmt.ExecContext(ctx, importID, testsuite, name, flagsCol, k,
				b.TotalPassCount, b.TotalFailCount, b.TotalSkipCount, b.TotalFlakyFailCount,
				b.TotalDuration, b.LastDuration, b.LastTimestamp)
			if err != nil {
				return "", 0, fmt.Errorf("insert bucket: %w", err)
			}

			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("commit export: %w", err)
	}

	return importID, rows, nil
}
