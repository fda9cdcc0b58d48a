package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"hoursync/hours"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore backs both the engine's state records (token credential, draft
// bookkeeping) and the append-only hours log with a single database file.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS state_records (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS hour_entries (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	entry_date TEXT NOT NULL,
	start_time TEXT NOT NULL DEFAULT '',
	end_time TEXT NOT NULL DEFAULT '',
	hours REAL NOT NULL CHECK(hours > 0),
	project TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	saved_at TEXT NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// GetState returns the stored document for key. The second return value is
// false when no record exists.
func (s *SQLiteStore) GetState(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM state_records WHERE key = ?;`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query state record %q: %w", key, err)
	}
	return []byte(value), true, nil
}

// PutState replaces the stored document for key, creating the record when it
// does not exist.
func (s *SQLiteStore) PutState(key string, value []byte) error {
	const upsertStmt = `
INSERT INTO state_records (key, value, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;`

	if _, err := s.db.Exec(upsertStmt, key, string(value), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("put state record %q: %w", key, err)
	}
	return nil
}

// AppendEntries adds hour entries to the log. The log is append-only:
// repeated submissions of the same entry produce distinct rows.
func (s *SQLiteStore) AppendEntries(entries []hours.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	const insertStmt = `
INSERT INTO hour_entries (
	entry_date,
	start_time,
	end_time,
	hours,
	project,
	notes,
	saved_at
) VALUES (?, ?, ?, ?, ?, ?, ?);`

	stmt, err := tx.Prepare(insertStmt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("prepare insert statement: %w", err)
	}
	defer stmt.Close()

	savedAt := time.Now().UTC().Format(time.RFC3339)
	inserted := 0
	for _, entry := range entries {
		if _, err := stmt.Exec(
			entry.Date,
			entry.Start,
			entry.End,
			entry.Hours,
			entry.Project,
			entry.Notes,
			savedAt,
		); err != nil {
			_ = tx.Rollback()
			return inserted, fmt.Errorf("insert hour entry: %w", err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return inserted, fmt.Errorf("commit transaction: %w", err)
	}

	return inserted, nil
}

// ListEntries returns the full hours log ordered by date, then insertion
// order.
func (s *SQLiteStore) ListEntries() ([]hours.SavedEntry, error) {
	const query = `
SELECT
	id,
	entry_date,
	start_time,
	end_time,
	hours,
	project,
	notes,
	saved_at
FROM hour_entries
ORDER BY entry_date, id;
`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query hour entries: %w", err)
	}
	defer rows.Close()

	entries := make([]hours.SavedEntry, 0, 64)
	for rows.Next() {
		var (
			saved      hours.SavedEntry
			savedAtRaw string
		)

		if err := rows.Scan(
			&saved.ID,
			&saved.Entry.Date,
			&saved.Entry.Start,
			&saved.Entry.End,
			&saved.Entry.Hours,
			&saved.Entry.Project,
			&saved.Entry.Notes,
			&savedAtRaw,
		); err != nil {
			return nil, fmt.Errorf("scan hour entry: %w", err)
		}

		saved.SavedAt, err = time.Parse(time.RFC3339, savedAtRaw)
		if err != nil {
			return nil, fmt.Errorf("parse saved_at %q: %w", savedAtRaw, err)
		}

		entries = append(entries, saved)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate hour entries: %w", err)
	}

	return entries, nil
}
