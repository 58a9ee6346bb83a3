// Package history keeps a queryable log of completed restore passes in a
// local SQLite database.
package history

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// Pass records the outcome of one restore pass.
type Pass struct {
	ID          string    `json:"id"`
	SessionKey  string    `json:"session_key"`
	SessionName string    `json:"session_name"`
	Restored    int       `json:"restored"`
	Skipped     int       `json:"skipped"`
	StartedAt   time.Time `json:"started_at"`
	DurationMS  int64     `json:"duration_ms"`
}

// Init initializes the SQLite database at baseDir/history.db.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.exsess.
func Init(baseDir string) (*sql.DB, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "history.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0600)

	return db, nil
}

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := getUserVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS restore_passes (
		  id           TEXT PRIMARY KEY,
		  session_key  TEXT NOT NULL,
		  session_name TEXT NOT NULL,
		  restored     INTEGER NOT NULL,
		  skipped      INTEGER NOT NULL,
		  started_at   INTEGER NOT NULL,
		  duration_ms  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_restore_passes_started
		ON restore_passes(started_at DESC);

		CREATE INDEX IF NOT EXISTS idx_restore_passes_session
		ON restore_passes(session_key, started_at DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

func getUserVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version))
	if err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// Record inserts a completed restore pass, assigning it a fresh ULID.
func Record(db *sql.DB, pass Pass) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate pass id: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO restore_passes (id, session_key, session_name, restored, skipped, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id.String(), pass.SessionKey, pass.SessionName, pass.Restored, pass.Skipped,
		pass.StartedAt.Unix(), pass.DurationMS,
	)
	if err != nil {
		return "", fmt.Errorf("failed to record restore pass: %w", err)
	}

	return id.String(), nil
}

// List returns the most recent restore passes, newest first.
func List(db *sql.DB, limit int) ([]Pass, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.Query(`
		SELECT id, session_key, session_name, restored, skipped, started_at, duration_ms
		FROM restore_passes
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query restore passes: %w", err)
	}
	defer rows.Close()

	passes := make([]Pass, 0, limit)
	for rows.Next() {
		var p Pass
		var startedAt int64
		if err := rows.Scan(&p.ID, &p.SessionKey, &p.SessionName, &p.Restored, &p.Skipped, &startedAt, &p.DurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan restore pass: %w", err)
		}
		p.StartedAt = time.Unix(startedAt, 0)
		passes = append(passes, p)
	}

	return passes, rows.Err()
}
