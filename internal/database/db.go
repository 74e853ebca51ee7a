// Package database is the sqlite persistence layer: tasks, goals, sleep and
// attendance records, and the derived per-day score rows. The scoring core
// never touches it; handlers read through the Repository and feed the pure
// engine.
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFileName = "prodmeter.db"

// DB wraps the sql handle with pool settings tuned for a single-binary
// service.
type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the sqlite database under dataDir with WAL
// journaling and runs the schema migrations.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &DB{DB: db}
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database initialized", "path", dbPath)
	return database, nil
}

func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			priority TEXT NOT NULL DEFAULT 'medium',
			category TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL,
			time TEXT,
			duration_minutes REAL NOT NULL DEFAULT 0,
			goal_id TEXT,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_on_time BOOLEAN NOT NULL DEFAULT FALSE,
			planned_start TEXT,
			actual_start TEXT,
			energy_level INTEGER NOT NULL DEFAULT 0,
			focus_mode BOOLEAN NOT NULL DEFAULT FALSE,
			recurring BOOLEAN NOT NULL DEFAULT FALSE,
			context_tags TEXT,
			confidence REAL NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS goals (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			deadline DATETIME,
			category TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS sleep_records (
			date TEXT PRIMARY KEY,
			sleep_time TEXT NOT NULL,
			wake_time TEXT NOT NULL,
			quality INTEGER NOT NULL DEFAULT 3
		)`,

		`CREATE TABLE IF NOT EXISTS attendance_records (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			on_time BOOLEAN NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS score_records (
			date TEXT PRIMARY KEY,
			effort REAL NOT NULL,
			duration REAL NOT NULL,
			quality REAL NOT NULL,
			goal REAL NOT NULL,
			rhythm REAL NOT NULL,
			composite REAL NOT NULL,
			task_count INTEGER NOT NULL,
			profile TEXT NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_goal_id ON tasks(goal_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance_records(date)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}
