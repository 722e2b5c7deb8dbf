package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"github.com/bcosynot/ouch/internal/owie"
)

const schemaVersion = 1

// SqliteStore persists owie logs in a local SQLite database.
type SqliteStore struct {
	db *sql.DB
}

var _ owie.Store = (*SqliteStore)(nil)

// Open initializes the SQLite database at dbPath, creating the parent
// directory and schema if needed. Pragmas are set in the DSN so they apply
// to every connection in the pool.
func Open(dbPath string) (*SqliteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}

	s := &SqliteStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}

	return s, nil
}

func (s *SqliteStore) migrate() error {
	var currentVersion int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&currentVersion); err != nil {
		return err
	}

	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	schema := `
	CREATE TABLE IF NOT EXISTS owie_logs (
		weather_id INTEGER,
		weather_main TEXT,
		weather_description TEXT,
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date_time INTEGER NOT NULL,
		body_part TEXT NOT NULL,
		humidity REAL NOT NULL,
		precipitation REAL NOT NULL,
		uv_index REAL NOT NULL,
		temperature REAL NOT NULL,
		pressure REAL NOT NULL
	);
	`

	if _, err := tx.Exec(schema); err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

// Insert writes one owie log row and returns its id.
func (s *SqliteStore) Insert(ctx context.Context, entry owie.Entry) (int64, error) {
	query := `
	INSERT INTO owie_logs (date_time, body_part, temperature, pressure, humidity, precipitation, uv_index, weather_id, weather_main, weather_description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		entry.DateTime, entry.BodyPart, entry.Temperature, entry.Pressure,
		entry.Humidity, entry.Precipitation, entry.UVIndex,
		entry.WeatherID, entry.WeatherMain, entry.WeatherDescription,
	)
	if err != nil {
		return 0, fmt.Errorf("insert owie log: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert owie log: %w", err)
	}
	return id, nil
}

// Recent returns up to limit entries, newest first.
func (s *SqliteStore) Recent(ctx context.Context, limit int) ([]owie.Entry, error) {
	query := `
	SELECT id, date_time, body_part, temperature, pressure, humidity, precipitation, uv_index, weather_id, weather_main, weather_description
	FROM owie_logs
	ORDER BY id DESC
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query owie logs: %w", err)
	}
	defer rows.Close()

	var entries []owie.Entry
	for rows.Next() {
		var e owie.Entry
		if err := rows.Scan(
			&e.ID, &e.DateTime, &e.BodyPart, &e.Temperature, &e.Pressure,
			&e.Humidity, &e.Precipitation, &e.UVIndex,
			&e.WeatherID, &e.WeatherMain, &e.WeatherDescription,
		); err != nil {
			return nil, fmt.Errorf("scan owie log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SqliteStore) Close() error {
	return s.db.Close()
}
