package versions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore records versions in a SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and migrates the versions table.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStore wraps an open database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate versions table: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS versions (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		change_id TEXT NOT NULL DEFAULT '',
		snapshot JSON,
		summary JSON,
		created_at TEXT NOT NULL
	);`
	if _, err := s.db.ExecContext(context.Background(), query); err != nil {
		return err
	}
	_, err := s.db.ExecContext(context.Background(),
		`CREATE INDEX IF NOT EXISTS idx_versions_trip ON versions (trip_id, created_at)`)
	return err
}

// CreateVersion implements Sink.
func (s *SQLiteStore) CreateVersion(ctx context.Context, v Version) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	snapshot, err := json.Marshal(v.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	summary, err := json.Marshal(v.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO versions (id, trip_id, source, change_id, snapshot, summary, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.TripID, v.Source, v.ChangeID, string(snapshot), string(summary), v.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to insert version: %w", err)
	}
	return nil
}

// List returns a trip's versions, oldest first. limit <= 0 means no limit.
func (s *SQLiteStore) List(ctx context.Context, tripID string, limit int) ([]Version, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trip_id, source, change_id, snapshot, summary, created_at
		FROM versions
		WHERE trip_id = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT ?`, tripID, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Version
	for rows.Next() {
		var (
			v                 Version
			snapshot, summary sql.NullString
			created           string
		)
		if err := rows.Scan(&v.ID, &v.TripID, &v.Source, &v.ChangeID, &snapshot, &summary, &created); err != nil {
			return nil, err
		}
		if snapshot.Valid && snapshot.String != "null" {
			if err := json.Unmarshal([]byte(snapshot.String), &v.Snapshot); err != nil {
				return nil, fmt.Errorf("decode snapshot %s: %w", v.ID, err)
			}
		}
		if summary.Valid {
			if err := json.Unmarshal([]byte(summary.String), &v.Summary); err != nil {
				return nil, fmt.Errorf("decode summary %s: %w", v.ID, err)
			}
		}
		v.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, v)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
