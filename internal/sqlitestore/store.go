// Package sqlitestore provides an embedded SQLite implementation of the
// remote record store.
//
// This backend serves two roles: a self-hosted store for deployments that
// keep the rota on a shared file system, and a real store implementation
// for tests. It runs SQLite in embedded mode with WAL so concurrent
// readers are not blocked by a writer.
//
// Architecture:
//   - Database file: rotacal.db (caller-chosen path)
//   - WAL mode: concurrent readers during writes
//   - Schema: zones, records, shares tables
//   - Duplicate physical records for one logical key are representable on
//     purpose; collapsing them is the engine's job, not the store's.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotacal/rotacal/internal/remote"
	"github.com/rotacal/rotacal/internal/schedule"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// DefaultZone is the zone name used by EnsureZone.
const DefaultZone = "rota"

// Store implements remote.Store on an embedded SQLite database.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a store at the given path, creating parent directories and
// the schema as needed.
//
// The caller MUST call Close() when done.
//
// Example:
//
//	store, err := sqlitestore.Open(".rotacal/rotacal.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := s.initSchema(context.Background()); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// initSchema creates the tables and indexes. Idempotent.
func (s *Store) initSchema(ctx context.Context) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS zones (
		name TEXT PRIMARY KEY,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		zone TEXT NOT NULL,
		kind INTEGER NOT NULL,
		day TEXT,      -- YYYY-MM-DD for day records
		month TEXT,    -- YYYY-MM for note records
		lines TEXT NOT NULL,  -- JSON array
		mod_time TEXT NOT NULL,
		FOREIGN KEY (zone) REFERENCES zones(name) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS shares (
		zone TEXT PRIMARY KEY,
		handle TEXT NOT NULL,
		created_at TEXT NOT NULL,
		FOREIGN KEY (zone) REFERENCES zones(name) ON DELETE CASCADE
	);

	-- Logical-key lookups; deliberately NOT unique, duplicates are the
	-- engine's recoverable condition.
	CREATE INDEX IF NOT EXISTS idx_records_day ON records(zone, kind, day);
	CREATE INDEX IF NOT EXISTS idx_records_month ON records(zone, kind, month);
	`

	if _, err := s.conn.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// EnsureZone implements remote.Store.
func (s *Store) EnsureZone(ctx context.Context) (string, error) {
	query := `
	INSERT INTO zones (name, created_at) VALUES (?, ?)
	ON CONFLICT(name) DO NOTHING
	`
	if _, err := s.conn.ExecContext(ctx, query, DefaultZone, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return "", remote.NewError(remote.CodeZoneUnavailable, "ensure_zone", err)
	}
	return DefaultZone, nil
}

// zoneExists checks that a zone row is present.
func (s *Store) zoneExists(ctx context.Context, zone string) error {
	var name string
	err := s.conn.QueryRowContext(ctx, "SELECT name FROM zones WHERE name = ?", zone).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return remote.NewError(remote.CodeZoneUnavailable, "zone_check", fmt.Errorf("zone %q does not exist", zone))
	}
	if err != nil {
		return remote.NewError(remote.CodeQueryFailed, "zone_check", err)
	}
	return nil
}

// Query implements remote.Store. Results are ordered by logical key
// ascending, then by record ID for a stable order among duplicates.
func (s *Store) Query(ctx context.Context, kind remote.Kind, q remote.Query, zone string) ([]remote.Record, error) {
	if err := s.zoneExists(ctx, zone); err != nil {
		return nil, err
	}

	conditions := []string{"zone = ?", "kind = ?"}
	args := []interface{}{zone, int(kind)}

	keyCol := "day"
	if kind == remote.KindNote {
		keyCol = "month"
	}

	switch kind {
	case remote.KindDay:
		if !q.Day.IsZero() {
			conditions = append(conditions, "day = ?")
			args = append(args, q.Day.String())
		}
		if !q.From.IsZero() {
			conditions = append(conditions, "day >= ?")
			args = append(args, schedule.NewDayKey(q.From).String())
		}
		if !q.Until.IsZero() {
			conditions = append(conditions, "day < ?")
			args = append(args, schedule.NewDayKey(q.Until).String())
		}
	case remote.KindNote:
		if !q.Month.IsZero() {
			conditions = append(conditions, "month = ?")
			args = append(args, q.Month.String())
		}
		if !q.From.IsZero() {
			conditions = append(conditions, "month >= ?")
			args = append(args, schedule.NewMonthKey(q.From).String())
		}
		if !q.Until.IsZero() {
			conditions = append(conditions, "month < ?")
			args = append(args, schedule.NewMonthKey(q.Until).String())
		}
	}

	query := "SELECT id, zone, kind, day, month, lines, mod_time FROM records WHERE "
	for i, cond := range conditions {
		if i > 0 {
			query += " AND "
		}
		query += cond
	}
	query += fmt.Sprintf(" ORDER BY %s ASC, id ASC", keyCol)

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, remote.NewError(remote.CodeQueryFailed, "query", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Create implements remote.Store.
func (s *Store) Create(ctx context.Context, rec remote.Record, zone string) (remote.Record, error) {
	if err := s.zoneExists(ctx, zone); err != nil {
		return remote.Record{}, err
	}

	linesJSON, err := json.Marshal(rec.Lines)
	if err != nil {
		return remote.Record{}, remote.NewError(remote.CodeRejected, "create", err)
	}

	rec.ID = uuid.NewString()
	rec.Zone = zone
	rec.ModTime = time.Now().UTC()

	query := `
	INSERT INTO records (id, zone, kind, day, month, lines, mod_time)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.conn.ExecContext(ctx, query,
		rec.ID,
		rec.Zone,
		int(rec.Kind),
		keyOrNull(rec.Kind == remote.KindDay, rec.Day.String()),
		keyOrNull(rec.Kind == remote.KindNote, rec.Month.String()),
		string(linesJSON),
		rec.ModTime.Format(time.RFC3339Nano),
	)
	if err != nil {
		return remote.Record{}, remote.NewError(remote.CodeRejected, "create", err)
	}
	return rec, nil
}

// Update implements remote.Store.
func (s *Store) Update(ctx context.Context, rec remote.Record) (remote.Record, error) {
	linesJSON, err := json.Marshal(rec.Lines)
	if err != nil {
		return remote.Record{}, remote.NewError(remote.CodeRejected, "update", err)
	}

	rec.ModTime = time.Now().UTC()

	query := `UPDATE records SET lines = ?, mod_time = ? WHERE id = ? AND zone = ?`
	res, err := s.conn.ExecContext(ctx, query,
		string(linesJSON),
		rec.ModTime.Format(time.RFC3339Nano),
		rec.ID,
		rec.Zone,
	)
	if err != nil {
		return remote.Record{}, remote.NewError(remote.CodeRejected, "update", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return remote.Record{}, remote.NewError(remote.CodeRejected, "update", err)
	}
	if affected == 0 {
		return remote.Record{}, remote.NewError(remote.CodeUnknownItem, "update",
			fmt.Errorf("record %s not found in zone %s", rec.ID, rec.Zone))
	}
	return rec, nil
}

// Delete implements remote.Store. Deleting a missing record fails with
// CodeUnknownItem so callers can distinguish a repeat delete.
func (s *Store) Delete(ctx context.Context, id, zone string) error {
	res, err := s.conn.ExecContext(ctx, "DELETE FROM records WHERE id = ? AND zone = ?", id, zone)
	if err != nil {
		return remote.NewError(remote.CodeRejected, "delete", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return remote.NewError(remote.CodeRejected, "delete", err)
	}
	if affected == 0 {
		return remote.NewError(remote.CodeUnknownItem, "delete",
			fmt.Errorf("record %s not found in zone %s", id, zone))
	}
	return nil
}

// AccountStatus implements remote.Store. The embedded backend is available
// whenever the database file answers.
func (s *Store) AccountStatus(ctx context.Context) (remote.AccountStatus, error) {
	if err := s.conn.PingContext(ctx); err != nil {
		return remote.AccountTemporarilyUnavailable, nil
	}
	return remote.AccountAvailable, nil
}

// CreateShare implements remote.Store. The handle is stable per zone so
// repeated calls hand out the same reference.
func (s *Store) CreateShare(ctx context.Context, zone string) (remote.ShareHandle, error) {
	if err := s.zoneExists(ctx, zone); err != nil {
		return "", remote.NewError(remote.CodeShareFailed, "create_share", err)
	}

	var handle string
	err := s.conn.QueryRowContext(ctx, "SELECT handle FROM shares WHERE zone = ?", zone).Scan(&handle)
	if err == nil {
		return remote.ShareHandle(handle), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", remote.NewError(remote.CodeShareFailed, "create_share", err)
	}

	handle = fmt.Sprintf("rotacal://share/%s/%s", zone, uuid.NewString())
	query := `INSERT INTO shares (zone, handle, created_at) VALUES (?, ?, ?)`
	if _, err := s.conn.ExecContext(ctx, query, zone, handle, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return "", remote.NewError(remote.CodeShareFailed, "create_share", err)
	}
	return remote.ShareHandle(handle), nil
}

// RecordCount returns the number of records in a zone, for status output.
func (s *Store) RecordCount(ctx context.Context, zone string) (int, error) {
	var count int
	err := s.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM records WHERE zone = ?", zone).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// scanRecords is a helper to scan records from query results.
func scanRecords(rows *sql.Rows) ([]remote.Record, error) {
	var records []remote.Record

	for rows.Next() {
		var rec remote.Record
		var kind int
		var day, month sql.NullString
		var linesJSON, modTime string

		if err := rows.Scan(&rec.ID, &rec.Zone, &kind, &day, &month, &linesJSON, &modTime); err != nil {
			return nil, remote.NewError(remote.CodeQueryFailed, "query", fmt.Errorf("failed to scan record: %w", err))
		}
		rec.Kind = remote.Kind(kind)

		if day.Valid && day.String != "" {
			k, err := schedule.ParseDayKey(day.String)
			if err != nil {
				return nil, remote.NewError(remote.CodeQueryFailed, "query", err)
			}
			rec.Day = k
		}
		if month.Valid && month.String != "" {
			k, err := schedule.ParseMonthKey(month.String)
			if err != nil {
				return nil, remote.NewError(remote.CodeQueryFailed, "query", err)
			}
			rec.Month = k
		}

		if err := json.Unmarshal([]byte(linesJSON), &rec.Lines); err != nil {
			return nil, remote.NewError(remote.CodeQueryFailed, "query", fmt.Errorf("failed to unmarshal lines: %w", err))
		}

		if t, err := time.Parse(time.RFC3339Nano, modTime); err == nil {
			rec.ModTime = t
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, remote.NewError(remote.CodeQueryFailed, "query", err)
	}
	return records, nil
}

// keyOrNull returns the key string when present is true, else SQL NULL.
func keyOrNull(present bool, key string) sql.NullString {
	if !present {
		return sql.NullString{}
	}
	return sql.NullString{String: key, Valid: true}
}
