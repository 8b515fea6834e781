package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/username/prematch/internal/notify"
)

const (
	artifactDefinition = "definition"
	artifactMapping    = "mapping"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS artifacts (
		name       TEXT PRIMARY KEY,
		data       BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS pending_requests (
		identifier TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		trigger_at INTEGER NOT NULL
	)`,
}

// SQLiteStore keeps artifacts and pending requests in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (and migrates) the database at path.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open sqlite store: %w", err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
	}

	logger.Debug("SQLite store opened", zap.String("path", path))
	return &SQLiteStore{db: db, logger: logger}, nil
}

// withTransaction commits on success and rolls back on error or panic.
func (s *SQLiteStore) withTransaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) loadArtifact(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM artifacts WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	return data, nil
}

func (s *SQLiteStore) saveArtifact(ctx context.Context, name string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifacts (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", name, err)
	}
	return nil
}

func (s *SQLiteStore) LoadDefinition(ctx context.Context) ([]byte, error) {
	return s.loadArtifact(ctx, artifactDefinition)
}

func (s *SQLiteStore) SaveDefinition(ctx context.Context, data []byte) error {
	if err := s.saveArtifact(ctx, artifactDefinition, data); err != nil {
		return err
	}
	s.logger.Info("Definition saved", zap.Int("bytes", len(data)))
	return nil
}

func (s *SQLiteStore) LoadMapping(ctx context.Context) (map[string]string, error) {
	data, err := s.loadArtifact(ctx, artifactMapping)
	if err != nil {
		return nil, err
	}
	var mapping map[string]string
	if err := json.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("failed to parse stored mapping: %w", err)
	}
	return mapping, nil
}

func (s *SQLiteStore) SaveMapping(ctx context.Context, mapping map[string]string) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping: %w", err)
	}
	return s.saveArtifact(ctx, artifactMapping, data)
}

func (s *SQLiteStore) ClearMapping(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM artifacts WHERE name = ?`, artifactMapping); err != nil {
		return fmt.Errorf("failed to clear mapping: %w", err)
	}
	return nil
}

func (s *SQLiteStore) PendingRequests(ctx context.Context) ([]notify.Request, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, title, body, trigger_at FROM pending_requests ORDER BY trigger_at, identifier`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	defer rows.Close()

	var reqs []notify.Request
	for rows.Next() {
		var (
			req     notify.Request
			trigger int64
		)
		if err := rows.Scan(&req.Identifier, &req.Title, &req.Body, &trigger); err != nil {
			return nil, err
		}
		req.Trigger = time.Unix(trigger, 0)
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (s *SQLiteStore) PendingIdentifiers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT identifier FROM pending_requests ORDER BY trigger_at, identifier`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending requests: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Add(ctx context.Context, req notify.Request) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO pending_requests (identifier, title, body, trigger_at) VALUES (?, ?, ?, ?)`,
		req.Identifier, req.Title, req.Body, req.Trigger.Unix())
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", req.Identifier, err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, ids []string) error {
	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `DELETE FROM pending_requests WHERE identifier = ?`, id); err != nil {
				return fmt.Errorf("failed to remove %s: %w", id, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
