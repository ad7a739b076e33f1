package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"lottawords/internal/logging"
	"lottawords/internal/puzzle"
)

// SQLiteStore keeps the entry in a one-row-per-key table.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// NewSQLiteStore opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(path, key string) (*SQLiteStore, error) {
	log := logging.Get(logging.CategoryStore)

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("sqlite pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	s := &SQLiteStore{db: db, key: key}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("sqlite cache ready", zap.String("path", path))
	return s, nil
}

// initialize creates the required tables.
func (s *SQLiteStore) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS puzzle_cache (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context) (*puzzle.Entry, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM puzzle_cache WHERE key = ?`, s.key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %s: %w", s.key, err)
	}
	return decode(data)
}

func (s *SQLiteStore) Set(ctx context.Context, e *puzzle.Entry) error {
	data, err := encode(e)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO puzzle_cache (key, data, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		s.key, data, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite set %s: %w", s.key, err)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
