// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mwaldhauer/scilit/pkg/types"
)

const dbFile = "cache.db"

// SQLiteStore is the default file-backed cache store.
type SQLiteStore struct {
	db         *sql.DB
	defaultTTL time.Duration
}

// NewSQLiteStore opens or creates the cache database at cfg.Dir/cache.db
// and creates the schema if it does not exist.
func NewSQLiteStore(cfg types.CacheConfig) (*SQLiteStore, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join("data", "cache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &SQLiteStore{db: db, defaultTTL: cfg.TTL}
	if s.defaultTTL <= 0 {
		s.defaultTTL = DefaultTTL
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_entries_expires ON entries(expires_at);
	`)
	return err
}

// Get returns the cached value for key. An entry past its expiry is
// removed and reported as a miss.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if err != nil {
		// sql.ErrNoRows and transient read failures are both misses.
		return nil, false
	}

	if time.Now().Unix() >= expiresAt {
		s.db.ExecContext(ctx, `DELETE FROM entries WHERE key = ?`, key)
		return nil, false
	}
	return value, true
}

// Set stores value under key. An existing entry is replaced.
func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (key, value, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		key, value, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

// Clear removes entries by key prefix, or everything when prefix is empty.
func (s *SQLiteStore) Clear(ctx context.Context, prefix string) (int, error) {
	var res sql.Result
	var err error
	if prefix == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM entries`)
	} else {
		res, err = s.db.ExecContext(ctx,
			`DELETE FROM entries WHERE key LIKE ? ESCAPE '\'`, likePrefix(prefix))
	}
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Stats reports how many entries are live and how many have expired but
// not yet been lazily removed.
func (s *SQLiteStore) Stats(ctx context.Context) (live, expired int, err error) {
	now := time.Now().Unix()
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN expires_at >  ? THEN 1 END),
			COUNT(CASE WHEN expires_at <= ? THEN 1 END)
		FROM entries`, now, now,
	).Scan(&live, &expired)
	if err != nil {
		return 0, 0, fmt.Errorf("reading cache stats: %w", err)
	}
	return live, expired, nil
}

// Close releases the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// likePrefix escapes LIKE wildcards in prefix and appends the match-all
// suffix.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
