// Package catalog persists indexed repositories in SQLite and answers
// time-range queries over them.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/jparise/gh-since/internal/timerange"
	_ "modernc.org/sqlite"
)

// Entry is a repository row in the catalog.
type Entry struct {
	Owner         string
	Name          string
	FullName      string
	DefaultBranch string
	Fork          bool
	Archived      bool
	PushedAt      *time.Time // nil if the repository was never pushed
	IndexedAt     time.Time
}

// Query selects catalog entries. Zero-valued fields apply no restriction.
type Query struct {
	Indexed timerange.Range // bounds on indexed_at
	Active  timerange.Range // bounds on pushed_at
	Owner   string
	Limit   int
}

// Store is a SQLite-backed catalog. All methods are safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the catalog at path. The path ":memory:"
// opens a private in-memory catalog.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	// Every connection to ":memory:" gets its own database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return s, nil
}

// Timestamps are stored as unix nanoseconds (see unixNanos) so range
// predicates compare numerically.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		full_name TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		name TEXT NOT NULL,
		default_branch TEXT NOT NULL,
		fork INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0,
		pushed_at INTEGER,
		indexed_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_repositories_owner ON repositories(owner);
	CREATE INDEX IF NOT EXISTS idx_repositories_indexed ON repositories(indexed_at);
	CREATE INDEX IF NOT EXISTS idx_repositories_pushed ON repositories(pushed_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db.PingContext(ctx)
}

// Save upserts entries keyed by full name in a single transaction.
func (s *Store) Save(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO repositories (
			full_name, owner, name, default_branch, fork, archived, pushed_at, indexed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(full_name) DO UPDATE SET
			owner = excluded.owner,
			name = excluded.name,
			default_branch = excluded.default_branch,
			fork = excluded.fork,
			archived = excluded.archived,
			pushed_at = excluded.pushed_at,
			indexed_at = excluded.indexed_at
	`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		fullName := e.FullName
		if fullName == "" {
			fullName = e.Owner + "/" + e.Name
		}
		_, err := stmt.ExecContext(ctx,
			fullName,
			e.Owner,
			e.Name,
			e.DefaultBranch,
			boolToInt(e.Fork),
			boolToInt(e.Archived),
			nullableNanos(e.PushedAt),
			unixNanos(e.IndexedAt),
		)
		if err != nil {
			return fmt.Errorf("save %s: %w", fullName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// List returns the entries matching q, most recently indexed first.
// Entries with no pushed_at never match a bounded Active range.
func (s *Store) List(ctx context.Context, q Query) ([]Entry, error) {
	var (
		where []string
		args  []any
	)
	bound := func(column string, r timerange.Range) {
		if r.Start != nil {
			where = append(where, column+" >= ?")
			args = append(args, unixNanos(*r.Start))
		}
		if r.End != nil {
			where = append(where, column+" <= ?")
			args = append(args, unixNanos(*r.End))
		}
	}
	bound("indexed_at", q.Indexed)
	bound("pushed_at", q.Active)
	if q.Owner != "" {
		where = append(where, "owner = ? COLLATE NOCASE")
		args = append(args, q.Owner)
	}

	query := `
		SELECT full_name, owner, name, default_branch, fork, archived, pushed_at, indexed_at
		FROM repositories`
	if len(where) > 0 {
		query += "\n\t\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\t\tORDER BY indexed_at DESC, full_name"
	if q.Limit > 0 {
		query += "\n\t\tLIMIT ?"
		args = append(args, q.Limit)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e              Entry
			fork, archived int
			pushed         sql.NullInt64
			indexed        int64
		)
		if err := rows.Scan(&e.FullName, &e.Owner, &e.Name, &e.DefaultBranch,
			&fork, &archived, &pushed, &indexed); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		e.Fork = fork != 0
		e.Archived = archived != 0
		if pushed.Valid {
			t := time.Unix(0, pushed.Int64).UTC()
			e.PushedAt = &t
		}
		e.IndexedAt = time.Unix(0, indexed).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read catalog rows: %w", err)
	}

	return entries, nil
}

var (
	minNanoTime = time.Unix(0, math.MinInt64)
	maxNanoTime = time.Unix(0, math.MaxInt64)
)

// unixNanos is t.UnixNano saturated at the int64 limits, so instants
// outside roughly 1678-2262 still order correctly against stored values.
func unixNanos(t time.Time) int64 {
	switch {
	case t.Before(minNanoTime):
		return math.MinInt64
	case t.After(maxNanoTime):
		return math.MaxInt64
	}
	return t.UnixNano()
}

func nullableNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: unixNanos(*t), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
