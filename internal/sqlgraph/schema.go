// Package sqlgraph keeps the marketplace's labeled property graph in SQLite.
//
// Nodes and relationships live in two tables with JSON-encoded properties. It serves local
// runs without a graph server and backs the domain test suite.
package sqlgraph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/graph"
)

const driverName = "sqlite3_offcuts"

func init() {
	// casefold lowers Unicode text; the built-in lower() only folds ASCII.
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("casefold", strings.ToLower, true)
		},
	})
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS nodes (
	id    INTEGER PRIMARY KEY AUTOINCREMENT,
	label TEXT NOT NULL,
	props TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS edges (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	type     TEXT NOT NULL,
	start_id INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	end_id   INTEGER NOT NULL REFERENCES nodes(id) ON DELETE CASCADE,
	props    TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_nodes_label ON nodes(label);
CREATE UNIQUE INDEX IF NOT EXISTS idx_nodes_user_login
	ON nodes(json_extract(props, '$.login')) WHERE label = 'User';
CREATE INDEX IF NOT EXISTS idx_edges_start ON edges(start_id, type);
CREATE INDEX IF NOT EXISTS idx_edges_end ON edges(end_id, type);
`

// DB is a graph.Backend on SQLite.
type DB struct {
	conn   *sql.DB
	hasher graph.PasswordHasher
	now    func() time.Time
}

var _ graph.Backend = (*DB)(nil)

// Open opens (or creates) the database at path and applies the schema.
// Write transactions take the database lock on BEGIN so concurrent writers queue up.
func Open(path string, hasher graph.PasswordHasher) (*DB, error) {
	conn, err := sql.Open(driverName, path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("sqlgraph: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlgraph: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlgraph: apply schema: %w", err)
	}
	return &DB{
		conn:   conn,
		hasher: hasher,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fault("ping", err)
	}
	return nil
}

// withTx runs fn in one transaction and commits when it returns nil.
func (db *DB) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fault(op, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return fault(op, err)
	}
	if err := tx.Commit(); err != nil {
		return fault(op, err)
	}
	return nil
}

// fault wraps an engine error as store-unavailable. Corrupt backup errors pass through.
func fault(op string, err error) error {
	if errors.Is(err, apperr.ErrCorruptBackup) || errors.Is(err, apperr.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("sqlgraph: %s: %w: %w", op, apperr.ErrStoreUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
