// Package graphdb implements the marketplace graph on Neo4j.
package graphdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"

	"github.com/starford/offcuts/internal/apperr"
	"github.com/starford/offcuts/internal/graph"
)

// Config holds the connection settings.
type Config struct {
	URI         string
	Username    string
	Password    string
	Database    string
	MaxPoolSize int
	TxTimeout   time.Duration
}

// DB is a graph.Backend on a Neo4j server.
type DB struct {
	driver    neo4j.DriverWithContext
	database  string
	txTimeout time.Duration
	hasher    graph.PasswordHasher
	now       func() time.Time
}

var _ graph.Backend = (*DB)(nil)

// Open connects to Neo4j, verifies connectivity and ensures the schema constraints exist.
func Open(ctx context.Context, cfg Config, hasher graph.PasswordHasher) (*DB, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *config.Config) {
			if cfg.MaxPoolSize > 0 {
				c.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
		})
	if err != nil {
		return nil, fmt.Errorf("graphdb: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fault("verify connectivity", err)
	}

	db := &DB{
		driver:    driver,
		database:  cfg.Database,
		txTimeout: cfg.TxTimeout,
		hasher:    hasher,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if err := db.ensureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, err
	}
	return db, nil
}

// ensureSchema creates the uniqueness constraint on User.login.
func (db *DB) ensureSchema(ctx context.Context) error {
	_, err := neo4j.ExecuteQuery(ctx, db.driver,
		"CREATE CONSTRAINT user_login_unique IF NOT EXISTS FOR (u:User) REQUIRE u.login IS UNIQUE",
		nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(db.database),
	)
	if err != nil {
		return fault("ensure schema", err)
	}
	return nil
}

// Close releases the driver's connections.
func (db *DB) Close() error {
	return db.driver.Close(context.Background())
}

// Ping checks that the server is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.driver.VerifyConnectivity(ctx); err != nil {
		return fault("ping", err)
	}
	return nil
}

func (db *DB) txConfig() []func(*neo4j.TransactionConfig) {
	if db.txTimeout <= 0 {
		return nil
	}
	return []func(*neo4j.TransactionConfig){neo4j.WithTxTimeout(db.txTimeout)}
}

// read runs work in a managed read transaction. The driver retries transient failures.
func read[T any](ctx context.Context, db *DB, op string, work func(tx neo4j.ManagedTransaction) (T, error)) (T, error) {
	session := db.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead, DatabaseName: db.database})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(tx)
	}, db.txConfig()...)
	if err != nil {
		var zero T
		return zero, fault(op, err)
	}
	return out.(T), nil
}

// write runs work in a managed write transaction.
func write[T any](ctx context.Context, db *DB, op string, work func(tx neo4j.ManagedTransaction) (T, error)) (T, error) {
	session := db.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite, DatabaseName: db.database})
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		return work(tx)
	}, db.txConfig()...)
	if err != nil {
		var zero T
		return zero, fault(op, err)
	}
	return out.(T), nil
}

// collect runs one statement and buffers its records.
func collect(ctx context.Context, tx neo4j.ManagedTransaction, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	return res.Collect(ctx)
}

// fault wraps a driver error as store-unavailable. Corrupt backup errors pass through.
func fault(op string, err error) error {
	if errors.Is(err, apperr.ErrCorruptBackup) || errors.Is(err, apperr.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("graphdb: %s: %w: %w", op, apperr.ErrStoreUnavailable, err)
}

func isConstraintViolation(err error) bool {
	var ne *neo4j.Neo4jError
	return errors.As(err, &ne) && ne.Code == "Neo.ClientError.Schema.ConstraintValidationFailed"
}

func nodeValue(rec *neo4j.Record, key string) (neo4j.Node, bool) {
	v, ok := rec.Get(key)
	if !ok {
		return neo4j.Node{}, false
	}
	n, ok := v.(neo4j.Node)
	return n, ok
}

func recordValue(rec *neo4j.Record, key string) any {
	v, _ := rec.Get(key)
	return v
}
