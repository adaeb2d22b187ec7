package localstore

import (
	"database/sql"
	"fmt"
	"strings"
)

// DB wraps the database connection with dialect support
type DB struct {
	*sql.DB
	Dialect Dialect
}

// OpenSQLite creates a connection to a local SQLite store at path.
func OpenSQLite(path string) (*DB, error) {
	return open(NewSQLiteDialect(), DialectConfig{Path: path})
}

// Open creates a connection for the configured storage backend.
// Supported types: sqlite (default), postgres, mysql.
func Open(storageType, path, url string) (*DB, error) {
	switch strings.ToLower(storageType) {
	case "postgres", "postgresql":
		return open(NewPostgresDialect(), DialectConfig{URL: url})
	case "mysql":
		return open(NewMySQLDialect(), DialectConfig{URL: url})
	case "sqlite", "sqlite3", "":
		return open(NewSQLiteDialect(), DialectConfig{Path: path})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func open(dialect Dialect, dialectConfig DialectConfig) (*DB, error) {
	db, err := sql.Open(dialect.DriverName(), dialect.DSN(dialectConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Apply dialect-specific configuration
	if err := dialect.ConfigureConnection(db); err != nil {
		return nil, fmt.Errorf("failed to configure connection: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Query executes a query with automatic placeholder rewriting
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.DB.Query(db.Dialect.RewriteQuery(query), args...)
}

// QueryRow executes a query that returns a single row with automatic placeholder rewriting
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.DB.QueryRow(db.Dialect.RewriteQuery(query), args...)
}

// Exec executes a query that doesn't return rows with automatic placeholder rewriting
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.DB.Exec(db.Dialect.RewriteQuery(query), args...)
}

// EnsureSchema creates the kv table if it does not exist.
func (db *DB) EnsureSchema() error {
	if _, err := db.DB.Exec(db.Dialect.EnsureSchemaQuery()); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
