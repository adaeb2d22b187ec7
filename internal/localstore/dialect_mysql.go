package localstore

import (
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) DriverName() string {
	return "mysql"
}

func (d *MySQLDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *MySQLDialect) RewriteQuery(query string) string {
	// MySQL uses ? placeholders like SQLite, no rewrite needed
	return query
}

func (d *MySQLDialect) ConfigureConnection(db *sql.DB) error {
	// Configure connection pool for MySQL
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	return nil
}

func (d *MySQLDialect) EnsureSchemaQuery() string {
	return "CREATE TABLE IF NOT EXISTS kv (" +
		"name VARCHAR(191) PRIMARY KEY, " +
		"value TEXT NOT NULL, " +
		"updated_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6))"
}

func (d *MySQLDialect) UpsertQuery() string {
	return "INSERT INTO kv (name, value) VALUES (?, ?) " +
		"ON DUPLICATE KEY UPDATE value = VALUES(value), updated_at = CURRENT_TIMESTAMP(6)"
}
