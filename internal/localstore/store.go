package localstore

import (
	"database/sql"
	"fmt"
)

// Well-known keys in the storefront's persistent storage.
const (
	KeyAuthToken                = "authToken"
	KeyUser                     = "user"
	KeyRememberedEmail          = "rememberedEmail"
	KeyRememberMe               = "rememberMe"
	KeyPendingVerificationEmail = "pendingVerificationEmail"
	KeyCart                     = "cart"
)

// Store is the durable key-value storage for the storefront terminal.
// Writes are synchronous: when Set or Delete returns nil the row is durable,
// so in-memory state and persisted state never disagree between operations.
type Store struct {
	db *DB
}

// NewStore creates a store over an opened database and ensures its schema.
func NewStore(db *DB) (*Store, error) {
	if err := db.EnsureSchema(); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE name = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes a single key.
func (s *Store) Set(key, value string) error {
	if _, err := s.db.Exec(s.db.Dialect.UpsertQuery(), key, value); err != nil {
		return fmt.Errorf("failed to set %q: %w", key, err)
	}
	return nil
}

// SetMany writes all pairs in one transaction. Used where two values must
// never be observed apart, such as the bearer credential and the identity.
func (s *Store) SetMany(pairs map[string]string) error {
	tx, err := s.db.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := s.db.Dialect.RewriteQuery(s.db.Dialect.UpsertQuery())
	for key, value := range pairs {
		if _, err := tx.Exec(query, key, value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Delete removes the given keys in one transaction. Missing keys are not an
// error.
func (s *Store) Delete(keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	tx, err := s.db.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	query := s.db.Dialect.RewriteQuery("DELETE FROM kv WHERE name = ?")
	for _, key := range keys {
		if _, err := tx.Exec(query, key); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to delete %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Keys returns all stored key names.
func (s *Store) Keys() ([]string, error) {
	rows, err := s.db.Query("SELECT name FROM kv ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// All returns every stored pair, used by backup export.
func (s *Store) All() (map[string]string, error) {
	rows, err := s.db.Query("SELECT name, value FROM kv")
	if err != nil {
		return nil, fmt.Errorf("failed to read entries: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries[key] = value
	}
	return entries, rows.Err()
}

// Reset empties the store. Intended for destructive imports and tests.
func (s *Store) Reset() error {
	if _, err := s.db.Exec("DELETE FROM kv"); err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}
