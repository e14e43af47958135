package sqlitestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-booking-client/credentials"
	_ "github.com/mattn/go-sqlite3"
)

var _ credentials.Store = (*Store)(nil)

// Store keeps token pairs for any number of origins in one SQLite database,
// one row per (origin, key).
type Store struct {
	db     *sql.DB
	origin string
}

// Open creates the database file if needed and scopes the store to the origin
// of baseURL.
func Open(dbPath, baseURL string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS credentials (
		origin TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (origin, key)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Store{db: db, origin: credentials.Origin(baseURL)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(credential credentials.Credential) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for key, value := range map[string]string{
		credentials.AccessTokenKey:  credential.AccessToken,
		credentials.RefreshTokenKey: credential.RefreshToken,
	} {
		if _, err := tx.Exec(
			`INSERT INTO credentials (origin, key, value) VALUES (?, ?, ?)
			 ON CONFLICT(origin, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
			s.origin, key, value,
		); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Load() (credentials.Credential, bool, error) {
	rows, err := s.db.Query(`SELECT key, value FROM credentials WHERE origin = ?`, s.origin)
	if err != nil {
		return credentials.Credential{}, false, err
	}
	defer rows.Close()

	var credential credentials.Credential
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return credentials.Credential{}, false, err
		}
		switch key {
		case credentials.AccessTokenKey:
			credential.AccessToken = value
		case credentials.RefreshTokenKey:
			credential.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return credentials.Credential{}, false, err
	}
	return credential, !credential.IsZero(), nil
}

func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM credentials WHERE origin = ?`, s.origin)
	return err
}
