package secretstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const saltName = "kdf_salt"

// SQLiteStore keeps tokens encrypted in a local sqlite database.
type SQLiteStore struct {
	db     *sql.DB
	sealer *sealer
}

// OpenSQLite opens (creating if needed) the database at path, applies the
// schema and derives the sealing key from passphrase.
func OpenSQLite(ctx context.Context, path, passphrase string) (*SQLiteStore, error) {
	if passphrase == "" {
		return nil, errors.New("secret store passphrase must not be empty")
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	salt, err := s.loadOrCreateSalt(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	if s.sealer, err = newSealer(passphrase, salt); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) runMigrations() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not open embedded migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{
		MigrationsTable: "secretstore_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) loadOrCreateSalt(ctx context.Context) ([]byte, error) {
	fresh, err := newSalt()
	if err != nil {
		return nil, err
	}
	// first writer wins; later opens read the stored salt
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO store_meta (name, value) VALUES (?, ?)`, saltName, fresh); err != nil {
		return nil, fmt.Errorf("failed to store salt: %w", err)
	}

	var salt []byte
	if err := s.db.QueryRowContext(ctx,
		`SELECT value FROM store_meta WHERE name = ?`, saltName).Scan(&salt); err != nil {
		return nil, fmt.Errorf("failed to read salt: %w", err)
	}
	return salt, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Tokens, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM secrets WHERE key IN (?, ?)`, KeyAccessToken, KeyRefreshToken)
	if err != nil {
		return Tokens{}, fmt.Errorf("failed to query secrets: %w", err)
	}
	defer rows.Close()

	var t Tokens
	for rows.Next() {
		var key string
		var sealed []byte
		if err := rows.Scan(&key, &sealed); err != nil {
			return Tokens{}, fmt.Errorf("failed to scan secret: %w", err)
		}
		value, err := s.sealer.open(key, sealed)
		if err != nil {
			return Tokens{}, err
		}
		switch key {
		case KeyAccessToken:
			t.AccessToken = value
		case KeyRefreshToken:
			t.RefreshToken = value
		}
	}
	if err := rows.Err(); err != nil {
		return Tokens{}, fmt.Errorf("row iteration error: %w", err)
	}

	if t.AccessToken == "" {
		return Tokens{}, ErrNotFound
	}
	return t, nil
}

func (s *SQLiteStore) Save(ctx context.Context, t Tokens) error {
	access, err := s.sealer.seal(KeyAccessToken, t.AccessToken)
	if err != nil {
		return err
	}
	refresh, err := s.sealer.seal(KeyRefreshToken, t.RefreshToken)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const upsert = `INSERT INTO secrets (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
	                ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, KeyAccessToken, access); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, KeyRefreshToken, refresh); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit secrets: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM secrets WHERE key IN (?, ?)`, KeyAccessToken, KeyRefreshToken); err != nil {
		return fmt.Errorf("failed to clear secrets: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
