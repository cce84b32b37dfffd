// Package store provides SQLite persistence for users, course content,
// student progress and quiz history.
package store

import (
	"embed"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Repository provides a centralized structure for database operations,
// embedding the database connection. It acts as a receiver for the methods
// implementing the per-entity repositories.
type Repository struct {
	dbConn *sqlx.DB
}

// NewRepository initializes a new Repository with the given database
// connection.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{dbConn: db}
}

// DB exposes the underlying connection for components that share the same
// database file, such as the chunk store.
func (repo *Repository) DB() *sqlx.DB {
	return repo.dbConn
}

// Close terminates the database connection.
func (repo *Repository) Close() error {
	if err := repo.dbConn.Close(); err != nil {
		return fmt.Errorf("closing repo: %w", err)
	}
	return nil
}

// Open establishes a connection to the SQLite database file and applies all
// pending migrations. WAL mode and foreign keys are enabled.
func Open(name string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", fmt.Sprintf("%s?_journal=WAL&_timeout=5000&_fk=true", name))
	if err != nil {
		return nil, fmt.Errorf("connecting to db: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect(string(goose.DialectSQLite3)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting dialect for migrations: %w", err)
	}

	if err := goose.Up(db.DB, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying migration: %w", err)
	}
	return db, nil
}
