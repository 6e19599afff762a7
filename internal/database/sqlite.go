// Package database provides the SQLite storage for drinks.
package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

const schema = `
CREATE TABLE IF NOT EXISTS drinks (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	title  TEXT    NOT NULL UNIQUE,
	recipe TEXT    NOT NULL
)`

// seedTitle and seedRecipe describe the drink inserted by Reset.
const (
	seedTitle  = "water"
	seedRecipe = `[{"name":"water","color":"blue","parts":1}]`
)

// Open connects to the SQLite file at path and makes sure the schema exists.
func Open(ctx context.Context, path string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the drinks table if needed.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create drinks table: %w", err)
	}
	return nil
}

// Reset drops every drink and seeds the table with a single "water" drink.
func Reset(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS drinks"); err != nil {
		return fmt.Errorf("drop drinks table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create drinks table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO drinks (title, recipe) VALUES (?, ?)", seedTitle, seedRecipe); err != nil {
		return fmt.Errorf("seed drinks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return nil
}
