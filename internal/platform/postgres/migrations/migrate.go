// Package migrations embeds the SQL schema migrations and applies them with
// goose. The server runs Up on startup so a fresh database is ready without
// a separate migration step.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var embedded embed.FS

// Up applies all pending migrations.
func Up(db *sql.DB) error {
	goose.SetTableName("schema_migrations")
	goose.SetBaseFS(embedded)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
