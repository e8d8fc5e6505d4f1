package storage

import (
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"

	"landed-cost/internal/errors"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const sqliteDialect = "sqlite3"

// Migrate runs all pending schema migrations embedded in the binary.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(sqliteDialect); err != nil {
		return errors.Storage("set goose dialect", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return errors.Storage("run schema migrations", err)
	}
	return nil
}
