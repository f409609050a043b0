package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations returns the migration files. An empty dir selects the set
// compiled into the binary.
func Migrations(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embedded, "migrations")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("migrations dir: %w", err)
	}
	return os.DirFS(dir), nil
}

// RunMigrations opens a connection to the database and applies every
// pending migration from dir, or from the embedded set when dir is empty.
func RunMigrations(ctx context.Context, databaseURL, dir string) error {
	migrations, err := Migrations(dir)
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
