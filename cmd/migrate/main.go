// Command migrate applies the embedded goose migrations to the postgres
// database and reports estimate documents stored at other schema versions.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/straye-as/bid-estimator/internal/config"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"github.com/straye-as/bid-estimator/migrations"
)

const usage = "usage: migrate [up|down|status|version|check|create <name>]"

// New migration files are written to the source tree, then embedded on the next build
const sourceDir = "migrations"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Migration error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	command, arguments := args[0], args[1:]

	if command == "create" {
		if len(arguments) == 0 {
			return fmt.Errorf("create requires a migration name")
		}
		if err := goose.Create(nil, sourceDir, arguments[0], "sql"); err != nil {
			return fmt.Errorf("failed to create migration: %w", err)
		}
		fmt.Fprintf(out, "Migration created: %s\n", arguments[0])
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Database.Driver == config.DriverSQLite {
		return fmt.Errorf("sqlite databases are created by database.autoMigrate; goose migrations target postgres")
	}

	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	ctx := context.Background()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	switch command {
	case "up":
		if err := goose.Up(db, "."); err != nil {
			return fmt.Errorf("failed to run up migrations: %w", err)
		}
		fmt.Fprintln(out, "Migrations applied successfully")
		return checkSchemaVersions(ctx, db, out)

	case "down":
		if err := goose.Down(db, "."); err != nil {
			return fmt.Errorf("failed to run down migration: %w", err)
		}
		fmt.Fprintln(out, "Migration rolled back successfully")

	case "status":
		if err := goose.Status(db, "."); err != nil {
			return fmt.Errorf("failed to get migration status: %w", err)
		}

	case "version":
		if err := goose.Version(db, "."); err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}

	case "check":
		return checkSchemaVersions(ctx, db, out)

	default:
		return fmt.Errorf("unknown command: %s\n%s", command, usage)
	}

	return nil
}

// checkSchemaVersions counts stored estimate documents per schema version.
// Older documents are upgraded when read; newer ones cannot be decoded by
// this build and fail the check.
func checkSchemaVersions(ctx context.Context, db *sql.DB, out io.Writer) error {
	rows, err := db.QueryContext(ctx,
		"SELECT schema_version, COUNT(*) FROM estimates GROUP BY schema_version ORDER BY schema_version")
	if err != nil {
		return fmt.Errorf("failed to read estimate schema versions: %w", err)
	}
	defer rows.Close()

	var newer int64
	for rows.Next() {
		var version int
		var count int64
		if err := rows.Scan(&version, &count); err != nil {
			return fmt.Errorf("failed to scan schema version: %w", err)
		}

		state := "current"
		switch {
		case version < estimate.SchemaVersion:
			state = fmt.Sprintf("upgraded to %d on read", estimate.SchemaVersion)
		case version > estimate.SchemaVersion:
			state = "newer than this build"
			newer += count
		}
		fmt.Fprintf(out, "schema version %d: %d estimates (%s)\n", version, count, state)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read estimate schema versions: %w", err)
	}

	if newer > 0 {
		return fmt.Errorf("%d estimates use a schema version newer than %d", newer, estimate.SchemaVersion)
	}
	return nil
}
