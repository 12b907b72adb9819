// Package main is the entry point for the NoteVault database migration tool.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/halverson/notevault/internal/config"
	"github.com/halverson/notevault/internal/repository/postgres"
	"github.com/halverson/notevault/internal/repository/sqlite"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "version":
		fmt.Printf("NoteVault Migration Tool\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)

	case "up":
		runUp()

	case "status":
		runStatus()

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runUp() {
	ctx := context.Background()
	cfg := config.MustLoad(os.Getenv("NOTEVAULT_CONFIG"))
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			fatal("Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			fatal("Migration failed: %v", err)
		}

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			fatal("Failed to open SQLite: %v", err)
		}
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			fatal("Migration failed: %v", err)
		}

	default:
		fatal("Unsupported database driver: %s", cfg.Database.Driver)
	}

	fmt.Println("Migrations applied")
}

func runStatus() {
	ctx := context.Background()
	cfg := config.MustLoad(os.Getenv("NOTEVAULT_CONFIG"))
	logger := zerolog.Nop()

	var version int

	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.NewDB(ctx, cfg.Database, logger)
		if err != nil {
			fatal("Failed to connect to PostgreSQL: %v", err)
		}
		defer db.Close()
		err = db.Pool.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
		if err != nil {
			fatal("Failed to read migration status: %v", err)
		}

	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(cfg.Database.Path), logger)
		if err != nil {
			fatal("Failed to open SQLite: %v", err)
		}
		defer db.Close()
		err = db.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
		if err != nil {
			fatal("Failed to read migration status: %v", err)
		}

	default:
		fatal("Unsupported database driver: %s", cfg.Database.Driver)
	}

	fmt.Printf("Driver: %s\nCurrent version: %d\n", cfg.Database.Driver, version)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`NoteVault Migration Tool

Usage:
  notevault-migrate <command>

Commands:
  up          Run all pending migrations
  status      Show current migration status
  version     Print version information
  help        Show this help message

Configuration is read from the NOTEVAULT_CONFIG file path and
NOTEVAULT_* environment variables, the same as the server.

Examples:
  notevault-migrate up
  notevault-migrate status`)
}
