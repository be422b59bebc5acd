package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"fileflow/config"
	"fileflow/internal/domain/download"
	outboxdomain "fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"
	"fileflow/pkg/database"
)

const usage = `
FileFlow - Database CLI Tool

Usage:
  migrate [command] [flags]

Commands:
  up          Run all migrations (SQL + GORM)
  status      Show database connection status
  reset       Drop all tables and re-run migrations (DANGEROUS)

Flags:
  -migrations string   Path to migrations directory (default "migrations")

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go status
  go run cmd/migrate/main.go reset
`

func models() []interface{} {
	return []interface{}{
		&session.UploadSession{},
		&session.CompletedPart{},
		&outboxdomain.Entry{},
		&download.ExternalDownload{},
	}
}

func main() {
	migrationsDir := flag.String("migrations", "migrations", "Path to migrations directory")

	flag.Usage = func() {
		fmt.Print(usage)
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(1)
	}

	command := flag.Arg(0)

	cfg := config.LoadConfig()
	database.Connect(cfg)
	defer database.Close()

	switch command {
	case "up":
		runMigrationsUp(*migrationsDir)
	case "status":
		showStatus()
	case "reset":
		runReset(*migrationsDir)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runMigrationsUp(migrationsDir string) {
	log.Println("Running migrations UP...")

	if err := database.RunFullMigration(migrationsDir, models()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully")
}

func showStatus() {
	log.Println("Checking database status...")

	if err := database.Ping(); err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Database connection: OK")

	tables := []string{"upload_sessions", "upload_session_parts", "outbox_entries", "external_downloads"}
	for _, table := range tables {
		exists, err := database.TableExists(table)
		if err != nil {
			log.Printf("Error checking table %s: %v", table, err)
			continue
		}
		if exists {
			count, _ := database.GetTableCount(table)
			log.Printf("Table %-24s exists (%d rows)", table, count)
		} else {
			log.Printf("Table %-24s does not exist", table)
		}
	}
}

func runReset(migrationsDir string) {
	log.Println("WARNING: dropping all tables and re-running migrations")

	if err := database.DropAllTables(); err != nil {
		log.Fatalf("Failed to drop tables: %v", err)
	}
	if err := database.RunFullMigration(migrationsDir, models()...); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Database reset completed")
}
