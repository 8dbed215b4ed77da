// Command verify-db applies pending SQL migrations and optionally seeds a
// development dataset. It takes an advisory lock so concurrent deploys cannot
// race each other, and refuses to run when an already-applied migration file
// has been edited.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"moveflow/internal/core"
	"moveflow/internal/db"
	"moveflow/internal/logger"
)

// advisoryLockKey is arbitrary but must stay stable across releases.
const advisoryLockKey = 8230114

func main() {
	_ = godotenv.Load()
	if err := logger.Setup(logger.FromEnv()); err != nil {
		panic(err)
	}
	log := logger.WithComponent("verify-db")

	seed := flag.Bool("seed", false, "seed a development staff account and demo catalog override")
	dir := flag.String("dir", "migrations", "directory containing NNN_description.sql files")
	flag.Parse()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to acquire connection for lock")
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", advisoryLockKey).Scan(&locked); err != nil {
		log.Fatal().Err(err).Msg("advisory lock query failed")
	}
	if !locked {
		log.Fatal().Msg("another migrator is currently running")
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    TEXT PRIMARY KEY,
			filename   TEXT NOT NULL,
			checksum   TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		log.Fatal().Err(err).Msg("failed to create schema_migrations table")
	}

	for _, filename := range discoverMigrations(*dir) {
		applyMigration(ctx, pool, *dir, filename)
	}

	if *seed {
		seedDevData(ctx, pool)
	}

	log.Info().Msg("all migrations processed")
}

func discoverMigrations(dir string) []string {
	log := logger.WithComponent("verify-db")
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", dir).Msg("failed to read migrations directory")
	}

	var filenames []string
	seen := make(map[string]bool)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		version := extractVersion(entry.Name())
		if seen[version] {
			log.Fatal().Str("version", version).Msg("duplicate migration version")
		}
		seen[version] = true
		filenames = append(filenames, entry.Name())
	}
	sort.Strings(filenames)
	return filenames
}

func extractVersion(filename string) string {
	parts := strings.SplitN(filename, "_", 2)
	if len(parts) < 2 {
		log := logger.WithComponent("verify-db")
		log.Fatal().Str("filename", filename).Msg("expected NNN_description.sql")
	}
	return parts[0]
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, dir, filename string) {
	log := logger.WithComponent("verify-db").With().Str("migration", filename).Logger()
	version := extractVersion(filename)

	sqlBytes, err := os.ReadFile(filepath.Join(dir, filename))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read migration file")
	}
	sum := sha256.Sum256(sqlBytes)
	checksum := hex.EncodeToString(sum[:])

	var applied string
	err = pool.QueryRow(ctx, "SELECT checksum FROM schema_migrations WHERE version = $1", version).Scan(&applied)
	switch {
	case err == nil:
		if applied != checksum {
			log.Fatal().Msg("checksum mismatch: applied migration file was edited")
		}
		log.Info().Msg("already applied, skipping")
		return
	case errors.Is(err, pgx.ErrNoRows):
		// not applied yet
	default:
		log.Fatal().Err(err).Msg("failed to query schema_migrations")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, string(sqlBytes)); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, filename, checksum) VALUES ($1, $2, $3)",
		version, filename, checksum,
	); err != nil {
		log.Fatal().Err(err).Msg("failed to record migration")
	}
	if err := tx.Commit(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to commit migration")
	}
	log.Info().Msg("applied")
}

// seedDevData inserts a known admin account and one demo price override so a
// fresh environment is immediately usable. Idempotent.
func seedDevData(ctx context.Context, pool *pgxpool.Pool) {
	log := logger.WithComponent("verify-db")

	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		password = "flyttadmin"
		log.Warn().Msg("SEED_ADMIN_PASSWORD not set, using the default dev password")
	}

	hash, err := core.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash seed password")
	}

	if _, err := pool.Exec(ctx, `
		INSERT INTO staff (username, display_name, role, password_hash)
		VALUES ('admin', 'Administratör', 'admin', $1)
		ON CONFLICT (username) DO NOTHING
	`, hash); err != nil {
		log.Fatal().Err(err).Msg("failed to seed admin account")
	}

	// Winter campaign price for cleaning, as an override example.
	if _, err := pool.Exec(ctx, `
		INSERT INTO service_catalog_overrides (service_id, name, unit_price, rut_eligible, category, priority, effective_to)
		SELECT 'cleaning', 'Flyttstädning (kampanj)', 1800, true, 'cleaning', 10, $1::date
		WHERE NOT EXISTS (SELECT 1 FROM service_catalog_overrides WHERE service_id = 'cleaning')
	`, time.Now().UTC().AddDate(0, 3, 0).Format("2006-01-02")); err != nil {
		log.Fatal().Err(err).Msg("failed to seed catalog override")
	}

	log.Info().Msg("development seed applied")
}
