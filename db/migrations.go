package db

import (
	"database/sql"
	"embed"
	"fmt"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/mempush/mempush/log"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

var migrationSource = &migrate.EmbedFileSystemMigrationSource{
	FileSystem: embeddedMigrations,
	Root:       "migrations",
}

// RunMigrationsUp applies all the pending migrations to the database
func RunMigrationsUp(cfg Config) error {
	return runMigrations(cfg, migrate.Up)
}

// RunMigrationsDown reverts all the applied migrations
func RunMigrationsDown(cfg Config) error {
	return runMigrations(cfg, migrate.Down)
}

// CheckMigrations verifies that all the known migrations have been applied to
// the database
func CheckMigrations(cfg Config) error {
	conn, err := openConn(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	migrations, err := migrationSource.FindMigrations()
	if err != nil {
		return fmt.Errorf("error loading embedded migrations, error: %w", err)
	}

	records, err := migrate.GetMigrationRecords(conn, "postgres")
	if err != nil {
		return fmt.Errorf("error getting migration records from the database, error: %w", err)
	}

	if len(records) < len(migrations) {
		return fmt.Errorf("database is out of date, applied migrations: %d, known migrations: %d. Run migrations to fix it", len(records), len(migrations))
	}

	log.Infof("database is up to date, applied migrations: %d", len(records))

	return nil
}

func runMigrations(cfg Config, direction migrate.MigrationDirection) error {
	conn, err := openConn(cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	applied, err := migrate.Exec(conn, "postgres", migrationSource, direction)
	if err != nil {
		return err
	}

	log.Infof("successfully ran %d migrations", applied)

	return nil
}

func openConn(cfg Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)

	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open database connection, error: %w", err)
	}

	return conn, nil
}
