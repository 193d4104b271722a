package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// MigrateSQLite aplica as migrações pendentes no arquivo local, criando-o se necessário.
func MigrateSQLite(path string) (uint, error) {
	conn, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on")
	if err != nil {
		return 0, fmt.Errorf("abrir banco local: %w", err)
	}
	defer conn.Close()

	driver, err := migratesqlite.WithInstance(conn, &migratesqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("driver de migração sqlite: %w", err)
	}
	return run("migrations/sqlite", "sqlite3", driver)
}

// MigratePostgres aplica as migrações pendentes no serviço hospedado.
func MigratePostgres(dsn string) (uint, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return 0, fmt.Errorf("abrir banco hospedado: %w", err)
	}
	defer conn.Close()

	driver, err := migratepgx.WithInstance(conn, &migratepgx.Config{})
	if err != nil {
		return 0, fmt.Errorf("driver de migração pgx: %w", err)
	}
	return run("migrations/postgres", "pgx5", driver)
}

func run(dir, name string, driver database.Driver) (uint, error) {
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return 0, fmt.Errorf("fonte de migrações: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, name, driver)
	if err != nil {
		return 0, fmt.Errorf("instância de migração: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil {
			log.Warn().Err(srcErr).Msg("falha ao fechar fonte de migrações")
		}
		if dbErr != nil {
			log.Debug().Err(dbErr).Msg("falha ao fechar banco de migrações")
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("aplicar migrações: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, err
	}
	if dirty {
		return version, fmt.Errorf("migração %d ficou inconsistente", version)
	}
	log.Info().Str("driver", name).Uint("version", version).Msg("migrações aplicadas")
	return version, nil
}
