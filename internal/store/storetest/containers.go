//go:build integration

package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gestaozabele/farmdesk/internal/db"
	"github.com/gestaozabele/farmdesk/internal/store"
)

const postgresImage = "postgres:16-alpine"

var (
	pgOnce sync.Once
	pgDSN  string
	pgErr  error
)

// PostgresDSN sobe (uma vez por execução) um Postgres com o schema aplicado.
func PostgresDSN(t testing.TB) string {
	t.Helper()

	if testing.Short() {
		t.Skip("integração exige Docker")
	}

	pgOnce.Do(func() {
		pgDSN, pgErr = startPostgres(context.Background())
	})
	if pgErr != nil {
		t.Fatalf("postgres de teste: %v", pgErr)
	}
	return pgDSN
}

// NewPostgres devolve um adapter sobre o Postgres de teste, com as tabelas de
// dados esvaziadas (lookups preservados).
func NewPostgres(t testing.TB) *store.PostgresAdapter {
	t.Helper()

	ctx := context.Background()
	adapter, err := store.OpenPostgres(ctx, PostgresDSN(t))
	if err != nil {
		t.Fatalf("abrir postgres: %v", err)
	}
	t.Cleanup(func() { adapter.Close() })

	_, err = adapter.Pool().Exec(ctx, `TRUNCATE farms, persons, companies, profiles, ice_detection_systems CASCADE`)
	if err != nil {
		t.Fatalf("limpar tabelas: %v", err)
	}
	return adapter
}

func startPostgres(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "farmdesk",
			"POSTGRES_USER":     "farmdesk",
			"POSTGRES_PASSWORD": "farmdesk",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("iniciar container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("host do container: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("porta do container: %w", err)
	}

	dsn := fmt.Sprintf("postgres://farmdesk:farmdesk@%s:%s/farmdesk?sslmode=disable", host, port.Port())
	if _, err := db.MigratePostgres(dsn); err != nil {
		return "", fmt.Errorf("migrar: %w", err)
	}
	return dsn, nil
}

// RedisAddr sobe (uma vez por execução) um Redis e devolve host:porta.
func RedisAddr(t testing.TB) string {
	t.Helper()

	if testing.Short() {
		t.Skip("integração exige Docker")
	}

	redisOnce.Do(func() {
		redisAddr, redisErr = startRedis(context.Background())
	})
	if redisErr != nil {
		t.Fatalf("redis de teste: %v", redisErr)
	}
	return redisAddr
}

var (
	redisOnce sync.Once
	redisAddr string
	redisErr  error
)

func startRedis(ctx context.Context) (string, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("iniciar container: %w", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}
