//go:build integration

// Package containers starts throwaway backing services for integration
// tests. Containers are shared per test binary; Ryuk reaps them afterwards.
package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"rollcall/internal/platform/database"
)

// postgresImage ships the pgvector extension the descriptor column needs.
const postgresImage = "pgvector/pgvector:pg16"

// PostgresContainer wraps a testcontainers Postgres instance with the
// schema migrated and a ready *sql.DB.
type PostgresContainer struct {
	Container *tcpostgres.PostgresContainer
	URL       string
	DB        *sql.DB
}

var (
	pgOnce     sync.Once
	pgInstance *PostgresContainer
	pgStartErr error
)

// GetPostgres returns the shared migrated Postgres container, starting it
// on first use.
func GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()

	pgOnce.Do(func() {
		pgInstance, pgStartErr = startPostgres()
	})
	if pgStartErr != nil {
		t.Fatalf("failed to start postgres container: %v", pgStartErr)
	}
	return pgInstance
}

func startPostgres() (*PostgresContainer, error) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("rollcall_test"),
		tcpostgres.WithUsername("rollcall"),
		tcpostgres.WithPassword("rollcall"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("run container: %w", err)
	}

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("connection string: %w", err)
	}

	if err := database.RunMigrations(url); err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := database.Open(url)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &PostgresContainer{Container: container, URL: url, DB: db}, nil
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, query)
	return err
}
