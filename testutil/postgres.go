// Package testutil provides shared test utilities for schemakit
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var suppressedLogger = log.New(io.Discard, "", 0)

// postgresVersion returns the PostgreSQL version to test against. It
// reads SCHEMAKIT_POSTGRES_VERSION, defaulting to "17".
func postgresVersion() string {
	if version := os.Getenv("SCHEMAKIT_POSTGRES_VERSION"); version != "" {
		return version
	}
	return "17"
}

// ContainerInfo holds PostgreSQL container connection details
type ContainerInfo struct {
	Container testcontainers.Container
	Host      string
	Port      int
	DSN       string
	Conn      *sql.DB
}

// SetupPostgresContainer creates a new PostgreSQL test container with
// default credentials.
func SetupPostgresContainer(ctx context.Context, t *testing.T) *ContainerInfo {
	return SetupPostgresContainerWithDB(ctx, t, "testdb", "testuser", "testpass")
}

// SetupPostgresContainerWithDB creates a new PostgreSQL test container
// with custom database settings.
func SetupPostgresContainerWithDB(ctx context.Context, t *testing.T, database, username, password string) *ContainerInfo {
	postgresContainer, err := postgres.Run(ctx,
		"postgres:"+postgresVersion()+"-alpine",
		postgres.WithDatabase(database),
		postgres.WithUsername(username),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
		testcontainers.WithLogger(suppressedLogger),
	)
	if err != nil {
		t.Fatalf("Failed to start container: %v", err)
	}

	testDSN, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	conn, err := sql.Open("pgx", testDSN)
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	containerHost, err := postgresContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	containerPort, err := postgresContainer.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	return &ContainerInfo{
		Container: postgresContainer,
		Host:      containerHost,
		Port:      containerPort.Int(),
		DSN:       testDSN,
		Conn:      conn,
	}
}

// Terminate cleans up the container and connection
func (ci *ContainerInfo) Terminate(ctx context.Context, t *testing.T) {
	ci.Conn.Close()
	if err := ci.Container.Terminate(ctx); err != nil {
		t.Logf("Failed to terminate container: %v", err)
	}
}
