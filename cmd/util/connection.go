package util

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/schemakit/schemakit/internal/logger"
)

// ConnectionConfig holds database connection parameters. Password falls
// back to PGPASSWORD when empty.
type ConnectionConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	ApplicationName string
}

// DSN renders the config as a keyword/value connection string.
func (c *ConnectionConfig) DSN() string {
	parts := []string{
		fmt.Sprintf("host=%s", c.Host),
		fmt.Sprintf("port=%d", c.Port),
		fmt.Sprintf("dbname=%s", c.Database),
		fmt.Sprintf("user=%s", c.User),
	}
	if c.Password != "" {
		parts = append(parts, fmt.Sprintf("password=%s", c.Password))
	}
	if c.SSLMode != "" {
		parts = append(parts, fmt.Sprintf("sslmode=%s", c.SSLMode))
	}
	if c.ApplicationName != "" {
		parts = append(parts, fmt.Sprintf("application_name=%s", c.ApplicationName))
	}
	return strings.Join(parts, " ")
}

// Connect opens and pings a database connection.
func Connect(config *ConnectionConfig) (*sql.DB, error) {
	log := logger.Get()

	if config.Port == 0 {
		config.Port = 5432
	}
	if config.Password == "" {
		config.Password = os.Getenv("PGPASSWORD")
	}
	if config.ApplicationName == "" {
		config.ApplicationName = "schemakit"
	}

	log.Debug("connecting to database",
		"host", config.Host,
		"port", config.Port,
		"database", config.Database,
		"user", config.User,
		"application_name", config.ApplicationName,
	)

	conn, err := sql.Open("pgx", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return conn, nil
}
