package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemakit/schemakit"
	"github.com/schemakit/schemakit/cmd/util"
	"github.com/schemakit/schemakit/internal/logger"
	"github.com/schemakit/schemakit/internal/schema"
	"github.com/schemakit/schemakit/internal/version"
)

var Debug bool

var RootCmd = &cobra.Command{
	Use:   "schemakit",
	Short: "Schema-driven data modeling for PostgreSQL",
	Long: fmt.Sprintf(`schemakit declares entity models, validates records against them, and
keeps the physical PostgreSQL schema in step through additive migrations.

Version: %s@%s %s %s

Commands:
  register  Register a model definition
  models    List registered models
  validate  Validate records against a model
  ddl       Print bootstrap DDL for a model
  verify    Diff models against the physical schema
  apply     Apply corrective migrations

Use "schemakit [command] --help" for more information about a command.`,
		version.App(), version.GitCommit, version.Platform(), version.BuildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogger()
	},
}

func init() {
	RootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "Enable debug logging")
	RootCmd.AddCommand(VersionCmd)
	RootCmd.AddCommand(RegisterCmd)
	RootCmd.AddCommand(ModelsCmd)
	RootCmd.AddCommand(ValidateCmd)
	RootCmd.AddCommand(DDLCmd)
	RootCmd.AddCommand(VerifyCmd)
	RootCmd.AddCommand(ApplyCmd)
}

func setupLogger() {
	level := slog.LevelInfo
	if Debug {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger.SetGlobal(slog.New(handler), Debug)
}

// connFlags is the connection flag set shared by store-touching
// commands. Each command owns its own copy, matching cobra's
// one-flag-set-per-command model.
type connFlags struct {
	host       string
	port       int
	db         string
	user       string
	schemaName string
}

func (f *connFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.host, "host", "localhost", "Database server host")
	cmd.Flags().IntVar(&f.port, "port", 5432, "Database server port")
	cmd.Flags().StringVar(&f.db, "db", "", "Database name (required)")
	cmd.Flags().StringVar(&f.user, "user", "", "Database user name (required)")
	cmd.Flags().StringVar(&f.schemaName, "schema", "public", "Schema name to manage")
	cmd.PreRunE = util.PreRunEWithEnvVars(&f.db, &f.user, &f.host, &f.port)
}

// client connects and bootstraps a ready-to-use client. The caller
// closes the returned handle.
func (f *connFlags) client(ctx context.Context) (*schemakit.Client, *sql.DB, error) {
	conn, err := util.Connect(&util.ConnectionConfig{
		Host:     f.host,
		Port:     f.port,
		Database: f.db,
		User:     f.user,
		SSLMode:  "prefer",
	})
	if err != nil {
		return nil, nil, err
	}

	cfg, err := schema.ConfigFromEnv()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	client := schemakit.NewClient(conn, schemakit.Options{Schema: f.schemaName, Config: cfg})
	if err := client.Bootstrap(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return client, conn, nil
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
