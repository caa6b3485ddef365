package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	ddlConn  connFlags
	ddlModel string
)

var DDLCmd = &cobra.Command{
	Use:   "ddl",
	Short: "Print bootstrap DDL for a model",
	Long: `Print the CREATE TABLE and index statements a model's backing table
would be created with. Nothing is executed.`,
	RunE: runDDL,
}

func init() {
	ddlConn.register(DDLCmd)
	DDLCmd.Flags().StringVar(&ddlModel, "model", "", "Model name (required)")
	DDLCmd.MarkFlagRequired("model")
}

func runDDL(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, conn, err := ddlConn.client(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	stmts, err := client.GenerateDDL(ddlModel)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		fmt.Printf("%s;\n\n", stmt)
	}
	return nil
}
