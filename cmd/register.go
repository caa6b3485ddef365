package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemakit/schemakit"
	"github.com/schemakit/schemakit/model"
)

var (
	registerConn    connFlags
	registerFile    string
	registerReplace bool
	registerApply   bool
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a model definition",
	Long: `Register a model definition from a YAML file. The definition is
compiled, persisted, and becomes visible to every process sharing the
database. With --apply the backing table is reconciled immediately.`,
	RunE: runRegister,
}

func init() {
	registerConn.register(RegisterCmd)
	RegisterCmd.Flags().StringVar(&registerFile, "file", "", "Path to the model definition YAML file (required)")
	RegisterCmd.Flags().BoolVar(&registerReplace, "replace", false, "Replace an existing model with the same name")
	RegisterCmd.Flags().BoolVar(&registerApply, "apply", false, "Reconcile the backing table after registration")
	RegisterCmd.MarkFlagRequired("file")
}

func runRegister(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	doc, err := os.ReadFile(registerFile)
	if err != nil {
		return fmt.Errorf("failed to read model file: %w", err)
	}

	client, conn, err := registerConn.client(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	mode := model.ModeStrict
	if registerReplace {
		mode = model.ModeReplace
	}

	def, err := client.RegisterModelYAML(ctx, doc, mode)
	if err != nil {
		return err
	}
	fmt.Printf("registered model %q version %d (%d fields)\n", def.Name, def.Version, len(def.Fields))

	if !registerApply {
		return nil
	}
	unit, outcome, err := client.Reconcile(ctx, def.Name)
	if err != nil {
		return err
	}
	printOutcome(unit, outcome)
	return nil
}

func printOutcome(unit *schemakit.Unit, outcome *schemakit.Outcome) {
	switch {
	case outcome.Statements == 0:
		fmt.Println("schema already in step, nothing applied")
	case outcome.AlreadyApplied:
		fmt.Printf("unit %.8s already applied\n", outcome.UnitID)
	default:
		fmt.Printf("applied unit %.8s (%d statements)\n", outcome.UnitID, outcome.Statements)
	}
	for _, action := range unit.Review() {
		fmt.Printf("needs review: column %q: %s\n", action.Column, action.Reason)
	}
}
