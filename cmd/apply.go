package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	applyConn        connFlags
	applyModel       string
	applyAutoApprove bool
	applyDryRun      bool
)

var ApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply corrective migrations",
	Long: `Derive and apply corrective migration units: missing tables are
created and missing columns added, each unit in one transaction and
recorded in the migration ledger. Destructive changes are never
applied; they are reported for review. Statements are shown and
confirmed before execution unless --auto-approve is set.`,
	RunE: runApply,
}

func init() {
	applyConn.register(ApplyCmd)
	ApplyCmd.Flags().StringVar(&applyModel, "model", "", "Apply for a single model instead of all")
	ApplyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Apply without prompting for approval")
	ApplyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Show the statements without executing them")
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, conn, err := applyConn.client(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	names := client.Models()
	if applyModel != "" {
		names = []string{applyModel}
	}

	applied := 0
	for _, name := range names {
		unit, err := client.Plan(ctx, name)
		if err != nil {
			return err
		}

		for _, action := range unit.Review() {
			fmt.Printf("%s: needs review: column %q: %s\n", name, action.Column, action.Reason)
		}

		stmts := unit.Statements()
		if len(stmts) == 0 {
			continue
		}

		fmt.Printf("%s: unit %.8s:\n", name, unit.ID)
		for _, stmt := range stmts {
			fmt.Printf("  %s;\n", stmt)
		}

		if applyDryRun {
			continue
		}
		if !applyAutoApprove && !confirm() {
			fmt.Printf("%s: skipped\n", name)
			continue
		}

		outcome, err := client.Apply(ctx, unit)
		if err != nil {
			return err
		}
		if outcome.AlreadyApplied {
			fmt.Printf("%s: already applied\n", name)
			continue
		}
		fmt.Printf("%s: applied %d statements\n", name, outcome.Statements)
		applied++
	}

	if applyDryRun {
		fmt.Println("dry run, nothing executed")
		return nil
	}
	if applied == 0 {
		fmt.Println("schema already in step, nothing applied")
	}
	return nil
}

func confirm() bool {
	fmt.Print("Apply these statements? Only 'yes' is accepted: ")
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(answer) == "yes"
}
