package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/schemakit/schemakit"
	"github.com/schemakit/schemakit/internal/color"
)

var (
	verifyConn    connFlags
	verifyModel   string
	verifyNoColor bool
)

var VerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Diff models against the physical schema",
	Long: `Introspect the database and report, per model, missing tables,
missing columns, type mismatches, and undeclared columns. Read-only.
Exits non-zero when any model needs a corrective migration.`,
	RunE: runVerify,
}

func init() {
	verifyConn.register(VerifyCmd)
	VerifyCmd.Flags().StringVar(&verifyModel, "model", "", "Verify a single model instead of all")
	VerifyCmd.Flags().BoolVar(&verifyNoColor, "no-color", false, "Disable colored output")
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, conn, err := verifyConn.client(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	discrepancies := make(map[string]*schemakit.Discrepancy)
	if verifyModel != "" {
		d, err := client.Verify(ctx, verifyModel)
		if err != nil {
			return err
		}
		discrepancies[verifyModel] = d
	} else {
		discrepancies, err = client.VerifyAll(ctx)
		if err != nil {
			return err
		}
	}

	c := color.New(!verifyNoColor)
	names := make([]string, 0, len(discrepancies))
	for name := range discrepancies {
		names = append(names, name)
	}
	sort.Strings(names)

	needsFix := 0
	for _, name := range names {
		d := discrepancies[name]
		header := fmt.Sprintf("%s (table %s)", c.Cyan("%s", name), d.Table)
		if d.IsClean() {
			fmt.Printf("%s %s\n", header, c.Green("in step"))
			continue
		}
		fmt.Println(header)
		if d.TableMissing {
			fmt.Printf("  %s\n", c.Red("table missing"))
		}
		for _, col := range d.MissingColumns {
			fmt.Printf("  %s column %q\n", c.Red("missing"), col)
		}
		for _, m := range d.TypeMismatches {
			fmt.Printf("  %s column %q is %s, model maps to %s\n",
				c.Yellow("mismatch"), m.Column, m.Observed, m.Declared)
		}
		for _, col := range d.ExtraColumns {
			fmt.Printf("  %s column %q not declared by the model\n", c.Yellow("extra"), col)
		}
		if d.NeedsFix() {
			needsFix++
		}
	}

	if needsFix > 0 {
		return fmt.Errorf("%d models need corrective migrations (run apply)", needsFix)
	}
	return nil
}
