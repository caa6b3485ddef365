package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemakit/schemakit/model"
)

var (
	validateConn    connFlags
	validateModel   string
	validateFile    string
	validatePartial bool
)

var ValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate records against a model",
	Long: `Validate records from a JSON file against a registered model. The
file holds either one object or an array of objects; array entries are
validated independently and reported by index. The command exits
non-zero when any record is invalid.`,
	RunE: runValidate,
}

func init() {
	validateConn.register(ValidateCmd)
	ValidateCmd.Flags().StringVar(&validateModel, "model", "", "Model name to validate against (required)")
	ValidateCmd.Flags().StringVar(&validateFile, "file", "", "Path to the JSON records file (required)")
	ValidateCmd.Flags().BoolVar(&validatePartial, "partial", false, "Treat records as partial updates")
	ValidateCmd.MarkFlagRequired("model")
	ValidateCmd.MarkFlagRequired("file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	records, err := readRecords(validateFile)
	if err != nil {
		return err
	}

	client, conn, err := validateConn.client(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	invalid := 0
	for i, record := range records {
		var result *model.Result
		if validatePartial {
			result, err = client.ValidatePartial(validateModel, record)
		} else {
			result, err = client.Validate(validateModel, record)
		}
		if err != nil {
			return err
		}

		for _, w := range result.Warnings {
			fmt.Printf("record %d: warning: %s: %s\n", i, w.Field, w.Message)
		}
		for _, e := range result.Errors {
			fmt.Printf("record %d: error: %s: %s\n", i, e.Field, e.Message)
		}
		if len(result.Errors) > 0 {
			invalid++
		}
	}

	if invalid > 0 {
		return fmt.Errorf("%d of %d records invalid", invalid, len(records))
	}
	fmt.Printf("%d records valid\n", len(records))
	return nil
}

// readRecords decodes one object or an array of objects. Numbers are
// decoded as json.Number so integer fields survive the round trip
// instead of arriving as float64.
func readRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read records file: %w", err)
	}

	var batch []map[string]any
	if err := decodeJSON(data, &batch); err == nil {
		return batch, nil
	}

	var single map[string]any
	if err := decodeJSON(data, &single); err != nil {
		return nil, fmt.Errorf("records file must hold a JSON object or array of objects: %w", err)
	}
	return []map[string]any{single}, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
