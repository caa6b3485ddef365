package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var modelsConn connFlags

var ModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List registered models",
	Long:  "List every persisted model definition with its version and backing table.",
	RunE:  runModels,
}

func init() {
	modelsConn.register(ModelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	client, conn, err := modelsConn.client(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	names := client.Models()
	if len(names) == 0 {
		fmt.Println("no models registered")
		return nil
	}
	for _, name := range names {
		def, err := client.GetModel(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s\tv%d\ttable=%s\tfields=%d\n", def.Name, def.Version, def.TableName(), len(def.Fields))
	}
	return nil
}
