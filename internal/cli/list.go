package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kshetline/asteroid-comet-data-generator/internal/storage"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List bodies with saved element sets",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewStore(cfg.Output.Dir)
		if err != nil {
			return err
		}
		ids, err := store.List()
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Println("No element sets saved yet.")
			return nil
		}
		for _, id := range ids {
			set, err := store.Load(id)
			if err != nil {
				return err
			}
			name := set.Body.Name
			if name == "" {
				name = "(unnamed)"
			}
			fmt.Printf("%-16s %-32s %d records\n", id, name, len(set.Records))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
