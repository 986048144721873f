package cli

import (
	"github.com/spf13/cobra"

	"github.com/kshetline/asteroid-comet-data-generator/internal/console"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open an interactive Horizons session",
	Long: `Connects to the Horizons telnet service and attaches it to the local
terminal for manual exploration of the menus. Press Ctrl+] then 'q' to
exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return console.New(telnetConfig()).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
