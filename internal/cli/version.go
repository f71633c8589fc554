package cli

import (
	"fmt"

	"github.com/dgallion1/tocmerge/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "tocmerge %s\n", version.String())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
