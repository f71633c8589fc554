// Package cli is the command-line front end: merge local files without
// running the server.
package cli

import (
	"fmt"
	"os"

	"github.com/dgallion1/tocmerge/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tocmerge",
	Short: "Merge PDFs behind a clickable table of contents",
	Long: `tocmerge concatenates PDFs (and text, Markdown, CSV, HTML or Word files,
converted on the fly) into a single PDF that opens with a table of contents.
Each entry links to its document and gets a bookmark; page numbers are
stamped in the footer unless disabled.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("tocmerge %s\n", version.String()))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
