// Command reviewctl manages the review database and inspects queues and
// masking keywords offline.
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	colorRed    = color.New(color.FgRed, color.Bold)
	colorGreen  = color.New(color.FgGreen, color.Bold)
	colorYellow = color.New(color.FgYellow)
	colorCyan   = color.New(color.FgCyan)
	colorFaint  = color.New(color.Faint)
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		colorRed.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reviewctl",
		Short: "Operate the court document review service",
		Long: `reviewctl applies database migrations, prints review queues from a
seed fixture and validates or tests masking keywords.

Examples:
  reviewctl migrate up --dsn postgres://localhost/adala
  reviewctl queue --status pending --sort priority --lang ar
  reviewctl keywords test "Passport No. A1234567"`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newMigrateCmd(), newQueueCmd(), newKeywordsCmd())
	return root
}
