// Command chatfield is a thin terminal REPL over package driver: a
// reference host, not a hosting surface in its own right (SPEC_FULL.md
// CLI section / Non-goals).
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRootCmd assembles the command tree; separated from main for
// testability, matching the pack's cobra convention.
func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "chatfield",
		Short:        "Drive an LLM conversation that fills in a structured collection",
		Long:         `chatfield is a reference terminal host for the chatfield conversation engine: it loads a collection definition and drives it turn by turn over stdin/stdout.`,
		SilenceUsage: true,
	}
	root.AddCommand(buildRunCmd(), buildSchemaCmd())
	return root
}
