// Command gospel evaluates, parses and formats gospel expressions.
//
// Usage:
//
//	gospel eval -c order.yaml 'items.?[price > #limit].![name]' -v limit=100
//	echo '1 + 2 * 3' | gospel eval
//	gospel parse --indent 'a?.b[0]'
//	gospel fmt '1+2*3'
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gospel"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCmd returns the gospel command with all subcommands attached.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "gospel",
		Short:        "Evaluate gospel expressions",
		Long:         "gospel evaluates expressions against YAML or JSON data and inspects their syntax trees.",
		SilenceUsage: true,
	}
	root.AddCommand(
		getEvalCmd(),
		getParseCmd(),
		getFmtCmd(),
		getVersionCmd(),
	)
	return root
}

// getVersionCmd returns the definition of the version command.
func getVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the gospel version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gospel.Version())
		},
	}
}

// newLogger builds the stderr text logger. Debug enables node tracing
// output from the evaluator.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
