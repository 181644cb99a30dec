package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sandrolain/gospel"
	"github.com/sandrolain/gospel/pkg/types"
)

// parseEnv provides the environment for the parse command.
type parseEnv struct {
	indent bool
	stats  bool
}

// getParseCmd returns the definition of the parse command.
func getParseCmd() *cobra.Command {
	env := &parseEnv{}
	cmd := &cobra.Command{
		Use:   "parse [expression]",
		Short: "Print the syntax tree of an expression as JSON",
		Long: `
Parses the expression given as the argument, or all of standard input, and
prints its syntax tree in the AST wire format.`,
		Args: cobra.MaximumNArgs(1),
		RunE: env.runParseCmd,
	}
	cmd.Flags().BoolVar(&env.indent, "indent", false, "Indent the JSON output")
	cmd.Flags().BoolVar(&env.stats, "stats", false, "Report node count and tree depth on stderr")
	return cmd
}

// runParseCmd executes the parse command.
func (p *parseEnv) runParseCmd(cmd *cobra.Command, args []string) error {
	src, err := readSource(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}
	node, err := gospel.Parse(src)
	if err != nil {
		return err
	}
	raw, err := types.MarshalNode(node)
	if err != nil {
		return err
	}
	if p.indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return err
		}
		raw = buf.Bytes()
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(raw))
	if p.stats {
		nodes := 0
		types.Walk(node, func(types.Node) bool {
			nodes++
			return true
		})
		fmt.Fprintf(cmd.ErrOrStderr(), "nodes: %d, depth: %d\n", nodes, types.Depth(node))
	}
	return nil
}

// getFmtCmd returns the definition of the fmt command.
func getFmtCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fmt [expression]",
		Short: "Print an expression in canonical form",
		Long: `
Prints the expression with every non-primary operand parenthesized, so the
grouping no longer depends on operator precedence.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readSource(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			expr, err := gospel.Compile(src)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), expr.Canonical())
			return nil
		},
	}
}

// readSource returns the single argument, or all of in.
func readSource(in io.Reader, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read expression: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}
