package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sandrolain/gospel"
	"github.com/sandrolain/gospel/pkg/evaluator"
	"github.com/sandrolain/gospel/pkg/ext"
	"github.com/sandrolain/gospel/pkg/ext/extwasm"
)

const (
	fstrContext = "context"
	fstrVar     = "var"
	fstrConfig  = "config"
	fstrExt     = "ext"
	fstrWasm    = "wasm"
	fstrDebug   = "debug"
	fstrTimeout = "timeout"
)

// extensions maps --ext names to extension libraries.
var extensions = map[string]func() evaluator.EvalOption{
	"all":        ext.WithAll,
	"string":     ext.WithString,
	"numeric":    ext.WithNumeric,
	"collection": ext.WithCollection,
	"types":      ext.WithTypes,
	"crypto":     ext.WithCrypto,
	"datetime":   ext.WithDateTime,
	"format":     ext.WithFormat,
}

// evalEnv provides the environment for the eval command.
type evalEnv struct {
	contextFile string
	vars        []string
	configFile  string
	ext         []string
	wasm        string
	debug       bool
	timeout     time.Duration

	configVars map[string]string
}

// getEvalCmd returns the definition of the eval command.
func getEvalCmd() *cobra.Command {
	env := &evalEnv{}
	cmd := &cobra.Command{
		Use:   "eval [expression...]",
		Short: "Evaluate expressions and print each result as JSON",
		Long: `
Evaluates every expression given as an argument, or every non-empty line of
standard input when there are none. The root context is read from a YAML or
JSON file; variables are themselves expressions, evaluated against a null root.`,
		RunE: env.runEvalCmd,
	}

	cmd.Flags().StringVarP(&env.contextFile, fstrContext, "c", "", "YAML or JSON file holding the root context")
	cmd.Flags().StringArrayVarP(&env.vars, fstrVar, "v", nil, "Variable as name=expression (repeatable)")
	cmd.Flags().StringVar(&env.configFile, fstrConfig, "", "YAML or JSON config file (ext, wasm, debug, timeout, vars)")
	cmd.Flags().StringSliceVar(&env.ext, fstrExt, nil, "Extension libraries: all, string, numeric, collection, types, crypto")
	cmd.Flags().StringVar(&env.wasm, fstrWasm, "", "WebAssembly module whose numeric exports become functions")
	cmd.Flags().BoolVar(&env.debug, fstrDebug, false, "Log every evaluated node to stderr")
	cmd.Flags().DurationVar(&env.timeout, fstrTimeout, gospel.DefaultTimeout, "Timeout per expression")

	return cmd
}

// runEvalCmd executes the eval command.
func (e *evalEnv) runEvalCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if e.configFile != "" {
		if err := e.applyConfig(cmd.Flags()); err != nil {
			return err
		}
	}

	logger := newLogger(cmd.ErrOrStderr(), e.debug)
	opts := []evaluator.EvalOption{
		gospel.WithLogger(logger),
		gospel.WithDebug(e.debug),
		gospel.WithTimeout(e.timeout),
		gospel.WithCaching(true),
	}
	for _, name := range e.ext {
		withExt, ok := extensions[name]
		if !ok {
			return fmt.Errorf("unknown extension %q", name)
		}
		opts = append(opts, withExt())
	}
	if e.wasm != "" {
		mod, err := extwasm.LoadFile(ctx, e.wasm)
		if err != nil {
			return err
		}
		defer mod.Close(ctx)
		defs := mod.Functions()
		logger.Debug("loaded wasm module", "path", e.wasm, "functions", len(defs))
		opts = append(opts, gospel.WithFunctions(defs...))
	}
	ev := evaluator.New(opts...)

	var root any
	if e.contextFile != "" {
		var err error
		if root, err = loadRoot(e.contextFile); err != nil {
			return err
		}
		logger.Debug("loaded context", "path", e.contextFile)
	}

	vars, err := e.evalVars(ctx, ev)
	if err != nil {
		return err
	}

	sources, err := readExpressions(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, src := range sources {
		result, err := ev.EvalString(ctx, src, root, vars)
		if err != nil {
			return fmt.Errorf("%s: %w", src, err)
		}
		fmt.Fprintln(out, encodeResult(result))
	}
	return nil
}

// applyConfig fills every setting not given as a flag from the config file.
func (e *evalEnv) applyConfig(flags *pflag.FlagSet) error {
	cfg, err := loadConfig(e.configFile)
	if err != nil {
		return err
	}
	if !flags.Changed(fstrExt) {
		e.ext = cfg.Ext
	}
	if !flags.Changed(fstrWasm) && cfg.Wasm != "" {
		e.wasm = cfg.Wasm
	}
	if !flags.Changed(fstrDebug) {
		e.debug = cfg.Debug
	}
	if !flags.Changed(fstrTimeout) && cfg.Timeout != "" {
		if e.timeout, err = time.ParseDuration(cfg.Timeout); err != nil {
			return fmt.Errorf("config timeout: %w", err)
		}
	}
	e.configVars = cfg.Vars
	return nil
}

// evalVars evaluates the variable expressions. Command line variables
// override config variables of the same name.
func (e *evalEnv) evalVars(ctx context.Context, ev *evaluator.Evaluator) (map[string]any, error) {
	sources := make(map[string]string, len(e.configVars)+len(e.vars))
	for name, src := range e.configVars {
		sources[name] = src
	}
	for _, kv := range e.vars {
		name, src, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid variable %q: want name=expression", kv)
		}
		sources[name] = src
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make(map[string]any, len(names))
	for _, name := range names {
		v, err := ev.EvalString(ctx, sources[name], nil, nil)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		vars[name] = v
	}
	return vars, nil
}

// readExpressions returns args, or the non-empty lines of in when args is
// empty.
func readExpressions(in io.Reader, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var out []string
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read expressions: %w", err)
	}
	return out, nil
}

// encodeResult renders a result as JSON. Values JSON cannot represent,
// such as NaN, fall back to their Go formatting.
func encodeResult(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
