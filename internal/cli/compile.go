package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/searchql/internal/compiler"
	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/operation"
	"github.com/roach88/searchql/internal/pipeline"
	"github.com/roach88/searchql/internal/store"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Record bool   // write the result to the query log
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <request-file>",
		Short: "Compile a search request to a query",
		Long: `Compile a search request (YAML or TOML) to a full-text clause or a
prepared SPARQL query with its bindings.

The request's dialect selects the output: "sparql" (default) runs the
full assembly pipeline, "solr" joins the full-text clauses.

Examples:
  searchql compile request.yaml
  searchql compile request.toml --format json
  searchql compile request.yaml --record --db ./searchql.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the result as JSON to this file")
	cmd.Flags().BoolVar(&opts.Record, "record", false, "record the compiled query in the query log")

	return cmd
}

func runCompile(opts *CompileOptions, requestPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
	settings := opts.settings()

	req, err := pipeline.LoadRequest(requestPath)
	if err != nil {
		return outputCompileError(formatter, ErrCodeRequest, err.Error(), nil)
	}
	formatter.VerboseLog("Loaded %s request with %d rule(s) from %s", req.Dialect, len(req.Rules), requestPath)

	cfg, err := loadSearchConfig(settings.Config)
	if err != nil {
		return outputCompileError(formatter, ErrCodeConfig, err.Error(), nil)
	}

	policy, err := operation.ParsePolicy(settings.Policy)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithPolicy(policy),
		pipeline.WithLogger(opts.logger(formatter.GetErrWriter())),
	}
	if opts.Record {
		st, err := store.Open(settings.Database)
		if err != nil {
			return outputCompileError(formatter, ErrCodeStore, fmt.Sprintf("opening query log: %v", err), nil)
		}
		defer st.Close()
		pipeOpts = append(pipeOpts, pipeline.WithRecorder(st))
		formatter.VerboseLog("Recording to %s", settings.Database)
	}

	p := pipeline.New(pipeline.NewConfigHolder(cfg), pipeOpts...)
	res, err := p.CompileRequest(cmd.Context(), req)
	if err != nil {
		return outputCompileFailure(formatter, err)
	}

	if opts.Output != "" {
		if err := writeResultToFile(res, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, res, opts.Output)
}

// loadSearchConfig loads the configuration at path, or the built-in one
// when path is empty.
func loadSearchConfig(path string) (*ir.SearchConfig, error) {
	if path == "" {
		return compiler.Default()
	}
	return compiler.LoadConfig(path)
}

// outputCompileSuccess outputs the compiled query.
func outputCompileSuccess(formatter *OutputFormatter, res *pipeline.Result, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.SuccessWithTrace(res, res.QueryID)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %s query %s\n\n", res.Dialect, res.QueryID)
	fmt.Fprintln(w, res.Text)

	if err := writeBindings(formatter, res.Bindings); err != nil {
		return err
	}
	if res.Skip > 0 {
		fmt.Fprintf(w, "\nSkip: %d\n", res.Skip)
	}
	fmt.Fprintf(w, "\nFingerprint: %s\n", res.Fingerprint)

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote result to %s\n", outputFile)
	}
	return nil
}

// writeBindings prints bindings one per line in key order.
func writeBindings(formatter *OutputFormatter, bindings ir.IRObject) error {
	if len(bindings) == 0 {
		return nil
	}
	fmt.Fprintln(formatter.Writer, "\nBindings:")
	for _, name := range bindings.SortedKeys() {
		data, err := ir.MarshalIRValue(bindings[name])
		if err != nil {
			return fmt.Errorf("binding %s: %w", name, err)
		}
		fmt.Fprintf(formatter.Writer, "  %s = %s\n", name, data)
	}
	return nil
}

// outputCompileError outputs a single error before compilation.
func outputCompileError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Unreadable inputs are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// outputCompileFailure outputs an error returned by the pipeline. Compiler
// errors keep their own code and details.
func outputCompileFailure(formatter *OutputFormatter, err error) error {
	code, message := ErrCodeGeneric, err.Error()
	var details interface{}

	var ce *ir.CompileError
	if errors.As(err, &ce) {
		code, message = ce.Code, ce.Message
		if ce.Field != "" || ce.Operator != "" {
			details = map[string]any{"field": ce.Field, "operator": ce.Operator}
		}
	}

	_ = formatter.Error(code, message, details)
	// A request the compiler rejects is a failure, not a command error
	return WrapExitError(ExitFailure, "compilation failed", err)
}

// writeResultToFile writes the compilation result as indented JSON.
func writeResultToFile(res *pipeline.Result, filename string) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
