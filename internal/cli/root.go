package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Settings string // optional settings file read by viper

	// Resolved holds the merged settings once PersistentPreRunE has run.
	Resolved *Settings
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the searchql CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "searchql",
		Short: "searchql - search criteria compiler",
		Long: `Compile search criteria (rules, sorters, paging and permissions)
into full-text clauses or executable SPARQL queries with bindings.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := LoadSettings(opts.Settings, cmd)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load settings", err)
			}
			settings.Format = cases.Fold().String(settings.Format)
			if !isValidFormat(settings.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", settings.Format, ValidFormats)
			}
			opts.Format = settings.Format
			opts.Resolved = settings
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", defaultFormat, "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Settings, "settings", "", "settings file (yaml, toml or json)")
	cmd.PersistentFlags().String("config", "", "search configuration (.cue file or directory); built-in default when empty")
	cmd.PersistentFlags().String("db", defaultDatabase, "path to the query log database")
	cmd.PersistentFlags().String("policy", defaultPolicy, "unsupported rule policy (abort|skip)")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))

	return cmd
}

// settings returns the resolved settings, falling back to defaults when a
// subcommand runs without the root's pre-run hook (as in tests).
func (o *RootOptions) settings() *Settings {
	if o.Resolved != nil {
		return o.Resolved
	}
	s := DefaultSettings()
	if o.Format != "" {
		s.Format = o.Format
	}
	return s
}

// logger returns a debug logger on w in verbose mode and a discarding one
// otherwise.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	if !o.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
