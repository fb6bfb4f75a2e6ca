package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/searchql/internal/ir"
	"github.com/roach88/searchql/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Fingerprint string // list queries sharing this fingerprint
	Limit       int    // list at most this many queries
}

// TraceEntry is one logged query as printed by the trace command.
type TraceEntry struct {
	Seq             int64       `json:"seq"`
	QueryID         string      `json:"query_id"`
	Dialect         string      `json:"dialect"`
	Fingerprint     string      `json:"fingerprint"`
	Text            string      `json:"text"`
	Bindings        ir.IRObject `json:"bindings"`
	Projection      []string    `json:"projection,omitempty"`
	IncludeInferred bool        `json:"include_inferred"`
	Timeout         string      `json:"timeout,omitempty"`
	CreatedAt       string      `json:"created_at"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [query-id]",
		Short: "Look up compiled queries in the query log",
		Long: `Look up compiled queries recorded with "compile --record".

Every graph query starts with a "# Query ID: <id>" line. Passing that id
prints the exact text and bindings handed to the executor. Without an
id the most recent entries are listed in insertion order; --fingerprint
lists every query with the same text and bindings.

Examples:
  searchql trace 0192f0c4-3a1b-7c3e-9d2a-5b1e8f0a4c6d
  searchql trace --limit 20
  searchql trace --fingerprint 3f2a... --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return runTrace(opts, id, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "list queries with this fingerprint")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of queries to list (0 = all)")

	return cmd
}

func runTrace(opts *TraceOptions, queryID string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	database := opts.settings().Database

	st, err := store.Open(database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var records []store.QueryRecord
	switch {
	case queryID != "":
		rec, err := st.ReadQuery(ctx, queryID)
		if errors.Is(err, store.ErrNotFound) {
			return outputTraceNotFound(cmd, opts, queryID)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read query", err)
		}
		records = []store.QueryRecord{rec}
	case opts.Fingerprint != "":
		if records, err = st.FindByFingerprint(ctx, opts.Fingerprint); err != nil {
			return WrapExitError(ExitCommandError, "failed to search query log", err)
		}
	default:
		if records, err = st.ListQueries(ctx, opts.Limit); err != nil {
			return WrapExitError(ExitCommandError, "failed to list queries", err)
		}
	}

	entries := make([]TraceEntry, len(records))
	for i, rec := range records {
		entries[i] = toTraceEntry(rec)
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, entries)
	}
	return outputTraceText(cmd.OutOrStdout(), entries, opts.Verbose)
}

func toTraceEntry(rec store.QueryRecord) TraceEntry {
	entry := TraceEntry{
		Seq:             rec.Seq,
		QueryID:         rec.ID,
		Dialect:         rec.Dialect,
		Fingerprint:     rec.Fingerprint,
		Text:            rec.Text,
		Bindings:        rec.Bindings,
		Projection:      rec.Projection,
		IncludeInferred: rec.IncludeInferred,
		CreatedAt:       rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if rec.Timeout > 0 {
		entry.Timeout = rec.Timeout.String()
	}
	return entry
}

func outputTraceNotFound(cmd *cobra.Command, opts *TraceOptions, queryID string) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("query %s not found", queryID), nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("query %s not found", queryID))
}

// outputTraceJSON outputs the entries as JSON.
func outputTraceJSON(cmd *cobra.Command, entries []TraceEntry) error {
	response := CLIResponse{
		Status: "ok",
		Data:   entries,
	}
	if len(entries) == 1 {
		response.TraceID = entries[0].QueryID
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the entries as text. Verbose mode adds the
// bindings and executor settings.
func outputTraceText(w io.Writer, entries []TraceEntry, verbose bool) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No queries logged.")
		return nil
	}

	for i, e := range entries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "=== [%d] %s (%s) ===\n", e.Seq, e.QueryID, e.Dialect)
		fmt.Fprintf(w, "Recorded:    %s\n", e.CreatedAt)
		fmt.Fprintf(w, "Fingerprint: %s\n", truncateID(e.Fingerprint))
		fmt.Fprintln(w, e.Text)

		if !verbose {
			continue
		}
		for _, name := range e.Bindings.SortedKeys() {
			data, err := ir.MarshalIRValue(e.Bindings[name])
			if err != nil {
				return fmt.Errorf("binding %s: %w", name, err)
			}
			fmt.Fprintf(w, "  %s = %s\n", name, data)
		}
		fmt.Fprintf(w, "Include inferred: %t\n", e.IncludeInferred)
		if e.Timeout != "" {
			fmt.Fprintf(w, "Timeout: %s\n", e.Timeout)
		}
	}
	return nil
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
