package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/presenced/internal/server"
	"github.com/roach88/presenced/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database string
	Always   bool
	Splits   bool
}

// NewRunCommand creates the run command: the standalone variant that ingests
// event lines from stdin and then answers each query argument, without a
// daemon or socket in between.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run [flags] <query>...",
		Short: "Ingest events from stdin and answer queries",
		Long: `Read presence event lines from standard input, then answer each query
argument on standard output. A query argument is a timestamp, or two
timestamps in one (quoted) argument for a range query.

By default the store is in-memory and discarded on exit; give --db to run
against a persistent database.

Example:
  cat events.txt | presenced run "2023-01-01 2023-02-01"
  cat events.txt | presenced run -s "2023-01-01 2023-02-01" 2023-01-15`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStandalone(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", ":memory:", "path to SQLite database")
	cmd.Flags().BoolVarP(&opts.Always, "always", "r", false, "range queries list only people present throughout")
	cmd.Flags().BoolVarP(&opts.Splits, "splits", "s", false, "range queries list raw splits")

	return cmd
}

func runStandalone(cmd *cobra.Command, opts *RunOptions, queries []string) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	handler := server.NewHandler(st)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if err := handler.Ingest(ctx, scanner.Text()); err != nil {
			return WrapExitError(ExitFailure, "ingest failed", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitFailure, "reading stdin", err)
	}

	out := cmd.OutOrStdout()
	for _, q := range queries {
		response, err := handler.Query(ctx, queryLine(q, opts.Always, opts.Splits))
		if err != nil {
			return WrapExitError(ExitFailure, "query failed", err)
		}
		fmt.Fprint(out, response)
	}

	return nil
}

// queryLine turns a query argument into a protocol query line. The mode
// flags apply to range arguments only; a point query has no variants.
func queryLine(arg string, always, splits bool) string {
	if !strings.Contains(arg, " ") {
		return arg
	}
	switch {
	case splits:
		return "* " + arg
	case always:
		return "+ " + arg
	}
	return arg
}
