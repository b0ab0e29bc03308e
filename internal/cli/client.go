package cli

import (
	"bufio"
	"fmt"
	"io"
	"net"

	"github.com/spf13/cobra"
)

// ClientOptions holds flags for the client command.
type ClientOptions struct {
	*RootOptions
	Socket string
	Always bool
	Splits bool
}

// NewClientCommand creates the client command: a thin pipe to the daemon.
// It forwards stdin lines verbatim, then sends the EOF phase switch and one
// query line per argument, and prints everything the server responds.
func NewClientCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClientOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "client [flags] [<query>...]",
		Short: "Forward stdin and queries to a running daemon",
		Long: `Connect to the daemon's unix socket, forward standard input line by
line, then switch the session to the query phase and send one query per
argument. Responses are printed raw.

Example:
  cat events.txt | presenced client "2023-01-01 2023-02-01"
  presenced client -s "2023-01-01 2023-02-01" < /dev/null`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Socket, "socket", "", "unix socket path")
	cmd.Flags().BoolVarP(&opts.Always, "always", "r", false, "range queries list only people present throughout")
	cmd.Flags().BoolVarP(&opts.Splits, "splits", "s", false, "range queries list raw splits")

	return cmd
}

func runClient(cmd *cobra.Command, opts *ClientOptions, queries []string) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}
	if opts.Socket != "" {
		cfg.Socket = opts.Socket
	}

	conn, err := net.Dial("unix", cfg.Socket)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to connect", err)
	}
	defer conn.Close()

	// Print responses as they arrive, concurrently with forwarding.
	done := make(chan error, 1)
	go func() {
		_, copyErr := io.Copy(cmd.OutOrStdout(), conn)
		done <- copyErr
	}()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		if _, err := fmt.Fprintf(conn, "%s\n", scanner.Text()); err != nil {
			return WrapExitError(ExitFailure, "writing to server", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return WrapExitError(ExitFailure, "reading stdin", err)
	}

	if _, err := fmt.Fprintln(conn, "EOF"); err != nil {
		return WrapExitError(ExitFailure, "writing to server", err)
	}
	for _, q := range queries {
		if _, err := fmt.Fprintf(conn, "%s\n", queryLine(q, opts.Always, opts.Splits)); err != nil {
			return WrapExitError(ExitFailure, "writing to server", err)
		}
	}

	// Half-close so the server finishes our queued lines and hangs up; the
	// response copier then drains to EOF.
	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}

	if copyErr := <-done; copyErr != nil {
		return WrapExitError(ExitFailure, "reading response", copyErr)
	}
	return nil
}
