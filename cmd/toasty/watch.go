package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/adapter/output"
	"github.com/jmylchreest/toasty/internal/core"
	"github.com/jmylchreest/toasty/internal/model"
)

var watchOpts struct {
	server string
	format string
	once   bool
	kinds  string
	search string
	since  time.Duration
	limit  int
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print live toasts from a running server",
	Long: `Follow a running toasty server and print the full toast list every
time it changes.

Formats: plain (default), json, yaml, ids.

Filters apply to every printed list:
  toasty watch --kind error,warning
  toasty watch --search deploy --since 2s`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOpts.server, "server", "s", "",
		"Server address (default from config)")
	watchCmd.Flags().StringVarP(&watchOpts.format, "format", "f", string(output.FormatPlain),
		"Output format: plain, json, yaml, ids")
	watchCmd.Flags().BoolVar(&watchOpts.once, "once", false,
		"Print the current toasts and exit")
	watchCmd.Flags().StringVarP(&watchOpts.kinds, "kind", "k", "",
		"Only show these kinds (comma separated)")
	watchCmd.Flags().StringVar(&watchOpts.search, "search", "",
		"Only show toasts whose message contains this text")
	watchCmd.Flags().DurationVar(&watchOpts.since, "since", 0,
		"Only show toasts created within this duration")
	watchCmd.Flags().IntVarP(&watchOpts.limit, "limit", "n", 0,
		"Only show the newest N toasts")
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(watchOpts.format)
	if err != nil {
		return err
	}
	kinds, err := core.ParseKinds(watchOpts.kinds)
	if err != nil {
		return err
	}
	filter := func(snap model.Snapshot) model.Snapshot {
		return core.Filter(snap, core.FilterOptions{
			Kinds:  kinds,
			Search: watchOpts.search,
			Since:  watchOpts.since,
			Limit:  watchOpts.limit,
		})
	}
	formatter := output.NewFormatter(format, output.DefaultFormatterOptions())
	out := cmd.OutOrStdout()

	c, err := newClient(watchOpts.server)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if watchOpts.once {
		snap, err := c.List(ctx)
		if err != nil {
			return err
		}
		return formatter.Format(out, filter(snap))
	}

	var writeErr error
	err = c.Watch(ctx, func(snap model.Snapshot) {
		if writeErr != nil {
			return
		}
		if writeErr = formatter.Format(out, filter(snap)); writeErr == nil && format != output.FormatJSON {
			_, writeErr = fmt.Fprintln(out, "---")
		}
		if writeErr != nil {
			stop()
		}
	})
	if writeErr != nil {
		return writeErr
	}
	return err
}
