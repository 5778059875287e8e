package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/adapter/input"
	"github.com/jmylchreest/toasty/internal/client"
	"github.com/jmylchreest/toasty/internal/model"
)

var sendOpts struct {
	kind   string
	server string
	input  string
}

var sendCmd = &cobra.Command{
	Use:   "send [message]",
	Short: "Raise a toast on a running server",
	Long: `Raise a toast on a running toasty server and print its id.

Without a message, requests are read line by line from stdin (or --input),
either as JSON objects or as "kind: message" lines. Blank lines and lines
starting with # are skipped.

Examples:
  toasty send "Build finished" --kind success
  echo 'error: disk almost full' | toasty send
  toasty send --input toasts.jsonl`,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.kind, "kind", "k", "info",
		"Toast kind: success, error, info, warning")
	sendCmd.Flags().StringVarP(&sendOpts.server, "server", "s", "",
		"Server address (default from config)")
	sendCmd.Flags().StringVarP(&sendOpts.input, "input", "i", "-",
		"Read requests from this file when no message is given")
}

func runSend(cmd *cobra.Command, args []string) error {
	c, err := newClient(sendOpts.server)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		kind, err := model.ParseKind(sendOpts.kind)
		if err != nil {
			return err
		}
		id, err := c.Create(ctx, strings.Join(args, " "), kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, id)
		return nil
	}

	adapter, err := input.NewAdapter(sendOpts.input)
	if err != nil {
		return err
	}
	reqs, err := adapter.Import(ctx)
	if err != nil {
		return err
	}
	for _, req := range reqs {
		id, err := c.Create(ctx, req.Message, req.Kind)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, id)
	}
	logger.Debug("sent toasts", "count", len(reqs), "source", adapter.Name())
	return nil
}

func newClient(addr string) (*client.Client, error) {
	if addr == "" {
		addr = cfg.Server.Listen
	}
	return client.New(addr)
}
