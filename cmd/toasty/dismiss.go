package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/core"
)

var dismissOpts struct {
	server string
	all    bool
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss [index|id...]",
	Short: "Dismiss toasts on a running server",
	Long: `Dismiss toasts on a running toasty server.

A toast is referred to by its 1-based position in the list (oldest first),
its full id, or a unique prefix of its id. A reference made only of digits
is always read as a position.

Examples:
  toasty dismiss 1
  toasty dismiss 01HQ3K
  toasty dismiss --all`,
	RunE: runDismiss,
}

func init() {
	rootCmd.AddCommand(dismissCmd)

	dismissCmd.Flags().StringVarP(&dismissOpts.server, "server", "s", "",
		"Server address (default from config)")
	dismissCmd.Flags().BoolVarP(&dismissOpts.all, "all", "a", false,
		"Dismiss every toast")
}

func runDismiss(cmd *cobra.Command, args []string) error {
	if !dismissOpts.all && len(args) == 0 {
		return fmt.Errorf("specify a toast index or id, or use --all")
	}

	c, err := newClient(dismissOpts.server)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	if dismissOpts.all {
		return c.Clear(ctx)
	}

	// Resolve every reference against one listing so indexes stay stable.
	snap, err := c.List(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, ref := range args {
		t, err := core.Resolve(snap, ref)
		if err != nil {
			return err
		}
		if err := c.Dismiss(ctx, t.ID); err != nil {
			return fmt.Errorf("dismiss %s: %w", t.ID, err)
		}
		logger.Debug("dismissed toast", "id", t.ID, "ref", ref)
		fmt.Fprintln(out, t.ID)
	}
	return nil
}
