package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/toasty/internal/server"
	"github.com/jmylchreest/toasty/internal/tui"
)

var tuiOpts struct {
	serve bool
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive toast showcase",
	Long: `Launch the terminal showcase: an auto-advancing gallery above a live
stack of toasts.

Key bindings:
  1-4         Raise a success, error, info or warning toast
  n           Compose a toast (tab cycles the kind)
  x           Dismiss the newest toast
  X           Dismiss all toasts
  ←/→, home   Move the gallery
  t           Next colour palette
  c           Copy the newest toast to the clipboard
  ?           Show help
  q           Quit

With --serve the HTTP API runs alongside, so "toasty send" can raise
toasts in this terminal.`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)

	tuiCmd.Flags().BoolVar(&tuiOpts.serve, "serve", false,
		"Also serve the HTTP API on the configured listen address")
}

func runTUI(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	serveErr := make(chan error, 1)
	if tuiOpts.serve {
		srv := server.New(rt.store, server.Options{
			Listen:         cfg.Server.Listen,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Metrics:        metricsIfEnabled(rt),
			Logger:         logger,
		})
		go func() { serveErr <- srv.Run(ctx) }()
	}

	m, err := tui.New(rt.store, rt.themes, tui.Options{
		Slides:          cfg.Carousel.Slides,
		Interval:        cfg.Carousel.Interval.Duration(),
		DisplayDuration: cfg.DisplayDuration(),
		ExitDelay:       cfg.Toasts.ExitDelay.Duration(),
		MaxVisible:      cfg.Toasts.MaxVisible,
		Logger:          logger,
	})
	if err != nil {
		return err
	}
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("tui: %w", err)
	}

	cancel()
	if tuiOpts.serve {
		if err := <-serveErr; err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	return nil
}
