package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kaikei/internal/cli"
)

func pollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Watch tenant scan folders and post new documents",
		Args:  cobra.NoArgs,
		RunE:  runPoll,
	}
	cmd.Flags().Bool("once", false, "run a single cycle and exit")
	return cmd
}

func runPoll(cmd *cobra.Command, _ []string) error {
	once, _ := cmd.Flags().GetBool("once")

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	p := a.Poller()
	if !once {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("Polling every %s, Ctrl-C to stop", a.Config.Poll.Interval)))
		if err := p.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	stats, err := p.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox("Poll cycle", fmt.Sprintf(
		"Scanned:   %d\nPosted:    %d\nPending:   %d\nSkipped:   %d\nFailed:    %d",
		stats.Scanned, stats.Committed, stats.Pending, stats.Skipped, stats.Failed)))
	return nil
}
