package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func checkCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check every tracked link once and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			summary, err := a.monitor.CheckAll(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cycle %s: %d links, %d changed, %d failed (%s)\n",
				summary.CycleID, summary.TotalLinks, len(summary.ChangedURLs), len(summary.FailedURLs), summary.Duration)
			for _, url := range summary.ChangedURLs {
				fmt.Fprintf(out, "  changed %s\n", url)
			}
			for _, url := range summary.FailedURLs {
				fmt.Fprintf(out, "  failed  %s\n", url)
			}
			return nil
		},
	}
}
