// Pagewatch keeps a list of tracked links, re-fetches them on a schedule and
// pushes changes to connected clients over a WebSocket command bus.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "pagewatch",
		Short: "Watch web pages for changes",
		Long: `Pagewatch tracks links, normalizes their content and records a diff
every time a page changes.

Clients connect to /ws to manage links and receive updates.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(checkCmd(&configPath))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "[FATAL]", err)
		os.Exit(1)
	}
}
