package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "now-playing",
	Short: "Serves what is playing right now, for a personal site.",
	Long: `now-playing proxies a music scrobbling service and answers
GET /api/now-playing with a small JSON status. Without a subcommand it
starts the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
