package cmd

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"skidoodle/now-playing/internal/nowplaying"
	"skidoodle/now-playing/internal/widget"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	watchURL      string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll a now-playing endpoint and print the widget",
	RunE: func(cmd *cobra.Command, _ []string) error {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fetcher := widget.NewHTTPFetcher(&http.Client{Timeout: 10 * time.Second}, watchURL, logger)
		w := widget.New(fetcher, watchInterval, logger)

		var last *nowplaying.Status
		w.OnChange(func(status *nowplaying.Status) {
			if last != nil && last.Equal(*status) {
				return
			}
			last = status
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "---", time.Now().Format(time.Kitchen))
			if err := widget.RenderStatus(cmd.OutOrStdout(), status); err != nil {
				logger.WithError(err).Warn("failed to render widget")
			}
		})

		// Nothing is known before the first poll returns.
		if err := w.Render(cmd.OutOrStdout()); err != nil {
			return err
		}

		if err := w.Mount(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		w.Unmount()
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVar(&watchURL, "url", "http://localhost:3000/api/now-playing", "now-playing endpoint to poll")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", widget.DefaultInterval, "time between polls")
	rootCmd.AddCommand(watchCmd)
}
