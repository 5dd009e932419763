package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"skidoodle/now-playing/internal/broker"
	"skidoodle/now-playing/internal/cache"
	"skidoodle/now-playing/internal/config"
	"skidoodle/now-playing/internal/lastfm"
	"skidoodle/now-playing/internal/logging"
	"skidoodle/now-playing/internal/nowplaying"
	"skidoodle/now-playing/internal/server"
	"skidoodle/now-playing/internal/spotify"
	"skidoodle/now-playing/internal/websocket"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the now-playing HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, closeLog, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source := newSource(ctx, cfg, logger)

	var store cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisCache.Close(); err != nil {
				logger.WithError(err).Warn("failed to close redis client")
			}
		}()
		store = redisCache
	}

	var sinks []websocket.Sink
	if cfg.MQTT.Broker != "" {
		publisher, err := broker.Connect(broker.Config{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, logger)
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	service := nowplaying.NewService(source, store, cfg.CacheTTL, cfg.UpstreamTimeout, logger)
	srv := server.NewServer(net.JoinHostPort("", cfg.ServerPort), cfg.AllowedOrigins, service, cfg.PushInterval, logger, sinks...)

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("application shut down gracefully")
	return nil
}

func newSource(ctx context.Context, cfg *config.Config, logger *logrus.Logger) nowplaying.Source {
	switch cfg.Source {
	case config.SourceSpotify:
		if cfg.Spotify.ClientID == "" || cfg.Spotify.ClientSecret == "" || cfg.Spotify.RefreshToken == "" {
			logger.Warn("spotify credentials are not set, now playing will always report nothing")
		}
		return spotify.NewSource(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.RefreshToken, logger)
	default:
		if cfg.LastFM.APIKey == "" || cfg.LastFM.Username == "" {
			logger.Warn("lastfm credentials are not set, now playing will always report nothing")
		}
		return lastfm.NewClient(cfg.LastFM.APIURL, cfg.LastFM.APIKey, cfg.LastFM.Username, &http.Client{}, logger)
	}
}
