package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	SourceLastFM  = "lastfm"
	SourceSpotify = "spotify"

	defaultLastFMURL = "https://ws.audioscrobbler.com/2.0/"
	defaultMQTTTopic = "now-playing/state"
)

// Config holds the application configuration.
type Config struct {
	ServerPort      string
	AllowedOrigins  []string
	LogLevel        logrus.Level
	LogFile         string
	Source          string
	CacheTTL        time.Duration
	UpstreamTimeout time.Duration
	PushInterval    time.Duration
	LastFM          struct {
		APIKey   string
		Username string
		APIURL   string
	}
	Spotify struct {
		ClientID     string
		ClientSecret string
		RefreshToken string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	MQTT struct {
		Broker   string
		Topic    string
		ClientID string
		Username string
		Password string
	}
}

// Load loads the configuration from environment variables.
// Missing upstream credentials are not an error: the now-playing endpoint
// degrades to "nothing playing" instead.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("no .env file found, using environment variables")
	}

	cfg := &Config{}

	cfg.LastFM.APIKey = os.Getenv("LASTFM_API_KEY")
	cfg.LastFM.Username = os.Getenv("LASTFM_USERNAME")
	cfg.LastFM.APIURL = getEnv("LASTFM_API_URL", defaultLastFMURL)

	cfg.Spotify.ClientID = os.Getenv("SPOTIFY_CLIENT_ID")
	cfg.Spotify.ClientSecret = os.Getenv("SPOTIFY_CLIENT_SECRET")
	cfg.Spotify.RefreshToken = os.Getenv("SPOTIFY_REFRESH_TOKEN")

	cfg.Source = strings.ToLower(getEnv("NOW_PLAYING_SOURCE", SourceLastFM))
	cfg.ServerPort = getEnv("SERVER_PORT", "3000")
	cfg.LogFile = os.Getenv("LOG_FILE")

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins != "" {
		for _, origin := range strings.Split(allowedOrigins, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	var err error
	if cfg.CacheTTL, err = getEnvDuration("CACHE_TTL", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = getEnvDuration("UPSTREAM_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.PushInterval, err = getEnvDuration("PUSH_INTERVAL", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.Redis.Addr = os.Getenv("REDIS_ADDR")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	if cfg.Redis.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}

	cfg.MQTT.Broker = os.Getenv("MQTT_BROKER")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", defaultMQTTTopic)
	cfg.MQTT.ClientID = os.Getenv("MQTT_CLIENT_ID")
	cfg.MQTT.Username = os.Getenv("MQTT_USERNAME")
	cfg.MQTT.Password = os.Getenv("MQTT_PASSWORD")

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = logrus.DebugLevel
	case "warn":
		cfg.LogLevel = logrus.WarnLevel
	case "error":
		cfg.LogLevel = logrus.ErrorLevel
	default:
		cfg.LogLevel = logrus.InfoLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values that cannot be degraded gracefully at runtime.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port %q", c.ServerPort)
	}
	if c.Source != SourceLastFM && c.Source != SourceSpotify {
		return fmt.Errorf("unknown now playing source %q", c.Source)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream timeout must be positive, got %s", c.UpstreamTimeout)
	}
	if c.PushInterval <= 0 {
		return fmt.Errorf("push interval must be positive, got %s", c.PushInterval)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
