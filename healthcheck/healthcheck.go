package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultPort    = "3000"
	requestTimeout = 5 * time.Second
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = defaultPort
	}

	if err := run(ctx, fmt.Sprintf("http://localhost:%s", port)); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
		os.Exit(1)
	}

	os.Exit(0)
}

// run checks the liveness and readiness endpoints. Neither touches the
// upstream, so a slow music service never marks the container unhealthy.
func run(ctx context.Context, base string) error {
	if _, err := get(ctx, base+"/health"); err != nil {
		return err
	}

	body, err := get(ctx, base+"/ready")
	if err != nil {
		return err
	}
	var ready struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &ready); err != nil {
		return fmt.Errorf("ready response is not json: %w", err)
	}
	if ready.Status != "ready" {
		return fmt.Errorf("server reports status %q", ready.Status)
	}

	return nil
}

func get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			_, _ = fmt.Fprintf(os.Stderr, "warning: failed to close response body: %v\n", closeErr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %s: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned non-200 status code: %d", url, resp.StatusCode)
	}

	return body, nil
}
