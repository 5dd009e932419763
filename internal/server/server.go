package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"skidoodle/now-playing/internal/nowplaying"
	"skidoodle/now-playing/internal/websocket"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Server is the main application orchestrator.
type Server struct {
	addr          string
	httpServer    *http.Server
	service       *nowplaying.Service
	hub           *websocket.Hub
	poller        *websocket.Poller
	originChecker func(string) bool
	log           *logrus.Logger
}

// NewServer creates a new, fully configured server. Status changes found by
// the push poller are also handed to sinks.
func NewServer(addr string, allowedOrigins []string, service *nowplaying.Service, pushInterval time.Duration, logger *logrus.Logger, sinks ...websocket.Sink) *Server {
	hub := websocket.NewHub(logger)
	poller := websocket.NewPoller(service, hub, pushInterval, logger, sinks...)

	originChecker := func(origin string) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		for _, allowedOrigin := range allowedOrigins {
			if allowedOrigin == origin {
				return true
			}
		}
		return false
	}

	return &Server{
		addr:          addr,
		service:       service,
		hub:           hub,
		poller:        poller,
		originChecker: originChecker,
		log:           logger,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(s.requestLogger, s.cors)

	router.HandleFunc("/api/now-playing", s.nowPlayingHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/health", healthHandler).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/ready", s.readyHandler).Methods(http.MethodGet)
	router.Handle("/ws", websocket.NewHandler(s.hub, s.poller, s.originChecker))

	return router
}

// Run starts the server and its components, and blocks until ctx is
// cancelled and everything has stopped. If the listener fails, the hub and
// poller are stopped before the error is returned.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		s.hub.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		s.poller.Run(ctx)
	}()

	go func() {
		<-ctx.Done()
		s.log.Info("shutdown signal received, stopping http server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("http server shutdown error")
		}
	}()

	s.log.WithFields(logrus.Fields{
		"addr":   s.addr,
		"source": s.service.SourceName(),
		"cache":  s.service.CacheName(),
	}).Info("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cancel()
		wg.Wait()
		return err
	}

	wg.Wait()

	return nil
}
