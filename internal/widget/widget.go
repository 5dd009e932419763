// Package widget polls the now-playing endpoint on a fixed cadence and keeps
// the latest status for rendering. Polling is a scheduled task acquired by
// Mount and released by Unmount.
package widget

import (
	"context"
	"errors"
	"sync"
	"time"

	"skidoodle/now-playing/internal/nowplaying"

	"github.com/sirupsen/logrus"
)

// DefaultInterval is the time between two polls.
const DefaultInterval = 30 * time.Second

var ErrAlreadyMounted = errors.New("widget is already mounted")

// Fetcher retrieves the current status from the proxy.
type Fetcher interface {
	Fetch(ctx context.Context) (nowplaying.Status, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context) (nowplaying.Status, error)

func (f FetcherFunc) Fetch(ctx context.Context) (nowplaying.Status, error) { return f(ctx) }

// Widget holds the latest known status. A nil status means nothing is known
// yet.
type Widget struct {
	fetcher  Fetcher
	interval time.Duration
	log      *logrus.Entry

	mu       sync.RWMutex
	status   *nowplaying.Status
	onChange func(*nowplaying.Status)
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates an unmounted widget.
func New(fetcher Fetcher, interval time.Duration, logger *logrus.Logger) *Widget {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Widget{
		fetcher:  fetcher,
		interval: interval,
		log:      logger.WithField("component", "widget"),
	}
}

// OnChange registers fn to be called after every applied poll result.
func (w *Widget) OnChange(fn func(*nowplaying.Status)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Mount fetches once immediately and then once per interval until Unmount
// or until ctx is cancelled.
func (w *Widget) Mount(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		return ErrAlreadyMounted
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	w.cancel = cancel
	w.done = done

	go w.run(ctx, done)
	return nil
}

// Unmount stops polling and waits for the task to exit. Once it returns no
// fetch is started and no result is applied, including one that was in
// flight.
func (w *Widget) Unmount() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Status returns a copy of the latest status, or nil if none is known.
func (w *Widget) Status() *nowplaying.Status {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.status == nil {
		return nil
	}
	s := *w.status
	return &s
}

func (w *Widget) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *Widget) refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	status, err := w.fetcher.Fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		w.log.WithError(err).Debug("poll failed, keeping previous status")
		return
	}

	w.mu.Lock()
	w.status = &status
	onChange := w.onChange
	w.mu.Unlock()

	if onChange != nil {
		s := status
		onChange(&s)
	}
}
