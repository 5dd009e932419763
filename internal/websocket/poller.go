package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"skidoodle/now-playing/internal/nowplaying"

	"github.com/sirupsen/logrus"
)

// StatusSource is anything that can report the current status.
type StatusSource interface {
	Status(ctx context.Context) nowplaying.Status
}

// Sink receives every status change next to the websocket clients.
type Sink interface {
	Publish(status nowplaying.Status)
}

// Poller refreshes the status periodically and fans out changes.
type Poller struct {
	source    StatusSource
	hub       *Hub
	sinks     []Sink
	interval  time.Duration
	lastState *nowplaying.Status
	mu        sync.RWMutex
	log       *logrus.Entry
}

// NewPoller creates a new Poller.
func NewPoller(source StatusSource, hub *Hub, interval time.Duration, logger *logrus.Logger, sinks ...Sink) *Poller {
	return &Poller{
		source:   source,
		hub:      hub,
		sinks:    sinks,
		interval: interval,
		log:      logger.WithField("component", "poller"),
	}
}

// Run starts the polling loop. It must be run in a separate goroutine.
func (p *Poller) Run(ctx context.Context) {
	p.log.WithField("interval", p.interval.String()).Info("poller started")
	defer p.log.Info("poller stopped")

	p.UpdateState(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.UpdateState(ctx)
		}
	}
}

// UpdateState fetches the latest status and broadcasts it if it changed.
func (p *Poller) UpdateState(ctx context.Context) {
	current := p.source.Status(ctx)
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	changed := p.lastState == nil || !p.lastState.Equal(current)
	if changed {
		p.lastState = &current
	}
	p.mu.Unlock()

	if !changed {
		return
	}

	track := "Nothing"
	if current.IsPlaying {
		track = current.Title
	}
	p.log.WithFields(logrus.Fields{"isPlaying": current.IsPlaying, "track": track}).Info("state changed, broadcasting update")

	p.hub.Broadcast(current)
	for _, sink := range p.sinks {
		sink.Publish(current)
	}
}

// LastState returns the last broadcast status, or nil before the first poll.
func (p *Poller) LastState() *nowplaying.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.lastState == nil {
		return nil
	}
	s := *p.lastState
	return &s
}

// greet queues the cached status for a client that has not been registered
// with the hub yet.
func (p *Poller) greet(c *Client) {
	last := p.LastState()
	if last == nil {
		return
	}
	payload, err := json.Marshal(last)
	if err != nil {
		p.log.WithError(err).Warn("failed to encode initial state")
		return
	}
	c.send <- payload
}
