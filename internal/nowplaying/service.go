package nowplaying

import (
	"context"
	"errors"
	"time"

	"skidoodle/now-playing/internal/cache"

	"github.com/sirupsen/logrus"
)

// Service answers now-playing requests. It never fails: every upstream
// problem is logged with its cause and reported as "nothing playing".
type Service struct {
	source  Source
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	log     *logrus.Entry
}

// NewService creates a Service that reuses upstream bodies for ttl and gives
// each upstream call at most timeout to complete.
func NewService(source Source, store cache.Cache, ttl, timeout time.Duration, logger *logrus.Logger) *Service {
	return &Service{
		source:  source,
		cache:   store,
		ttl:     ttl,
		timeout: timeout,
		log:     logger.WithField("source", source.Name()),
	}
}

// SourceName names the configured upstream.
func (s *Service) SourceName() string { return s.source.Name() }

// CacheName names the configured cache backend.
func (s *Service) CacheName() string { return s.cache.Name() }

// Status returns the current status, built fresh from the upstream body.
func (s *Service) Status(ctx context.Context) Status {
	body, err := s.body(ctx)
	if err != nil {
		s.logCause(err)
		return Status{}
	}

	status, err := s.source.Decode(body)
	if err != nil {
		s.logCause(err)
		return Status{}
	}

	if !status.IsPlaying {
		s.log.Debug("nothing is playing")
	}
	return status
}

func (s *Service) body(ctx context.Context) ([]byte, error) {
	key := s.source.CacheKey()

	body, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WithError(err).Warn("cache lookup failed, fetching upstream")
	} else if ok {
		return body, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body, err = s.source.Fetch(fetchCtx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, body, s.ttl); err != nil {
		s.log.WithError(err).Warn("failed to cache upstream response")
	}
	return body, nil
}

func (s *Service) logCause(err error) {
	entry := s.log.WithError(err)
	switch {
	case errors.Is(err, ErrNoTracks):
		entry.Debug("no recent tracks, reporting nothing playing")
	case errors.Is(err, ErrNotConfigured):
		entry.Warn("upstream not configured, reporting nothing playing")
	case errors.Is(err, ErrMalformed):
		entry.Warn("malformed upstream response, reporting nothing playing")
	default:
		entry.Error("upstream request failed, reporting nothing playing")
	}
}
