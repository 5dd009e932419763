package nowplaying

import (
	"context"
	"errors"
)

// Causes for collapsing a request to "nothing playing". They are only ever
// logged; clients always see the same payload.
var (
	ErrNotConfigured = errors.New("upstream credentials are not configured")
	ErrUnavailable   = errors.New("upstream unavailable")
	ErrMalformed     = errors.New("upstream response malformed")
	ErrNoTracks      = errors.New("upstream returned no recent tracks")
)

// Source is an upstream service that knows what a user is listening to.
// Fetch returns the raw response body, which the Service caches; Decode
// turns a (possibly cached) body into a Status.
type Source interface {
	Name() string
	CacheKey() string
	Fetch(ctx context.Context) ([]byte, error)
	Decode(body []byte) (Status, error)
}
