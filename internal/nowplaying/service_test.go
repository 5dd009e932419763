package nowplaying

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"skidoodle/now-playing/internal/cache"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls   atomic.Int32
	body    []byte
	err     error
	status  Status
	decErr  error
	blockOn bool
}

func (f *fakeSource) Name() string     { return "fake" }
func (f *fakeSource) CacheKey() string { return "fake:recent" }

func (f *fakeSource) Fetch(ctx context.Context) ([]byte, error) {
	f.calls.Add(1)
	if f.blockOn {
		<-ctx.Done()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}
	return f.body, f.err
}

func (f *fakeSource) Decode([]byte) (Status, error) {
	return f.status, f.decErr
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestService(src Source, store cache.Cache) (*Service, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return NewService(src, store, 20*time.Second, 50*time.Millisecond, logger), hook
}

func playing() Status {
	art := "http://x/art.jpg"
	return Status{IsPlaying: true, Title: "Song A", Artist: "Band B", AlbumArt: &art, SongURL: "http://x/song"}
}

func TestService_ReusesBodyWithinWindow(t *testing.T) {
	clk := &clock{now: time.Unix(1_700_000_000, 0)}
	src := &fakeSource{body: []byte("{}"), status: playing()}
	svc, _ := newTestService(src, cache.NewMemory(cache.WithClock(clk.Now)))
	ctx := context.Background()

	assert.Equal(t, playing(), svc.Status(ctx))
	clk.now = clk.now.Add(10 * time.Second)
	assert.Equal(t, playing(), svc.Status(ctx))
	assert.EqualValues(t, 1, src.calls.Load(), "second call inside the window must be served from cache")

	clk.now = clk.now.Add(10 * time.Second)
	svc.Status(ctx)
	assert.EqualValues(t, 2, src.calls.Load(), "call after the window must refetch")
}

func TestService_FailuresCollapseToNotPlaying(t *testing.T) {
	tests := []struct {
		name      string
		src       *fakeSource
		wantLevel logrus.Level
	}{
		{
			name:      "network failure",
			src:       &fakeSource{err: fmt.Errorf("%w: connection refused", ErrUnavailable)},
			wantLevel: logrus.ErrorLevel,
		},
		{
			name:      "not configured",
			src:       &fakeSource{err: ErrNotConfigured},
			wantLevel: logrus.WarnLevel,
		},
		{
			name:      "malformed body",
			src:       &fakeSource{body: []byte("<html>"), decErr: fmt.Errorf("%w: not json", ErrMalformed)},
			wantLevel: logrus.WarnLevel,
		},
		{
			name:      "no tracks",
			src:       &fakeSource{body: []byte("{}"), decErr: ErrNoTracks},
			wantLevel: logrus.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, hook := newTestService(tt.src, cache.NewMemory())

			status := svc.Status(context.Background())
			assert.Equal(t, Status{}, status)

			entry := hook.LastEntry()
			require.NotNil(t, entry)
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Contains(t, entry.Data, logrus.ErrorKey)
		})
	}
}

func TestService_DoesNotCacheFailures(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	svc, _ := newTestService(src, cache.NewMemory())
	ctx := context.Background()

	svc.Status(ctx)
	src.err = nil
	src.body = []byte("{}")
	src.status = playing()

	assert.True(t, svc.Status(ctx).IsPlaying)
	assert.EqualValues(t, 2, src.calls.Load())
}

func TestService_BoundsUpstreamCall(t *testing.T) {
	src := &fakeSource{blockOn: true}
	svc, hook := newTestService(src, cache.NewMemory())

	start := time.Now()
	status := svc.Status(context.Background())

	assert.False(t, status.IsPlaying)
	assert.Less(t, time.Since(start), 2*time.Second)
	err, ok := hook.LastEntry().Data[logrus.ErrorKey].(error)
	require.True(t, ok)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type brokenCache struct{ cache.Cache }

func (brokenCache) Name() string { return "broken" }
func (brokenCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("cache down")
}
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache down")
}

func TestService_CacheOutageFallsThroughToUpstream(t *testing.T) {
	src := &fakeSource{body: []byte("{}"), status: playing()}
	svc, _ := newTestService(src, brokenCache{})

	assert.Equal(t, playing(), svc.Status(context.Background()))
	assert.Equal(t, "broken", svc.CacheName())
	assert.Equal(t, "fake", svc.SourceName())
}
