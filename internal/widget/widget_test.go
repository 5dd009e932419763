package widget

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"skidoodle/now-playing/internal/nowplaying"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playing(title string) nowplaying.Status {
	return nowplaying.Status{IsPlaying: true, Title: title, Artist: "Band B", SongURL: "http://x/song"}
}

type countingFetcher struct {
	calls   atomic.Int32
	failing atomic.Bool
	status  nowplaying.Status
}

func (f *countingFetcher) Fetch(context.Context) (nowplaying.Status, error) {
	f.calls.Add(1)
	if f.failing.Load() {
		return nowplaying.Status{}, errors.New("offline")
	}
	return f.status, nil
}

func newWidget(f Fetcher, interval time.Duration) *Widget {
	logger, _ := test.NewNullLogger()
	return New(f, interval, logger)
}

func TestWidget_FetchesOnMountAndEveryInterval(t *testing.T) {
	f := &countingFetcher{status: playing("Song A")}
	w := newWidget(f, 20*time.Millisecond)

	require.NoError(t, w.Mount(context.Background()))
	defer w.Unmount()

	assert.Eventually(t, func() bool { return f.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return f.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "Song A", w.Status().Title)
}

func TestWidget_NoFetchAfterUnmount(t *testing.T) {
	f := &countingFetcher{status: playing("Song A")}
	w := newWidget(f, 10*time.Millisecond)

	require.NoError(t, w.Mount(context.Background()))
	w.Unmount()

	calls := f.calls.Load()
	assert.LessOrEqual(t, calls, int32(1), "only the immediate mount fetch may have run")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, calls, f.calls.Load())
}

func TestWidget_DiscardsResultPendingAtUnmount(t *testing.T) {
	started := make(chan struct{})
	f := FetcherFunc(func(ctx context.Context) (nowplaying.Status, error) {
		close(started)
		<-ctx.Done()
		return playing("Too late"), nil
	})
	w := newWidget(f, time.Hour)

	var changes atomic.Int32
	w.OnChange(func(*nowplaying.Status) { changes.Add(1) })

	require.NoError(t, w.Mount(context.Background()))
	<-started
	w.Unmount()

	assert.Nil(t, w.Status())
	assert.Zero(t, changes.Load())
}

func TestWidget_FailedPollKeepsPreviousStatus(t *testing.T) {
	f := &countingFetcher{status: playing("Song A")}
	w := newWidget(f, 10*time.Millisecond)

	require.NoError(t, w.Mount(context.Background()))
	defer w.Unmount()
	require.Eventually(t, func() bool { return w.Status() != nil }, time.Second, 5*time.Millisecond)

	f.failing.Store(true)
	before := f.calls.Load()
	require.Eventually(t, func() bool { return f.calls.Load() > before+1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, "Song A", w.Status().Title)
}

func TestWidget_LatestResultWins(t *testing.T) {
	var n atomic.Int32
	f := FetcherFunc(func(context.Context) (nowplaying.Status, error) {
		if n.Add(1) == 1 {
			return playing("First"), nil
		}
		return nowplaying.Status{}, nil
	})
	w := newWidget(f, 10*time.Millisecond)

	require.NoError(t, w.Mount(context.Background()))
	defer w.Unmount()

	assert.Eventually(t, func() bool {
		s := w.Status()
		return s != nil && !s.IsPlaying
	}, time.Second, 5*time.Millisecond)
}

func TestWidget_MountTwice(t *testing.T) {
	w := newWidget(&countingFetcher{}, time.Hour)

	require.NoError(t, w.Mount(context.Background()))
	assert.ErrorIs(t, w.Mount(context.Background()), ErrAlreadyMounted)
	w.Unmount()
	w.Unmount()

	require.NoError(t, w.Mount(context.Background()), "a widget can be mounted again after unmount")
	w.Unmount()
}

func TestRenderStatus(t *testing.T) {
	art := "http://x/art.jpg"

	tests := []struct {
		name      string
		status    *nowplaying.Status
		contains  []string
		forbidden []string
	}{
		{name: "unknown", status: nil, contains: []string{placeholder}},
		{
			name:      "not playing ignores stale fields",
			status:    &nowplaying.Status{Title: "stale"},
			contains:  []string{placeholder},
			forbidden: []string{"stale"},
		},
		{
			name: "playing with art",
			status: &nowplaying.Status{IsPlaying: true, Title: "Song A", Artist: "Band B",
				SongURL: "http://x/song", AlbumArt: &art},
			contains: []string{"Song A", "Band B", "http://x/song", "art: http://x/art.jpg"},
		},
		{
			name:      "playing without art omits image",
			status:    &nowplaying.Status{IsPlaying: true, Title: "Song A", Artist: "Band B", SongURL: "http://x/song"},
			contains:  []string{"Song A"},
			forbidden: []string{"art:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, RenderStatus(&buf, tt.status))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.forbidden {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"isPlaying":true,"title":"Song A","artist":"Band B","albumArt":null,"songUrl":"http://x/song"}`))
	}))
	defer srv.Close()

	status, err := NewHTTPFetcher(srv.Client(), srv.URL, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, status.IsPlaying)
	assert.Equal(t, "Song A", status.Title)
	assert.Nil(t, status.AlbumArt)

	srv.Close()
	_, err = NewHTTPFetcher(nil, srv.URL, nil).Fetch(context.Background())
	assert.Error(t, err, "an offline proxy surfaces as an error for the widget to swallow")
}

type closeErrBody struct {
	io.ReadCloser
}

func (b closeErrBody) Close() error {
	_ = b.ReadCloser.Close()
	return errors.New("close failed")
}

type closeErrTransport struct{}

func (closeErrTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := http.DefaultTransport.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	resp.Body = closeErrBody{resp.Body}
	return resp, nil
}

func TestHTTPFetcher_CloseFailureUsesLogger(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"isPlaying":false}`))
	}))
	defer srv.Close()

	logger, hook := test.NewNullLogger()
	_, err := NewHTTPFetcher(&http.Client{Transport: closeErrTransport{}}, srv.URL, logger).Fetch(context.Background())
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "fetcher", entry.Data["component"])
}
