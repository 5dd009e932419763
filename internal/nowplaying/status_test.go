package nowplaying

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_MarshalJSON(t *testing.T) {
	art := "http://x/art.jpg"

	tests := []struct {
		name   string
		status Status
		want   string
	}{
		{
			name:   "not playing drops stale fields",
			status: Status{IsPlaying: false, Title: "left over", AlbumArt: &art},
			want:   `{"isPlaying":false}`,
		},
		{
			name:   "playing with art",
			status: Status{IsPlaying: true, Title: "Song A", Artist: "Band B", AlbumArt: &art, SongURL: "http://x/song"},
			want:   `{"isPlaying":true,"title":"Song A","artist":"Band B","albumArt":"http://x/art.jpg","songUrl":"http://x/song"}`,
		},
		{
			name:   "playing without art emits null",
			status: Status{IsPlaying: true, Title: "Song A", Artist: "Band B", SongURL: "http://x/song"},
			want:   `{"isPlaying":true,"title":"Song A","artist":"Band B","albumArt":null,"songUrl":"http://x/song"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.status)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestStatus_Equal(t *testing.T) {
	a, b := "a.jpg", "b.jpg"
	base := Status{IsPlaying: true, Title: "t", Artist: "x", SongURL: "u", AlbumArt: &a}

	assert.True(t, Status{}.Equal(Status{Title: "ignored"}))
	assert.True(t, base.Equal(Status{IsPlaying: true, Title: "t", Artist: "x", SongURL: "u", AlbumArt: &[]string{"a.jpg"}[0]}))
	assert.False(t, base.Equal(Status{}))

	other := base
	other.AlbumArt = &b
	assert.False(t, base.Equal(other))

	other.AlbumArt = nil
	assert.False(t, base.Equal(other))
}
