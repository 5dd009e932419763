package nowplaying

import "encoding/json"

// Status is the normalized now-playing payload served to clients.
// When IsPlaying is false none of the other fields carry meaning and the
// JSON form is exactly {"isPlaying":false}.
type Status struct {
	IsPlaying bool    `json:"isPlaying"`
	Title     string  `json:"title,omitempty"`
	Artist    string  `json:"artist,omitempty"`
	AlbumArt  *string `json:"albumArt,omitempty"`
	SongURL   string  `json:"songUrl,omitempty"`
}

// MarshalJSON drops the track fields when nothing is playing and always
// emits albumArt (possibly null) when something is.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.IsPlaying {
		return []byte(`{"isPlaying":false}`), nil
	}
	return json.Marshal(struct {
		IsPlaying bool    `json:"isPlaying"`
		Title     string  `json:"title"`
		Artist    string  `json:"artist"`
		AlbumArt  *string `json:"albumArt"`
		SongURL   string  `json:"songUrl"`
	}{true, s.Title, s.Artist, s.AlbumArt, s.SongURL})
}

// Equal reports whether two statuses would render the same.
func (s Status) Equal(other Status) bool {
	if s.IsPlaying != other.IsPlaying {
		return false
	}
	if !s.IsPlaying {
		return true
	}
	return s.Title == other.Title &&
		s.Artist == other.Artist &&
		s.SongURL == other.SongURL &&
		s.Art() == other.Art()
}

// Art returns the album art URL, or "" when there is none.
func (s Status) Art() string {
	if s.AlbumArt == nil {
		return ""
	}
	return *s.AlbumArt
}
