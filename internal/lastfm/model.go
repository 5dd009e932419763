package lastfm

import (
	"bytes"
	"encoding/json"
)

// RecentTracks is the user.getrecenttracks response. Every level may be
// missing. Last.fm reports failures through the Error/Message envelope.
type RecentTracks struct {
	RecentTracks *struct {
		Track TrackList `json:"track"`
	} `json:"recenttracks"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

// Track is one scrobbled (or currently scrobbling) track.
type Track struct {
	Name   string `json:"name"`
	Artist struct {
		Text string `json:"#text"`
	} `json:"artist"`
	Image []Image `json:"image"`
	URL   string  `json:"url"`
	Attr  *struct {
		// NowPlaying is left untyped: only the JSON string "true" counts.
		NowPlaying any `json:"nowplaying"`
	} `json:"@attr"`
}

// Image is a sized album art variant.
type Image struct {
	Size string `json:"size"`
	Text string `json:"#text"`
}

// TrackList accepts both an array of tracks and a single bare track object,
// which Last.fm returns for some one-item responses.
type TrackList []Track

func (l *TrackList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var single Track
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return err
		}
		*l = TrackList{single}
		return nil
	}

	var tracks []Track
	if err := json.Unmarshal(trimmed, &tracks); err != nil {
		return err
	}
	*l = tracks
	return nil
}

// IsNowPlaying reports whether the track carries nowplaying="true".
func (t Track) IsNowPlaying() bool {
	if t.Attr == nil {
		return false
	}
	value, ok := t.Attr.NowPlaying.(string)
	return ok && value == "true"
}

// AlbumArt returns the medium image variant, or nil when there is none.
func (t Track) AlbumArt() *string {
	for _, img := range t.Image {
		if img.Size == "medium" && img.Text != "" {
			url := img.Text
			return &url
		}
	}
	return nil
}
