package widget

import (
	"fmt"
	"io"

	"skidoodle/now-playing/internal/nowplaying"
)

const placeholder = "♪ Not playing anything right now"

// Render writes the widget to out: a placeholder while nothing is known or
// nothing plays, a track card otherwise.
func (w *Widget) Render(out io.Writer) error {
	return RenderStatus(out, w.Status())
}

// RenderStatus writes the card for status. Track fields are only read when
// status reports something playing.
func RenderStatus(out io.Writer, status *nowplaying.Status) error {
	if status == nil || !status.IsPlaying {
		_, err := fmt.Fprintln(out, placeholder)
		return err
	}

	if _, err := fmt.Fprintf(out, "CURRENTLY LISTENING TO\n  %s\n  %s\n  %s\n",
		status.Title, status.Artist, status.SongURL); err != nil {
		return err
	}
	if art := status.Art(); art != "" {
		if _, err := fmt.Fprintf(out, "  art: %s\n", art); err != nil {
			return err
		}
	}
	return nil
}
