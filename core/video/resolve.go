// Package video turns the YouTube links attached to lectures into embeddable players.
package video

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNoURLProvided = errors.New("No video URL provided.")
	ErrInvalidLink   = errors.New("Invalid YouTube Link. Please update in Manage.")

	// checked in order, the first one found wins
	idMarkers = []string{"youtu.be/", "v=", "/shorts/", "/embed/"}

	idLen   = 11
	idRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	idRun   = regexp.MustCompile(`[A-Za-z0-9_-]{11}`)
)

// Resolve extracts the 11 character video ID from a YouTube URL in any of its usual shapes
// (watch, short link, shorts, embed), or from a bare ID.
func Resolve(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrNoURLProvided
	}

	var candidate string
	for _, marker := range idMarkers {
		i := strings.Index(s, marker)
		if i < 0 {
			continue
		}
		rest := s[i+len(marker):]
		if len(rest) > idLen {
			rest = rest[:idLen]
		}
		if q := strings.IndexByte(rest, '?'); q >= 0 {
			rest = rest[:q]
		}
		candidate = rest
		break
	}

	if len(candidate) != idLen {
		candidate = idRun.FindString(s)
	}
	if !idRegex.MatchString(candidate) {
		return "", ErrInvalidLink
	}
	return candidate, nil
}

// EmbedURL is the player URL of a video, pinned to origin.
func EmbedURL(id, origin string) string {
	o := url.QueryEscape(origin)
	return "https://www.youtube.com/embed/" + id +
		"?enablejsapi=1&origin=" + o +
		"&playsinline=1&rel=0&modestbranding=1&widget_referrer=" + o
}

// Surface is what the lecture screen shows: a player, or a message while waiting for a valid link.
type Surface struct {
	VideoID  string `json:"video_id,omitempty"`
	EmbedURL string `json:"embed_url,omitempty"`
	Awaiting bool   `json:"awaiting"`
	Message  string `json:"message,omitempty"`
}

// Render resolves raw into the surface to show.
func Render(raw, origin string) Surface {
	id, err := Resolve(raw)
	if err != nil {
		return Surface{Awaiting: true, Message: err.Error()}
	}
	return Surface{VideoID: id, EmbedURL: EmbedURL(id, origin)}
}
