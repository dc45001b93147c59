package media

import (
	"regexp"
	"strings"

	"github.com/aretw0/emergence/pkg/domain"
)

var (
	youTubePattern = regexp.MustCompile(`^.*(youtu.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)
	vimeoPattern   = regexp.MustCompile(`^.*(vimeo\.com/)((channels/[A-z]+/)|(groups/[A-z]+/videos/)|(staff/picks/)|(video/))?([0-9]+)`)
)

const youTubeIDLength = 11

// ClassifyVideo reports which provider hosts the URL.
func ClassifyVideo(url string) domain.VideoProvider {
	switch {
	case strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be"):
		return domain.ProviderYouTube
	case strings.Contains(url, "vimeo.com"):
		return domain.ProviderVimeo
	default:
		return domain.ProviderFile
	}
}

// YouTubeID extracts the 11 character video id. It returns false when the URL carries
// no id or the id has any other length.
func YouTubeID(url string) (string, bool) {
	m := youTubePattern.FindStringSubmatch(url)
	if m == nil || len(m[2]) != youTubeIDLength {
		return "", false
	}
	return m[2], true
}

// VimeoID extracts the trailing numeric id, skipping channel, group, staff-pick and
// video path segments.
func VimeoID(url string) (string, bool) {
	m := vimeoPattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[7], true
}

func embedURL(provider domain.VideoProvider, id string, autoplay bool) string {
	var base string
	switch provider {
	case domain.ProviderYouTube:
		base = "https://www.youtube.com/embed/" + id + "?rel=0"
	case domain.ProviderVimeo:
		base = "https://player.vimeo.com/video/" + id + "?color=60a5fa"
	default:
		return ""
	}
	if autoplay {
		base += "&autoplay=1"
	}
	return base
}
