package content

import (
	"errors"
	"regexp"
	"strings"
)

// Video platforms
const (
	PlatformYouTube = "youtube"
	PlatformVimeo   = "vimeo"
	PlatformOther   = "other"
)

// ErrUnsupportedVideoURL is returned when a URL matches no known platform or file format
var ErrUnsupportedVideoURL = errors.New("unsupported video URL format, use YouTube, Vimeo or a direct video file URL")

var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([\w-]+)`),
	regexp.MustCompile(`youtube\.com/embed/([\w-]+)`),
	regexp.MustCompile(`youtube\.com/v/([\w-]+)`),
}

var vimeoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`vimeo\.com/(\d+)`),
	regexp.MustCompile(`player\.vimeo\.com/video/(\d+)`),
}

var videoFilePattern = regexp.MustCompile(`(?i)\.(mp4|webm|ogg|mov|avi|mkv)$`)

// VideoMeta is the metadata derived from a video URL
type VideoMeta struct {
	Platform        string
	VideoID         string
	AutoTitle       string
	AutoDescription string
}

// ParseVideoURL classifies a video URL into a known platform and extracts its video ID.
// Direct file URLs fall back to the 'other' platform; anything else is rejected.
func ParseVideoURL(url string) (*VideoMeta, error) {
	for _, pattern := range youtubePatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return &VideoMeta{
				Platform:        PlatformYouTube,
				VideoID:         m[1],
				AutoTitle:       "YouTube Video " + m[1],
				AutoDescription: "Video imported from YouTube",
			}, nil
		}
	}

	for _, pattern := range vimeoPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return &VideoMeta{
				Platform:        PlatformVimeo,
				VideoID:         m[1],
				AutoTitle:       "Vimeo Video " + m[1],
				AutoDescription: "Video imported from Vimeo",
			}, nil
		}
	}

	if videoFilePattern.MatchString(url) {
		name := url
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if idx := strings.Index(name, "."); idx > 0 {
			name = name[:idx]
		}
		if name == "" {
			name = "Video File"
		}
		return &VideoMeta{
			Platform:        PlatformOther,
			AutoTitle:       name,
			AutoDescription: "Direct video file",
		}, nil
	}

	return nil, ErrUnsupportedVideoURL
}

// EmbedURL returns the embeddable player URL for a parsed video
func (m *VideoMeta) EmbedURL(original string) string {
	switch {
	case m.Platform == PlatformYouTube && m.VideoID != "":
		return "https://www.youtube.com/embed/" + m.VideoID + "?rel=0&modestbranding=1"
	case m.Platform == PlatformVimeo && m.VideoID != "":
		return "https://player.vimeo.com/video/" + m.VideoID + "?title=0&byline=0&portrait=0"
	default:
		return original
	}
}
