package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVideoURL_YouTube(t *testing.T) {
	for _, url := range []string{
		"https://www.youtube.com/watch?v=abc123",
		"https://youtu.be/abc123",
		"https://www.youtube.com/embed/abc123",
		"https://www.youtube.com/v/abc123",
	} {
		meta, err := ParseVideoURL(url)
		require.NoError(t, err, url)
		assert.Equal(t, PlatformYouTube, meta.Platform, url)
		assert.Equal(t, "abc123", meta.VideoID, url)
	}
}

func TestParseVideoURL_Vimeo(t *testing.T) {
	for _, url := range []string{
		"https://vimeo.com/12345",
		"https://player.vimeo.com/video/12345",
	} {
		meta, err := ParseVideoURL(url)
		require.NoError(t, err, url)
		assert.Equal(t, PlatformVimeo, meta.Platform, url)
		assert.Equal(t, "12345", meta.VideoID, url)
	}
}

func TestParseVideoURL_DirectFile(t *testing.T) {
	meta, err := ParseVideoURL("foo.mp4")
	require.NoError(t, err)
	assert.Equal(t, PlatformOther, meta.Platform)
	assert.Empty(t, meta.VideoID)
	assert.Equal(t, "foo", meta.AutoTitle)

	meta, err = ParseVideoURL("https://cdn.example.com/clips/workout.WEBM")
	require.NoError(t, err)
	assert.Equal(t, PlatformOther, meta.Platform)
	assert.Equal(t, "workout", meta.AutoTitle)
}

func TestParseVideoURL_Unsupported(t *testing.T) {
	for _, url := range []string{
		"ftp://example.com/video",
		"https://example.com/page",
		"not a url",
	} {
		_, err := ParseVideoURL(url)
		assert.ErrorIs(t, err, ErrUnsupportedVideoURL, url)
	}
}

func TestVideoMetaEmbedURL(t *testing.T) {
	meta, err := ParseVideoURL("https://www.youtube.com/watch?v=abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://www.youtube.com/embed/abc123?rel=0&modestbranding=1", meta.EmbedURL(""))

	meta, err = ParseVideoURL("https://vimeo.com/12345")
	require.NoError(t, err)
	assert.Equal(t, "https://player.vimeo.com/video/12345?title=0&byline=0&portrait=0", meta.EmbedURL(""))

	meta, err = ParseVideoURL("foo.mp4")
	require.NoError(t, err)
	assert.Equal(t, "foo.mp4", meta.EmbedURL("foo.mp4"))
}
