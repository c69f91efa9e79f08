package app

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloaderFactory_DefaultOrder(t *testing.T) {
	ytdlp := &fakeDownloader{name: "yt-dlp"}
	cobalt := &fakeDownloader{name: "cobalt"}
	factory := NewDownloaderFactory(ytdlp, cobalt)

	uri, _ := url.Parse("https://example.com/watch?v=abc")
	downloaders := factory.CreateDownloaders(uri)

	require.Len(t, downloaders, 2)
	assert.Equal(t, "yt-dlp", downloaders[0].Name())
	assert.Equal(t, "cobalt", downloaders[1].Name())
}

func TestDownloaderFactory_InstagramPrefersCobalt(t *testing.T) {
	ytdlp := &fakeDownloader{name: "yt-dlp"}
	cobalt := &fakeDownloader{name: "cobalt"}
	factory := NewDownloaderFactory(ytdlp, cobalt)

	uri, _ := url.Parse("https://www.instagram.com/reel/xyz/")
	downloaders := factory.CreateDownloaders(uri)

	require.Len(t, downloaders, 2)
	assert.Equal(t, "cobalt", downloaders[0].Name())
	assert.Equal(t, "yt-dlp", downloaders[1].Name())
}

func TestDownloaderFactory_WithoutCobalt(t *testing.T) {
	ytdlp := &fakeDownloader{name: "yt-dlp"}
	factory := NewDownloaderFactory(ytdlp, nil)

	for _, raw := range []string{
		"https://example.com/watch?v=abc",
		"https://www.instagram.com/reel/xyz/",
	} {
		uri, _ := url.Parse(raw)
		downloaders := factory.CreateDownloaders(uri)

		require.Len(t, downloaders, 1)
		assert.Equal(t, "yt-dlp", downloaders[0].Name())
	}
}
