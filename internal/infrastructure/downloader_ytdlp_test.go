package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/internal/domain"
)

func TestMetadataArgs(t *testing.T) {
	uri, _ := url.Parse("https://example.com/watch?v=abc")
	options := domain.DownloadOptions{MaxFilesize: 1000, MaxDownloads: 5}

	args := metadataArgs(uri, options)

	assert.Contains(t, args, "--dump-json")
	assert.Contains(t, args, "--simulate")
	assert.Contains(t, args, "--restrict-filenames")
	assert.NotContains(t, args, "--extractor-args")
	// URL comes last, behind the option terminator
	assert.Equal(t, "--", args[len(args)-2])
	assert.Equal(t, "https://example.com/watch?v=abc", args[len(args)-1])

	for i, a := range args {
		if a == "--max-downloads" {
			assert.Equal(t, "5", args[i+1])
		}
	}
}

func TestMetadataArgs_TiktokQuirk(t *testing.T) {
	uri, _ := url.Parse("https://www.tiktok.com/@user/video/123")

	args := metadataArgs(uri, domain.DefaultDownloadOptions())

	require.Contains(t, args, "--extractor-args")
	assert.Contains(t, args, tiktokExtractorArgs)
}

func TestDownloadArgs(t *testing.T) {
	uri, _ := url.Parse("https://example.com/watch?v=abc")

	args := downloadArgs(uri, "/tmp/x%(id)s.%(ext)s", "137+140", 3)

	assert.Contains(t, args, "--load-info-json")
	assert.Contains(t, args, "--print")
	assert.Contains(t, args, "after_move:filepath")

	for i, a := range args {
		switch a {
		case "--format":
			assert.Equal(t, "137+140", args[i+1])
		case "--playlist-items":
			assert.Equal(t, "3", args[i+1])
		case "--max-downloads":
			assert.Equal(t, "1", args[i+1])
		}
	}
}

// writeFakeYtdlp installs a shell script standing in for the yt-dlp
// binary. Scripts branch on --simulate to tell the metadata phase from
// the download phase.
func writeFakeYtdlp(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp scripts require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func newTestYtdlpDownloader(t *testing.T, script string) *YtdlpDownloader {
	t.Helper()
	return NewYtdlpDownloader(domain.YtdlpConfig{
		Binary:  writeFakeYtdlp(t, script),
		TempDir: t.TempDir(),
	}, zap.NewNop())
}

func TestYtdlpDownloader_SingleItem(t *testing.T) {
	outDir := t.TempDir()
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
*--simulate*)
	echo '{"extractor":"Test","id":"abc","title":"hello","formats":[{"format_id":"22","vcodec":"h264","acodec":"aac","filesize":100,"ext":"mp4"}]}' >&2
	exit 0
	;;
esac
cat > /dev/null
f=%q/out.mp4
printf 'hello media' > "$f"
echo "$f"
`, outDir)

	d := newTestYtdlpDownloader(t, script)
	uri, _ := url.Parse("https://example.com/watch?v=abc")

	media, err := d.Download(context.Background(), uri, domain.DownloadOptions{MaxFilesize: 1000, MaxDownloads: 10})

	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, 1, media[0].Number)
	require.NotNil(t, media[0].FileSize)
	assert.Equal(t, int64(len("hello media")), *media[0].FileSize)
	require.NotNil(t, media[0].VideoFormat)
	assert.Equal(t, "22", media[0].VideoFormat.FormatID)

	content, err := io.ReadAll(media[0].Media)
	require.NoError(t, err)
	assert.Equal(t, "hello media", string(content))

	require.NoError(t, media[0].Close())
	_, statErr := os.Stat(filepath.Join(outDir, "out.mp4"))
	assert.True(t, os.IsNotExist(statErr), "temp file should be removed on close")
}

func TestYtdlpDownloader_Exit101IsSuccess(t *testing.T) {
	outDir := t.TempDir()
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
*--simulate*)
	echo '{"extractor":"Test","id":"abc","formats":[{"format_id":"22","vcodec":"h264","acodec":"aac","filesize":100}]}' >&2
	exit 101
	;;
esac
cat > /dev/null
f=%q/out.mp4
printf 'data' > "$f"
echo "$f"
exit 101
`, outDir)

	d := newTestYtdlpDownloader(t, script)
	uri, _ := url.Parse("https://example.com/watch?v=abc")

	media, err := d.Download(context.Background(), uri, domain.DownloadOptions{MaxFilesize: 1000, MaxDownloads: 1})

	require.NoError(t, err)
	require.Len(t, media, 1)
	require.NoError(t, media[0].Close())
}

func TestYtdlpDownloader_NonJSONLineBecomesErrorDetail(t *testing.T) {
	script := `#!/bin/sh
case "$*" in
*--simulate*)
	echo 'ERROR: unsupported url' >&2
	echo 'more detail here' >&2
	exit 1
	;;
esac
exit 1
`

	d := newTestYtdlpDownloader(t, script)
	uri, _ := url.Parse("https://example.com/watch?v=abc")

	media, err := d.Download(context.Background(), uri, domain.DefaultDownloadOptions())

	require.Error(t, err)
	assert.Empty(t, media)

	var dlErr *domain.DownloaderError
	require.True(t, errors.As(err, &dlErr))
	assert.Contains(t, dlErr.Message, "non-zero code (1)")
	assert.Contains(t, dlErr.Details, "ERROR: unsupported url")
	assert.Contains(t, dlErr.Details, "more detail here")
}

func TestYtdlpDownloader_NonJSONLineDiscardedOnCleanExit(t *testing.T) {
	script := `#!/bin/sh
case "$*" in
*--simulate*)
	echo 'not json, but exiting cleanly' >&2
	exit 0
	;;
esac
exit 1
`

	d := newTestYtdlpDownloader(t, script)
	uri, _ := url.Parse("https://example.com/watch?v=abc")

	media, err := d.Download(context.Background(), uri, domain.DefaultDownloadOptions())

	require.NoError(t, err)
	assert.Empty(t, media)
}

func TestYtdlpDownloader_PickFailureAbortsBatch(t *testing.T) {
	// the only format is 5x over budget, so no pick is possible
	script := `#!/bin/sh
case "$*" in
*--simulate*)
	echo '{"extractor":"Test","id":"abc","formats":[{"format_id":"22","vcodec":"h264","acodec":"aac","filesize":5000}]}' >&2
	exit 0
	;;
esac
exit 1
`

	d := newTestYtdlpDownloader(t, script)
	uri, _ := url.Parse("https://example.com/watch?v=abc")

	media, err := d.Download(context.Background(), uri, domain.DownloadOptions{MaxFilesize: 1000, MaxDownloads: 1})

	require.Error(t, err)
	assert.Empty(t, media)

	var dlErr *domain.DownloaderError
	require.True(t, errors.As(err, &dlErr))
	assert.Contains(t, dlErr.Message, "failed to pick format for item #1")
}

func TestYtdlpDownloader_OversizedDownloadRejected(t *testing.T) {
	outDir := t.TempDir()
	// metadata claims 50 bytes, the actual file is much bigger
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
*--simulate*)
	echo '{"extractor":"Test","id":"abc","formats":[{"format_id":"22","vcodec":"h264","acodec":"aac","filesize":50}]}' >&2
	exit 0
	;;
esac
cat > /dev/null
f=%q/out.mp4
head -c 2000 /dev/zero > "$f"
echo "$f"
`, outDir)

	d := newTestYtdlpDownloader(t, script)
	uri, _ := url.Parse("https://example.com/watch?v=abc")

	media, err := d.Download(context.Background(), uri, domain.DownloadOptions{MaxFilesize: 100, MaxDownloads: 1})

	require.Error(t, err)
	assert.Empty(t, media)

	var sizeErr *domain.SizeExceededError
	require.True(t, errors.As(err, &sizeErr))
	assert.Equal(t, int64(2000), sizeErr.Size)
	assert.Equal(t, int64(100), sizeErr.Limit)
}

func TestYtdlpDownloader_MultipleItemsOrdered(t *testing.T) {
	outDir := t.TempDir()
	script := fmt.Sprintf(`#!/bin/sh
case "$*" in
*--simulate*)
	echo '{"extractor":"Test","id":"a","formats":[{"format_id":"22","vcodec":"h264","acodec":"aac","filesize":100}]}' >&2
	echo '{"extractor":"Test","id":"b","formats":[{"format_id":"22","vcodec":"h264","acodec":"aac","filesize":100}]}' >&2
	exit 0
	;;
esac
cat > /dev/null
idx=
prev=
for a in "$@"; do
	if [ "$prev" = "--playlist-items" ]; then idx="$a"; fi
	prev="$a"
done
f=%q/item-$idx.mp4
printf 'media-%%s' "$idx" > "$f"
echo "$f"
`, outDir)

	d := newTestYtdlpDownloader(t, script)
	uri, _ := url.Parse("https://example.com/playlist?list=xyz")

	media, err := d.Download(context.Background(), uri, domain.DownloadOptions{MaxFilesize: 1000, MaxDownloads: 10})

	require.NoError(t, err)
	require.Len(t, media, 2)

	for i, want := range []string{"media-1", "media-2"} {
		assert.Equal(t, i+1, media[i].Number)
		content, err := io.ReadAll(media[i].Media)
		require.NoError(t, err)
		assert.Equal(t, want, string(content))
		require.NoError(t, media[i].Close())
	}
}
