package infrastructure

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// Exit code yt-dlp uses when --max-downloads cut a playlist short,
// which is acceptable rather than an error.
const ytdlpExitMaxDownloads = 101

// workaround for tiktok not extracting: https://github.com/yt-dlp/yt-dlp/issues/9506#issuecomment-2053987537
const tiktokExtractorArgs = "tiktok:api_hostname=api16-normal-c-useast1a.tiktokv.com;app_info=7355728856979392262"

// ytdlpProcess wraps one running yt-dlp invocation. The caller must
// finish reading stdout/stderr before calling wait, and the context
// passed to startYtdlp kills the process when cancelled.
type ytdlpProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *bufio.Reader
}

func startYtdlp(ctx context.Context, binary string, args []string, logger *zap.Logger) (*ytdlpProcess, error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	logger.Debug("starting yt-dlp",
		zap.String("command", ShellEscapeCommand(binary, args...)))

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", binary, err)
	}

	return &ytdlpProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		stderr: bufio.NewReader(stderr),
	}, nil
}

// wait blocks until the process exits and returns its exit code. A
// non-zero exit is reported through the code, not the error; the error
// is reserved for failures of the wait itself.
func (p *ytdlpProcess) wait() (int, error) {
	err := p.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return -1, err
}

func (p *ytdlpProcess) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// metadataArgs builds the argument list for the metadata phase: dump
// one JSON object per playlist item and download nothing. With output
// forced to "-" the JSON lines arrive on stderr.
func metadataArgs(uri *url.URL, options domain.DownloadOptions) []string {
	args := []string{
		"--quiet",
		"--no-warnings",
		"--output", "-",
		"--restrict-filenames",
		"--dump-json",
		"--compat-options", "manifest-filesize-approx",
		"--simulate",
		"--max-downloads", strconv.FormatInt(options.MaxDownloads, 10),
	}
	args = append(args, extractorQuirkArgs(uri)...)

	return append(args, "--", uri.String())
}

// downloadArgs builds the argument list for downloading a single
// playlist item, reusing the already-dumped info JSON from stdin and
// printing the final file path to stdout.
func downloadArgs(uri *url.URL, outputTemplate, formatString string, playlistIndex int) []string {
	args := []string{
		"--quiet",
		"--no-warnings",
		"--output", outputTemplate,
		"--load-info-json", "-",
		"--print", "after_move:filepath",
		"--format", formatString,
		"--playlist-items", strconv.Itoa(playlistIndex),
		"--max-downloads", "1",
	}
	args = append(args, extractorQuirkArgs(uri)...)

	return append(args, "--", uri.String())
}

func extractorQuirkArgs(uri *url.URL) []string {
	if strings.Contains(uri.Host, "tiktok") {
		return []string{"--extractor-args", tiktokExtractorArgs}
	}
	return nil
}
