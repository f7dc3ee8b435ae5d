package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/tubegrab/backend/internal/models"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// YTDLPExtractor runs extraction jobs by shelling out to yt-dlp.
//
// With no Store configured it operates in link mode: yt-dlp resolves the
// direct media URL for the selected format and nothing is persisted. With
// a Store it operates in archive mode: the media file is downloaded to a
// temporary directory, uploaded through the store, and the stored
// location becomes the download URL.
type YTDLPExtractor struct {
	Binary  string
	Run     CommandRunner
	Timeout time.Duration
	Store   AssetStorage
	WorkDir string
}

// NewYTDLPExtractor constructs a link-mode extractor. Assign Store to
// enable archive mode.
func NewYTDLPExtractor(binary string, timeout time.Duration) *YTDLPExtractor {
	if strings.TrimSpace(binary) == "" {
		binary = "yt-dlp"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &YTDLPExtractor{
		Binary:  binary,
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

type ytdlpPayload struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Uploader           string  `json:"uploader"`
	DurationString     string  `json:"duration_string"`
	Thumbnail          string  `json:"thumbnail"`
	URL                string  `json:"url"`
	Filesize           int64   `json:"filesize"`
	FilesizeApprox     float64 `json:"filesize_approx"`
	RequestedDownloads []struct {
		Filepath string `json:"filepath"`
		Filesize int64  `json:"filesize"`
	} `json:"requested_downloads"`
}

// Extract implements Extractor.
func (e *YTDLPExtractor) Extract(ctx context.Context, req Request) (Result, error) {
	if e == nil {
		return Result{}, ErrExtractorUnavailable
	}
	run := e.Run
	if run == nil {
		run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	if e.Store == nil {
		return e.resolveLink(execCtx, run, req)
	}
	return e.archive(execCtx, run, req)
}

func (e *YTDLPExtractor) resolveLink(ctx context.Context, run CommandRunner, req Request) (Result, error) {
	args := append(baseArgs(req.Selection), "--skip-download", req.SourceURL)

	payload, err := e.runJSON(ctx, run, args)
	if err != nil {
		return Result{}, err
	}

	if payload.URL == "" {
		return Result{}, ErrNoDownloadURL
	}

	size := payload.Filesize
	if size == 0 {
		size = int64(payload.FilesizeApprox)
	}

	return Result{
		DownloadURL: payload.URL,
		Title:       payload.Title,
		Thumbnail:   payload.Thumbnail,
		Duration:    payload.DurationString,
		FileSize:    size,
	}, nil
}

func (e *YTDLPExtractor) archive(ctx context.Context, run CommandRunner, req Request) (Result, error) {
	workDir := e.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}

	tmpDir, err := os.MkdirTemp(workDir, "tubegrab-*")
	if err != nil {
		return Result{}, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	// --dump-single-json implies simulation, so the download has to be
	// forced back on for the media file to land in tmpDir.
	args := append(baseArgs(req.Selection),
		"--no-simulate",
		"-o", filepath.Join(tmpDir, "%(id)s.%(ext)s"),
		req.SourceURL,
	)

	payload, err := e.runJSON(ctx, run, args)
	if err != nil {
		return Result{}, err
	}

	if len(payload.RequestedDownloads) == 0 {
		return Result{}, ErrNoDownloadURL
	}

	filePath := payload.RequestedDownloads[0].Filepath
	file, err := os.Open(filePath)
	if err != nil {
		return Result{}, fmt.Errorf("open extracted file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return Result{}, fmt.Errorf("stat extracted file: %w", err)
	}

	key := path.Join(req.Owner, filepath.Base(filePath))
	location, err := e.Store.Save(ctx, key, file)
	file.Close()
	if err != nil {
		return Result{}, fmt.Errorf("store extracted file: %w", err)
	}

	return Result{
		DownloadURL: location,
		Title:       payload.Title,
		Thumbnail:   payload.Thumbnail,
		Duration:    payload.DurationString,
		FileSize:    info.Size(),
	}, nil
}

func (e *YTDLPExtractor) runJSON(ctx context.Context, run CommandRunner, args []string) (ytdlpPayload, error) {
	out, err := run(ctx, e.Binary, args...)
	if err != nil {
		return ytdlpPayload{}, fmt.Errorf("yt-dlp extract: %w", err)
	}

	var payload ytdlpPayload
	if err := json.Unmarshal(out, &payload); err != nil {
		return ytdlpPayload{}, fmt.Errorf("parse yt-dlp response: %w", err)
	}
	return payload, nil
}

func baseArgs(sel models.Selection) []string {
	args := []string{"--dump-single-json", "--no-warnings", "--no-playlist", "-f", formatSelector(sel)}
	if sel.Format == models.FormatAudio {
		args = append(args, "-x", "--audio-format", "mp3")
	}
	return args
}

// formatSelector maps a normalized selection onto a yt-dlp format string.
func formatSelector(sel models.Selection) string {
	if sel.Format == models.FormatAudio {
		return "bestaudio/best"
	}
	height := strings.TrimSuffix(string(sel.Quality), "p")
	if height == "" {
		return "best"
	}
	return fmt.Sprintf("best[height<=%s]", height)
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
