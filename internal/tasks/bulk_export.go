package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/spotx/internal/formatter"
	"github.com/desertthunder/spotx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
	manifestName     = "export_manifest.json"
)

// BulkExportOpts contains configuration for bulk playlist exports.
type BulkExportOpts struct {
	Format     formatter.Format // Output format, defaults to JSON
	OutputDir  string           // Base output directory (default: spotify_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 4, max: 10)
	RateLimit  float64          // Playlist starts per second (default: 5)
}

// PlaylistExportResult is the outcome of exporting one playlist.
type PlaylistExportResult struct {
	PlaylistID   string   `json:"playlist_id"`
	PlaylistName string   `json:"playlist_name"`
	TrackCount   int      `json:"track_count"`
	Skipped      int      `json:"skipped"`
	Files        []string `json:"files,omitempty"`
	Success      bool     `json:"success"`
	Error        error    `json:"-"`
	ErrorMessage string   `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export and is written as the manifest.
type BulkExportResult struct {
	Format            formatter.Format       `json:"format"`
	ExportedAt        time.Time              `json:"exported_at"`
	TotalPlaylists    int                    `json:"total_playlists"`
	SuccessfulExports int                    `json:"successful_exports"`
	FailedExports     int                    `json:"failed_exports"`
	OutputDirectory   string                 `json:"output_directory"`
	ManifestPath      string                 `json:"-"`
	Results           []PlaylistExportResult `json:"results"`
}

type exportJob struct {
	index      int
	playlistID string
}

// BulkExport exports multiple playlists concurrently with rate limiting and progress tracking.
//
// Results keep the order of ids. A cancelled context stops scheduling and returns ctx.Err() without a manifest.
func (e *Exporter) BulkExport(ctx context.Context, prog chan<- ProgressUpdate, ids []string, opts BulkExportOpts) (*BulkExportResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one playlist id", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("spotify_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		Format:          opts.Format,
		ExportedAt:      time.Now().UTC(),
		TotalPlaylists:  len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]PlaylistExportResult, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan exportJob)
	done := make(chan exportJob, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, done, result.Results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			e.sendProgress(prog, exportStartedUpdate(i+1, len(ids), id))
			select {
			case jobs <- exportJob{index: i, playlistID: id}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(done)
	}()

	completed := 0
	for job := range done {
		completed++
		res := result.Results[job.index]
		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, exportCompletedUpdate(completed, len(ids), res))
		} else {
			result.FailedExports++
			e.sendProgress(prog, exportFailedUpdate(completed, len(ids), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	e.sendProgress(prog, manifestUpdate(manifestPath))

	return result, nil
}

// exportWorker exports playlists from the jobs channel into their slot of results.
func (e *Exporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	done chan<- exportJob,
	results []PlaylistExportResult,
	opts BulkExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		results[job.index] = e.exportSinglePlaylist(ctx, job.playlistID, opts)
		done <- job
	}
}

// exportSinglePlaylist collects one playlist and writes it in the requested format.
func (e *Exporter) exportSinglePlaylist(ctx context.Context, playlistID string, opts BulkExportOpts) PlaylistExportResult {
	result := PlaylistExportResult{
		PlaylistID:   playlistID,
		PlaylistName: fmt.Sprintf("Unknown (%s)", playlistID),
	}

	export, err := e.CollectPlaylist(ctx, nil, playlistID)
	if err != nil {
		return failed(result, fmt.Errorf("failed to fetch playlist: %w", err))
	}

	result.PlaylistName = export.Name
	result.TrackCount = len(export.Tracks)
	result.Skipped = export.Skipped

	var data []byte
	if opts.Format == formatter.FormatJSON {
		data, err = shared.MarshalJSON(export, true)
	} else {
		data, err = formatter.Render(opts.Format, export.Name, export.Tracks)
	}
	if err != nil {
		return failed(result, fmt.Errorf("%s export failed: %w", opts.Format, err))
	}

	path := filepath.Join(opts.OutputDir, exportFileName(export.ID, playlistID)+"."+opts.Format.Extension())
	if err := formatter.WriteFile(path, data); err != nil {
		return failed(result, err)
	}

	e.logger.Debug("playlist exported", "id", playlistID, "path", path, "tracks", result.TrackCount)

	result.Files = []string{path}
	result.Success = true
	return result
}

// exportFileName keeps only base62 id characters of the reported id, falling back to the requested one.
func exportFileName(reportedID, requestedID string) string {
	keep := func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return -1
	}
	for _, id := range []string{reportedID, requestedID} {
		if name := strings.Map(keep, id); name != "" {
			return name
		}
	}
	return "playlist"
}

func failed(result PlaylistExportResult, err error) PlaylistExportResult {
	result.Error = err
	result.ErrorMessage = err.Error()
	return result
}

func writeManifest(result *BulkExportResult, path string) error {
	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return formatter.WriteFile(path, data)
}
