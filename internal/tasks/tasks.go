package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/models"
	"github.com/desertthunder/spotx/internal/shared"
)

const (
	itemsPageSize     = 100
	maxPreallocTracks = 10000 // playlists cap out at 10,000 items
)

// PlaylistSource is the subset of the catalog needed to read a whole playlist.
type PlaylistSource interface {
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*models.Paging[models.PlaylistTrack], error)
}

// PlaylistExport is a playlist with every available track.
type PlaylistExport struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	SnapshotID  string         `json:"snapshot_id,omitempty"`
	Total       int            `json:"total"`
	Skipped     int            `json:"skipped"` // null or local entries
	Tracks      []models.Track `json:"tracks"`
}

// Exporter runs playlist collection and export operations.
type Exporter struct {
	source PlaylistSource
	logger *log.Logger
}

// NewExporter creates a new Exporter reading from source.
func NewExporter(source PlaylistSource, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{source: source, logger: shared.WithLogger(logger, "component", "exporter")}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// CollectPlaylist fetches a playlist and all of its item pages.
func (e *Exporter) CollectPlaylist(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) (*PlaylistExport, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, fetchPlaylistUpdate(playlistID))

	playlist, err := e.source.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	export := &PlaylistExport{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       playlist.Owner.DisplayName,
		SnapshotID:  playlist.SnapshotID,
		Total:       playlist.Tracks.Total,
		Tracks:      make([]models.Track, 0, trackCapacity(playlist.Tracks.Total)),
	}
	if export.ID == "" {
		export.ID = playlistID
	}

	page := &playlist.Tracks
	fetched := 0
	for {
		for _, item := range page.Items {
			if item.Track == nil || item.IsLocal || item.Track.ID == "" {
				export.Skipped++
				continue
			}
			export.Tracks = append(export.Tracks, *item.Track)
		}
		fetched += len(page.Items)
		e.sendProgress(progress, fetchItemsUpdate(export.Name, fetched, export.Total))

		if !page.HasNext() || len(page.Items) == 0 {
			break
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.logger.Debug("fetching playlist page", "id", playlistID, "offset", fetched)
		if page, err = e.source.PlaylistItems(ctx, playlistID, itemsPageSize, fetched); err != nil {
			return nil, fmt.Errorf("failed to fetch items at offset %d: %w", fetched, err)
		}
	}

	return export, nil
}

// trackCapacity bounds a server-reported total before it is used to size a slice.
func trackCapacity(total int) int {
	return min(max(total, 0), maxPreallocTracks)
}
