// package services binds catalog endpoints to the transport layer
package services

import (
	"context"

	"github.com/desertthunder/spotx/internal/models"
)

// Catalog is the set of Web API operations the CLI uses.
type Catalog interface {
	UserProfile(ctx context.Context) (*models.User, error)
	Track(ctx context.Context, trackID, market string) (*models.Track, error)
	SeveralTracks(ctx context.Context, trackIDs []string, market string) ([]*models.Track, error)
	AudioFeatures(ctx context.Context, trackID string) (*models.AudioFeatures, error)
	SeveralAudioFeatures(ctx context.Context, trackIDs []string) ([]*models.AudioFeatures, error)
	AudioAnalysis(ctx context.Context, trackID string) (*models.AudioAnalysis, error)
	Playlist(ctx context.Context, playlistID string) (*models.Playlist, error)
	PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*models.Paging[models.PlaylistTrack], error)
	UserPlaylists(ctx context.Context, limit, offset int) (*models.Paging[models.SimplePlaylist], error)
	SavedTracks(ctx context.Context, limit, offset int) (*models.Paging[models.SavedTrack], error)
	SaveTracks(ctx context.Context, trackIDs []string) error
	RemoveSavedTracks(ctx context.Context, trackIDs []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// TrackCacher is a read-through cache for single track lookups.
type TrackCacher interface {
	// LookupTrack returns the cached track for id as resolved for market.
	LookupTrack(spotifyID, market string) (*models.Track, bool)
	// CacheTrack stores track as resolved for market.
	CacheTrack(market string, track models.Track) error
}

var _ Catalog = (*SpotifyService)(nil)
