package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/desertthunder/spotx/internal/models"
	"github.com/desertthunder/spotx/internal/shared"
)

// TrackCacheAdapter implements services.TrackCacher using TrackRepository.
//
// Rows are keyed by Spotify id; caching a track that is already present replaces its payload.
type TrackCacheAdapter struct {
	repo *TrackRepository
}

// NewTrackCacheAdapter creates a new TrackCacheAdapter with the given repository
func NewTrackCacheAdapter(repo *TrackRepository) *TrackCacheAdapter {
	return &TrackCacheAdapter{repo: repo}
}

// LookupTrack returns the cached payload for spotifyID if it was stored for market.
// Misses and unreadable rows both report false.
func (a *TrackCacheAdapter) LookupTrack(spotifyID, market string) (*models.Track, bool) {
	cached, err := a.repo.GetBySpotifyID(spotifyID)
	if err != nil || cached.Market() != market {
		return nil, false
	}

	track, err := cached.Track()
	if err != nil {
		return nil, false
	}
	return &track, true
}

// CacheTrack stores track as resolved for market.
func (a *TrackCacheAdapter) CacheTrack(market string, track models.Track) error {
	existing, err := a.repo.GetBySpotifyID(track.ID)
	switch {
	case err == nil:
		if err := existing.SetTrack(market, track); err != nil {
			return err
		}
		if err := a.repo.Update(existing); err != nil {
			return fmt.Errorf("failed to refresh cached track: %w", err)
		}
		return nil
	case !errors.Is(err, shared.ErrTrackNotFound):
		return fmt.Errorf("failed to look up cached track: %w", err)
	}

	cached, err := models.NewCachedTrack(0, market, track)
	if err != nil {
		return err
	}

	if err := a.repo.Create(cached); err != nil {
		// A concurrent writer won the race for this spotify_id.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to cache track: %w", err)
	}
	return nil
}
