package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// CachedTrack is a [Track] payload stored in the local cache, keyed by its Spotify id.
//
// Name, artists, album, duration and ISRC are denormalized from the payload for listing and lookups.
type CachedTrack struct {
	id         string
	sequence   int
	spotifyID  string
	name       string
	artists    string
	album      string
	durationMs int
	isrc       string
	market     string
	payload    string
	createdAt  time.Time
	updatedAt  time.Time
	deletedAt  *time.Time
}

// NewCachedTrack builds a [CachedTrack] from track as resolved for market ("" for none).
func NewCachedTrack(sequence int, market string, track Track) (*CachedTrack, error) {
	payload, err := json.Marshal(track)
	if err != nil {
		return nil, fmt.Errorf("failed to encode track payload: %w", err)
	}

	now := time.Now()
	return &CachedTrack{
		sequence:   sequence,
		spotifyID:  track.ID,
		name:       track.Name,
		artists:    track.ArtistNames(),
		album:      track.Album.Name,
		durationMs: track.DurationMs,
		isrc:       track.ISRC(),
		market:     market,
		payload:    string(payload),
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

// RestoreCachedTrack rebuilds a [CachedTrack] from a stored row.
func RestoreCachedTrack(
	id string, sequence int, spotifyID, name, artists, album string, durationMs int, isrc, market, payload string,
	createdAt, updatedAt time.Time, deletedAt *time.Time,
) *CachedTrack {
	return &CachedTrack{
		id:         id,
		sequence:   sequence,
		spotifyID:  spotifyID,
		name:       name,
		artists:    artists,
		album:      album,
		durationMs: durationMs,
		isrc:       isrc,
		market:     market,
		payload:    payload,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
		deletedAt:  deletedAt,
	}
}

func (c *CachedTrack) ID() string { return c.id }
func (c *CachedTrack) Sequence() int { return c.sequence }
func (c *CachedTrack) SpotifyID() string { return c.spotifyID }
func (c *CachedTrack) Name() string { return c.name }
func (c *CachedTrack) Artists() string { return c.artists }
func (c *CachedTrack) Album() string { return c.album }
func (c *CachedTrack) DurationMs() int { return c.durationMs }
func (c *CachedTrack) ISRC() string { return c.isrc }
func (c *CachedTrack) Market() string { return c.market }
func (c *CachedTrack) Payload() string { return c.payload }
func (c *CachedTrack) CreatedAt() time.Time { return c.createdAt }
func (c *CachedTrack) UpdatedAt() time.Time { return c.updatedAt }
func (c *CachedTrack) DeletedAt() *time.Time { return c.deletedAt }

func (c *CachedTrack) SetID(id string) { c.id = id }
func (c *CachedTrack) SetSequence(sequence int) { c.sequence = sequence }
func (c *CachedTrack) SetUpdatedAt(t time.Time) { c.updatedAt = t }
func (c *CachedTrack) SetDeletedAt(t *time.Time) { c.deletedAt = t }

// SetTrack replaces the payload and the denormalized columns.
func (c *CachedTrack) SetTrack(market string, track Track) error {
	payload, err := json.Marshal(track)
	if err != nil {
		return fmt.Errorf("failed to encode track payload: %w", err)
	}
	c.spotifyID = track.ID
	c.name = track.Name
	c.artists = track.ArtistNames()
	c.album = track.Album.Name
	c.durationMs = track.DurationMs
	c.isrc = track.ISRC()
	c.market = market
	c.payload = string(payload)
	return nil
}

// Track decodes the cached payload.
func (c *CachedTrack) Track() (Track, error) {
	var t Track
	if err := json.Unmarshal([]byte(c.payload), &t); err != nil {
		return Track{}, fmt.Errorf("failed to decode cached track %s: %w", c.spotifyID, err)
	}
	return t, nil
}

// IsDeleted reports whether the row has been soft deleted.
func (c *CachedTrack) IsDeleted() bool {
	return c.deletedAt != nil
}

// Validate checks the fields required by the cached_tracks table.
func (c *CachedTrack) Validate() error {
	switch {
	case c.id == "":
		return fmt.Errorf("id is required")
	case c.spotifyID == "":
		return fmt.Errorf("spotify id is required")
	case c.name == "":
		return fmt.Errorf("name is required")
	case c.payload == "":
		return fmt.Errorf("payload is required")
	}
	return nil
}
