package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spotx/internal/models"
	"github.com/desertthunder/spotx/internal/shared"
)

const trackColumns = `id, sequence, spotify_id, name, artists, album, duration_ms, isrc, market, payload, created_at, updated_at, deleted_at`

// TrackRepository implements models.Repository[*models.CachedTrack] for the track cache.
type TrackRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.CachedTrack] = (*TrackRepository)(nil)

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.CachedTrack] into the database with generated ID and sequence
func (r *TrackRepository) Create(track *models.CachedTrack) error {
	id := shared.GenerateID()
	track.SetID(id)

	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "cached_tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	track.SetSequence(sequence)

	query := `
		INSERT INTO cached_tracks (id, sequence, spotify_id, name, artists, album, duration_ms, isrc, market, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.SpotifyID(),
		track.Name(),
		track.Artists(),
		track.Album(),
		track.DurationMs(),
		track.ISRC(),
		track.Market(),
		track.Payload(),
		track.CreatedAt(),
		track.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	return nil
}

// Get retrieves a cached track by row ID, excluding soft-deleted rows
func (r *TrackRepository) Get(id string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM cached_tracks WHERE id = ? AND deleted_at IS NULL`
	return scanTrack(r.db.QueryRow(query, id))
}

// GetBySpotifyID retrieves a cached track by its Spotify id
func (r *TrackRepository) GetBySpotifyID(spotifyID string) (*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM cached_tracks WHERE spotify_id = ? AND deleted_at IS NULL`
	return scanTrack(r.db.QueryRow(query, spotifyID))
}

// Update replaces the payload and denormalized columns of an existing row
func (r *TrackRepository) Update(track *models.CachedTrack) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	track.SetUpdatedAt(now)

	query := `
		UPDATE cached_tracks
		SET name = ?, artists = ?, album = ?, duration_ms = ?, isrc = ?, market = ?, payload = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Name(),
		track.Artists(),
		track.Album(),
		track.DurationMs(),
		track.ISRC(),
		track.Market(),
		track.Payload(),
		now,
		track.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	return expectAffected(result, track.ID())
}

// Delete soft-deletes a cached track by row ID
func (r *TrackRepository) Delete(id string) error {
	query := `UPDATE cached_tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete track: %w", err)
	}

	return expectAffected(result, id)
}

// List retrieves cached tracks matching the given criteria ordered by sequence.
//
// Supported criteria are "isrc" and "market" (strings) and "limit" (int).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.CachedTrack, error) {
	query := `SELECT ` + trackColumns + ` FROM cached_tracks WHERE deleted_at IS NULL`
	args := []any{}

	if isrc, ok := criteria["isrc"].(string); ok && isrc != "" {
		query += " AND isrc = ?"
		args = append(args, isrc)
	}

	if market, ok := criteria["market"].(string); ok {
		query += " AND market = ?"
		args = append(args, market)
	}

	query += " ORDER BY sequence ASC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.CachedTrack
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// Purge permanently removes every cached row, soft-deleted or not, and returns how many were removed.
func (r *TrackRepository) Purge() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM cached_tracks`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tracks: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanTrack scans a single row from [sql.Row] or [sql.Rows] into a [models.CachedTrack]
func scanTrack(row scanner) (*models.CachedTrack, error) {
	var (
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
		deletedAt  sql.NullTime
	)

	err := row.Scan(&id, &sequence, &spotifyID, &name, &artists, &album, &durationMs, &isrc, &market, &payload,
		&createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	var deleted *time.Time
	if deletedAt.Valid {
		deleted = &deletedAt.Time
	}

	return models.RestoreCachedTrack(id, sequence, spotifyID, name, artists, album, durationMs, isrc, market, payload,
		createdAt, updatedAt, deleted), nil
}

func expectAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s not found or already deleted", shared.ErrTrackNotFound, id)
	}
	return nil
}
