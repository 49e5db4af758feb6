// Spotify Web API catalog binding.
//
// Response types live in models and follow https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/models"
	"github.com/desertthunder/spotx/internal/shared"
	"github.com/desertthunder/spotx/internal/transport"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"

	// DefaultBaseURL is the Web API root every endpoint path is appended to.
	DefaultBaseURL = "https://api.spotify.com/v1"

	maxSeveralTracks        = 50
	maxSeveralAudioFeatures = 100
	maxLibraryIDs           = 50
	defaultPageLimit        = 20
	maxPageLimit            = 50
	maxPlaylistItemsLimit   = 100
)

// OAuthConfig returns the [oauth2.Config] for Spotify's accounts service, used to refresh user tokens.
func OAuthConfig(clientID, clientSecret, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"playlist-read-private",
			"playlist-read-collaborative",
			"user-library-read",
			"user-library-modify",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}
}

// ClientCredentialsConfig returns the app-only token configuration.
func ClientCredentialsConfig(clientID, clientSecret string) *clientcredentials.Config {
	return &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}
}

// SpotifyOpts holds the dependencies of a [SpotifyService].
type SpotifyOpts struct {
	BaseURL  string // defaults to [DefaultBaseURL]
	Executor *transport.Executor
	Tokens   transport.TokenProvider
	Cache    TrackCacher // optional
	Logger   *log.Logger
}

// SpotifyService implements [Catalog] on top of a [transport.Executor].
//
// Every call sends the provider's current access token; refresh and retries are left to the executor.
type SpotifyService struct {
	baseURL string
	exec    *transport.Executor
	tokens  transport.TokenProvider
	cache   TrackCacher
	logger  *log.Logger
}

// NewSpotifyService creates a new Spotify service.
func NewSpotifyService(opts SpotifyOpts) (*SpotifyService, error) {
	if opts.Executor == nil {
		return nil, fmt.Errorf("%w: executor is required", shared.ErrInvalidInput)
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("%w: base url %q: %v", shared.ErrInvalidConfig, baseURL, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SpotifyService{
		baseURL: baseURL,
		exec:    opts.Executor,
		tokens:  opts.Tokens,
		cache:   opts.Cache,
		logger:  shared.WithLogger(logger, "service", "spotify"),
	}, nil
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// authHeaders returns the overlay carrying the current access token, or nil when there is none.
func (s *SpotifyService) authHeaders() []transport.Header {
	if s.tokens == nil {
		return nil
	}
	if token := s.tokens.AccessToken(); token != "" {
		return []transport.Header{transport.BearerHeader(token)}
	}
	return nil
}

// doRequest executes one call and decodes a non-empty response body into result when result is non-nil.
func (s *SpotifyService) doRequest(ctx context.Context, opts transport.RequestOpts, result any) error {
	resp, err := s.exec.ExecuteWith(ctx, transport.NewRequest(opts), s.authHeaders())
	if err != nil {
		return err
	}

	if result == nil || strings.TrimSpace(resp.Body) == "" {
		return nil
	}
	return resp.Decode(result, s.exec.Options().ParseMode)
}

func (s *SpotifyService) get(ctx context.Context, path string, query url.Values, result any) error {
	return s.doRequest(ctx, transport.RequestOpts{URL: buildEndpoint(s.baseURL, path, query)}, result)
}

// sendIDs sends {"ids":[...]} with the given method.
func (s *SpotifyService) sendIDs(ctx context.Context, method transport.Method, path string, ids []string) error {
	body, err := json.Marshal(map[string][]string{"ids": ids})
	if err != nil {
		return fmt.Errorf("failed to encode ids: %w", err)
	}

	return s.doRequest(ctx, transport.RequestOpts{
		URL:        buildEndpoint(s.baseURL, path, nil),
		Method:     method,
		BodyString: string(body),
	}, nil)
}

// UserProfile retrieves the current authenticated user's profile.
func (s *SpotifyService) UserProfile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := s.get(ctx, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Track retrieves a single track. An empty market disables relinking.
//
// When a cache is configured it is consulted first and filled after a successful fetch. An id the API rejects
// with 400 or 404 yields an error matching [shared.ErrTrackNotFound], mirroring the nil entries of [SpotifyService.SeveralTracks].
func (s *SpotifyService) Track(ctx context.Context, trackID, market string) (*models.Track, error) {
	id, err := ParseTrackID(trackID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if track, ok := s.cache.LookupTrack(id, market); ok {
			s.logger.Debug("track cache hit", "id", id, "market", market)
			return track, nil
		}
	}

	var track models.Track
	if err := s.get(ctx, "/tracks/"+url.PathEscape(id), url.Values{"market": {market}}, &track); err != nil {
		var bre *transport.BadRequestError
		if errors.As(err, &bre) && (bre.StatusCode == 400 || bre.StatusCode == 404) {
			return nil, fmt.Errorf("%w: %s: %w", shared.ErrTrackNotFound, id, err)
		}
		return nil, err
	}

	// Relinked tracks come back under another id and are not cached under the requested one.
	if s.cache != nil && track.ID == id {
		if err := s.cache.CacheTrack(market, track); err != nil {
			s.logger.Warn("failed to cache track", "id", id, "error", err)
		}
	}

	return &track, nil
}

// SeveralTracks retrieves up to 50 tracks. Unknown ids yield nil entries.
func (s *SpotifyService) SeveralTracks(ctx context.Context, trackIDs []string, market string) ([]*models.Track, error) {
	ids, err := parseTrackIDs(trackIDs, maxSeveralTracks)
	if err != nil {
		return nil, err
	}

	var response models.SeveralTracks
	query := url.Values{"ids": {strings.Join(ids, ",")}, "market": {market}}
	if err := s.get(ctx, "/tracks", query, &response); err != nil {
		return nil, err
	}
	return response.Tracks, nil
}

// AudioFeatures retrieves the audio features of a track.
func (s *SpotifyService) AudioFeatures(ctx context.Context, trackID string) (*models.AudioFeatures, error) {
	id, err := ParseTrackID(trackID)
	if err != nil {
		return nil, err
	}

	var features models.AudioFeatures
	if err := s.get(ctx, "/audio-features/"+url.PathEscape(id), nil, &features); err != nil {
		return nil, err
	}
	return &features, nil
}

// SeveralAudioFeatures retrieves audio features for up to 100 tracks.
func (s *SpotifyService) SeveralAudioFeatures(ctx context.Context, trackIDs []string) ([]*models.AudioFeatures, error) {
	ids, err := parseTrackIDs(trackIDs, maxSeveralAudioFeatures)
	if err != nil {
		return nil, err
	}

	var response models.SeveralAudioFeatures
	if err := s.get(ctx, "/audio-features", url.Values{"ids": {strings.Join(ids, ",")}}, &response); err != nil {
		return nil, err
	}
	return response.AudioFeatures, nil
}

// AudioAnalysis retrieves the low level audio analysis of a track.
func (s *SpotifyService) AudioAnalysis(ctx context.Context, trackID string) (*models.AudioAnalysis, error) {
	id, err := ParseTrackID(trackID)
	if err != nil {
		return nil, err
	}

	var analysis models.AudioAnalysis
	if err := s.get(ctx, "/audio-analysis/"+url.PathEscape(id), nil, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// Playlist retrieves a playlist with its first page of items.
func (s *SpotifyService) Playlist(ctx context.Context, playlistID string) (*models.Playlist, error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var playlist models.Playlist
	if err := s.get(ctx, "/playlists/"+url.PathEscape(playlistID), nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistItems retrieves one page of up to 100 playlist entries.
func (s *SpotifyService) PlaylistItems(ctx context.Context, playlistID string, limit, offset int) (*models.Paging[models.PlaylistTrack], error) {
	if strings.TrimSpace(playlistID) == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}

	var page models.Paging[models.PlaylistTrack]
	path := "/playlists/" + url.PathEscape(playlistID) + "/tracks"
	if err := s.get(ctx, path, pageQuery(limit, offset, maxPlaylistItemsLimit), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// UserPlaylists retrieves the current user's playlists with pagination.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*models.Paging[models.SimplePlaylist], error) {
	var page models.Paging[models.SimplePlaylist]
	if err := s.get(ctx, "/me/playlists", pageQuery(limit, offset, maxPageLimit), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SavedTracks retrieves the user's saved tracks with pagination.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*models.Paging[models.SavedTrack], error) {
	var page models.Paging[models.SavedTrack]
	if err := s.get(ctx, "/me/tracks", pageQuery(limit, offset, maxPageLimit), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SaveTracks adds up to 50 tracks to the user's library.
func (s *SpotifyService) SaveTracks(ctx context.Context, trackIDs []string) error {
	ids, err := parseTrackIDs(trackIDs, maxLibraryIDs)
	if err != nil {
		return err
	}
	return s.sendIDs(ctx, transport.MethodPut, "/me/tracks", ids)
}

// RemoveSavedTracks removes up to 50 tracks from the user's library.
func (s *SpotifyService) RemoveSavedTracks(ctx context.Context, trackIDs []string) error {
	ids, err := parseTrackIDs(trackIDs, maxLibraryIDs)
	if err != nil {
		return err
	}
	return s.sendIDs(ctx, transport.MethodDelete, "/me/tracks", ids)
}

// pageQuery clamps limit to 1..ceiling (default 20) and drops a zero offset.
func pageQuery(limit, offset, ceiling int) url.Values {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > ceiling {
		limit = ceiling
	}

	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if offset > 0 {
		query.Set("offset", strconv.Itoa(offset))
	}
	return query
}
