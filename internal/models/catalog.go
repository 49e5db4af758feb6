package models

import (
	"strings"
	"time"
)

// Image is a cover art or profile picture reference.
type Image struct {
	URL    string `json:"url"`
	Height *int   `json:"height"`
	Width  *int   `json:"width"`
}

// Followers holds follower information for users and playlists.
type Followers struct {
	Href  *string `json:"href"`
	Total int     `json:"total"`
}

// Artist is the simplified artist object embedded in tracks and albums.
type Artist struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Type         string            `json:"type"`
	URI          string            `json:"uri"`
	Href         string            `json:"href"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// Album is the simplified album object embedded in tracks.
type Album struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	AlbumType            string            `json:"album_type"`
	TotalTracks          int               `json:"total_tracks"`
	ReleaseDate          string            `json:"release_date"`
	ReleaseDatePrecision string            `json:"release_date_precision"`
	Artists              []Artist          `json:"artists"`
	Images               []Image           `json:"images"`
	URI                  string            `json:"uri"`
	Href                 string            `json:"href"`
	ExternalURLs         map[string]string `json:"external_urls,omitempty"`
	AvailableMarkets     []string          `json:"available_markets,omitempty"`
}

// LinkedTrack points at the originally requested track when relinking substituted another one.
type LinkedTrack struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	URI  string `json:"uri"`
	Href string `json:"href"`
}

// Track is the full track object.
type Track struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	URI              string            `json:"uri"`
	Href             string            `json:"href"`
	DurationMs       int               `json:"duration_ms"`
	Explicit         bool              `json:"explicit"`
	Popularity       int               `json:"popularity"`
	TrackNumber      int               `json:"track_number"`
	DiscNumber       int               `json:"disc_number"`
	IsLocal          bool              `json:"is_local"`
	IsPlayable       *bool             `json:"is_playable,omitempty"`
	PreviewURL       *string           `json:"preview_url"`
	Artists          []Artist          `json:"artists"`
	Album            Album             `json:"album"`
	ExternalIDs      map[string]string `json:"external_ids,omitempty"`
	ExternalURLs     map[string]string `json:"external_urls,omitempty"`
	AvailableMarkets []string          `json:"available_markets,omitempty"`
	LinkedFrom       *LinkedTrack      `json:"linked_from,omitempty"`
}

// ISRC returns the track's International Standard Recording Code, if known.
func (t Track) ISRC() string {
	return t.ExternalIDs["isrc"]
}

// ArtistNames joins the artist names with ", ".
func (t Track) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// Duration converts DurationMs to a [time.Duration].
func (t Track) Duration() time.Duration {
	return time.Duration(t.DurationMs) * time.Millisecond
}

// SeveralTracks is the response of the several tracks endpoint. Unknown ids come back as nil entries.
type SeveralTracks struct {
	Tracks []*Track `json:"tracks"`
}

// AudioFeatures holds the high level audio descriptors of a track.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Type             string  `json:"type"`
	URI              string  `json:"uri"`
	TrackHref        string  `json:"track_href"`
	AnalysisURL      string  `json:"analysis_url"`
	DurationMs       int     `json:"duration_ms"`
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	Key              int     `json:"key"`
	Mode             int     `json:"mode"`
	TimeSignature    int     `json:"time_signature"`
}

// SeveralAudioFeatures is the response of the several audio features endpoint.
type SeveralAudioFeatures struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}

// TimeInterval is a bar, beat or tatum.
type TimeInterval struct {
	Start      float64 `json:"start"`
	Duration   float64 `json:"duration"`
	Confidence float64 `json:"confidence"`
}

// Section is a large variation in rhythm or timbre.
type Section struct {
	TimeInterval
	Loudness                float64 `json:"loudness"`
	Tempo                   float64 `json:"tempo"`
	TempoConfidence         float64 `json:"tempo_confidence"`
	Key                     int     `json:"key"`
	KeyConfidence           float64 `json:"key_confidence"`
	Mode                    int     `json:"mode"`
	ModeConfidence          float64 `json:"mode_confidence"`
	TimeSignature           int     `json:"time_signature"`
	TimeSignatureConfidence float64 `json:"time_signature_confidence"`
}

// Segment is a short, roughly uniform sound.
type Segment struct {
	TimeInterval
	LoudnessStart   float64   `json:"loudness_start"`
	LoudnessMax     float64   `json:"loudness_max"`
	LoudnessMaxTime float64   `json:"loudness_max_time"`
	LoudnessEnd     float64   `json:"loudness_end"`
	Pitches         []float64 `json:"pitches"`
	Timbre          []float64 `json:"timbre"`
}

// AnalysisMeta describes the analyzer run.
type AnalysisMeta struct {
	AnalyzerVersion string  `json:"analyzer_version"`
	Platform        string  `json:"platform"`
	DetailedStatus  string  `json:"detailed_status"`
	StatusCode      int     `json:"status_code"`
	Timestamp       int64   `json:"timestamp"`
	AnalysisTime    float64 `json:"analysis_time"`
	InputProcess    string  `json:"input_process"`
}

// AnalysisTrack summarizes the whole track.
type AnalysisTrack struct {
	NumSamples              int     `json:"num_samples"`
	Duration                float64 `json:"duration"`
	Loudness                float64 `json:"loudness"`
	Tempo                   float64 `json:"tempo"`
	TempoConfidence         float64 `json:"tempo_confidence"`
	TimeSignature           int     `json:"time_signature"`
	TimeSignatureConfidence float64 `json:"time_signature_confidence"`
	Key                     int     `json:"key"`
	KeyConfidence           float64 `json:"key_confidence"`
	Mode                    int     `json:"mode"`
	ModeConfidence          float64 `json:"mode_confidence"`
	EndOfFadeIn             float64 `json:"end_of_fade_in"`
	StartOfFadeOut          float64 `json:"start_of_fade_out"`
}

// AudioAnalysis is the low level structure and rhythm of a track.
type AudioAnalysis struct {
	Meta     AnalysisMeta   `json:"meta"`
	Track    AnalysisTrack  `json:"track"`
	Bars     []TimeInterval `json:"bars"`
	Beats    []TimeInterval `json:"beats"`
	Sections []Section      `json:"sections"`
	Segments []Segment      `json:"segments"`
	Tatums   []TimeInterval `json:"tatums"`
}

// User is a user profile. Private fields are only present for the current user.
type User struct {
	ID           string            `json:"id"`
	DisplayName  string            `json:"display_name"`
	Type         string            `json:"type"`
	URI          string            `json:"uri"`
	Href         string            `json:"href"`
	Email        string            `json:"email,omitempty"`
	Country      string            `json:"country,omitempty"`
	Product      string            `json:"product,omitempty"`
	Followers    *Followers        `json:"followers,omitempty"`
	Images       []Image           `json:"images,omitempty"`
	ExternalURLs map[string]string `json:"external_urls,omitempty"`
}

// Paging is the offset based page wrapper used by list endpoints.
type Paging[T any] struct {
	Href     string  `json:"href"`
	Items    []T     `json:"items"`
	Limit    int     `json:"limit"`
	Offset   int     `json:"offset"`
	Total    int     `json:"total"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// HasNext reports whether another page follows.
func (p Paging[T]) HasNext() bool {
	return p.Next != nil && *p.Next != ""
}

// PlaylistTracksRef links to a playlist's items without including them.
type PlaylistTracksRef struct {
	Href  string `json:"href"`
	Total int    `json:"total"`
}

// SimplePlaylist is the playlist object returned in lists.
type SimplePlaylist struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	Public        *bool             `json:"public"`
	Collaborative bool              `json:"collaborative"`
	SnapshotID    string            `json:"snapshot_id"`
	Owner         User              `json:"owner"`
	Tracks        PlaylistTracksRef `json:"tracks"`
	Images        []Image           `json:"images"`
	URI           string            `json:"uri"`
	Href          string            `json:"href"`
}

// PlaylistTrack is one entry of a playlist. Track is nil for unavailable items.
type PlaylistTrack struct {
	AddedAt string `json:"added_at"`
	AddedBy *User  `json:"added_by"`
	IsLocal bool   `json:"is_local"`
	Track   *Track `json:"track"`
}

// Playlist is the full playlist object with its first page of items.
type Playlist struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	Public        *bool                 `json:"public"`
	Collaborative bool                  `json:"collaborative"`
	SnapshotID    string                `json:"snapshot_id"`
	Owner         User                  `json:"owner"`
	Followers     Followers             `json:"followers"`
	Tracks        Paging[PlaylistTrack] `json:"tracks"`
	Images        []Image               `json:"images"`
	URI           string                `json:"uri"`
	Href          string                `json:"href"`
}

// SavedTrack is an entry of the current user's library.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   Track  `json:"track"`
}
