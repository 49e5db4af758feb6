// Package models defines the catalog entities returned by the Web API and the persistence interfaces for the local
// track cache.
//
// The package contains two categories of types:
//
// 1. Catalog objects: JSON shapes decoded from API responses
//   - [Track], [Artist], [Album] : Track metadata with ISRC in external ids
//   - [AudioFeatures], [AudioAnalysis] : Per-track audio descriptors
//   - [User], [SimplePlaylist], [Playlist], [SavedTrack] : Profile, playlists and library entries
//   - [Paging] : The offset based page wrapper used by list endpoints
//
// 2. Persistent entities: Database-backed models with soft delete support
//   - [CachedTrack] : A track payload cached by Spotify id
//
// Persistent entities implement the [Model] interface; [Repository] defines the CRUD operations for database access.
package models
