// Package repositories implements SQLite persistence for the local track cache.
//
// [TrackRepository] implements models.Repository[*models.CachedTrack] with atomic sequence generation for stable
// ordering and soft deletes via deleted_at timestamps; deleted rows are excluded from queries by default.
// [TrackCacheAdapter] exposes the repository to the catalog service as a read-through cache.
//
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
