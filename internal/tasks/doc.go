// Package tasks runs multi-request catalog operations with progress reporting.
//
// # Playlist collection
//
// [Exporter.CollectPlaylist] fetches a playlist and then walks its item pages until the API reports no next page.
// Unavailable entries (null tracks, local files) are counted and skipped.
//
// # Bulk export
//
// [Exporter.BulkExport] collects several playlists with a bounded worker pool and writes each one in the chosen
// [formatter.Format], followed by an export_manifest.json summarizing the run. Playlist starts are paced with a
// token bucket so a large export does not trip the API's rate limit before the executor's own backoff kicks in.
// One failing playlist does not stop the others.
//
// # Progress Reporting
//
// Operations accept an optional send-only channel of [ProgressUpdate]. Sends never block: when the channel is full
// the update is dropped.
package tasks
