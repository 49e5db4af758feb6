// Package services binds Spotify Web API endpoints to the execution layer in transport.
//
// # Catalog
//
// [SpotifyService] implements [Catalog]: tracks, audio features and analysis, the current user's profile,
// playlists and library. Each call builds a transport.Request, sends it through the shared transport.Executor
// with the current bearer token as header overlay, and decodes the body with the configured parse mode.
//
// Retries, rate limit waits and token refresh happen inside the executor; services never loop.
//
// # Raw Requests
//
// [RawService] sends arbitrary paths through the same executor and returns the normalized response, which backs
// the "api" command.
//
// # Caching
//
// A [TrackCacher] (repositories.TrackCacheAdapter in the CLI) is consulted before single track lookups.
//
// # Error Handling
//
// Errors are returned unchanged from the executor:
//   - transport.BadRequestError : failed request, matches [shared.ErrAPIRequest]
//   - transport.AuthenticationError : OAuth style error body, matches [shared.ErrAuthFailed]
//   - transport.RateLimitedError : 429 with waiting turned off, matches [shared.ErrRateLimited]
//   - transport.TokenRefreshError : refresh after a 401 failed, matches [shared.ErrRefreshFailed]
//
// Input validation failures wrap [shared.ErrMissingArgument] or [shared.ErrInvalidArgument].
package services
