// Package services defines the [Service] interface for the streaming service's library and playlist endpoints and
// implements it for Spotify.
//
// # Service Interface
//
// The generation and cleanup engine only depends on [Service], so tests substitute an in-memory fake.
//
// # Spotify Implementation
//
// [SpotifyService] wraps an [http.Client] in an [oauth2.Transport] built from a static token: the access token is
// supplied by an external OAuth flow and is never refreshed here.
//
// All requests share one rate limiter. Write requests send JSON bodies with Content-Type: application/json.
//
// # Pagination
//
// [Pager] is a lazy sequence over a cursor-paginated endpoint. The caller drives it with [Pager.Next] until
// [Pager.Done]; [Collect] does that and compares the item count with the server-reported total, logging a
// warning on mismatch.
//
// # Error Handling
//
// Every failed call is returned as a [shared.UnhandledUpstreamError] carrying method, URL and status code
// (0 for transport failures). Callers classify retryable statuses with [shared.StatusCode].
package services
