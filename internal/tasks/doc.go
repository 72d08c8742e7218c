// Package tasks turns a user's saved tracks into monthly playlists and removes them again.
//
// # Core Operations
//
//  1. [PlaylistEngine.Generate] : saved tracks → one playlist per month
//     - Fetches every saved track through the paginated library endpoint
//     - Groups tracks by the month they were saved ([Bucketize]), capped per month
//     - Creates a playlist named "MM YYYY" for each month ([Creator])
//     - Adds the month's tracks in chunks of at most 100 ([Populator])
//
//  2. [PlaylistEngine.Cleanup] : unfollow generated playlists
//     - Lists the user's playlists
//     - Selects the ones owned by the user and named like a month ([Classifier])
//     - Unfollows each match ([Scanner])
//
// Both operations support a dry run that performs no writes.
//
// # Retries
//
// Playlist creation and unfollow retry HTTP 502 responses under a [RetryPolicy] (three attempts in total by
// default). Page fetches and track additions are never retried.
//
// # Concurrency
//
// Months and cleanup targets are processed by a bounded worker pool. Results come back in input order.
//
// # Progress Reporting
//
// The [ProgressUpdate] struct contains phase, step counters and a message. Updates use select with default so a
// slow consumer never blocks an operation.
package tasks
