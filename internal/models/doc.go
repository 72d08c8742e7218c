// Package models defines the domain values shared by the Spotify client, the generation/cleanup engine and the CLI.
//
//   - [Track] : A saved track, identified by URI, with the raw timestamp it was saved at
//   - [Playlist] : Playlist metadata including the owner used to classify generated playlists
//   - [Credentials] : Tokens and user id supplied by an external OAuth flow
//
// Credentials are passed explicitly to every consumer; nothing here reads process-wide state.
package models
