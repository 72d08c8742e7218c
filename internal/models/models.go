package models

// Track represents a saved track from the user's library.
type Track struct {
	ID      string `json:"id"`
	URI     string `json:"uri"`
	Name    string `json:"name"`
	Artist  string `json:"artist"`
	AddedAt string `json:"added_at"` // ISO-8601, e.g. 2016-10-24T15:03:07Z
}

// Playlist represents a playlist owned or followed by the user.
type Playlist struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	OwnerID     string `json:"owner_id"`
	Description string `json:"description"`
	TrackCount  int    `json:"track_count"`
	Public      bool   `json:"public"`
	URI         string `json:"uri"`
}

// Credentials carries the tokens and identity supplied by the surrounding application.
//
// RefreshToken is read but never used to refresh.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	UserID       string
}

// Valid reports whether an access token is present.
func (c Credentials) Valid() bool {
	return c.AccessToken != ""
}

// URIs returns the URIs of tracks in order.
func URIs(tracks []Track) []string {
	uris := make([]string, 0, len(tracks))
	for _, t := range tracks {
		uris = append(uris, t.URI)
	}
	return uris
}
