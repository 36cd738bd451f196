package data

import "database/sql"

// Artist holds artists we've found using Spotify's API. The embedding file
// and every packed wire format identify artists by a dense internal id
// assigned at insertion; the Spotify API uses SpotifyID.
type Artist struct {
	ID         uint32 `gorm:"primaryKey;autoIncrement"`
	SpotifyID  string
	Name       string
	Followers  int64
	Popularity int64

	FetchedRelatedAt sql.NullTime
}

// RelatedArtist is one directed edge of Spotify's related-artists graph. The
// graph is rendered undirected; deduplication happens at render time, not
// here, because both directions carry fetch provenance.
type RelatedArtist struct {
	ArtistID  uint32
	RelatedID uint32
}
