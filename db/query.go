package db

import (
	"fmt"

	"github.com/amonks/galaxy/data"
)

func (db *DB) GetArtist(id uint32) (*data.Artist, error) {
	var artist data.Artist
	if err := db.
		Table("artists").
		Where("id = ?", id).
		First(&artist).
		Error; err != nil {
		return nil, fmt.Errorf("error getting artist %d: %w", id, err)
	}
	return &artist, nil
}

func (db *DB) GetArtistBySpotifyID(spotifyID string) (*data.Artist, error) {
	var artist data.Artist
	if err := db.
		Table("artists").
		Where("spotify_id = ?", spotifyID).
		First(&artist).
		Error; err != nil {
		return nil, fmt.Errorf("error getting artist '%s': %w", spotifyID, err)
	}
	return &artist, nil
}

// getArtistsBatchSize keeps `id in ?` under sqlite's bound-parameter limit
// (999 in older builds); callers pass whole-embedding id lists.
const getArtistsBatchSize = 500

// GetArtists returns artist records for the given internal ids; absent ids
// are simply missing from the result.
func (db *DB) GetArtists(ids []uint32) ([]data.Artist, error) {
	var artists []data.Artist
	for len(ids) > 0 {
		batch := ids
		if len(batch) > getArtistsBatchSize {
			batch = batch[:getArtistsBatchSize]
		}
		ids = ids[len(batch):]

		var found []data.Artist
		if err := db.
			Table("artists").
			Where("id in ?", batch).
			Find(&found).
			Error; err != nil {
			return nil, fmt.Errorf("error getting %d artists: %w", len(batch), err)
		}
		artists = append(artists, found...)
	}
	return artists, nil
}

// AllArtists returns every known artist in ascending internal-id order: the
// same order the packed wire formats address artists in.
func (db *DB) AllArtists() ([]data.Artist, error) {
	var artists []data.Artist
	if err := db.
		Table("artists").
		Order("id asc").
		Find(&artists).
		Error; err != nil {
		return nil, fmt.Errorf("error listing artists: %w", err)
	}
	return artists, nil
}

// RelatedIDs returns the related-artist internal ids for each of the given
// artists, keyed by artist id.
func (db *DB) RelatedIDs(ids []uint32) (map[uint32][]uint32, error) {
	var edges []data.RelatedArtist
	if err := db.
		Table("related_artists").
		Where("artist_id in ?", ids).
		Order("artist_id asc, related_id asc").
		Find(&edges).
		Error; err != nil {
		return nil, fmt.Errorf("error getting related artists for %d artists: %w", len(ids), err)
	}

	related := make(map[uint32][]uint32, len(ids))
	for _, edge := range edges {
		related[edge.ArtistID] = append(related[edge.ArtistID], edge.RelatedID)
	}
	return related, nil
}

func (db *DB) CountArtistsKnown() (int, error) {
	var count int64
	if err := db.
		Table("artists").
		Count(&count).
		Error; err != nil {
		return 0, fmt.Errorf("error counting artists: %w", err)
	}
	return int(count), nil
}

func (db *DB) CountArtistsWithFetchedRelated() (int, error) {
	var count int64
	if err := db.
		Table("artists").
		Where("fetched_related_at is not null").
		Count(&count).
		Error; err != nil {
		return 0, fmt.Errorf("error counting artists with fetched related: %w", err)
	}
	return int(count), nil
}

func (db *DB) CountArtistsNamed() (int, error) {
	var count int64
	if err := db.
		Table("artists").
		Where("name != ''").
		Count(&count).
		Error; err != nil {
		return 0, fmt.Errorf("error counting named artists: %w", err)
	}
	return int(count), nil
}

// GetArtistsToFetchRelated returns spotify ids for artists whose related set
// hasn't been fetched yet.
func (db *DB) GetArtistsToFetchRelated(limit int) ([]string, error) {
	ids := []string{}
	if err := db.
		Table("artists").
		Limit(limit).
		Where("fetched_related_at is null").
		Pluck("spotify_id", &ids).
		Error; err != nil {
		return nil, fmt.Errorf("error getting artists to fetch related: %w", err)
	}
	return ids, nil
}

// GetArtistsToFetchMetadata returns spotify ids for artists we know only by
// reference: discovered through someone's related list, never fetched
// directly.
func (db *DB) GetArtistsToFetchMetadata(limit int) ([]string, error) {
	ids := []string{}
	if err := db.
		Table("artists").
		Limit(limit).
		Where("name = ''").
		Pluck("spotify_id", &ids).
		Error; err != nil {
		return nil, fmt.Errorf("error getting artists to fetch metadata: %w", err)
	}
	return ids, nil
}
