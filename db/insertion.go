package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/amonks/galaxy/data"
	"gorm.io/gorm/clause"
)

// InsertArtist, given an Artist, inserts it into the artists table, doing
// nothing if its spotify id is already known. The internal id is assigned by
// sqlite on first insertion and never changes after.
func (db *DB) InsertArtist(artist *data.Artist) error {
	if artist.SpotifyID == "" {
		return fmt.Errorf("no spotify id")
	}
	if err := db.
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(artist).
		Error; err != nil {
		return fmt.Errorf("error inserting artist '%s': %w", artist.SpotifyID, err)
	}
	return nil
}

// UpdateArtist refreshes the mutable metadata for an already-known artist.
func (db *DB) UpdateArtist(artist *data.Artist) error {
	if artist.SpotifyID == "" {
		return fmt.Errorf("no spotify id")
	}
	if err := db.
		Table("artists").
		Where("spotify_id = ?", artist.SpotifyID).
		Updates(map[string]interface{}{
			"name":       artist.Name,
			"followers":  artist.Followers,
			"popularity": artist.Popularity,
		}).
		Error; err != nil {
		return fmt.Errorf("error updating artist '%s': %w", artist.SpotifyID, err)
	}
	return nil
}

// InsertRelatedArtists records the related-artist edges discovered for one
// artist, inserting any related artists we haven't seen, then marks the
// artist's related set as fetched.
func (db *DB) InsertRelatedArtists(artistSpotifyID string, related []data.Artist) error {
	artist, err := db.GetArtistBySpotifyID(artistSpotifyID)
	if err != nil {
		return err
	}

	for _, rel := range related {
		rel := rel
		if err := db.InsertArtist(&rel); err != nil {
			return err
		}
		inserted, err := db.GetArtistBySpotifyID(rel.SpotifyID)
		if err != nil {
			return err
		}
		if err := db.
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&data.RelatedArtist{
				ArtistID:  artist.ID,
				RelatedID: inserted.ID,
			}).
			Error; err != nil {
			return fmt.Errorf("error inserting related artist {%d %d}: %w", artist.ID, inserted.ID, err)
		}
	}

	if err := db.
		Table("artists").
		Where("id = ?", artist.ID).
		Update("fetched_related_at", sql.NullTime{Time: time.Now(), Valid: true}).
		Error; err != nil {
		return fmt.Errorf("error marking artist '%s' related as fetched: %w", artistSpotifyID, err)
	}

	return nil
}
