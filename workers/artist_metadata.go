package workers

import (
	"context"
	"fmt"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/spotify"
)

// runArtistMetadataFetcher fills in name, followers, and popularity for
// artists we only know by spotify id, 50 at a time.
func runArtistMetadataFetcher(ctx context.Context, c chan<- struct{}, db *db.DB, spo *spotify.Client) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("canceled: %w", err)
		}

		spotifyIDs, err := db.GetArtistsToFetchMetadata(50)
		if err != nil {
			return fmt.Errorf("error getting unnamed artists: %w", err)
		}
		if len(spotifyIDs) == 0 {
			return nil
		}

		artists, err := spo.FetchArtists(ctx, spotifyIDs)
		if err != nil {
			return err
		}

		for _, artist := range artists {
			if err := db.UpdateArtist(&artist); err != nil {
				return err
			}
		}

		c <- struct{}{}
	}
}
