package workers

import (
	"context"
	"fmt"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/spotify"
)

// runRelatedArtistsFetcher walks the artists whose related-artist edges we
// haven't fetched yet and records each artist Spotify relates to them,
// inserting previously unseen artists by reference.
func runRelatedArtistsFetcher(ctx context.Context, c chan<- struct{}, db *db.DB, spo *spotify.Client) error {
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("canceled: %w", err)
		}

		spotifyIDs, err := db.GetArtistsToFetchRelated(1)
		if err != nil {
			return fmt.Errorf("error getting artist without related: %w", err)
		}
		if len(spotifyIDs) == 0 {
			return nil
		}

		spotifyID := spotifyIDs[0]

		related, err := spo.FetchRelatedArtists(ctx, spotifyID)
		if err != nil {
			return err
		}

		if err := db.InsertRelatedArtists(spotifyID, related); err != nil {
			return err
		}

		c <- struct{}{}
	}
}
