package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/setflag"
	"github.com/amonks/galaxy/spotify"
	"github.com/amonks/galaxy/subcmd"
	"github.com/amonks/galaxy/workers"
)

func fetch(ctx context.Context, db *db.DB, args []string) error {
	subcmd := subcmd.New("fetch", "fetch data from spotify to populate the catalog\nrequires SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET")
	workersFlag := setflag.New("artist_metadata", "related_artists")
	subcmd.Var(workersFlag, "workers", "comma-separated workers to run: artist_metadata, related_artists (default: all)")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	which := workersFlag.List()
	if len(which) == 0 {
		which = []string{"artist_metadata", "related_artists"}
	}

	clientID, clientSecret := os.Getenv("SPOTIFY_CLIENT_ID"), os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return fmt.Errorf("must set SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET")
	}
	spo := spotify.New(clientID, clientSecret)
	return workers.Run(ctx, db, spo, which)
}
