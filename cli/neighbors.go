package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/similarity"
	"github.com/amonks/galaxy/subcmd"
)

func neighbors(ctx context.Context, db *db.DB, args []string) error {
	subcmd := subcmd.New("neighbors", "return artists near the midpoint of two artists\nrequires GALAXY_EMBEDDING_URL")
	subcmd.SetArg("artists", "string string", "spotify ids of the two artists to average (required)")
	var (
		count = subcmd.Int("count", 5, "number of artists to return")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	if subcmd.NArg() != 2 {
		subcmd.Usage()
		return fmt.Errorf("expected two spotify ids")
	}

	artistA, err := db.GetArtistBySpotifyID(subcmd.Arg(0))
	if err != nil {
		return fmt.Errorf("unknown artist '%s': %w", subcmd.Arg(0), err)
	}
	artistB, err := db.GetArtistBySpotifyID(subcmd.Arg(1))
	if err != nil {
		return fmt.Errorf("unknown artist '%s': %w", subcmd.Arg(1), err)
	}

	store, err := lazyEmbedding("GALAXY_EMBEDDING_URL", similarityDims).Get(ctx)
	if err != nil {
		return err
	}

	matches, err := similarity.AverageArtists(store, artistA.ID, artistB.ID, *count)
	if err != nil {
		return fmt.Errorf("error averaging '%s' and '%s': %w", artistA.Name, artistB.Name, err)
	}

	ids := make([]uint32, 0, len(matches))
	for _, match := range matches {
		if match.Sentinel() {
			break
		}
		ids = append(ids, match.ID)
	}
	artists, err := db.GetArtists(ids)
	if err != nil {
		return err
	}
	names := make(map[uint32]string, len(artists))
	for _, artist := range artists {
		names[artist.ID] = artist.Name
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, strings.Join([]string{
		"artist", "similarity", "to_" + artistA.Name, "to_" + artistB.Name,
	}, "\t")+"\n")
	for _, match := range matches {
		if match.Sentinel() {
			break
		}
		name := names[match.ID]
		if name == "" {
			name = fmt.Sprintf("artist %d", match.ID)
		}
		fmt.Fprintf(tw, "%s\t%f\t%f\t%f\n",
			name, match.Similarity, match.SimilarityToA, match.SimilarityToB)
	}
	tw.Flush()

	return nil
}
