package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/subcmd"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func progress(ctx context.Context, db *db.DB, args []string) error {
	subcmd := subcmd.New("progress", "report progress from the fetcher")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	artistsKnown, err := db.CountArtistsKnown()
	if err != nil {
		return err
	}
	artistsNamed, err := db.CountArtistsNamed()
	if err != nil {
		return err
	}
	artistsFetchedRelated, err := db.CountArtistsWithFetchedRelated()
	if err != nil {
		return err
	}

	printSection("artists", artistsKnown, map[string]int{
		"fetched metadata": artistsNamed,
		"fetched related":  artistsFetchedRelated,
	})

	return nil
}

var humanPrinter = message.NewPrinter(language.English)

func printSection(name string, known int, done map[string]int) {
	humanPrinter.Printf("%s\n", strings.ToUpper(name))
	humanPrinter.Printf("  %d\tknown\n", known)
	for k, v := range done {
		humanPrinter.Printf("  %d\t%s (%.2f%%)\n", v, k, 100.0*float64(v)/float64(known))
	}
	humanPrinter.Printf("\n")
}
