package workers

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/amonks/galaxy/db"
)

func runReporter(ctx context.Context, c chan<- struct{}, db *db.DB) error {

	logfile, err := os.OpenFile("log.tsv", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	defer logfile.Close()

	tick := time.NewTicker(time.Minute)

	for {
		todo, err := gatherInfo(db)
		if err != nil {
			return fmt.Errorf("reporting error: %w", err)
		}

		fmt.Fprintf(logfile,
			"%s\t%d\t%d\t%d\n",

			time.Now().Format(time.DateTime),
			todo.ArtistsKnown, todo.ArtistsNamed, todo.ArtistsRelatedDone,
		)

		select {
		case <-ctx.Done():
			return context.Canceled

		case <-tick.C:
		}

	}
}

type TODO struct {
	ArtistsKnown       int
	ArtistsNamed       int
	ArtistsRelatedDone int
}

func gatherInfo(db *db.DB) (TODO, error) {
	todo := TODO{}
	if count, err := db.CountArtistsKnown(); err != nil {
		return todo, err
	} else {
		todo.ArtistsKnown = count
	}
	if count, err := db.CountArtistsNamed(); err != nil {
		return todo, err
	} else {
		todo.ArtistsNamed = count
	}
	if count, err := db.CountArtistsWithFetchedRelated(); err != nil {
		return todo, err
	} else {
		todo.ArtistsRelatedDone = count
	}

	return todo, nil
}
