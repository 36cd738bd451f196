// Package workers coordinates the fetchers that keep the artist catalog
// current. Each worker drains its own queue of pending database rows, and a
// worker that discovers new work for another can retrigger it after it has
// drained and exited.
package workers

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/spotify"
	"golang.org/x/sync/errgroup"
)

type worker struct {
	f         func(context.Context, chan<- struct{}) error
	isRunning bool
}

type engine struct {
	mu      sync.Mutex
	workers map[string]worker
}

func (eng *engine) add(name string, f func(context.Context, chan<- struct{}) error) {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	eng.workers[name] = worker{f: f}
}

func (eng *engine) start(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)

	g := new(errgroup.Group)
	events := make(chan string)

	run := func(name string) {
		worker := eng.workers[name]
		worker.isRunning = true
		f := worker.f
		eng.workers[name] = worker

		g.Go(func() error {
			theseEvents := make(chan struct{})
			go func() {
				for range theseEvents {
					events <- name
				}
			}()
			log.Printf("start:\t%s", name)
			err := f(ctx, theseEvents)
			if err != nil {
				log.Printf("error:\t%s\t%s", name, err)
				cancel(err)
			} else {
				log.Printf("done:\t%s", name)
			}
			go func() {
				eng.mu.Lock()
				defer eng.mu.Unlock()

				worker := eng.workers[name]
				worker.isRunning = false
				eng.workers[name] = worker
			}()
			return err
		})
	}

	func() {
		eng.mu.Lock()
		defer eng.mu.Unlock()

		for name := range eng.workers {
			run(name)
		}
	}()

	retrigger := func(name string) {
		eng.mu.Lock()
		defer eng.mu.Unlock()

		if eng.workers[name].isRunning {
			return
		}

		run(name)
	}

	go func() {
		for ev := range events {
			log.Printf("batch:\t%s", ev)

			switch ev {

			// Related-artist responses insert artists we may only
			// know by reference, so there may be new metadata work.
			case "related_artists":
				retrigger("artist_metadata")
			}
		}
	}()

	g.Wait()

	return nil
}

func Run(ctx context.Context, db *db.DB, spo *spotify.Client, workers []string) error {
	eng := engine{
		workers: map[string]worker{},
	}

	for _, worker := range workers {
		switch worker {
		case "artist_metadata":
			eng.add("artist_metadata", func(ctx context.Context, c chan<- struct{}) error { return runArtistMetadataFetcher(ctx, c, db, spo) })
		case "related_artists":
			eng.add("related_artists", func(ctx context.Context, c chan<- struct{}) error { return runRelatedArtistsFetcher(ctx, c, db, spo) })
		default:
			return fmt.Errorf("unsupported worker '%s'", worker)
		}
	}

	eng.add("reporter", func(ctx context.Context, c chan<- struct{}) error { return runReporter(ctx, c, db) })

	return eng.start(ctx)
}
