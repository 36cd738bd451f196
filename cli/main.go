// this program maintains an artist galaxy: a sqlite3 catalog of spotify
// artists and their relationships, plus embeddings that place each artist in
// a similarity space and a navigable 3-space.
//
// see db/schema.sql for info about the catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/embedding"
	"github.com/amonks/galaxy/readthrough"
	"github.com/amonks/galaxy/sigctx"
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, flag.ErrHelp) {
		panic(err)
	}
}

var usage = strings.TrimSpace(`
usage: galaxy $cmd
valid $cmd are 'fetch', 'neighbors', 'pack', 'serve', 'progress'
for help: galaxy $cmd -help
`)

const (
	similarityDims = 8
	galaxyDims     = 3
)

func run() error {
	ctx := sigctx.New()

	db, err := db.Open("galaxy.db")
	if err != nil {
		return err
	}
	defer db.Close()

	if len(os.Args) < 2 {
		return fmt.Errorf(usage)
	}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "fetch":
		return fetch(ctx, db, args)

	case "neighbors":
		return neighbors(ctx, db, args)

	case "pack":
		return pack(ctx, db, args)

	case "serve":
		return serve(ctx, db, args)

	case "progress":
		return progress(ctx, db, args)

	default:
		return fmt.Errorf("unknown cmd: '%s'\n%s", cmd, usage)
	}
}

// lazyEmbedding defers the embedding fetch until a subcommand actually needs
// it, so catalog-only commands don't require the URL env vars.
func lazyEmbedding(envVar string, dims int) *embedding.Lazy {
	return embedding.NewLazy(func(ctx context.Context) (*embedding.Store, error) {
		url := os.Getenv(envVar)
		if url == "" {
			return nil, fmt.Errorf("must set %s", envVar)
		}
		cache := readthrough.New(".", "embedding-")
		return embedding.Fetch(ctx, url, cache, dims)
	})
}
