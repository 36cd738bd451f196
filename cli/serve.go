package main

import (
	"context"
	"fmt"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/server"
	"github.com/amonks/galaxy/subcmd"
)

func serve(ctx context.Context, db *db.DB, args []string) error {
	subcmd := subcmd.New("serve", "run a web server\nrequires GALAXY_EMBEDDING_URL and GALAXY_MAP_URL")
	var (
		port = subcmd.Int("port", 9999, "http port")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	sim := lazyEmbedding("GALAXY_EMBEDDING_URL", similarityDims)
	galaxy := lazyEmbedding("GALAXY_MAP_URL", galaxyDims)

	addr := fmt.Sprintf(":%d", *port)
	return server.Run(ctx, sim, galaxy, db, addr)
}
