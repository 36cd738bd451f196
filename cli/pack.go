package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/server"
	"github.com/amonks/galaxy/subcmd"
)

func pack(ctx context.Context, db *db.DB, args []string) error {
	subcmd := subcmd.New("pack", "write the packed galaxy map\nrequires GALAXY_MAP_URL")
	var (
		out = subcmd.String("o", "", "output file (default: stdout)")
	)
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	store, err := lazyEmbedding("GALAXY_MAP_URL", galaxyDims).Get(ctx)
	if err != nil {
		return err
	}

	buf, err := server.PackedMap(store, db)
	if err != nil {
		return err
	}

	if *out == "" {
		_, err := os.Stdout.Write(buf)
		return err
	}
	return os.WriteFile(*out, buf, 0666)
}
