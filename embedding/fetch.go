package embedding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/amonks/galaxy/readthrough"
	"github.com/amonks/galaxy/request"
)

// Fetch gets the embedding text from the given URL and parses it. The fetch
// goes through a disk read-through cache: the embedding is regenerated
// upstream rarely, and it's large enough that refetching on every process
// start would be rude.
func Fetch(ctx context.Context, url string, cache *readthrough.ReadThrough, dims int) (*Store, error) {
	body, err := fetchBody(ctx, url, cache)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	store, err := Parse(body, dims)
	if err != nil {
		return nil, fmt.Errorf("error parsing embedding from '%s': %w", url, err)
	}

	log.Printf("loaded embedding: %d artists, %d dimensions", store.Len(), dims)

	return store, nil
}

func fetchBody(ctx context.Context, url string, cache *readthrough.ReadThrough) (io.ReadCloser, error) {
	if cache == nil {
		resp, err := request.Fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}

	cached, hash, err := cache.Get(url)
	if err == nil {
		return cached, nil
	} else if !errors.Is(err, readthrough.ErrMiss) {
		return nil, fmt.Errorf("error reading cached embedding '%s': %w", hash, err)
	}

	resp, err := request.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	body, _, err := cache.Set(url, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error caching embedding '%s': %w", hash, err)
	}
	return body, nil
}
