// Package server exposes the galaxy over HTTP: the packed embedding blob,
// packed relationship chunks, and a JSON midpoint-similarity search.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/amonks/galaxy/db"
	"github.com/amonks/galaxy/embedding"
	"github.com/amonks/galaxy/packed"
	"github.com/amonks/galaxy/similarity"
)

// Run serves until ctx is canceled. sim is the high-dimensional similarity
// embedding behind /map/average; galaxy is the 3-space layout behind the
// packed endpoints.
func Run(ctx context.Context, sim, galaxy *embedding.Lazy, db *db.DB, addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /map/packed", func(w http.ResponseWriter, req *http.Request) {
		store, err := galaxy.Get(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		buf, err := PackedMap(store, db)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(buf)
	})

	mux.HandleFunc("GET /map/relationships/{size}/{ix}", func(w http.ResponseWriter, req *http.Request) {
		size, err := strconv.Atoi(req.PathValue("size"))
		if err != nil || size <= 0 {
			http.Error(w, "bad chunk size", http.StatusBadRequest)
			return
		}
		ix, err := strconv.Atoi(req.PathValue("ix"))
		if err != nil || ix < 0 {
			http.Error(w, "bad chunk index", http.StatusBadRequest)
			return
		}

		store, err := galaxy.Get(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		buf, err := relationshipChunk(store, db, size, ix)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(buf)
	})

	mux.HandleFunc("GET /map/average/{idA}/{idB}", func(w http.ResponseWriter, req *http.Request) {
		idA, errA := strconv.ParseUint(req.PathValue("idA"), 10, 32)
		idB, errB := strconv.ParseUint(req.PathValue("idB"), 10, 32)
		if errA != nil || errB != nil {
			http.Error(w, "bad artist id", http.StatusBadRequest)
			return
		}
		count := 10
		if c := req.URL.Query().Get("count"); c != "" {
			parsed, err := strconv.Atoi(c)
			if err != nil || parsed <= 0 {
				http.Error(w, "bad count", http.StatusBadRequest)
				return
			}
			count = parsed
		}

		store, err := sim.Get(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		matches, err := similarity.AverageArtists(store, uint32(idA), uint32(idB), count)
		if err != nil {
			var notFound similarity.NotFoundError
			status := http.StatusInternalServerError
			if errors.As(err, &notFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
			return
		}

		// Trim sentinel slots left when the store has fewer than
		// count candidates.
		results := matches[:0:len(matches)]
		for _, m := range matches {
			if m.Sentinel() {
				break
			}
			results = append(results, m)
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(results); err != nil {
			log.Printf("average response error: %s", err)
		}
	})

	srv := http.Server{Addr: addr, Handler: mux}

	errs := make(chan error)
	go func() { errs <- srv.ListenAndServe() }()

	log.Printf("serving on %s", addr)

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}
		return <-errs
	}
}

// PackedMap joins the embedding store's galaxy positions with popularity
// from the catalog. Artists missing from the catalog get popularity zero.
func PackedMap(store *embedding.Store, db *db.DB) ([]byte, error) {
	ids := store.IDs()
	artists, err := db.GetArtists(ids)
	if err != nil {
		return nil, fmt.Errorf("packed map error: %w", err)
	}
	popularity := make(map[uint32]uint8, len(artists))
	for _, artist := range artists {
		popularity[artist.ID] = uint8(artist.Popularity)
	}

	points := make([]packed.MapPoint, len(ids))
	for i, id := range ids {
		pos, _ := store.Get(id)
		points[i] = packed.MapPoint{
			ID:         id,
			Position:   pos.Raw,
			Popularity: popularity[id],
		}
	}
	return packed.EncodeEmbedding(points, true), nil
}

// relationshipChunk packs the related-artist lists for the ix'th window of
// size artists, in the store's ascending-id order.
func relationshipChunk(store *embedding.Store, db *db.DB, size, ix int) ([]byte, error) {
	ids := store.IDs()
	start := ix * size
	if start >= len(ids) {
		return nil, fmt.Errorf("chunk %d out of range", ix)
	}
	end := start + size
	if end > len(ids) {
		end = len(ids)
	}
	ids = ids[start:end]

	byID, err := db.RelatedIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("relationship chunk error: %w", err)
	}

	related := make([][]uint32, len(ids))
	for i, id := range ids {
		rel := byID[id]
		if len(rel) > 255 {
			rel = rel[:255]
		}
		related[i] = rel
	}
	return packed.EncodeRelationshipChunk(related), nil
}
