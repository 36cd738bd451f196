// Package similarity finds the artists most similar to the midpoint of two
// reference artists: the "what sits between these two" query behind the
// galaxy's average-artists view.
package similarity

import (
	"fmt"
	"math"

	"github.com/amonks/galaxy/embedding"
)

// NotFoundError is returned when a requested artist id is absent from the
// embedding. It is a recoverable lookup failure, never a crash: user input
// reaches this query directly.
type NotFoundError uint32

func (err NotFoundError) Error() string {
	return fmt.Sprintf("artist %d is not in the embedding", uint32(err))
}

// Match is one ranked search result. Similarity is cosine similarity to the
// normalized midpoint; SimilarityToA and SimilarityToB are against the two
// reference artists, reported so the frontend can show how balanced a match
// is.
type Match struct {
	ID            uint32  `json:"id"`
	Similarity    float32 `json:"similarity"`
	SimilarityToA float32 `json:"similarityToA"`
	SimilarityToB float32 `json:"similarityToB"`
}

var sentinel = float32(math.Inf(-1))

// Sentinel reports whether a match is an unfilled placeholder slot. Searches
// over a store smaller than k return some of these at the tail.
func (m Match) Sentinel() bool {
	return m.Similarity == sentinel
}

// AverageArtists returns the k artists whose embedding is most similar to
// the midpoint of idA's and idB's, ranked by descending similarity. The two
// reference artists are never included, even though they tend to score near
// the top.
//
// The scan is a straight O(N·k) pass: k is small and the store is tens of
// thousands of artists, so filtering against the worst retained similarity
// before touching the ranked list is the only pruning that matters.
// Candidates come from the store's ascending-id index, so equal similarities
// tie-break toward the lower artist id and results are deterministic.
func AverageArtists(store *embedding.Store, idA, idB uint32, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	posA, has := store.Get(idA)
	if !has {
		return nil, NotFoundError(idA)
	}
	posB, has := store.Get(idB)
	if !has {
		return nil, NotFoundError(idB)
	}

	midpoint := posA.Raw.Midpoint(posB.Raw).Normalize()

	matches := make([]Match, k)
	for i := range matches {
		matches[i].Similarity = sentinel
	}
	worst := sentinel

	for _, id := range store.IDs() {
		if id == idA || id == idB {
			continue
		}
		pos, _ := store.Get(id)

		sim := midpoint.Cosine(pos.Normalized)
		if sim <= worst {
			continue
		}

		at := k - 1
		for i, match := range matches {
			if match.Similarity < sim {
				at = i
				break
			}
		}
		copy(matches[at+1:], matches[at:k-1])
		matches[at] = Match{
			ID:            id,
			Similarity:    sim,
			SimilarityToA: posA.Normalized.Cosine(pos.Normalized),
			SimilarityToB: posB.Normalized.Cosine(pos.Normalized),
		}
		worst = matches[k-1].Similarity
	}

	return matches, nil
}
