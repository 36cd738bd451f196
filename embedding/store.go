// Package embedding holds the artist embedding: an immutable mapping from
// artist id to a position in similarity space, built once per process from a
// precomputed external source.
package embedding

import (
	"sort"

	"github.com/amonks/galaxy/data"
)

// Position is one artist's place in the embedding. Normalized is the
// unit-length projection of Raw, computed once at parse time so similarity
// scans never renormalize.
type Position struct {
	ID         uint32
	Raw        data.Vector
	Normalized data.Vector
}

// Store is an append-only id → Position mapping. It is built exactly once
// and read-only thereafter, so concurrent reads need no synchronization.
type Store struct {
	dims int
	byID map[uint32]Position
	ids  []uint32
}

func newStore(dims int, positions []Position) *Store {
	s := &Store{
		dims: dims,
		byID: make(map[uint32]Position, len(positions)),
		ids:  make([]uint32, 0, len(positions)),
	}
	for _, pos := range positions {
		if _, has := s.byID[pos.ID]; has {
			continue
		}
		s.byID[pos.ID] = pos
		s.ids = append(s.ids, pos.ID)
	}
	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })
	return s
}

func (s *Store) Get(id uint32) (Position, bool) {
	pos, has := s.byID[id]
	return pos, has
}

func (s *Store) Len() int { return len(s.ids) }

func (s *Store) Dims() int { return s.dims }

// IDs returns every artist id in ascending order. Map iteration order is
// randomized by the runtime; scans that need deterministic results (and
// deterministic tie-breaks) iterate this slice instead. Callers must not
// mutate it.
func (s *Store) IDs() []uint32 { return s.ids }
