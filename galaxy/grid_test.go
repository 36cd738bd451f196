package galaxy_test

import (
	"math/rand"
	"testing"

	"github.com/amonks/galaxy/data"
	"github.com/amonks/galaxy/galaxy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomPoints(n int, rng *rand.Rand) []galaxy.Point {
	points := make([]galaxy.Point, n)
	for i := range points {
		points[i] = galaxy.Point{
			Index: i,
			Position: data.Vector{
				rng.Float32()*100 - 50,
				rng.Float32()*80 - 40,
				rng.Float32() * 60,
			},
		}
	}
	return points
}

func hitIndexes(hits []galaxy.CellHit) map[int]bool {
	got := map[int]bool{}
	for _, hit := range hits {
		for _, ix := range hit.Indexes {
			got[ix] = true
		}
	}
	return got
}

func TestCellIndexClamped(t *testing.T) {
	points := []galaxy.Point{
		{Index: 0, Position: data.Vector{0, 0, 0}},
		{Index: 1, Position: data.Vector{10, 10, 10}},
	}
	g := galaxy.BuildGrid(points)

	cell := g.CellIndex(data.Vector{10, 10, 10})
	for axis := 0; axis < 3; axis++ {
		assert.Equal(t, galaxy.GridSize-1, cell[axis])
	}

	cell = g.CellIndex(data.Vector{-999, -999, -999})
	assert.Equal(t, [3]int{0, 0, 0}, cell)

	cell = g.CellIndex(data.Vector{999, 999, 999})
	assert.Equal(t, [3]int{galaxy.GridSize - 1, galaxy.GridSize - 1, galaxy.GridSize - 1}, cell)
}

// Every gridded point is reachable from its own position with a tiny radius:
// the padding has to cover the distance between a point and its cell's
// center.
func TestQuerySelfContainment(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	points := randomPoints(500, rng)
	g := galaxy.BuildGrid(points)

	for _, p := range points {
		hits := g.QueryEnvelope(p.Position, []float32{1e-4}, 0)
		assert.True(t, hitIndexes(hits)[p.Index], "point %d not found at its own position", p.Index)
	}
}

// Growing the radius can only add cells, never drop previously-included
// ones.
func TestQueryMonotoneInRadius(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	points := randomPoints(300, rng)
	g := galaxy.BuildGrid(points)

	center := data.Vector{10, 0, 30}
	prev := map[int]bool{}
	for _, radius := range []float32{1, 5, 20, 60, 200} {
		got := hitIndexes(g.QueryEnvelope(center, []float32{radius}, 0))
		for ix := range prev {
			assert.True(t, got[ix], "index %d dropped at radius %f", ix, radius)
		}
		prev = got
	}
}

func TestQueryConservative(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	points := randomPoints(400, rng)
	g := galaxy.BuildGrid(points)

	center := data.Vector{0, 0, 30}
	radius := float32(25)
	got := hitIndexes(g.QueryEnvelope(center, []float32{radius}, 0))

	// Everything actually inside the sphere must be in the candidate set;
	// the reverse doesn't hold, candidates still need exact tests.
	for _, p := range points {
		if p.Position.Distance(center) <= radius {
			assert.True(t, got[p.Index], "point %d inside sphere but not returned", p.Index)
		}
	}
}

func TestQueryPerRadiusFlags(t *testing.T) {
	points := []galaxy.Point{
		{Index: 0, Position: data.Vector{0, 0, 0}},
		{Index: 1, Position: data.Vector{100, 0, 0}},
	}
	g := galaxy.BuildGrid(points)

	hits := g.QueryEnvelope(data.Vector{0, 0, 0}, []float32{5, 150}, 0)
	require.NotEmpty(t, hits)
	for _, hit := range hits {
		require.Len(t, hit.WithinEnvelope, 2)
		require.Len(t, hit.WithinSphere, 2)
		// The 150 sphere covers the whole box, so every returned cell
		// center is inside it.
		assert.True(t, hit.WithinSphere[1])
	}
}

func TestDegenerateGrid(t *testing.T) {
	coincident := []galaxy.Point{
		{Index: 0, Position: data.Vector{7, 7, 7}},
		{Index: 1, Position: data.Vector{7, 7, 7}},
		{Index: 2, Position: data.Vector{7, 7, 7}},
	}
	g := galaxy.BuildGrid(coincident)

	hits := g.QueryEnvelope(data.Vector{7, 7, 7}, []float32{0.001}, 0)
	got := hitIndexes(hits)
	for i := 0; i < 3; i++ {
		assert.True(t, got[i])
	}

	empty := galaxy.BuildGrid(nil)
	assert.Empty(t, empty.QueryEnvelope(data.Vector{0, 0, 0}, []float32{10}, 0))
}
