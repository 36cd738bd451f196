package data_test

import (
	"math"
	"testing"

	"github.com/amonks/galaxy/data"
	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	v := data.Vector{3, 4}
	assert.Equal(t, data.Vector{0.6, 0.8}, v.Normalize())

	for _, v := range []data.Vector{
		{1, 0, 0},
		{-2, 7, 0.001},
		{0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3, 0.3},
	} {
		assert.InDelta(t, 1.0, float64(v.Normalize().Norm()), 1e-6)
	}
}

func TestNormalizeZero(t *testing.T) {
	v := data.Vector{0, 0, 0}
	got := v.Normalize()
	for _, c := range got {
		assert.False(t, math.IsNaN(float64(c)))
		assert.Equal(t, float32(0), c)
	}
}

func TestDistance(t *testing.T) {
	a := data.Vector{1, 1, 0}
	b := data.Vector{2, 2, 0}
	assert.InDelta(t, math.Sqrt(2), float64(a.Distance(b)), 1e-6)
	assert.Equal(t, a.Distance(b), b.Distance(a))
	assert.Equal(t, float32(0), a.Distance(a))
}

func TestCosine(t *testing.T) {
	a := data.Vector{3, 4, 0}.Normalize()
	assert.InDelta(t, 1.0, float64(a.Cosine(a)), 1e-6)

	b := data.Vector{-4, 3, 0}.Normalize()
	assert.InDelta(t, 0.0, float64(a.Cosine(b)), 1e-6)

	c := data.Vector{-3, -4, 0}.Normalize()
	assert.InDelta(t, -1.0, float64(a.Cosine(c)), 1e-6)
}

func TestMidpoint(t *testing.T) {
	a := data.Vector{1, 2, 3}
	b := data.Vector{3, 2, 1}
	assert.Equal(t, data.Vector{2, 2, 2}, a.Midpoint(b))
}

func TestEqual(t *testing.T) {
	a := data.Vector{1, 2, 3}
	assert.True(t, a.Equal(data.Vector{1, 2, 3}))
	assert.False(t, a.Equal(data.Vector{1, 2}))
	assert.False(t, a.Equal(data.Vector{1, 2, 3.00001}))
}
