package data

import "math"

// Vector is a point in a fixed-dimension embedding space. We use two spaces:
// the similarity space Spotify's artist embedding lives in (8 dimensions) and
// the galaxy visualization space (3 dimensions). Dimension is fixed at
// construction; operations assume both operands have the same length.
type Vector []float32

func (this Vector) Norm() float32 {
	var sum float64
	for _, v := range this {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}

// Normalize returns a unit-length copy of the vector. A zero vector
// normalizes to a zero vector rather than NaNs; the embedding parser rejects
// zero rows, so stored normalized vectors are always unit length.
func (this Vector) Normalize() Vector {
	norm := this.Norm()
	result := make(Vector, len(this))
	if norm == 0 {
		return result
	}
	for i, v := range this {
		result[i] = v / norm
	}
	return result
}

func (this Vector) Distance(other Vector) float32 {
	var terms float64
	for i, v := range this {
		d := float64(v) - float64(other[i])
		terms += d * d
	}
	return float32(math.Sqrt(terms))
}

// Cosine returns the cosine similarity of two already-normalized vectors. It
// is just the dot product: callers cache normalized vectors, so normalizing
// here would repeat work they've already done.
func (this Vector) Cosine(other Vector) float32 {
	var dot float64
	for i, v := range this {
		dot += float64(v) * float64(other[i])
	}
	return float32(dot)
}

func (this Vector) Midpoint(other Vector) Vector {
	result := make(Vector, len(this))
	for i, v := range this {
		result[i] = (v + other[i]) / 2
	}
	return result
}

// Equal reports bit-identical equality. The render engine uses it to
// short-circuit position updates from a static viewer, so it must not
// tolerate epsilon differences.
func (this Vector) Equal(other Vector) bool {
	if len(this) != len(other) {
		return false
	}
	for i, v := range this {
		if v != other[i] {
			return false
		}
	}
	return true
}
