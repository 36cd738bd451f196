// Package galaxy holds the spatial side of the artist map: a uniform voxel
// grid over the 3-dimensional visualization space, used to bound range
// queries while the viewer moves instead of re-testing every artist every
// frame.
package galaxy

import (
	"math"

	"github.com/amonks/galaxy/data"
)

// GridSize is the number of cells along each axis.
const GridSize = 64

// Point is one gridded entity: an index into some caller-owned artist array
// plus its position. The grid stores indexes, never artist data.
type Point struct {
	Index    int
	Position data.Vector
}

// Grid partitions the axis-aligned bounding box of its points into
// GridSize³ cubic cells. Cell width comes from the largest single-axis
// extent, so the grid may overhang the box on the other two axes, but every
// cell is a cube. Only occupied cells are stored.
type Grid struct {
	min   data.Vector
	width float32
	cells map[[3]int][]int
}

// CellHit is one cell returned from an envelope query: the cell's center,
// the point indexes it contains, and per-radius flags. WithinEnvelope[i]
// means the cell is close enough to the i'th sphere's boundary that points
// inside it may have crossed; WithinSphere[i] means the cell center is
// inside the i'th sphere outright. Both are cell-granularity: callers still
// owe exact per-point distance tests.
type CellHit struct {
	Center         data.Vector
	Indexes        []int
	WithinEnvelope []bool
	WithinSphere   []bool
}

// BuildGrid grids the given points. Coincident or empty input would make
// the cell width zero and the index division degenerate, so that case
// collapses to a single-cell grid of width 1.
func BuildGrid(points []Point) *Grid {
	g := &Grid{
		min:   data.Vector{0, 0, 0},
		width: 1,
		cells: make(map[[3]int][]int),
	}
	if len(points) == 0 {
		return g
	}

	min := data.Vector{points[0].Position[0], points[0].Position[1], points[0].Position[2]}
	max := data.Vector{points[0].Position[0], points[0].Position[1], points[0].Position[2]}
	for _, p := range points[1:] {
		for axis := 0; axis < 3; axis++ {
			if p.Position[axis] < min[axis] {
				min[axis] = p.Position[axis]
			}
			if p.Position[axis] > max[axis] {
				max[axis] = p.Position[axis]
			}
		}
	}

	var extent float32
	for axis := 0; axis < 3; axis++ {
		if e := max[axis] - min[axis]; e > extent {
			extent = e
		}
	}

	g.min = min
	if extent > 0 {
		g.width = extent / GridSize
	}

	for _, p := range points {
		cell := g.CellIndex(p.Position)
		g.cells[cell] = append(g.cells[cell], p.Index)
	}

	return g
}

// CellIndex maps a position to its containing cell, clamped to [0,
// GridSize-1] per axis so boundary values (and positions outside the built
// box) land in an edge cell instead of out of range.
func (g *Grid) CellIndex(p data.Vector) [3]int {
	var cell [3]int
	for axis := 0; axis < 3; axis++ {
		ix := int((p[axis] - g.min[axis]) / g.width)
		if ix < 0 {
			ix = 0
		} else if ix > GridSize-1 {
			ix = GridSize - 1
		}
		cell[axis] = ix
	}
	return cell
}

func (g *Grid) cellCenter(cell [3]int) data.Vector {
	return data.Vector{
		g.min[0] + (float32(cell[0])+0.5)*g.width,
		g.min[1] + (float32(cell[1])+0.5)*g.width,
		g.min[2] + (float32(cell[2])+0.5)*g.width,
	}
}

// QueryEnvelope returns every occupied cell that might matter to any of the
// concentric spheres of the given radii around center, assuming center has
// moved at most margin since the previous query.
//
// Distance tests run against cell centers, not cell boundaries, so the
// comparison is padded by the distance from center to its own cell's center
// plus the farthest a point can sit from its cell's center, plus margin.
// That makes the result conservative: over-inclusive, never
// under-inclusive, and monotone in radius.
func (g *Grid) QueryEnvelope(center data.Vector, radii []float32, margin float32) []CellHit {
	if len(radii) == 0 {
		return nil
	}

	halfDiagonal := g.width * float32(math.Sqrt(3)) / 2
	padding := center.Distance(g.cellCenter(g.CellIndex(center))) + halfDiagonal + margin

	var maxRadius float32
	for _, r := range radii {
		if r > maxRadius {
			maxRadius = r
		}
	}
	reach := maxRadius + padding

	lo := g.CellIndex(data.Vector{center[0] - reach, center[1] - reach, center[2] - reach})
	hi := g.CellIndex(data.Vector{center[0] + reach, center[1] + reach, center[2] + reach})

	var hits []CellHit
	for x := lo[0]; x <= hi[0]; x++ {
		for y := lo[1]; y <= hi[1]; y++ {
			for z := lo[2]; z <= hi[2]; z++ {
				cell := [3]int{x, y, z}
				indexes, occupied := g.cells[cell]
				if !occupied {
					continue
				}

				cellCenter := g.cellCenter(cell)
				d := cellCenter.Distance(center)
				if d > reach {
					continue
				}

				hit := CellHit{
					Center:         cellCenter,
					Indexes:        indexes,
					WithinEnvelope: make([]bool, len(radii)),
					WithinSphere:   make([]bool, len(radii)),
				}
				for i, r := range radii {
					if diff := d - r; diff <= padding && diff >= -padding {
						hit.WithinEnvelope[i] = true
					}
					if d <= r {
						hit.WithinSphere[i] = true
					}
				}
				hits = append(hits, hit)
			}
		}
	}

	return hits
}
