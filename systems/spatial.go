// Package systems provides the spatial index, sensing, and energy rules
// shared by the simulation pipeline.
package systems

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/zeachco/cells-ai/components"
)

// Neighbor holds a nearby entity with precomputed spatial data.
// This avoids recomputing toroidal delta and distance in sensors.
type Neighbor struct {
	E      ecs.Entity
	DX, DY float32 // Toroidal delta from query origin
	DistSq float32 // Squared distance (avoid sqrt in hot path)
}

// SpatialGrid provides O(k) neighbor lookups using uniform buckets over the
// toroidal plane. It stores entity handles only and is rebuilt once per tick
// from authoritative positions; it is never a second source of truth.
type SpatialGrid struct {
	bucketSize float32
	cols       int
	rows       int
	width      float32
	height     float32
	buckets    [][]ecs.Entity // flat row-major grid of entity lists
}

// NewSpatialGrid creates a spatial grid covering the given world size.
func NewSpatialGrid(width, height, bucketSize float32) *SpatialGrid {
	cols := int(width / bucketSize)
	if float32(cols)*bucketSize < width {
		cols++
	}
	rows := int(height / bucketSize)
	if float32(rows)*bucketSize < height {
		rows++
	}
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	buckets := make([][]ecs.Entity, cols*rows)
	for i := range buckets {
		buckets[i] = make([]ecs.Entity, 0, 8) // pre-allocate small capacity
	}

	return &SpatialGrid{
		bucketSize: bucketSize,
		cols:       cols,
		rows:       rows,
		width:      width,
		height:     height,
		buckets:    buckets,
	}
}

// Clear removes all entities from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.buckets {
		g.buckets[i] = g.buckets[i][:0]
	}
}

// Insert adds an entity to the grid at the given position.
func (g *SpatialGrid) Insert(e ecs.Entity, x, y float32) {
	g.buckets[g.bucketIndex(x, y)] = append(g.buckets[g.bucketIndex(x, y)], e)
}

// QueryRadiusInto finds entities within radius and appends them to dst.
// Returns the updated slice; reuse dst across calls to avoid allocations.
// Each Neighbor includes precomputed DX, DY, DistSq using the shorter
// wrapped path on each axis.
func (g *SpatialGrid) QueryRadiusInto(dst []Neighbor, x, y, radius float32, exclude ecs.Entity, posMap *ecs.Map1[components.Position]) []Neighbor {
	bucketRadius := int(radius/g.bucketSize) + 1

	centerCol := wrapIndex(int(x/g.bucketSize), g.cols)
	centerRow := wrapIndex(int(y/g.bucketSize), g.rows)

	radiusSq := radius * radius

	// Cap the window at the axis length so a wide radius never visits the
	// same bucket twice through the wrap.
	colCount := 2*bucketRadius + 1
	if colCount > g.cols {
		colCount = g.cols
	}
	rowCount := 2*bucketRadius + 1
	if rowCount > g.rows {
		rowCount = g.rows
	}

	for dc := 0; dc < colCount; dc++ {
		col := wrapIndex(centerCol-bucketRadius+dc, g.cols)
		for dr := 0; dr < rowCount; dr++ {
			row := wrapIndex(centerRow-bucketRadius+dr, g.rows)
			idx := row*g.cols + col

			for _, e := range g.buckets[idx] {
				if e == exclude {
					continue
				}

				pos := posMap.Get(e)
				if pos == nil {
					continue
				}

				dx, dy := ToroidalDelta(x, y, pos.X, pos.Y, g.width, g.height)
				distSq := dx*dx + dy*dy

				if distSq <= radiusSq {
					dst = append(dst, Neighbor{E: e, DX: dx, DY: dy, DistSq: distSq})
				}
			}
		}
	}

	return dst
}

// bucketIndex returns the flat index for a world position, wrapping
// out-of-range coordinates back onto the torus.
func (g *SpatialGrid) bucketIndex(x, y float32) int {
	col := wrapIndex(int(x/g.bucketSize), g.cols)
	row := wrapIndex(int(y/g.bucketSize), g.rows)
	return row*g.cols + col
}

// wrapIndex maps i onto [0, n) with Euclidean semantics.
func wrapIndex(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// ToroidalDelta returns the shortest path delta from (x1,y1) to (x2,y2).
func ToroidalDelta(x1, y1, x2, y2, w, h float32) (dx, dy float32) {
	dx = x2 - x1
	dy = y2 - y1

	if dx > w/2 {
		dx -= w
	} else if dx < -w/2 {
		dx += w
	}
	if dy > h/2 {
		dy -= h
	} else if dy < -h/2 {
		dy += h
	}

	return dx, dy
}
