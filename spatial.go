package main

import "math"

const (
	SpatialCellSize = 80.0 // several hitboxes wide; rounds cross ~15px per tick
)

// SpatialGrid is a uniform grid over the field for broad-phase collision
// queries. Cells hold indices into the caller's projectile slice. Points
// outside the field are clamped into the border cells.
type SpatialGrid struct {
	cellSize   float64
	cols, rows int
	originX    float64
	originY    float64
	cells      [][]int
}

// NewSpatialGrid creates a grid covering bounds
func NewSpatialGrid(bounds Rect, cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = SpatialCellSize
	}
	cols := int(math.Ceil((bounds.MaxX-bounds.MinX)/cellSize)) + 1
	rows := int(math.Ceil((bounds.MaxY-bounds.MinY)/cellSize)) + 1
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		originX:  bounds.MinX,
		originY:  bounds.MinY,
		cells:    make([][]int, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) cellCoord(x, y float64) (int, int) {
	cx := int(math.Floor((x - g.originX) / g.cellSize))
	cy := int(math.Floor((y - g.originY) / g.cellSize))
	if cx < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cx, cy
}

// Insert adds an index at the given position
func (g *SpatialGrid) Insert(x, y float64, idx int) {
	cx, cy := g.cellCoord(x, y)
	c := cy*g.cols + cx
	g.cells[c] = append(g.cells[c], idx)
}

// QueryBuf appends the indices of every cell overlapping r to buf and
// returns the extended slice, avoiding per-call allocation. Each inserted
// point lives in exactly one cell so no index is returned twice.
func (g *SpatialGrid) QueryBuf(r Rect, buf []int) []int {
	minCX, minCY := g.cellCoord(r.MinX, r.MinY)
	maxCX, maxCY := g.cellCoord(r.MaxX, r.MaxY)
	for cy := minCY; cy <= maxCY; cy++ {
		for cx := minCX; cx <= maxCX; cx++ {
			buf = append(buf, g.cells[cy*g.cols+cx]...)
		}
	}
	return buf
}
