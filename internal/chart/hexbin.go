package chart

import (
	"errors"
	"math"
)

// HexCell is one occupied hexagon of a hexbin grid.
type HexCell struct {
	X, Y  float64 // centre in data coordinates
	Count int
}

// HexGrid is the result of binning a point cloud into hexagons.
type HexGrid struct {
	Cells []HexCell
	// Extent of the lattice in data coordinates.
	XMin, XMax, YMin, YMax float64
	// Size of one lattice step; a hexagon is SX wide and 2*SY/3 tall.
	SX, SY float64
}

// MaxCount returns the largest cell count, or 0 for an empty grid.
func (g HexGrid) MaxCount() int {
	maxCount := 0
	for _, c := range g.Cells {
		maxCount = max(maxCount, c.Count)
	}
	return maxCount
}

// MinCount returns the smallest cell count, or 0 for an empty grid.
func (g HexGrid) MinCount() int {
	if len(g.Cells) == 0 {
		return 0
	}
	minCount := math.MaxInt
	for _, c := range g.Cells {
		minCount = min(minCount, c.Count)
	}
	return minCount
}

// Hexbin bins the points (x[i], y[i]) into a grid of pointy-top hexagons with
// gridSize hexagons across the x range and gridSize/√3 down the y range.
// Cells holding fewer than minCount points are dropped.
//
// Two rectangular lattices are overlaid, the second offset by half a step in
// both directions; each point goes to the nearer of its two candidate centres,
// which partitions the plane into hexagons.
func Hexbin(x, y []float64, gridSize, minCount int) (HexGrid, error) {
	if len(x) != len(y) {
		return HexGrid{}, errors.New("hexbin: x and y differ in length")
	}
	if gridSize < 1 {
		return HexGrid{}, errors.New("hexbin: grid size must be positive")
	}
	x, y = finitePairs(x, y)
	if len(x) == 0 {
		return HexGrid{}, nil
	}

	nx := gridSize
	ny := int(float64(nx) / math.Sqrt(3))
	if ny < 1 {
		ny = 1
	}

	xmin, xmax := nonsingular(extent(x))
	ymin, ymax := nonsingular(extent(y))

	// keep points on the upper edge inside the last column
	padding := 1e-9 * (xmax - xmin)
	xmin -= padding
	xmax += padding

	sx := (xmax - xmin) / float64(nx)
	sy := (ymax - ymin) / float64(ny)

	nx1, ny1 := nx+1, ny+1
	counts1 := make([]int, nx1*ny1)
	counts2 := make([]int, nx*ny)

	for i := range x {
		ix := (x[i] - xmin) / sx
		iy := (y[i] - ymin) / sy

		ix1, iy1 := math.Round(ix), math.Round(iy)
		ix2, iy2 := math.Floor(ix), math.Floor(iy)

		d1 := sq(ix-ix1) + 3*sq(iy-iy1)
		d2 := sq(ix-ix2-0.5) + 3*sq(iy-iy2-0.5)

		if d1 < d2 {
			i1, j1 := clamp(int(ix1), nx1), clamp(int(iy1), ny1)
			counts1[i1*ny1+j1]++
		} else {
			i2, j2 := clamp(int(ix2), nx), clamp(int(iy2), ny)
			counts2[i2*ny+j2]++
		}
	}

	grid := HexGrid{XMin: xmin, XMax: xmax, YMin: ymin, YMax: ymax, SX: sx, SY: sy}
	minCount = max(minCount, 1)
	for i := 0; i < nx1; i++ {
		for j := 0; j < ny1; j++ {
			if c := counts1[i*ny1+j]; c >= minCount {
				grid.Cells = append(grid.Cells, HexCell{X: xmin + float64(i)*sx, Y: ymin + float64(j)*sy, Count: c})
			}
		}
	}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			if c := counts2[i*ny+j]; c >= minCount {
				grid.Cells = append(grid.Cells, HexCell{
					X:     xmin + (float64(i)+0.5)*sx,
					Y:     ymin + (float64(j)+0.5)*sy,
					Count: c,
				})
			}
		}
	}
	return grid, nil
}

// hexVertices returns the corner offsets of a hexagon for lattice steps sx, sy.
func hexVertices(sx, sy float64) [6][2]float64 {
	return [6][2]float64{
		{0.5 * sx, -sy / 6},
		{0.5 * sx, sy / 6},
		{0, sy / 3},
		{-0.5 * sx, sy / 6},
		{-0.5 * sx, -sy / 6},
		{0, -sy / 3},
	}
}

func extent(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// nonsingular widens an empty interval by 10% of its magnitude, or by 0.1 around zero.
func nonsingular(lo, hi float64) (float64, float64) {
	if hi > lo {
		return lo, hi
	}
	if lo == 0 {
		return -0.1, 0.1
	}
	d := 0.1 * math.Abs(lo)
	return lo - d, hi + d
}

func sq(v float64) float64 { return v * v }

// clamp keeps a lattice index inside [0, n).
func clamp(i, n int) int {
	return min(max(i, 0), n-1)
}

// finitePairs drops the points where either coordinate is NaN or infinite.
func finitePairs(x, y []float64) ([]float64, []float64) {
	fx := make([]float64, 0, len(x))
	fy := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) || math.IsNaN(y[i]) || math.IsInf(y[i], 0) {
			continue
		}
		fx = append(fx, x[i])
		fy = append(fy, y[i])
	}
	return fx, fy
}
