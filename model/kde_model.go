package model

import "fmt"

// GridDensity is a density surface evaluated over the Cartesian product of Axes.
// Values is flat with the first axis varying fastest, so for two axes the value
// at (Axes[0][i], Axes[1][j]) is Values[j*len(Axes[0])+i].
type GridDensity struct {
	Axes      [][]float64 `json:"axes"`
	Values    []float64   `json:"values"`
	Bandwidth float64     `json:"bw"`
	// Mass is the trapezoidal integral of Values over the grid.
	Mass float64 `json:"mass"`
}

func (g *GridDensity) Shape() []int {
	if g == nil {
		return nil
	}
	shape := make([]int, len(g.Axes))
	for i, axis := range g.Axes {
		shape[i] = len(axis)
	}
	return shape
}

func (g *GridDensity) IsEmpty() bool {
	if g == nil {
		return true
	}
	return len(g.Values) == 0
}

// At returns the value at the given per-axis indices.
func (g *GridDensity) At(idx ...int) (float64, bool) {
	if g == nil || len(idx) != len(g.Axes) {
		return 0, false
	}
	offset, stride := 0, 1
	for d, i := range idx {
		if i < 0 || i >= len(g.Axes[d]) {
			return 0, false
		}
		offset += i * stride
		stride *= len(g.Axes[d])
	}
	return g.Values[offset], true
}

// Matrix returns a two-axis grid as rows over the second axis and columns over
// the first, the layout used for contour plotting.
func (g *GridDensity) Matrix() ([][]float64, error) {
	if g == nil || len(g.Axes) != 2 {
		return nil, fmt.Errorf("matrix needs a two axis grid")
	}
	nx, ny := len(g.Axes[0]), len(g.Axes[1])
	if nx*ny != len(g.Values) {
		return nil, fmt.Errorf("grid has %v values, want %v", len(g.Values), nx*ny)
	}
	res := make([][]float64, ny)
	for j := 0; j < ny; j++ {
		res[j] = make([]float64, nx)
		copy(res[j], g.Values[j*nx:(j+1)*nx])
	}
	return res, nil
}

func (g *GridDensity) DebugString() string {
	if g == nil {
		return "<nil>"
	}
	return fmt.Sprintf("shape: %v, bw: %v, mass: %v", g.Shape(), g.Bandwidth, g.Mass)
}
