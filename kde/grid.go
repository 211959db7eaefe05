package kde

import (
	"fmt"

	"github.com/uyouii/kde-algorithms/common"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"
)

func Linspace(start, stop float64, num int) []float64 {
	if num < 2 {
		return []float64{start}
	}
	return floats.Span(make([]float64, num), start, stop)
}

// AxesFor spans every dimension of samples from min - cut*bw to max + cut*bw
// with gridSize points.
func AxesFor(samples [][]float64, gridSize int, cut, bw float64) ([][]float64, error) {
	_, dims, err := checkSamples(samples)
	if err != nil {
		return nil, err
	}
	if gridSize < 2 {
		return nil, fmt.Errorf("%w: grid size %v", common.ErrorInvalidInput, gridSize)
	}
	axes := make([][]float64, dims)
	for d := 0; d < dims; d++ {
		x := column(samples, d)
		a := floats.Min(x) - cut*bw
		b := floats.Max(x) + cut*bw
		axes[d] = Linspace(a, b, gridSize)
	}
	return axes, nil
}

// MeshGrid flattens the Cartesian product of axes into query points. The first
// axis varies fastest, so for two axes point j*len(axes[0])+i is
// (axes[0][i], axes[1][j]).
func MeshGrid(axes [][]float64) [][]float64 {
	if len(axes) == 0 {
		return nil
	}
	total := 1
	for _, axis := range axes {
		total *= len(axis)
	}

	res := make([][]float64, total)
	idx := make([]int, len(axes))
	for p := 0; p < total; p++ {
		point := make([]float64, len(axes))
		for d := range axes {
			point[d] = axes[d][idx[d]]
		}
		res[p] = point

		for d := range idx {
			idx[d]++
			if idx[d] < len(axes[d]) {
				break
			}
			idx[d] = 0
		}
	}
	return res
}

// Reshape2D turns flat MeshGrid-ordered values into ny rows of nx columns.
func Reshape2D(values []float64, nx, ny int) ([][]float64, error) {
	if nx < 1 || ny < 1 || nx*ny != len(values) {
		return nil, fmt.Errorf("%w: cannot reshape %v values to %vx%v", common.ErrorInvalidInput,
			len(values), ny, nx)
	}
	res := make([][]float64, ny)
	for j := 0; j < ny; j++ {
		res[j] = make([]float64, nx)
		copy(res[j], values[j*nx:(j+1)*nx])
	}
	return res, nil
}

// gridMass integrates MeshGrid-ordered values over the grid with the
// trapezoidal rule, one axis at a time.
func gridMass(axes [][]float64, values []float64) float64 {
	for _, axis := range axes {
		if len(axis) < 2 {
			return 0
		}
	}
	cur := values
	for _, axis := range axes {
		n := len(axis)
		next := make([]float64, len(cur)/n)
		for i := range next {
			next[i] = integrate.Trapezoidal(axis, cur[i*n:(i+1)*n])
		}
		cur = next
	}
	if len(cur) != 1 {
		return 0
	}
	return cur[0]
}
