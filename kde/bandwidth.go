package kde

import (
	"fmt"
	"math"
	"sort"

	"github.com/uyouii/kde-algorithms/common"
	"github.com/uyouii/kde-algorithms/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

type BandWidth interface {
	BandWidth(samples [][]float64) (float64, error)
}

// NormalReferenceBandWidth is Silverman's rule of thumb for an isotropic kernel.
type NormalReferenceBandWidth struct {
	kernel Kernel
}

func NewNormalReferenceBandWidth(kernel Kernel) *NormalReferenceBandWidth {
	if kernel == nil {
		kernel = NewGaussianKernel()
	}
	return &NormalReferenceBandWidth{
		kernel: kernel,
	}
}

func (bw *NormalReferenceBandWidth) BandWidth(samples [][]float64) (float64, error) {
	n, dims, err := checkSamples(samples)
	if err != nil {
		return 0, err
	}
	C := bw.kernel.NormalReferenceConstant(dims)
	A := selectSigma(samples, dims)
	return C * A * math.Pow(float64(n), -1.0/float64(dims+4)), nil
}

// ScottBandWidth is Scott's rule n^{-1/(d+4)} scaled by the sample spread.
type ScottBandWidth struct{}

func (ScottBandWidth) BandWidth(samples [][]float64) (float64, error) {
	n, dims, err := checkSamples(samples)
	if err != nil {
		return 0, err
	}
	return selectSigma(samples, dims) * math.Pow(float64(n), -1.0/float64(dims+4)), nil
}

// selectSigma averages a robust spread over the axes. Degenerate data with no
// spread falls back to 1.
func selectSigma(samples [][]float64, dims int) float64 {
	var total float64
	x := make([]float64, len(samples))
	for d := 0; d < dims; d++ {
		for i, row := range samples {
			x[i] = row[d]
		}
		total += axisSigma(x)
	}
	sigma := total / float64(dims)
	if !(sigma > 0) || !utils.IsFinite(sigma) {
		return 1.0
	}
	return sigma
}

func axisSigma(x []float64) float64 {
	if len(x) < 2 {
		return 0
	}
	sort.Float64s(x)

	q75 := stat.Quantile(0.75, stat.Empirical, x, nil)
	q25 := stat.Quantile(0.25, stat.Empirical, x, nil)
	iqr := (q75 - q25) / iqrNormalize

	stdDev := stat.StdDev(x, nil)

	if iqr > 0 {
		if stdDev < iqr {
			return stdDev
		}
		return iqr
	}
	return stdDev
}

// LinearBandwidths returns n evenly spaced candidates from lo to hi.
func LinearBandwidths(lo, hi float64, n int) ([]float64, error) {
	if err := checkRange(lo, hi, n); err != nil {
		return nil, err
	}
	if n == 1 {
		return []float64{lo}, nil
	}
	return floats.Span(make([]float64, n), lo, hi), nil
}

// LogBandwidths returns n candidates from lo to hi evenly spaced in log.
func LogBandwidths(lo, hi float64, n int) ([]float64, error) {
	if err := checkRange(lo, hi, n); err != nil {
		return nil, err
	}
	if n == 1 {
		return []float64{lo}, nil
	}
	return floats.LogSpan(make([]float64, n), lo, hi), nil
}

func checkRange(lo, hi float64, n int) error {
	if n < 1 {
		return fmt.Errorf("%w: candidate count %v", common.ErrorInvalidInput, n)
	}
	if err := checkBandwidth(lo); err != nil {
		return err
	}
	if err := checkBandwidth(hi); err != nil {
		return err
	}
	if hi < lo {
		return fmt.Errorf("%w: range [%v, %v] is reversed", common.ErrorInvalidInput, lo, hi)
	}
	return nil
}
