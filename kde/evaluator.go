package kde

import (
	"fmt"
	"math"

	"github.com/uyouii/kde-algorithms/common"
	"github.com/uyouii/kde-algorithms/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// FittedModel is an immutable Gaussian kernel density estimate over a copy of
// the fitted samples. It is safe for concurrent use.
type FittedModel struct {
	// row-major, n rows of dims values
	data   []float64
	n      int
	dims   int
	kernel *GaussianKernel

	// sigmas is the truncation radius in bandwidths; 0 means exact.
	sigmas float64
	tree   *kdtree.Tree
}

type fitConfig struct {
	cutoff float64
}

type FitOption func(*fitConfig)

// WithCutoff truncates kernels farther than sigmas bandwidths from a query,
// using a k-d tree to find the remaining samples. A query whose kept kernels
// do not outweigh the worst case dropped mass by cutoffMassRatio uses the
// exact sum, so scores move by less than 1e-12 relative. sigmas must be at
// least MinCutoffSigmas; 0 disables truncation.
func WithCutoff(sigmas float64) FitOption {
	return func(c *fitConfig) {
		c.cutoff = sigmas
	}
}

func Fit(samples [][]float64, opts ...FitOption) (*FittedModel, error) {
	n, dims, err := checkSamples(samples)
	if err != nil {
		return nil, err
	}

	cfg := fitConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.cutoff != 0 && (!utils.IsFinite(cfg.cutoff) || cfg.cutoff < MinCutoffSigmas) {
		return nil, fmt.Errorf("%w: cutoff %v must be 0 or at least %v", common.ErrorInvalidInput,
			cfg.cutoff, MinCutoffSigmas)
	}

	data := make([]float64, 0, n*dims)
	for _, row := range samples {
		data = append(data, row...)
	}

	m := &FittedModel{
		data:   data,
		n:      n,
		dims:   dims,
		kernel: NewGaussianKernel(),
		sigmas: cfg.cutoff,
	}

	if cfg.cutoff > 0 {
		points := make(kdtree.Points, n)
		for i := 0; i < n; i++ {
			p := make(kdtree.Point, dims)
			copy(p, m.row(i))
			points[i] = p
		}
		m.tree = kdtree.New(points, false)
	}

	return m, nil
}

func (m *FittedModel) Len() int {
	return m.n
}

func (m *FittedModel) Dims() int {
	return m.dims
}

func (m *FittedModel) row(i int) []float64 {
	return m.data[i*m.dims : (i+1)*m.dims]
}

// Score returns log p̂(x) for every query, in query order.
func (m *FittedModel) Score(queries [][]float64, bandwidth float64) ([]float64, error) {
	if err := checkBandwidth(bandwidth); err != nil {
		return nil, err
	}
	for i, q := range queries {
		if len(q) != m.dims {
			return nil, fmt.Errorf("%w: query %v has %v dims, model has %v", common.ErrorInvalidInput,
				i, len(q), m.dims)
		}
		if !utils.AllFinite(q) {
			return nil, fmt.Errorf("%w: query %v has non-finite values", common.ErrorInvalidInput, i)
		}
	}

	logNorm := m.kernel.LogNorm(m.dims, bandwidth) - math.Log(float64(m.n))

	res := make([]float64, len(queries))
	terms := make([]float64, 0, m.n)
	for i, q := range queries {
		terms = terms[:0]
		if m.tree != nil {
			terms = m.nearTerms(terms, q, bandwidth)
			if !m.keepsMass(terms) {
				terms = terms[:0]
			}
		}
		if len(terms) == 0 {
			terms = m.allTerms(terms, q, bandwidth)
		}

		v := floats.LogSumExp(terms) + logNorm
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: log density %v at query %v with bw %v", common.ErrorNumericInstability,
				v, i, bandwidth)
		}
		res[i] = v
	}
	return res, nil
}

// Density returns p̂(x) for every query, in query order.
func (m *FittedModel) Density(queries [][]float64, bandwidth float64) ([]float64, error) {
	scores, err := m.Score(queries, bandwidth)
	if err != nil {
		return nil, err
	}
	return utils.ListExp(scores), nil
}

// LogLikelihood is the sum of Score over queries.
func (m *FittedModel) LogLikelihood(queries [][]float64, bandwidth float64) (float64, error) {
	scores, err := m.Score(queries, bandwidth)
	if err != nil {
		return 0, err
	}
	return floats.Sum(scores), nil
}

func (m *FittedModel) allTerms(dst []float64, q []float64, h float64) []float64 {
	for i := 0; i < m.n; i++ {
		x := m.row(i)
		var u2 float64
		for k := range q {
			u := (x[k] - q[k]) / h
			u2 += u * u
		}
		dst = append(dst, m.kernel.LogShape(u2))
	}
	return dst
}

func (m *FittedModel) nearTerms(dst []float64, q []float64, h float64) []float64 {
	r := m.sigmas * h
	// kdtree.Point distances are squared
	keeper := kdtree.NewDistKeeper(r * r)
	m.tree.NearestSet(keeper, kdtree.Point(q))
	for _, c := range keeper.Heap {
		if c.Comparable == nil {
			continue
		}
		u := math.Sqrt(c.Dist) / h
		dst = append(dst, m.kernel.LogShape(u*u))
	}
	return dst
}

// keepsMass reports whether the kept terms outweigh the largest possible
// dropped mass, (n - kept) * exp(-sigmas²/2), by at least cutoffMassRatio.
func (m *FittedModel) keepsMass(terms []float64) bool {
	if len(terms) == 0 {
		return false
	}
	dropped := m.n - len(terms)
	if dropped == 0 {
		return true
	}
	lost := math.Log(float64(dropped)) + m.kernel.LogShape(m.sigmas*m.sigmas)
	return floats.LogSumExp(terms)-lost >= math.Log(cutoffMassRatio)
}

func checkSamples(samples [][]float64) (int, int, error) {
	if len(samples) == 0 {
		return 0, 0, fmt.Errorf("%w: empty sample set", common.ErrorInvalidInput)
	}
	dims := len(samples[0])
	if dims == 0 {
		return 0, 0, fmt.Errorf("%w: samples have no dimensions", common.ErrorInvalidInput)
	}
	for i, row := range samples {
		if len(row) != dims {
			return 0, 0, fmt.Errorf("%w: sample %v has %v dims, want %v", common.ErrorInvalidInput,
				i, len(row), dims)
		}
		if !utils.AllFinite(row) {
			return 0, 0, fmt.Errorf("%w: sample %v has non-finite values", common.ErrorInvalidInput, i)
		}
	}
	return len(samples), dims, nil
}

func checkBandwidth(bandwidth float64) error {
	if !(bandwidth > 0) || math.IsInf(bandwidth, 0) {
		return fmt.Errorf("%w: bandwidth %v must be positive and finite", common.ErrorInvalidInput, bandwidth)
	}
	return nil
}
