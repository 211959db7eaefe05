package kde

import "math"

type Kernel interface {
	// LogShape is the log of the unnormalized unit-bandwidth kernel at squared radius u2.
	LogShape(u2 float64) float64
	// LogNorm is the log of the normalization constant of a kernel with
	// bandwidth h in dims dimensions.
	LogNorm(dims int, h float64) float64
	NormalReferenceConstant(dims int) float64
}

// GaussianKernel is the isotropic d-dimensional standard normal density
// (2π)^{-d/2} exp(-‖u‖²/2).
type GaussianKernel struct {
	logTwoPi float64
}

func NewGaussianKernel() *GaussianKernel {
	return &GaussianKernel{
		logTwoPi: math.Log(2 * math.Pi),
	}
}

func (k *GaussianKernel) LogShape(u2 float64) float64 {
	return -u2 / 2.0
}

func (k *GaussianKernel) LogNorm(dims int, h float64) float64 {
	d := float64(dims)
	return -0.5*d*k.logTwoPi - d*math.Log(h)
}

// Shape evaluates the normalized kernel with bandwidth h at squared distance r2.
func (k *GaussianKernel) Shape(r2 float64, dims int, h float64) float64 {
	u := math.Sqrt(r2) / h
	return math.Exp(k.LogShape(u*u) + k.LogNorm(dims, h))
}

// NormalReferenceConstant is Silverman's factor (4/(d+2))^{1/(d+4)}, the
// bandwidth multiplier that is optimal when the data are normal. For d = 1
// it is the familiar 1.059.
func (k *GaussianKernel) NormalReferenceConstant(dims int) float64 {
	d := float64(dims)
	return math.Pow(4.0/(d+2.0), 1.0/(d+4.0))
}
