package kde

import (
	"context"
	"fmt"
	"math"

	"github.com/uyouii/kde-algorithms/model"
	"github.com/uyouii/kde-algorithms/utils"
	"go.uber.org/zap"
)

func recoverError(ctx context.Context, name string, err *error) {
	if r := recover(); r != nil {
		utils.GetLogger(ctx).Error(name+" recover panic error!", zap.Any("err", r),
			zap.String("panic info", utils.GetPanicInfo()))
		*err = fmt.Errorf("%v panic: %v", name, r)
	}
}

// Evaluate fits samples and returns the density at each query along with the
// bandwidth used.
func (e *Estimator) Evaluate(ctx context.Context, samples, queries [][]float64) (
	res []model.Density, bw float64, err error) {
	logger := utils.GetLogger(ctx)
	defer recoverError(ctx, "Evaluate", &err)

	samples, err = e.prepare(ctx, samples)
	if err != nil {
		logger.Error("prepare samples failed", zap.Error(err))
		return nil, 0, err
	}

	bw, _, err = e.Bandwidth(ctx, samples)
	if err != nil {
		logger.Error("resolve bandwidth failed", zap.Error(err))
		return nil, 0, err
	}

	fm, err := Fit(samples, e.fitOptions()...)
	if err != nil {
		logger.Error("Fit failed", zap.Error(err))
		return nil, 0, err
	}

	dens, err := fm.Density(queries, bw)
	if err != nil {
		logger.Error("Density failed", zap.Error(err), zap.Float64("bw", bw))
		return nil, 0, err
	}

	res = make([]model.Density, len(queries))
	for i, q := range queries {
		x := make([]float64, len(q))
		copy(x, q)
		res[i] = model.Density{X: x, Value: dens[i]}
	}
	return res, bw, nil
}

// EstimateGrid evaluates the density of samples over a mesh grid that covers
// the samples plus Cut bandwidths on each side.
func (e *Estimator) EstimateGrid(ctx context.Context, samples [][]float64) (res *model.GridDensity, err error) {
	logger := utils.GetLogger(ctx)
	defer recoverError(ctx, "EstimateGrid", &err)

	samples, err = e.prepare(ctx, samples)
	if err != nil {
		logger.Error("prepare samples failed", zap.Error(err))
		return nil, err
	}

	bw, _, err := e.Bandwidth(ctx, samples)
	if err != nil {
		logger.Error("resolve bandwidth failed", zap.Error(err))
		return nil, err
	}

	axes, err := AxesFor(samples, e.opts.GridSize, e.opts.Cut, bw)
	if err != nil {
		return nil, err
	}

	values, err := e.densityOn(samples, axes, bw)
	if err != nil {
		logger.Error("grid density failed", zap.Error(err), zap.Float64("bw", bw))
		return nil, err
	}

	res = &model.GridDensity{
		Axes:      axes,
		Values:    values,
		Bandwidth: bw,
		Mass:      gridMass(axes, values),
	}
	logger.Info("grid density estimated", zap.String("grid", res.DebugString()), zap.Int("cnt", len(samples)))
	return res, nil
}

// Difference evaluates density(a) - density(b) on one grid covering both
// sample sets. Each set gets its own bandwidth; the result carries the larger.
func (e *Estimator) Difference(ctx context.Context, a, b [][]float64) (res *model.GridDensity, err error) {
	logger := utils.GetLogger(ctx)
	defer recoverError(ctx, "Difference", &err)

	a, err = e.prepare(ctx, a)
	if err != nil {
		logger.Error("prepare first samples failed", zap.Error(err))
		return nil, err
	}
	b, err = e.prepare(ctx, b)
	if err != nil {
		logger.Error("prepare second samples failed", zap.Error(err))
		return nil, err
	}

	bwA, _, err := e.Bandwidth(ctx, a)
	if err != nil {
		return nil, err
	}
	bwB, _, err := e.Bandwidth(ctx, b)
	if err != nil {
		return nil, err
	}
	bw := math.Max(bwA, bwB)

	all := make([][]float64, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	axes, err := AxesFor(all, e.opts.GridSize, e.opts.Cut, bw)
	if err != nil {
		// dimension mismatch between a and b lands here
		return nil, err
	}

	densA, err := e.densityOn(a, axes, bwA)
	if err != nil {
		return nil, err
	}
	densB, err := e.densityOn(b, axes, bwB)
	if err != nil {
		return nil, err
	}

	values := make([]float64, len(densA))
	for i := range values {
		values[i] = densA[i] - densB[i]
	}

	res = &model.GridDensity{
		Axes:      axes,
		Values:    values,
		Bandwidth: bw,
		Mass:      gridMass(axes, values),
	}
	logger.Info("density difference estimated", zap.String("grid", res.DebugString()),
		zap.Float64("bwA", bwA), zap.Float64("bwB", bwB))
	return res, nil
}

func (e *Estimator) densityOn(samples [][]float64, axes [][]float64, bw float64) ([]float64, error) {
	fm, err := Fit(samples, e.fitOptions()...)
	if err != nil {
		return nil, err
	}
	return fm.Density(MeshGrid(axes), bw)
}
