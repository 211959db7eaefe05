package kde

import (
	"context"
	"fmt"
	"runtime"

	"github.com/uyouii/kde-algorithms/common"
	"github.com/uyouii/kde-algorithms/model"
	"github.com/uyouii/kde-algorithms/utils"
	"go.uber.org/zap"
)

type BandwidthMethod string

const (
	BandwidthFixed           BandwidthMethod = "fixed"
	BandwidthScott           BandwidthMethod = "scott"
	BandwidthSilverman       BandwidthMethod = "silverman"
	BandwidthCrossValidation BandwidthMethod = "crossval"
)

// Options configures an Estimator. Start from DefaultOptions.
type Options struct {
	Method BandwidthMethod

	// Bandwidth is used by BandwidthFixed.
	Bandwidth float64

	// Candidates for BandwidthCrossValidation. If empty, DefaultCandidateCount
	// log-spaced values around the Silverman bandwidth are searched.
	Candidates []float64
	// Folds is reduced to the sample count when there are fewer samples.
	Folds   int
	Seed    int64
	Workers int

	GridSize int
	// Cut extends the grid past the sample range by Cut bandwidths on each side.
	Cut float64

	// Clips, when set, drop samples outside the per-axis bounds before fitting.
	Clips []model.Clip

	// Cutoff truncates kernels past this many bandwidths, see WithCutoff.
	Cutoff float64
}

func DefaultOptions() Options {
	return Options{
		Method:   BandwidthSilverman,
		Folds:    DefaultFolds,
		Seed:     DefaultFoldSeed,
		Workers:  runtime.NumCPU(),
		GridSize: DefaultGridSize,
		Cut:      DefaultCut,
	}
}

func (o Options) Validate() error {
	switch o.Method {
	case BandwidthFixed:
		if err := checkBandwidth(o.Bandwidth); err != nil {
			return fmt.Errorf("%w: fixed bandwidth %v", common.ErrorInvalidValue, o.Bandwidth)
		}
	case BandwidthScott, BandwidthSilverman:
	case BandwidthCrossValidation:
		if o.Folds < 2 {
			return fmt.Errorf("%w: folds %v", common.ErrorInvalidValue, o.Folds)
		}
		for _, bw := range o.Candidates {
			if err := checkBandwidth(bw); err != nil {
				return fmt.Errorf("%w: candidate %v", common.ErrorInvalidValue, bw)
			}
		}
	default:
		return fmt.Errorf("%w: bandwidth method %q", common.ErrorInvalidValue, o.Method)
	}
	if o.GridSize < 2 {
		return fmt.Errorf("%w: grid size %v", common.ErrorInvalidValue, o.GridSize)
	}
	if o.Cut < 0 || !utils.IsFinite(o.Cut) {
		return fmt.Errorf("%w: cut %v", common.ErrorInvalidValue, o.Cut)
	}
	if o.Cutoff != 0 && (o.Cutoff < MinCutoffSigmas || !utils.IsFinite(o.Cutoff)) {
		return fmt.Errorf("%w: cutoff %v", common.ErrorInvalidValue, o.Cutoff)
	}
	for i, clip := range o.Clips {
		if clip.Upper < clip.Lower {
			return fmt.Errorf("%w: clip %v is reversed", common.ErrorInvalidValue, i)
		}
	}
	return nil
}

// Estimator runs the sample -> bandwidth -> density pipeline with fixed Options.
// It holds no state between calls.
type Estimator struct {
	opts Options
}

func NewEstimator(opts Options) (*Estimator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Estimator{opts: opts}, nil
}

func (e *Estimator) Options() Options {
	return e.opts
}

func (e *Estimator) fitOptions() []FitOption {
	if e.opts.Cutoff > 0 {
		return []FitOption{WithCutoff(e.opts.Cutoff)}
	}
	return nil
}

// prepare applies clipping.
func (e *Estimator) prepare(ctx context.Context, samples [][]float64) ([][]float64, error) {
	logger := utils.GetLogger(ctx)
	if len(e.opts.Clips) == 0 {
		if _, _, err := checkSamples(samples); err != nil {
			return nil, err
		}
		return samples, nil
	}

	clipped, err := ClipSamples(samples, e.opts.Clips)
	if err != nil {
		return nil, err
	}
	if len(clipped) == 0 {
		logger.Error("all samples clipped", zap.Int("cnt", len(samples)))
		return nil, fmt.Errorf("%w: no samples inside clips", common.ErrorInvalidInput)
	}
	if len(clipped) < len(samples) {
		logger.Info("samples clipped", zap.Int("before", len(samples)), zap.Int("after", len(clipped)))
	}
	return clipped, nil
}

// Bandwidth resolves the bandwidth for samples. The selection is only set for
// BandwidthCrossValidation.
func (e *Estimator) Bandwidth(ctx context.Context, samples [][]float64) (float64, *model.BandwidthSelection, error) {
	logger := utils.GetLogger(ctx)

	switch e.opts.Method {
	case BandwidthFixed:
		return e.opts.Bandwidth, nil, nil
	case BandwidthScott:
		bw, err := ScottBandWidth{}.BandWidth(samples)
		return bw, nil, err
	case BandwidthSilverman:
		bw, err := NewNormalReferenceBandWidth(nil).BandWidth(samples)
		return bw, nil, err
	case BandwidthCrossValidation:
	default:
		return 0, nil, fmt.Errorf("%w: bandwidth method %q", common.ErrorInvalidValue, e.opts.Method)
	}

	if len(samples) < 2 {
		return 0, nil, fmt.Errorf("%w: cross validation needs at least 2 samples, got %v",
			common.ErrorInvalidInput, len(samples))
	}

	candidates := e.opts.Candidates
	if len(candidates) == 0 {
		ref, err := NewNormalReferenceBandWidth(nil).BandWidth(samples)
		if err != nil {
			return 0, nil, err
		}
		candidates, err = LogBandwidths(ref/DefaultCandidateSpan, ref*DefaultCandidateSpan, DefaultCandidateCount)
		if err != nil {
			return 0, nil, err
		}
	}

	folds := e.opts.Folds
	if folds > len(samples) {
		logger.Info("reduce folds to sample count", zap.Int("folds", folds), zap.Int("cnt", len(samples)))
		folds = len(samples)
	}

	selection, err := SelectBandwidth(ctx, samples, candidates, folds,
		WithSeed(e.opts.Seed), WithWorkers(e.opts.Workers), WithFitOptions(e.fitOptions()...))
	if err != nil {
		return 0, nil, err
	}
	logger.Info("cross validation finished", zap.String("selection", selection.DebugString()))
	return selection.Bandwidth, selection, nil
}
