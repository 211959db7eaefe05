package kde

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"sort"

	"github.com/uyouii/kde-algorithms/common"
	"github.com/uyouii/kde-algorithms/model"
	"github.com/uyouii/kde-algorithms/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type selectConfig struct {
	seed    int64
	workers int
	fitOpts []FitOption
}

type SelectOption func(*selectConfig)

// WithSeed sets the seed of the fold permutation.
func WithSeed(seed int64) SelectOption {
	return func(c *selectConfig) {
		c.seed = seed
	}
}

// WithWorkers bounds the number of (candidate, fold) evaluations run at once.
// Values below 1 run them one at a time.
func WithWorkers(workers int) SelectOption {
	return func(c *selectConfig) {
		c.workers = workers
	}
}

func WithFitOptions(opts ...FitOption) SelectOption {
	return func(c *selectConfig) {
		c.fitOpts = append(c.fitOpts, opts...)
	}
}

// KFold partitions n sample indices into k folds from a seeded permutation.
// Every index is in exactly one Test set and fold sizes differ by at most one.
func KFold(n, k int, seed int64) ([]model.Fold, error) {
	if k < 2 || k > n {
		return nil, fmt.Errorf("%w: folds %v must be in [2, %v]", common.ErrorInvalidInput, k, n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)

	folds := make([]model.Fold, k)
	perFold, remainder := n/k, n%k

	idx := 0
	for i := 0; i < k; i++ {
		size := perFold
		if i < remainder {
			size++
		}

		test := make([]int, size)
		copy(test, perm[idx:idx+size])

		train := make([]int, 0, n-size)
		train = append(train, perm[:idx]...)
		train = append(train, perm[idx+size:]...)

		sort.Ints(test)
		sort.Ints(train)
		folds[i] = model.Fold{Train: train, Test: test}

		idx += size
	}
	return folds, nil
}

// SelectBandwidth picks the candidate with the highest mean held-out
// log-likelihood over k folds. The score of a fold is the sum of the
// log-densities of its test points under a fit of its training points.
// Exact ties go to the smaller bandwidth.
func SelectBandwidth(ctx context.Context, samples [][]float64, candidates []float64, k int,
	opts ...SelectOption) (*model.BandwidthSelection, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := utils.GetLogger(ctx)

	cfg := selectConfig{
		seed:    DefaultFoldSeed,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidate bandwidths", common.ErrorInvalidInput)
	}
	for _, bw := range candidates {
		if err := checkBandwidth(bw); err != nil {
			return nil, err
		}
	}

	n, _, err := checkSamples(samples)
	if err != nil {
		return nil, err
	}

	folds, err := KFold(n, k, cfg.seed)
	if err != nil {
		return nil, err
	}

	fitted := make([]*FittedModel, k)
	held := make([][][]float64, k)
	for f, fold := range folds {
		fitted[f], err = Fit(pick(samples, fold.Train), cfg.fitOpts...)
		if err != nil {
			return nil, err
		}
		held[f] = pick(samples, fold.Test)
	}

	// scores[c][f] is written only by the task for (c, f)
	scores := make([][]float64, len(candidates))
	for c := range scores {
		scores[c] = make([]float64, k)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(utils.IntMax(cfg.workers, 1))
	for c := range candidates {
		for f := range folds {
			c, f := c, f
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				ll, err := fitted[f].LogLikelihood(held[f], candidates[c])
				if err != nil {
					return fmt.Errorf("bw %v fold %v: %w", candidates[c], f, err)
				}
				scores[c][f] = ll
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		logger.Error("cross validation failed", zap.Error(err))
		return nil, err
	}

	res := &model.BandwidthSelection{
		Scores: make([]model.BandwidthScore, len(candidates)),
		Folds:  k,
		Seed:   cfg.seed,
	}
	for c, bw := range candidates {
		var sum float64
		for f := 0; f < k; f++ {
			sum += scores[c][f]
		}
		mean := sum / float64(k)
		res.Scores[c] = model.BandwidthScore{Bandwidth: bw, Score: mean}

		if c == 0 || better(mean, bw, res.Score, res.Bandwidth) {
			res.Bandwidth, res.Score = bw, mean
		}
	}

	logger.Info("bandwidth selected", zap.Float64("bw", res.Bandwidth), zap.Float64("score", res.Score),
		zap.Int("candidates", len(candidates)), zap.Int("folds", k), zap.Int("samples", n))
	return res, nil
}

// better reports whether (score, bw) beats the current best. Exact score ties
// go to the smaller bandwidth.
func better(score, bw, bestScore, bestBw float64) bool {
	if score != bestScore {
		return score > bestScore
	}
	return bw < bestBw
}

func pick(samples [][]float64, idx []int) [][]float64 {
	res := make([][]float64, len(idx))
	for i, j := range idx {
		res[i] = samples[j]
	}
	return res
}
