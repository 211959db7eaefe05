package kde

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uyouii/kde-algorithms/common"
	"github.com/uyouii/kde-algorithms/utils"
	"go.uber.org/zap/zaptest"
)

func testContext(t *testing.T) context.Context {
	return utils.WithLogger(context.Background(), zaptest.NewLogger(t))
}

func TestKFoldPartition(t *testing.T) {
	for _, tc := range []struct{ n, k int }{{10, 2}, {10, 3}, {7, 7}, {23, 5}, {2, 2}} {
		folds, err := KFold(tc.n, tc.k, 1)
		require.NoError(t, err)
		require.Len(t, folds, tc.k)

		seen := make([]int, tc.n)
		minSize, maxSize := tc.n, 0
		for _, fold := range folds {
			require.Len(t, fold.Train, tc.n-len(fold.Test))
			minSize = min(minSize, len(fold.Test))
			maxSize = max(maxSize, len(fold.Test))

			inTest := map[int]bool{}
			for _, i := range fold.Test {
				seen[i]++
				inTest[i] = true
			}
			for _, i := range fold.Train {
				assert.False(t, inTest[i], "index %v in train and test", i)
			}
		}
		for i, cnt := range seen {
			assert.Equal(t, 1, cnt, "index %v for n=%v k=%v", i, tc.n, tc.k)
		}
		assert.LessOrEqual(t, maxSize-minSize, 1)
	}
}

func TestKFoldSeeded(t *testing.T) {
	a, err := KFold(50, 5, 7)
	require.NoError(t, err)
	b, err := KFold(50, 5, 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := KFold(50, 5, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestKFoldInvalid(t *testing.T) {
	for _, tc := range []struct{ n, k int }{{10, 1}, {10, 0}, {3, 4}, {0, 2}} {
		_, err := KFold(tc.n, tc.k, 1)
		require.ErrorIs(t, err, common.ErrorInvalidInput, "n=%v k=%v", tc.n, tc.k)
	}
}

func TestSelectBandwidthInvalid(t *testing.T) {
	ctx := testContext(t)
	samples := randomSamples(1, 10, 2, 1)

	_, err := SelectBandwidth(ctx, samples, nil, 2)
	require.ErrorIs(t, err, common.ErrorInvalidInput)

	_, err = SelectBandwidth(ctx, samples, []float64{1, 0}, 2)
	require.ErrorIs(t, err, common.ErrorInvalidInput)

	_, err = SelectBandwidth(ctx, samples, []float64{1}, 1)
	require.ErrorIs(t, err, common.ErrorInvalidInput)

	_, err = SelectBandwidth(ctx, samples, []float64{1}, 11)
	require.ErrorIs(t, err, common.ErrorInvalidInput)

	_, err = SelectBandwidth(ctx, nil, []float64{1}, 2)
	require.ErrorIs(t, err, common.ErrorInvalidInput)
}

func TestSelectBandwidthSingleCandidate(t *testing.T) {
	res, err := SelectBandwidth(testContext(t), randomSamples(2, 30, 2, 1), []float64{0.37}, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.37, res.Bandwidth)
	require.Len(t, res.Scores, 1)
	assert.Equal(t, res.Score, res.Scores[0].Score)
	assert.Equal(t, 5, res.Folds)
	assert.Equal(t, int64(DefaultFoldSeed), res.Seed)
}

func TestSelectBandwidthDeterministic(t *testing.T) {
	ctx := testContext(t)
	samples := randomSamples(3, 60, 2, 1)
	candidates, err := LogBandwidths(0.05, 5, 15)
	require.NoError(t, err)

	first, err := SelectBandwidth(ctx, samples, candidates, 5, WithSeed(11), WithWorkers(1))
	require.NoError(t, err)
	for _, workers := range []int{1, 4, 16} {
		again, err := SelectBandwidth(ctx, samples, candidates, 5, WithSeed(11), WithWorkers(workers))
		require.NoError(t, err)
		assert.Equal(t, first, again, "workers %v", workers)
	}
}

// With one point per fold, each held-out score is the log of a single
// Gaussian at distance 10√2: -100/h² - 2 log h - log 2π, which peaks at h = 10.
func TestSelectBandwidthTwoClusters(t *testing.T) {
	ctx := testContext(t)
	samples := [][]float64{{0, 0}, {10, 10}}

	heldOut := func(h float64) float64 {
		return -100/(h*h) - 2*math.Log(h) - math.Log(2*math.Pi)
	}

	res, err := SelectBandwidth(ctx, samples, []float64{1, 5, 20}, 2)
	require.NoError(t, err)
	for _, score := range res.Scores {
		assert.InDelta(t, heldOut(score.Bandwidth), score.Score, 1e-9)
	}

	s1, _ := res.GetScore(1)
	s5, _ := res.GetScore(5)
	s20, _ := res.GetScore(20)
	assert.Less(t, s1, s5)
	assert.Less(t, s1, s20)
	assert.Equal(t, 20.0, res.Bandwidth)

	res, err = SelectBandwidth(ctx, samples, []float64{1, 5, 10, 20}, 2)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Bandwidth)
}

func TestSelectBandwidthCandidateOrder(t *testing.T) {
	ctx := testContext(t)
	samples := randomSamples(4, 40, 2, 2)

	a, err := SelectBandwidth(ctx, samples, []float64{0.1, 0.5, 1, 3}, 4)
	require.NoError(t, err)
	b, err := SelectBandwidth(ctx, samples, []float64{3, 1, 0.5, 0.1}, 4)
	require.NoError(t, err)
	assert.Equal(t, a.Bandwidth, b.Bandwidth)
	assert.Equal(t, a.Score, b.Score)
}

func TestBetter(t *testing.T) {
	cases := []struct {
		name              string
		score, bw         float64
		bestScore, bestBw float64
		want              bool
	}{
		{"higher score", -1, 5, -2, 1, true},
		{"lower score", -3, 0.5, -2, 1, false},
		{"tie smaller bw", -2, 0.5, -2, 1, true},
		{"tie larger bw", -2, 3, -2, 1, false},
		{"tie same bw", -2, 1, -2, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, better(tc.score, tc.bw, tc.bestScore, tc.bestBw))
		})
	}
}

func TestSelectBandwidthTieGoesToSmallest(t *testing.T) {
	res, err := SelectBandwidth(testContext(t), randomSamples(5, 10, 1, 1), []float64{0.8, 0.8}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.8, res.Bandwidth)
	assert.Equal(t, res.Scores[0].Score, res.Scores[1].Score)
}

func TestSelectBandwidthLeaveOneOut(t *testing.T) {
	samples := randomSamples(6, 12, 2, 1)
	candidates := []float64{0.01, 0.1, 1, 10, 100}

	res, err := SelectBandwidth(testContext(t), samples, candidates, len(samples))
	require.NoError(t, err)
	require.Len(t, res.Scores, len(candidates))
	for _, score := range res.Scores {
		assert.True(t, utils.IsFinite(score.Score), "bw %v", score.Bandwidth)
	}
	assert.Equal(t, len(samples), res.Folds)
}

func TestSelectBandwidthPrefersReasonableWidth(t *testing.T) {
	samples := randomSamples(7, 200, 2, 1)
	res, err := SelectBandwidth(testContext(t), samples, []float64{0.01, 0.4, 10}, 5)
	require.NoError(t, err)
	assert.Equal(t, 0.4, res.Bandwidth)
}

func TestSelectBandwidthWithCutoff(t *testing.T) {
	ctx := testContext(t)
	samples := randomSamples(8, 80, 2, 1)
	candidates := []float64{0.2, 0.4, 0.8}

	exact, err := SelectBandwidth(ctx, samples, candidates, 4)
	require.NoError(t, err)
	cut, err := SelectBandwidth(ctx, samples, candidates, 4, WithFitOptions(WithCutoff(10)))
	require.NoError(t, err)
	assert.Equal(t, exact.Bandwidth, cut.Bandwidth)
}

func TestSelectBandwidthDoesNotMutateSamples(t *testing.T) {
	samples := randomSamples(9, 20, 2, 1)
	snapshot := randomSamples(9, 20, 2, 1)

	_, err := SelectBandwidth(testContext(t), samples, []float64{0.5, 1}, 4)
	require.NoError(t, err)
	assert.Equal(t, snapshot, samples)
}

func TestSelectBandwidthNilContext(t *testing.T) {
	//nolint:staticcheck // a nil context falls back to Background
	res, err := SelectBandwidth(nil, [][]float64{{0, 0}, {10, 10}}, []float64{1, 10}, 2)
	require.NoError(t, err)
	assert.Equal(t, 10.0, res.Bandwidth)
}

func TestSelectBandwidthCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	_, err := SelectBandwidth(ctx, randomSamples(10, 20, 2, 1), []float64{0.5, 1}, 4)
	require.ErrorIs(t, err, context.Canceled)
}
