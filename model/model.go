package model

import "fmt"

// Clip bounds one axis of the sample space, both ends inclusive.
type Clip struct {
	Lower float64
	Upper float64
}

func (c Clip) Contains(v float64) bool {
	return v >= c.Lower && v <= c.Upper
}

type Density struct {
	X     []float64
	Value float64
}

type BandwidthScore struct {
	Bandwidth float64 `json:"bw"`
	Score     float64 `json:"score"`
}

// BandwidthSelection is the outcome of a cross-validated bandwidth search.
// Scores follow the order of the candidates passed in.
type BandwidthSelection struct {
	Bandwidth float64          `json:"bw"`
	Score     float64          `json:"score"`
	Scores    []BandwidthScore `json:"scores,omitempty"`
	Folds     int              `json:"folds"`
	Seed      int64            `json:"seed"`
}

func (s *BandwidthSelection) GetScore(bandwidth float64) (float64, bool) {
	if s == nil {
		return 0, false
	}
	for _, score := range s.Scores {
		if score.Bandwidth == bandwidth {
			return score.Score, true
		}
	}
	return 0, false
}

func (s *BandwidthSelection) DebugString() string {
	if s == nil {
		return "<nil>"
	}
	return fmt.Sprintf("bw: %v, score: %v, folds: %v, seed: %v, candidates: %v",
		s.Bandwidth, s.Score, s.Folds, s.Seed, len(s.Scores))
}

// Fold holds sample indices for one cross-validation round.
type Fold struct {
	Train []int
	Test  []int
}
