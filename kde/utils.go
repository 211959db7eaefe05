package kde

import (
	"fmt"

	"github.com/uyouii/kde-algorithms/common"
	"github.com/uyouii/kde-algorithms/model"
)

// ClipSamples keeps the rows whose every coordinate lies inside the matching
// clip. clips must have one entry per dimension.
func ClipSamples(samples [][]float64, clips []model.Clip) ([][]float64, error) {
	_, dims, err := checkSamples(samples)
	if err != nil {
		return nil, err
	}
	if len(clips) != dims {
		return nil, fmt.Errorf("%w: %v clips for %v dims", common.ErrorInvalidInput, len(clips), dims)
	}

	res := [][]float64{}
	for _, row := range samples {
		keep := true
		for d, v := range row {
			if !clips[d].Contains(v) {
				keep = false
				break
			}
		}
		if keep {
			res = append(res, row)
		}
	}
	return res, nil
}

func column(samples [][]float64, d int) []float64 {
	res := make([]float64, len(samples))
	for i, row := range samples {
		res[i] = row[d]
	}
	return res
}
