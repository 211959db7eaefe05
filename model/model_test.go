package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridDensityAt(t *testing.T) {
	g := &GridDensity{
		Axes:   [][]float64{{0, 1, 2}, {5, 6}},
		Values: []float64{1, 2, 3, 4, 5, 6},
	}
	assert.Equal(t, []int{3, 2}, g.Shape())

	v, ok := g.At(2, 1)
	require.True(t, ok)
	assert.Equal(t, 6.0, v)

	v, ok = g.At(1, 0)
	require.True(t, ok)
	assert.Equal(t, 2.0, v)

	_, ok = g.At(3, 0)
	assert.False(t, ok)
	_, ok = g.At(0)
	assert.False(t, ok)

	m, err := g.Matrix()
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, m)

	m[0][0] = 100
	assert.Equal(t, 1.0, g.Values[0])
}

func TestGridDensityNil(t *testing.T) {
	var g *GridDensity
	assert.True(t, g.IsEmpty())
	assert.Nil(t, g.Shape())
	_, err := g.Matrix()
	assert.Error(t, err)
	assert.Equal(t, "<nil>", g.DebugString())
}

func TestBandwidthSelectionGetScore(t *testing.T) {
	s := &BandwidthSelection{
		Bandwidth: 2,
		Scores:    []BandwidthScore{{Bandwidth: 1, Score: -3}, {Bandwidth: 2, Score: -1}},
	}
	score, ok := s.GetScore(1)
	require.True(t, ok)
	assert.Equal(t, -3.0, score)

	_, ok = s.GetScore(7)
	assert.False(t, ok)

	var empty *BandwidthSelection
	_, ok = empty.GetScore(1)
	assert.False(t, ok)
}

func TestClipContains(t *testing.T) {
	c := Clip{Lower: -1, Upper: 1}
	assert.True(t, c.Contains(-1))
	assert.True(t, c.Contains(1))
	assert.False(t, c.Contains(1.01))
}
