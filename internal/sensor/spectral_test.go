package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSpectral(t *testing.T) {
	at := func(m int) time.Time { return t0.Add(time.Duration(m) * time.Minute) }
	// out of order, with minute 1 repeated
	times := []time.Time{at(2), at(0), at(1), at(1)}
	depth := []float64{-8, -10, -9, -99}
	channels := map[string][]float64{
		"412nm": {2.2, 2.0, 2.1, 9.9},
		"683nm": {0.2, 0.0, 0.1, 9.9},
		"999nm": {1, 1, 1, 1},
	}

	got, err := SplitSpectral(times, depth, channels)
	require.NoError(t, err)
	require.Len(t, got, 2)

	p := got[Spkir412]
	require.NotNil(t, p)
	assert.Equal(t, []time.Time{at(0), at(1), at(2)}, p.Times)
	assert.Equal(t, []float64{2.0, 2.1, 2.2}, p.Values)
	assert.Equal(t, []float64{-10, -9, -8}, p.Depth)

	assert.Equal(t, []float64{0.0, 0.1, 0.2}, got[Spkir683].Values)
	assert.Nil(t, got[Spkir490])
}

func TestSplitSpectral_ShapeMismatch(t *testing.T) {
	times := []time.Time{t0, t0.Add(time.Minute)}
	_, err := SplitSpectral(times, []float64{-1, -2}, map[string][]float64{"443nm": {1}})
	var shape *DataShapeError
	require.True(t, errors.As(err, &shape))
	assert.Equal(t, Spkir443, shape.Sensor)

	_, err = SplitSpectral(times, []float64{-1}, nil)
	assert.True(t, errors.As(err, &shape))
}
