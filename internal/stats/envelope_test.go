package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

func slice(values, depth []float64) sensor.Slice {
	return sensor.Slice{Sensor: sensor.Temperature, Values: values, Depth: depth}
}

func TestEnvelope(t *testing.T) {
	slices := []sensor.Slice{
		slice([]float64{8, 10, 5}, []float64{-2, -7, -150}),
		slice([]float64{10, 12}, []float64{-3, -8}),
		slice([]float64{9}, []float64{-250}), // below the axis
	}

	bins, err := Envelope(slices, 5, -200, 0)
	require.NoError(t, err)
	require.Len(t, bins, 2, "the -150 bin has one sample and is dropped")

	top := bins[0]
	assert.Equal(t, -2.5, top.Depth)
	assert.Equal(t, 2, top.N)
	assert.InDelta(t, 9, top.Mean, 1e-12)
	assert.InDelta(t, 1.4142135623730951, top.StdDev, 1e-12)
	assert.Equal(t, 8.0, top.Min)
	assert.Equal(t, 10.0, top.Max)

	next := bins[1]
	assert.Equal(t, -10.0, next.Lo)
	assert.Equal(t, -5.0, next.Hi)
	assert.InDelta(t, 11, next.Mean, 1e-12)
}

func TestEnvelope_SurfaceSampleInTopBin(t *testing.T) {
	bins, err := Envelope([]sensor.Slice{slice([]float64{1, 3}, []float64{0, -1})}, 5, -200, 0)
	require.NoError(t, err)
	require.Len(t, bins, 1)
	assert.Equal(t, 0.0, bins[0].Hi)
}

func TestEnvelope_BadArguments(t *testing.T) {
	_, err := Envelope(nil, 0, -200, 0)
	assert.ErrorContains(t, err, "bin width")

	_, err = Envelope(nil, 5, 0, -200)
	assert.ErrorContains(t, err, "depth range")

	bins, err := Envelope(nil, 5, -200, 0)
	require.NoError(t, err)
	assert.Empty(t, bins)
}

func TestFlag(t *testing.T) {
	bins := []Bin{{Depth: -2.5, StdDev: 0.2}, {Depth: -7.5, StdDev: 0.9}, {Depth: -12.5, StdDev: 0.7}}
	flagged := Flag(bins, sensor.Range{Lo: 0, Hi: 0.7})
	require.Len(t, flagged, 1)
	assert.Equal(t, -7.5, flagged[0].Depth)
}

func TestMeanCount(t *testing.T) {
	assert.Zero(t, MeanCount(nil))
	slices := []sensor.Slice{
		slice([]float64{1, 2}, []float64{-1, -2}),
		slice([]float64{1, 2, 3, 4}, []float64{-1, -2, -3, -4}),
	}
	assert.Equal(t, []float64{2, 4}, Counts(slices))
	assert.Equal(t, 3.0, MeanCount(slices))
}
