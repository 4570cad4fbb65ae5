// Package stats summarises bundles of profile slices by depth.
package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

// Bin is the spread of a sensor's values over the depth interval [Lo, Hi)
// across every slice in a bundle.
type Bin struct {
	Depth  float64 // bin centre
	Lo, Hi float64 // depth bounds
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Envelope bins the samples of all slices by depth and returns the mean and
// standard deviation of each bin, shallowest first. Samples outside
// [depthMin, depthMax] are ignored and bins holding fewer than two samples
// are omitted.
func Envelope(slices []sensor.Slice, binWidth, depthMin, depthMax float64) ([]Bin, error) {
	if binWidth <= 0 || math.IsNaN(binWidth) {
		return nil, fmt.Errorf("envelope bin width must be positive, got %g", binWidth)
	}
	if depthMin >= depthMax {
		return nil, fmt.Errorf("envelope depth range is empty: %g >= %g", depthMin, depthMax)
	}

	nbins := int(math.Ceil((depthMax - depthMin) / binWidth))
	buckets := make([][]float64, nbins)
	for _, sl := range slices {
		for i, z := range sl.Depth {
			v := sl.Values[i]
			if z < depthMin || z > depthMax || math.IsNaN(v) {
				continue
			}
			k := int((z - depthMin) / binWidth)
			if k >= nbins {
				k = nbins - 1
			}
			buckets[k] = append(buckets[k], v)
		}
	}

	var out []Bin
	for k := nbins - 1; k >= 0; k-- {
		vals := buckets[k]
		if len(vals) < 2 {
			continue
		}
		lo := depthMin + float64(k)*binWidth
		hi := math.Min(lo+binWidth, depthMax)
		mean, std := stat.MeanStdDev(vals, nil)
		out = append(out, Bin{
			Depth:  (lo + hi) / 2,
			Lo:     lo,
			Hi:     hi,
			N:      len(vals),
			Mean:   mean,
			StdDev: std,
			Min:    floats.Min(vals),
			Max:    floats.Max(vals),
		})
	}
	return out, nil
}

// Flag returns the bins whose standard deviation exceeds the upper bound of
// the expected spread.
func Flag(bins []Bin, expected sensor.Range) []Bin {
	var out []Bin
	for _, b := range bins {
		if b.StdDev > expected.Hi {
			out = append(out, b)
		}
	}
	return out
}

// Counts returns the number of samples in each slice, in order.
func Counts(slices []sensor.Slice) []float64 {
	out := make([]float64, len(slices))
	for i, sl := range slices {
		out[i] = float64(sl.Len())
	}
	return out
}

// MeanCount is the average number of samples per slice, zero for none.
func MeanCount(slices []sensor.Slice) float64 {
	if len(slices) == 0 {
		return 0
	}
	return stat.Mean(Counts(slices), nil)
}
