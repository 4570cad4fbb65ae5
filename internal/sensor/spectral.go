package sensor

import (
	"fmt"
	"sort"
	"time"
)

// SpectralChannels maps the spectral irradiance instrument's channel labels
// to the per-wavelength sensors they are charted as.
var SpectralChannels = map[string]Sensor{
	"412nm": Spkir412,
	"443nm": Spkir443,
	"490nm": Spkir490,
	"510nm": Spkir510,
	"555nm": Spkir555,
	"620nm": Spkir620,
	"683nm": Spkir683,
}

// SplitSpectral breaks a multi-channel spectral irradiance record into one
// Pair per wavelength. Samples are sorted by time and repeated timestamps
// keep their first occurrence. Channel labels not in SpectralChannels are
// ignored; missing channels are simply absent from the result.
func SplitSpectral(times []time.Time, depth []float64, channels map[string][]float64) (map[Sensor]*Pair, error) {
	if len(times) != len(depth) {
		return nil, &DataShapeError{Sensor: Spkir412, Values: len(times), Depths: len(depth), Reason: fmt.Sprintf("spectral record has %d timestamps and %d depths", len(times), len(depth))}
	}
	for label, vals := range channels {
		s, ok := SpectralChannels[label]
		if ok && len(vals) != len(times) {
			return nil, &DataShapeError{Sensor: s, Values: len(vals), Depths: len(depth)}
		}
	}

	order := make([]int, len(times))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return times[order[a]].Before(times[order[b]]) })

	keep := make([]int, 0, len(order))
	for k, i := range order {
		if k > 0 && times[i].Equal(times[order[k-1]]) {
			continue
		}
		keep = append(keep, i)
	}

	ts := make([]time.Time, len(keep))
	zs := make([]float64, len(keep))
	for k, i := range keep {
		ts[k] = times[i]
		zs[k] = depth[i]
	}

	out := make(map[Sensor]*Pair)
	for label, vals := range channels {
		s, ok := SpectralChannels[label]
		if !ok {
			continue
		}
		vs := make([]float64, len(keep))
		for k, i := range keep {
			vs[k] = vals[i]
		}
		p, err := NewPair(s, Series{Times: ts, Values: vs}, Series{Times: ts, Values: zs})
		if err != nil {
			return nil, err
		}
		out[s] = p
	}
	return out, nil
}
