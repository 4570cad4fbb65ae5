package sensor

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/oceanobs/shallowprofiler/internal/profile"
)

// Series is a time-indexed run of scalar measurements in time order.
type Series struct {
	Times  []time.Time
	Values []float64
}

// Len is the number of samples.
func (s Series) Len() int { return len(s.Values) }

// Pair is a sensor series and its co-indexed depth series. Every value has
// exactly one depth reading at the same instant.
type Pair struct {
	Sensor Sensor
	Times  []time.Time
	Values []float64
	Depth  []float64
}

// NewPair validates that values and depth share length and timestamps and
// that the timestamps are non-decreasing.
func NewPair(s Sensor, values, depth Series) (*Pair, error) {
	if len(values.Values) == 0 && len(depth.Values) == 0 {
		return nil, &DataShapeError{Sensor: s, Reason: "value and depth series are both missing"}
	}
	if len(values.Times) != len(values.Values) {
		return nil, &DataShapeError{Sensor: s, Values: len(values.Values), Depths: len(values.Times), Reason: "value series has mismatched timestamps"}
	}
	if len(depth.Times) != len(depth.Values) {
		return nil, &DataShapeError{Sensor: s, Values: len(depth.Values), Depths: len(depth.Times), Reason: "depth series has mismatched timestamps"}
	}
	if len(values.Values) != len(depth.Values) {
		return nil, &DataShapeError{Sensor: s, Values: len(values.Values), Depths: len(depth.Values)}
	}
	for i := range values.Times {
		if !values.Times[i].Equal(depth.Times[i]) {
			return nil, &DataShapeError{
				Sensor: s, Values: len(values.Values), Depths: len(depth.Values),
				Reason: fmt.Sprintf("timestamps diverge at sample %d (%s vs %s)", i, values.Times[i], depth.Times[i]),
			}
		}
		if i > 0 && values.Times[i].Before(values.Times[i-1]) {
			return nil, fmt.Errorf("sensor %s: samples out of time order at %d", s, i)
		}
	}
	return &Pair{Sensor: s, Times: values.Times, Values: values.Values, Depth: depth.Values}, nil
}

// Len is the number of samples.
func (p *Pair) Len() int { return len(p.Values) }

// Span returns the first and last timestamps.
func (p *Pair) Span() profile.Window {
	if len(p.Times) == 0 {
		return profile.Window{}
	}
	return profile.Window{Start: p.Times[0], End: p.Times[len(p.Times)-1]}
}

// Window returns the contiguous samples whose timestamps lie in the closed
// window. The returned slices alias the pair's storage.
func (p *Pair) Window(w profile.Window) Slice {
	n := len(p.Times)
	lo := sort.Search(n, func(i int) bool { return !p.Times[i].Before(w.Start) })
	hi := sort.Search(n, func(i int) bool { return p.Times[i].After(w.End) })
	if hi < lo {
		hi = lo
	}
	return Slice{
		Sensor: p.Sensor,
		Window: w,
		Times:  p.Times[lo:hi],
		Values: p.Values[lo:hi],
		Depth:  p.Depth[lo:hi],
	}
}

// Slice is the part of a Pair that falls in one leg window: the unit handed
// to the rendering layer.
type Slice struct {
	Sensor Sensor
	Leg    profile.Leg
	Window profile.Window
	Times  []time.Time
	Values []float64
	Depth  []float64
}

// Len is the number of samples in the slice.
func (s Slice) Len() int { return len(s.Values) }

// DropLeading removes the first n samples.
func (s Slice) DropLeading(n int) Slice {
	if n <= 0 {
		return s
	}
	if n > len(s.Values) {
		n = len(s.Values)
	}
	s.Times = s.Times[n:]
	s.Values = s.Values[n:]
	s.Depth = s.Depth[n:]
	return s
}

// AutoRange returns the data extent padded by 5% on each side, for sensors
// without a catalogued range. An empty input yields the zero Range.
func AutoRange(values []float64) Range {
	if len(values) == 0 {
		return Range{}
	}
	lo, hi := floats.Min(values), floats.Max(values)
	pad := 0.05 * (hi - lo)
	if pad == 0 {
		pad = 0.5
	}
	return Range{Lo: lo - pad, Hi: hi + pad}
}

// DataShapeError reports value and depth series that cannot be paired.
type DataShapeError struct {
	Sensor Sensor
	Values int
	Depths int
	Reason string
}

func (e *DataShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("sensor %s: %s", e.Sensor, e.Reason)
	}
	return fmt.Sprintf("sensor %s: value series has %d samples, depth series has %d", e.Sensor, e.Values, e.Depths)
}

// DepthSeries returns the pair's depth readings as a standalone series.
func (p *Pair) DepthSeries() Series {
	return Series{Times: p.Times, Values: p.Depth}
}
