// Package testutil provides shared test utilities and fixtures.
//
// The fixtures model a profiler that runs nine profiles a day, two of which
// (the midnight and noon profiles) start inside the long-profile windows.
package testutil

import (
	"testing"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/profile"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

// Fixture profile geometry.
const (
	RestDepth  = -193.0
	TopDepth   = -5.0
	AscentLen  = 60 * time.Minute
	DescentLen = 30 * time.Minute
	FirstRest  = 40 * time.Minute
)

// DailyAscents are the ascent-start offsets from midnight UTC used by Cycles.
// Index 3 is a midnight profile and index 8 a noon profile.
var DailyAscents = []time.Duration{
	30 * time.Minute,
	2*time.Hour + 40*time.Minute,
	4*time.Hour + 50*time.Minute,
	7*time.Hour + 20*time.Minute,
	10 * time.Hour,
	12*time.Hour + 30*time.Minute,
	15 * time.Hour,
	17*time.Hour + 40*time.Minute,
	20*time.Hour + 40*time.Minute,
}

// Day returns midnight UTC of the given date.
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Cycles returns len(DailyAscents) cycles per day for the given number of
// days starting at firstDay. Consecutive cycles share their boundary events.
func Cycles(firstDay time.Time, days int) []profile.Cycle {
	var starts []time.Time
	for d := 0; d < days; d++ {
		day := firstDay.AddDate(0, 0, d)
		for _, off := range DailyAscents {
			starts = append(starts, day.Add(off))
		}
	}
	return CyclesAt(starts...)
}

// CyclesAt builds back-to-back cycles with the given ascent starts, which
// must be more than AscentLen+DescentLen apart.
func CyclesAt(ascentStarts ...time.Time) []profile.Cycle {
	out := make([]profile.Cycle, 0, len(ascentStarts))
	for i, a0 := range ascentStarts {
		restStart := a0.Add(-FirstRest)
		if i > 0 {
			restStart = out[i-1].DescentEnd.Time
		}
		a1 := a0.Add(AscentLen)
		d1 := a1.Add(DescentLen)
		out = append(out, profile.Cycle{
			RestStart:    profile.Event{Time: restStart, Depth: RestDepth},
			RestEnd:      profile.Event{Time: a0, Depth: RestDepth},
			AscentStart:  profile.Event{Time: a0, Depth: RestDepth},
			AscentEnd:    profile.Event{Time: a1, Depth: TopDepth},
			DescentStart: profile.Event{Time: a1, Depth: TopDepth},
			DescentEnd:   profile.Event{Time: d1, Depth: RestDepth},
		})
	}
	return out
}

// DepthSeries samples the profiler depth every step from the first rest
// start to the last descent end, interpolating linearly along each leg.
func DepthSeries(cycles []profile.Cycle, step time.Duration) sensor.Series {
	var s sensor.Series
	if len(cycles) == 0 || step <= 0 {
		return s
	}
	ci := 0
	end := cycles[len(cycles)-1].DescentEnd.Time
	for at := cycles[0].RestStart.Time; !at.After(end); at = at.Add(step) {
		for ci < len(cycles)-1 && at.After(cycles[ci].DescentEnd.Time) {
			ci++
		}
		s.Times = append(s.Times, at)
		s.Values = append(s.Values, depthAt(cycles[ci], at))
	}
	return s
}

func depthAt(c profile.Cycle, at time.Time) float64 {
	lerp := func(a, b profile.Event) float64 {
		span := b.Time.Sub(a.Time)
		if span <= 0 {
			return a.Depth
		}
		f := float64(at.Sub(a.Time)) / float64(span)
		return a.Depth + f*(b.Depth-a.Depth)
	}
	switch {
	case at.Before(c.AscentStart.Time):
		return c.RestStart.Depth
	case !at.After(c.AscentEnd.Time):
		return lerp(c.AscentStart, c.AscentEnd)
	default:
		return lerp(c.DescentStart, c.DescentEnd)
	}
}

// SensorPair derives a sensor series from depth via f and pairs the two.
func SensorPair(t testing.TB, s sensor.Sensor, depth sensor.Series, f func(z float64) float64) *sensor.Pair {
	t.Helper()
	values := sensor.Series{Times: depth.Times, Values: make([]float64, len(depth.Values))}
	for i, z := range depth.Values {
		values.Values[i] = f(z)
	}
	p, err := sensor.NewPair(s, values, depth)
	if err != nil {
		t.Fatalf("failed to build %s pair: %v", s, err)
	}
	return p
}

// Linear returns f(z) = a + b*z.
func Linear(a, b float64) func(float64) float64 {
	return func(z float64) float64 { return a + b*z }
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
