package sensor

import (
	"github.com/oceanobs/shallowprofiler/internal/profile"
)

// DescentOnly reports sensors whose response time makes ascent data
// unusable, so they are charted on the descent leg only.
func DescentOnly(s Sensor) bool {
	return s == PH || s == PCO2
}

// LegFor returns the leg actually charted for s when the caller asks for
// requested. Descent-only sensors always get the descent.
func LegFor(s Sensor, requested profile.Leg) profile.Leg {
	if DescentOnly(s) {
		return profile.LegDescent
	}
	return requested
}

// DefaultLeg is the leg bundle charts use when none is specified.
func DefaultLeg(s Sensor) profile.Leg {
	return LegFor(s, profile.LegAscent)
}

// SkipLeading is the number of samples dropped from the front of each leg
// slice. For pH and pCO2 the first sample in a descent window is the last
// reading of the previous cycle, which draws a stray line across the chart.
func SkipLeading(s Sensor) int {
	if DescentOnly(s) {
		return 1
	}
	return 0
}

// Assemble slices p on the leg window of cycle c. The requested leg must be
// valid; descent-only sensors are redirected to the descent and lose their
// first sample.
func Assemble(p *Pair, c profile.Cycle, requested profile.Leg) (Slice, error) {
	if !requested.Valid() {
		return Slice{}, &profile.InvalidLegError{Value: requested.String()}
	}
	leg := LegFor(p.Sensor, requested)
	w, err := profile.ResolveLegWindow(c, leg)
	if err != nil {
		return Slice{}, err
	}
	sl := p.Window(w).DropLeading(SkipLeading(p.Sensor))
	sl.Leg = leg
	return sl, nil
}
