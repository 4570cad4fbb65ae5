// Package profile models the shallow profiler's rest/ascent/descent cycles and
// selects the cycles and leg windows that chart builders slice sensor data on.
package profile

import (
	"fmt"
	"strings"
	"time"
)

// Event is one timestamped depth reading marking a leg boundary.
// Depth is metres relative to the sea surface and is never positive.
type Event struct {
	Time  time.Time
	Depth float64
}

// Cycle is one row of the profile metadata table: a full rest, ascent and
// descent traversal of the water column.
//
// RestEnd and AscentStart are the same physical event, as are AscentEnd and
// DescentStart. DescentEnd of row n equals RestStart of row n+1.
type Cycle struct {
	RestStart    Event // r0
	RestEnd      Event // r1
	AscentStart  Event // a0
	AscentEnd    Event // a1
	DescentStart Event // d0
	DescentEnd   Event // d1
}

// Leg names one phase of a profile cycle.
type Leg int

const (
	LegRest Leg = iota + 1
	LegAscent
	LegDescent
)

var legNames = map[Leg]string{
	LegRest:    "rest",
	LegAscent:  "ascent",
	LegDescent: "descent",
}

func (l Leg) String() string {
	if n, ok := legNames[l]; ok {
		return n
	}
	return fmt.Sprintf("Leg(%d)", int(l))
}

// Valid reports whether l is one of the three legs.
func (l Leg) Valid() bool {
	_, ok := legNames[l]
	return ok
}

// Columns returns the profile table column pair that bounds the leg,
// e.g. ("a0t", "a1t") for the ascent.
func (l Leg) Columns() (string, string) {
	switch l {
	case LegRest:
		return "r0t", "r1t"
	case LegAscent:
		return "a0t", "a1t"
	case LegDescent:
		return "d0t", "d1t"
	}
	return "", ""
}

// ParseLeg maps "rest", "ascent" or "descent" (case-insensitive) to a Leg.
// Anything else is an InvalidLegError.
func ParseLeg(s string) (Leg, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for l, name := range legNames {
		if name == key {
			return l, nil
		}
	}
	return 0, &InvalidLegError{Value: s}
}

// Window is a closed [Start, End] time interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies in the closed window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Duration is End minus Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// ResolveLegWindow returns the bounding timestamps of the requested leg.
// rest -> (r0t, r1t), ascent -> (a0t, a1t), descent -> (d0t, d1t).
// There is no fallback leg: anything outside the enumeration fails.
func ResolveLegWindow(c Cycle, leg Leg) (Window, error) {
	switch leg {
	case LegRest:
		return Window{Start: c.RestStart.Time, End: c.RestEnd.Time}, nil
	case LegAscent:
		return Window{Start: c.AscentStart.Time, End: c.AscentEnd.Time}, nil
	case LegDescent:
		return Window{Start: c.DescentStart.Time, End: c.DescentEnd.Time}, nil
	}
	return Window{}, &InvalidLegError{Value: leg.String()}
}

// InvalidLegError reports a leg value outside rest/ascent/descent.
type InvalidLegError struct {
	Value string
}

func (e *InvalidLegError) Error() string {
	return fmt.Sprintf("invalid leg %q: want rest, ascent or descent", e.Value)
}

// InvalidRangeError reports a time box whose lower bound exceeds its upper
// bound, or a time-of-day bound outside [0, 24h].
type InvalidRangeError struct {
	Field string
	Lo    string
	Hi    string
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s range: %s > %s", e.Field, e.Lo, e.Hi)
}
