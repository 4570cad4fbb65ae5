package profile

import (
	"time"
)

// Empirical ascent-start offsets (UTC, from midnight) of the instrument's two
// long-duration profiles per day. They come from the operating schedule of
// the Regional Cabled Array shallow profilers, not from solar geometry.
const (
	MidnightStart = 7*time.Hour + 10*time.Minute
	MidnightEnd   = 7*time.Hour + 34*time.Minute
	NoonStart     = 20*time.Hour + 30*time.Minute
	NoonEnd       = 20*time.Hour + 54*time.Minute
)

// Day is the widening applied to the upper date bound of a selection.
const Day = 24 * time.Hour

// Schedule classifies a cycle by the time of day its ascent starts.
type Schedule int

const (
	ScheduleRegular Schedule = iota
	ScheduleMidnight
	ScheduleNoon
)

func (s Schedule) String() string {
	switch s {
	case ScheduleMidnight:
		return "MIDNIGHT"
	case ScheduleNoon:
		return "NOON"
	}
	return "regular"
}

// FloorDay truncates t to midnight UTC of the same calendar day.
func FloorDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// TimeOfDay is the offset of t from midnight UTC.
func TimeOfDay(t time.Time) time.Duration {
	return t.Sub(FloorDay(t))
}

// IsMidnight reports whether an ascent starting at t is the local-midnight
// profile: offset in [7h10m, 7h34m].
func IsMidnight(t time.Time) bool {
	d := TimeOfDay(t)
	return d >= MidnightStart && d <= MidnightEnd
}

// IsNoon reports whether an ascent starting at t is the local-noon
// profile: offset in [20h30m, 20h54m].
func IsNoon(t time.Time) bool {
	d := TimeOfDay(t)
	return d >= NoonStart && d <= NoonEnd
}

// Classify returns the schedule slot of an ascent start time.
func Classify(t time.Time) Schedule {
	switch {
	case IsMidnight(t):
		return ScheduleMidnight
	case IsNoon(t):
		return ScheduleNoon
	}
	return ScheduleRegular
}

// SelectProfileIndices returns, in table order, the indices of cycles whose
// ascent start a0 satisfies
//
//	date0 <= a0,  floor_day(a0) <= date1 + 1 day,  time0 <= a0 - floor_day(a0) <= time1
//
// All bounds are inclusive and the upper date bound is compared as a calendar
// day. The extra day on date1 lets a single-day range keep the evening
// ascents that land on the next UTC date.
//
// Bounds are not validated: callers must pass date0 <= date1 and
// 0 <= time0 <= time1 <= 24h. TimeBox.Validate checks this at the boundary.
func SelectProfileIndices(cycles []Cycle, date0, date1 time.Time, time0, time1 time.Duration) []int {
	hi := FloorDay(date1).Add(Day)
	var idx []int
	for i, c := range cycles {
		a0 := c.AscentStart.Time
		day := FloorDay(a0)
		if a0.Before(date0) || day.After(hi) {
			continue
		}
		d := a0.Sub(day)
		if d >= time0 && d <= time1 {
			idx = append(idx, i)
		}
	}
	return idx
}

// TimeBox is a selection window: a calendar-day range plus a time-of-day
// range applied within each day.
type TimeBox struct {
	Date0 time.Time
	Date1 time.Time
	Time0 time.Duration
	Time1 time.Duration
}

// FullDays selects every cycle between two dates regardless of time of day.
func FullDays(date0, date1 time.Time) TimeBox {
	return TimeBox{Date0: date0, Date1: date1, Time0: 0, Time1: Day}
}

// Validate reports an InvalidRangeError for reversed or out-of-day bounds.
func (b TimeBox) Validate() error {
	if b.Date1.Before(b.Date0) {
		return &InvalidRangeError{Field: "date", Lo: b.Date0.Format(time.DateOnly), Hi: b.Date1.Format(time.DateOnly)}
	}
	if b.Time0 < 0 || b.Time1 > Day || b.Time1 < b.Time0 {
		return &InvalidRangeError{Field: "time of day", Lo: b.Time0.String(), Hi: b.Time1.String()}
	}
	return nil
}

// Indices applies SelectProfileIndices with the box's bounds.
func (b TimeBox) Indices(cycles []Cycle) []int {
	return SelectProfileIndices(cycles, b.Date0, b.Date1, b.Time0, b.Time1)
}
