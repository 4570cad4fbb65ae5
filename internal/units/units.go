// Package units provides the calendar and geographic conversions used when
// labelling profiler charts.
package units

import (
	"fmt"
	"math"
	"time"
)

// EarthRadiusKm is the equatorial radius used for offshore distances.
const EarthRadiusKm = 6378.0

// Newport, Oregon: the reference point for offshore distances of the
// Regional Cabled Array sites.
const (
	NewportLatitude  = 44.6
	NewportLongitude = -124.0
)

// DayOfYear returns the 1-based ordinal day of t in UTC.
func DayOfYear(t time.Time) int {
	return t.UTC().YearDay()
}

// DateFromDayOfYear returns midnight UTC of the given 1-based ordinal day.
func DateFromDayOfYear(year, doy int) (time.Time, error) {
	last := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC).YearDay()
	if doy < 1 || doy > last {
		return time.Time{}, fmt.Errorf("day of year %d out of range 1-%d for %d", doy, last, year)
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1), nil
}

// OffshoreDistanceKm is the east-west distance in kilometres from Newport,
// Oregon to a site at longitude lon (degrees east), measured along the
// Newport parallel.
func OffshoreDistanceKm(lon float64) float64 {
	refLat := NewportLatitude * math.Pi / 180
	refLon := NewportLongitude * math.Pi / 180
	return math.Abs(lon*math.Pi/180-refLon) * math.Cos(refLat) * EarthRadiusKm
}
