package sensor

import (
	"fmt"
	"strings"

	"github.com/oceanobs/shallowprofiler/internal/units"
)

// Site is a shallow profiler mooring.
type Site struct {
	Key       string
	Name      string
	Latitude  float64
	Longitude float64
}

// OffshoreKm is the site's distance west of Newport, Oregon.
func (s Site) OffshoreKm() float64 {
	return units.OffshoreDistanceKm(s.Longitude)
}

// Label is the display form used in chart titles.
func (s Site) Label() string {
	return fmt.Sprintf("%s (%.0f km offshore)", s.Name, s.OffshoreKm())
}

// Sites are the three Regional Cabled Array shallow profilers.
var Sites = []Site{
	{Key: "osb", Name: "Oregon Slope Base", Latitude: 44.5290, Longitude: -125.3893},
	{Key: "axb", Name: "Axial Base", Latitude: 45.8305, Longitude: -129.7536},
	{Key: "oos", Name: "Oregon Offshore", Latitude: 44.3741, Longitude: -124.9565},
}

// LookupSite finds a site by key.
func LookupSite(key string) (Site, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for _, s := range Sites {
		if s.Key == k {
			return s, nil
		}
	}
	return Site{}, fmt.Errorf("unknown site %q", key)
}
