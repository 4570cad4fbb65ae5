// Package sensor holds the shallow profiler's sensor identities, their
// display catalog, and the time-indexed value/depth series charts slice.
package sensor

import (
	"fmt"
	"strings"
)

// Sensor is a closed enumeration of the profiler's measured quantities.
type Sensor int

const (
	Temperature Sensor = iota + 1
	Salinity
	Density
	Conductivity
	Pressure
	DissolvedOxygen
	ChlorophyllA
	Backscatter
	FDOM
	Spkir412
	Spkir443
	Spkir490
	Spkir510
	Spkir555
	Spkir620
	Spkir683
	Nitrate
	PCO2
	PH
	PAR
	CurrentUp
	CurrentEast
	CurrentNorth
)

var sensorKeys = map[Sensor]string{
	Temperature:     "temperature",
	Salinity:        "salinity",
	Density:         "density",
	Conductivity:    "conductivity",
	Pressure:        "pressure",
	DissolvedOxygen: "do",
	ChlorophyllA:    "chlora",
	Backscatter:     "backscatter",
	FDOM:            "fdom",
	Spkir412:        "spkir412nm",
	Spkir443:        "spkir443nm",
	Spkir490:        "spkir490nm",
	Spkir510:        "spkir510nm",
	Spkir555:        "spkir555nm",
	Spkir620:        "spkir620nm",
	Spkir683:        "spkir683nm",
	Nitrate:         "nitrate",
	PCO2:            "pco2",
	PH:              "ph",
	PAR:             "par",
	CurrentUp:       "up",
	CurrentEast:     "east",
	CurrentNorth:    "north",
}

// aliases are legacy keys still found in notebooks and file names.
var aliases = map[string]Sensor{
	"temp":            Temperature,
	"dissolvedoxygen": DissolvedOxygen,
	"bb":              Backscatter,
	"si412":           Spkir412,
	"si443":           Spkir443,
	"si490":           Spkir490,
	"si510":           Spkir510,
	"si555":           Spkir555,
	"si620":           Spkir620,
	"si683":           Spkir683,
}

func (s Sensor) String() string {
	if k, ok := sensorKeys[s]; ok {
		return k
	}
	return fmt.Sprintf("Sensor(%d)", int(s))
}

// Valid reports whether s is a known sensor.
func (s Sensor) Valid() bool {
	_, ok := sensorKeys[s]
	return ok
}

// All returns every sensor in declaration order.
func All() []Sensor {
	out := make([]Sensor, 0, len(sensorKeys))
	for s := Temperature; s <= CurrentNorth; s++ {
		out = append(out, s)
	}
	return out
}

// ParseSensor resolves a sensor key or legacy alias.
func ParseSensor(key string) (Sensor, error) {
	k := strings.ToLower(strings.TrimSpace(key))
	for s, name := range sensorKeys {
		if name == k {
			return s, nil
		}
	}
	if s, ok := aliases[k]; ok {
		return s, nil
	}
	return 0, &UnknownSensorError{Key: key}
}

// UnknownSensorError reports a sensor key outside the enumeration.
type UnknownSensorError struct {
	Key string
}

func (e *UnknownSensorError) Error() string {
	return fmt.Sprintf("unknown sensor %q", e.Key)
}

// Range is a closed numeric interval used for chart axes.
type Range struct {
	Lo float64
	Hi float64
}

// Span is Hi minus Lo.
func (r Range) Span() float64 { return r.Hi - r.Lo }

// Empty reports a degenerate range.
func (r Range) Empty() bool { return r.Hi <= r.Lo }

// Info describes how a sensor is labelled and scaled on charts.
type Info struct {
	Key        string
	Name       string
	Instrument string
	Range      Range  // expected data range
	StdDev     Range  // expected spread across a bundle
	ColorName  string // name shown in chart titles
	Color      string // hex RGB
}

// Catalog maps sensors to their chart metadata. A Catalog is never mutated
// after construction; With returns a modified copy.
type Catalog struct {
	entries map[Sensor]Info
}

// DefaultCatalog returns the profiler's standard chart metadata.
func DefaultCatalog() Catalog {
	spkir := func(s Sensor, nm string) Info {
		return Info{
			Key: s.String(), Name: "Spectral Irradiance " + nm, Instrument: "spkir",
			Range: Range{0, 15}, StdDev: Range{0, 0.5}, ColorName: "black", Color: "#000000",
		}
	}
	current := func(s Sensor, name, colorName, hex string) Info {
		return Info{
			Key: s.String(), Name: "Current: " + name, Instrument: "vel",
			Range: Range{-0.4, 0.4}, StdDev: Range{0, 0.1}, ColorName: colorName, Color: hex,
		}
	}
	entries := map[Sensor]Info{
		Temperature:     {Key: "temperature", Name: "Temperature (deg C)", Instrument: "ctd", Range: Range{7, 11}, StdDev: Range{0, 0.7}, ColorName: "red", Color: "#ff0000"},
		Salinity:        {Key: "salinity", Name: "Salinity", Instrument: "ctd", Range: Range{32, 34}, StdDev: Range{0, 0.4}, ColorName: "cyan", Color: "#00ffff"},
		Density:         {Key: "density", Name: "Density (kg m-3)", Instrument: "ctd", Range: Range{1024, 1028}, StdDev: Range{0, 0.3}, ColorName: "brick red", Color: "#8f1402"},
		Conductivity:    {Key: "conductivity", Name: "Conductivity", Instrument: "ctd", Range: Range{3.2, 3.7}, StdDev: Range{0.1, 0.6}, ColorName: "maroon", Color: "#650021"},
		Pressure:        {Key: "pressure", Name: "Pressure", Instrument: "ctd", Range: Range{0, 200}, StdDev: Range{0, 10}, ColorName: "eggplant", Color: "#380835"},
		DissolvedOxygen: {Key: "do", Name: "Dissolved Oxygen", Instrument: "do", Range: Range{50, 300}, StdDev: Range{0, 40}, ColorName: "blue", Color: "#0000ff"},
		ChlorophyllA:    {Key: "chlora", Name: "Chlorophyll-A", Instrument: "fluor", Range: Range{0, 1.5}, StdDev: Range{0, 0.5}, ColorName: "green", Color: "#008000"},
		Backscatter:     {Key: "backscatter", Name: "Particulate Backscatter", Instrument: "fluor", Range: Range{0, 0.006}, StdDev: Range{0, 0.003}, ColorName: "blood orange", Color: "#fe4b03"},
		FDOM:            {Key: "fdom", Name: "Fluorescent DOM", Instrument: "fluor", Range: Range{0.5, 4.5}, StdDev: Range{0, 0.7}, ColorName: "olive drab", Color: "#6f7632"},
		Spkir412:        spkir(Spkir412, "412nm"),
		Spkir443:        spkir(Spkir443, "443nm"),
		Spkir490:        spkir(Spkir490, "490nm"),
		Spkir510:        spkir(Spkir510, "510nm"),
		Spkir555:        spkir(Spkir555, "555nm"),
		Spkir620:        spkir(Spkir620, "620nm"),
		Spkir683:        spkir(Spkir683, "683nm"),
		Nitrate:         {Key: "nitrate", Name: "Nitrate Concentration", Instrument: "nitrate", Range: Range{0, 35}, StdDev: Range{0, 4}, ColorName: "black", Color: "#000000"},
		PCO2:            {Key: "pco2", Name: "CO2 Concentration", Instrument: "pco2", Range: Range{200, 1200}, StdDev: Range{0, 10}, ColorName: "black", Color: "#000000"},
		PH:              {Key: "ph", Name: "pH", Instrument: "ph", Range: Range{7.6, 8.2}, StdDev: Range{0, 0.2}, ColorName: "yellow", Color: "#ffff00"},
		PAR:             {Key: "par", Name: "Photosynthetically Available Radiation", Instrument: "par", Range: Range{0, 300}, StdDev: Range{0, 30}, ColorName: "red", Color: "#ff0000"},
		CurrentUp:       current(CurrentUp, "Vertical", "red", "#ff0000"),
		CurrentEast:     current(CurrentEast, "East", "green", "#008000"),
		CurrentNorth:    current(CurrentNorth, "North", "blue", "#0000ff"),
	}
	return Catalog{entries: entries}
}

// Info returns the metadata for s.
func (c Catalog) Info(s Sensor) (Info, bool) {
	info, ok := c.entries[s]
	return info, ok
}

// Lookup is Info with an error for sensors missing from the catalog.
func (c Catalog) Lookup(s Sensor) (Info, error) {
	info, ok := c.entries[s]
	if !ok {
		return Info{}, &UnknownSensorError{Key: s.String()}
	}
	return info, nil
}

// With returns a copy of c with the entry for s replaced.
func (c Catalog) With(s Sensor, info Info) Catalog {
	entries := make(map[Sensor]Info, len(c.entries)+1)
	for k, v := range c.entries {
		entries[k] = v
	}
	entries[s] = info
	return Catalog{entries: entries}
}

// WithRange returns a copy of c with the expected data range of s replaced.
func (c Catalog) WithRange(s Sensor, r Range) Catalog {
	info, _ := c.Info(s)
	info.Range = r
	return c.With(s, info)
}

// Len is the number of catalogued sensors.
func (c Catalog) Len() int { return len(c.entries) }
