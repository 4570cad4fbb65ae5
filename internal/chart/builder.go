package chart

import (
	"errors"
	"fmt"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/monitoring"
	"github.com/oceanobs/shallowprofiler/internal/profile"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
	"github.com/oceanobs/shallowprofiler/internal/stats"
)

// Defaults for a Builder.
const (
	// DefaultMaxCharts caps the panels one request hands to rendering.
	DefaultMaxCharts = 100
	DepthMin         = -200.0
	DepthMax         = 0.0
	// LabelDepth is where the start-time label sits on a depth panel.
	LabelDepth = -10.0
	// LabelFraction places the label this far across the x axis.
	LabelFraction   = 0.2
	DefaultBinWidth = 5.0
)

// ErrNoProfiles is returned when a selection holds no cycles to chart.
var ErrNoProfiles = errors.New("no profiles in selection")

// Selection is a profile table and the row indices chosen from it.
type Selection struct {
	Cycles  []profile.Cycle
	Indices []int
}

// Select applies a time box to cycles.
func Select(cycles []profile.Cycle, box profile.TimeBox) Selection {
	return Selection{Cycles: cycles, Indices: box.Indices(cycles)}
}

// Len is the number of selected cycles.
func (s Selection) Len() int { return len(s.Indices) }

func (s Selection) cycle(i int) (profile.Cycle, error) {
	idx := s.Indices[i]
	if idx < 0 || idx >= len(s.Cycles) {
		return profile.Cycle{}, fmt.Errorf("profile index %d outside table of %d rows", idx, len(s.Cycles))
	}
	return s.Cycles[idx], nil
}

// Layer is one sensor to draw: its data, the leg to slice on and an
// optional x-axis range overriding the catalog.
type Layer struct {
	Pair  *sensor.Pair
	Leg   profile.Leg
	Range *sensor.Range
}

// Builder assembles figures from selections. The zero value is not usable;
// start from NewBuilder.
type Builder struct {
	Catalog   sensor.Catalog
	MaxCharts int
	Depth     sensor.Range
	BinWidth  float64
	Site      string
}

// NewBuilder returns a Builder with the standard cap and depth axis.
func NewBuilder(cat sensor.Catalog) *Builder {
	return &Builder{
		Catalog:   cat,
		MaxCharts: DefaultMaxCharts,
		Depth:     sensor.Range{Lo: DepthMin, Hi: DepthMax},
		BinWidth:  DefaultBinWidth,
	}
}

// ChartCount is n limited to the builder's cap.
func (b *Builder) ChartCount(n int) int {
	if b.MaxCharts > 0 && n > b.MaxCharts {
		return b.MaxCharts
	}
	return n
}

func (b *Builder) announce(n int) {
	noun := "charts"
	if n == 1 {
		noun = "chart"
	}
	monitoring.Logf("Attempting %d %s", n, noun)
}

// layerInfo resolves the catalog entry and x range for a layer.
func (b *Builder) layerInfo(l Layer) (sensor.Info, sensor.Range, error) {
	if l.Pair == nil {
		return sensor.Info{}, sensor.Range{}, errors.New("layer has no sensor data")
	}
	info, err := b.Catalog.Lookup(l.Pair.Sensor)
	if err != nil {
		return sensor.Info{}, sensor.Range{}, err
	}
	xr := info.Range
	if l.Range != nil {
		xr = *l.Range
	}
	if xr.Empty() {
		xr = sensor.AutoRange(l.Pair.Values)
	}
	return info, xr, nil
}

// StartLabel is the panel annotation for a profile starting at t, marking
// midnight and noon profiles.
func StartLabel(t time.Time) string {
	s := "Start UTC: " + t.UTC().Format("2006-01-02 15:04:05")
	switch profile.Classify(t) {
	case profile.ScheduleMidnight:
		s += " MIDNIGHT local"
	case profile.ScheduleNoon:
		s += " NOON local"
	}
	return s
}

func (b *Builder) startLabel(c profile.Cycle, xr sensor.Range) Label {
	return Label{
		X:    xr.Lo + LabelFraction*xr.Span(),
		Y:    LabelDepth,
		Text: StartLabel(c.AscentStart.Time),
	}
}

func (b *Builder) title(info sensor.Info) string {
	if b.Site == "" {
		return info.Name
	}
	if site, err := sensor.LookupSite(b.Site); err == nil {
		return info.Name + ", " + site.Label()
	}
	return info.Name + ", " + b.Site
}

func (b *Builder) depthPanel(xr sensor.Range, info sensor.Info) Panel {
	return Panel{
		XLabel: info.Name,
		YLabel: "depth (m)",
		X:      xr,
		Y:      b.Depth,
	}
}

func sliceTrace(info sensor.Info, sl sensor.Slice) Trace {
	return Trace{Name: info.Key, Color: info.Color, X: sl.Values, Y: sl.Depth}
}

// SensorStack charts one sensor as a column of panels, one per selected
// profile, up to the chart cap.
func (b *Builder) SensorStack(sel Selection, a Layer) (Figure, error) {
	info, xr, err := b.layerInfo(a)
	if err != nil {
		return Figure{}, err
	}
	n := b.ChartCount(sel.Len())
	if n == 0 {
		return Figure{}, ErrNoProfiles
	}
	b.announce(n)

	fig := Figure{Title: b.title(info), Kind: KindStack, Columns: 1}
	for i := 0; i < n; i++ {
		c, err := sel.cycle(i)
		if err != nil {
			return Figure{}, err
		}
		sl, err := sensor.Assemble(a.Pair, c, a.Leg)
		if err != nil {
			return Figure{}, err
		}
		p := b.depthPanel(xr, info)
		if i == 0 {
			p.Title = fmt.Sprintf("%s (%s)", info.Name, info.ColorName)
		}
		p.Traces = []Trace{sliceTrace(info, sl)}
		p.Labels = []Label{b.startLabel(c, xr)}
		fig.Panels = append(fig.Panels, p)
	}
	return fig, nil
}

// PairedStack charts two sensors side by side for each selected profile.
// Each sensor is sliced on its own leg.
func (b *Builder) PairedStack(sel Selection, a, bl Layer) (Figure, error) {
	infoA, xrA, err := b.layerInfo(a)
	if err != nil {
		return Figure{}, err
	}
	infoB, xrB, err := b.layerInfo(bl)
	if err != nil {
		return Figure{}, err
	}
	n := b.ChartCount(sel.Len())
	if n == 0 {
		return Figure{}, ErrNoProfiles
	}
	b.announce(n)

	fig := Figure{
		Title:   fmt.Sprintf("%s and %s", infoA.Name, infoB.Name),
		Kind:    KindPair,
		Columns: 2,
	}
	for i := 0; i < n; i++ {
		c, err := sel.cycle(i)
		if err != nil {
			return Figure{}, err
		}
		slA, err := sensor.Assemble(a.Pair, c, a.Leg)
		if err != nil {
			return Figure{}, err
		}
		slB, err := sensor.Assemble(bl.Pair, c, bl.Leg)
		if err != nil {
			return Figure{}, err
		}
		pa, pb := b.depthPanel(xrA, infoA), b.depthPanel(xrB, infoB)
		if i == 0 {
			pa.Title = fmt.Sprintf("%s (%s)", infoA.Name, infoA.ColorName)
			pb.Title = fmt.Sprintf("%s (%s)", infoB.Name, infoB.ColorName)
		}
		pa.Traces = []Trace{sliceTrace(infoA, slA)}
		pb.Traces = []Trace{sliceTrace(infoB, slB)}
		pa.Labels = []Label{b.startLabel(c, xrA)}
		fig.Panels = append(fig.Panels, pa, pb)
	}
	return fig, nil
}

// BundleOptions controls the extras drawn over a bundle.
type BundleOptions struct {
	Envelope bool
}

// Bundle overlays every selected profile on a single panel. A bundle is one
// chart, so the chart cap does not apply to its traces.
func (b *Builder) Bundle(sel Selection, a Layer, opts BundleOptions) (Figure, error) {
	info, xr, err := b.layerInfo(a)
	if err != nil {
		return Figure{}, err
	}
	if sel.Len() == 0 {
		return Figure{}, ErrNoProfiles
	}
	b.announce(1)

	p := b.depthPanel(xr, info)
	p.Title = b.title(info)
	slices := make([]sensor.Slice, 0, sel.Len())
	for i := range sel.Indices {
		c, err := sel.cycle(i)
		if err != nil {
			return Figure{}, err
		}
		sl, err := sensor.Assemble(a.Pair, c, a.Leg)
		if err != nil {
			return Figure{}, err
		}
		slices = append(slices, sl)
		p.Traces = append(p.Traces, sliceTrace(info, sl))
	}

	first, _ := sel.cycle(0)
	last, _ := sel.cycle(sel.Len() - 1)
	text := StartLabel(first.AscentStart.Time)
	if sel.Len() > 1 {
		text = fmt.Sprintf("%d profiles, %s through %s", sel.Len(),
			first.AscentStart.Time.UTC().Format("2006-01-02 15:04"),
			last.AscentStart.Time.UTC().Format("2006-01-02 15:04"))
	}
	p.Labels = []Label{{X: xr.Lo + LabelFraction*xr.Span(), Y: LabelDepth, Text: text}}

	if opts.Envelope {
		traces, err := b.envelopeTraces(slices, info)
		if err != nil {
			return Figure{}, err
		}
		p.Traces = append(p.Traces, traces...)
	}
	return Figure{Title: p.Title, Kind: KindBundle, Columns: 1, Panels: []Panel{p}}, nil
}

// envelopeTraces draws the bundle mean, a one-sigma band and markers on bins
// whose spread exceeds the catalog's expected standard deviation.
func (b *Builder) envelopeTraces(slices []sensor.Slice, info sensor.Info) ([]Trace, error) {
	bins, err := stats.Envelope(slices, b.BinWidth, b.Depth.Lo, b.Depth.Hi)
	if err != nil {
		return nil, err
	}
	if len(bins) == 0 {
		return nil, nil
	}
	mean := Trace{Name: "mean", Color: "#000000", Line: true}
	lo := Trace{Name: "mean - sd", Color: "#555555", Line: true, Dashed: true}
	hi := Trace{Name: "mean + sd", Color: "#555555", Line: true, Dashed: true}
	for _, bin := range bins {
		mean.X = append(mean.X, bin.Mean)
		mean.Y = append(mean.Y, bin.Depth)
		lo.X = append(lo.X, bin.Mean-bin.StdDev)
		lo.Y = append(lo.Y, bin.Depth)
		hi.X = append(hi.X, bin.Mean+bin.StdDev)
		hi.Y = append(hi.Y, bin.Depth)
	}
	out := []Trace{mean, lo, hi}

	if flagged := stats.Flag(bins, info.StdDev); len(flagged) > 0 {
		monitoring.Logf("%s: %d depth bins exceed expected spread %g", info.Key, len(flagged), info.StdDev.Hi)
		f := Trace{Name: "high spread", Color: "#ff00ff"}
		for _, bin := range flagged {
			f.X = append(f.X, bin.Mean)
			f.Y = append(f.Y, bin.Depth)
		}
		out = append(out, f)
	}
	return out, nil
}

// BundleSlice bundles size consecutive profiles of the selection starting
// at position start. Both are clamped to the selection.
func (b *Builder) BundleSlice(sel Selection, a Layer, start, size int, opts BundleOptions) (Figure, error) {
	if size < 1 {
		return Figure{}, fmt.Errorf("bundle size must be at least 1, got %d", size)
	}
	n := sel.Len()
	i0 := start
	if i0 < 0 {
		i0 = 0
	}
	if i0 > n {
		i0 = n
	}
	i1 := i0 + size
	if i1 > n {
		i1 = n
	}
	sub := Selection{Cycles: sel.Cycles, Indices: sel.Indices[i0:i1]}
	return b.Bundle(sub, a, opts)
}
