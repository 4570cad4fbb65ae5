package chart

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/profile"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

const (
	depthColor = "#000000"
	// scheduleLabelOffset shifts midnight/noon labels right of the ascent start.
	scheduleLabelOffset = 20 * time.Minute
)

// timeWindow returns the samples of s in [from, to).
func timeWindow(s sensor.Series, from, to time.Time) sensor.Series {
	lo := sort.Search(len(s.Times), func(i int) bool { return !s.Times[i].Before(from) })
	hi := sort.Search(len(s.Times), func(i int) bool { return !s.Times[i].Before(to) })
	if hi < lo {
		hi = lo
	}
	return sensor.Series{Times: s.Times[lo:hi], Values: s.Values[lo:hi]}
}

func (b *Builder) timePanel(depth sensor.Series, from, to time.Time) Panel {
	w := timeWindow(depth, from, to)
	return Panel{
		XLabel: "time (UTC)",
		YLabel: "depth (m)",
		X:      sensor.Range{Lo: seconds(from), Hi: seconds(to)},
		Y:      b.Depth,
		XTime:  true,
		Traces: []Trace{{Name: "depth", Color: depthColor, X: unixSeconds(w.Times), Y: w.Values}},
	}
}

// DepthTimeline plots profiler depth against time over [from, to) and labels
// the midnight and noon profiles whose ascent starts in that span.
func (b *Builder) DepthTimeline(depth sensor.Series, cycles []profile.Cycle, from, to time.Time) (Figure, error) {
	if !to.After(from) {
		return Figure{}, &profile.InvalidRangeError{Field: "timeline", Lo: from.Format(time.RFC3339), Hi: to.Format(time.RFC3339)}
	}
	b.announce(1)

	p := b.timePanel(depth, from, to)
	p.Title = fmt.Sprintf("Shallow profiler depth, %s to %s", from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly))
	labelDepth := b.Depth.Lo + 0.05*b.Depth.Span()
	for _, c := range cycles {
		a0 := c.AscentStart.Time
		if a0.Before(from) || !a0.Before(to) {
			continue
		}
		sched := profile.Classify(a0)
		if sched == profile.ScheduleRegular {
			continue
		}
		p.Labels = append(p.Labels, Label{
			X:    seconds(a0.Add(scheduleLabelOffset)),
			Y:    labelDepth,
			Text: strings.ToLower(sched.String()),
		})
	}
	return Figure{Title: p.Title, Kind: KindTimeline, Columns: 1, Panels: []Panel{p}}, nil
}

// DailyTimeline plots one row per UTC day starting at firstDay, for up to
// days days (limited by the chart cap).
func (b *Builder) DailyTimeline(depth sensor.Series, firstDay time.Time, days int) (Figure, error) {
	if days < 1 {
		return Figure{}, fmt.Errorf("daily timeline needs at least one day, got %d", days)
	}
	n := b.ChartCount(days)
	b.announce(n)

	day0 := profile.FloorDay(firstDay)
	fig := Figure{
		Title:   fmt.Sprintf("Daily profiles from %s", day0.Format(time.DateOnly)),
		Kind:    KindDaily,
		Columns: 1,
	}
	for i := 0; i < n; i++ {
		d := day0.AddDate(0, 0, i)
		p := b.timePanel(depth, d, d.Add(profile.Day))
		p.Title = d.Format("2006-01-02 (Mon)")
		fig.Panels = append(fig.Panels, p)
	}
	return fig, nil
}
