// Package chart turns profile selections and sensor pairs into renderer-neutral
// figures. It does no drawing: a Figure is the complete description of what
// the render package puts on screen.
package chart

import (
	"time"

	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

// Trace is one marker (or line) series on a panel.
type Trace struct {
	Name   string    `json:"name"`
	Color  string    `json:"color"`
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	Line   bool      `json:"line,omitempty"`
	Dashed bool      `json:"dashed,omitempty"`
}

// Len is the number of points in the trace.
func (t Trace) Len() int { return len(t.X) }

// Label is a text annotation in data coordinates.
type Label struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Text string  `json:"text"`
}

// Panel is one set of axes. When XTime is set, X values are Unix seconds.
type Panel struct {
	Title  string       `json:"title,omitempty"`
	XLabel string       `json:"x_label,omitempty"`
	YLabel string       `json:"y_label,omitempty"`
	X      sensor.Range `json:"x_range"`
	Y      sensor.Range `json:"y_range"`
	XTime  bool         `json:"x_time,omitempty"`
	Traces []Trace      `json:"traces"`
	Labels []Label      `json:"labels,omitempty"`
}

// Points is the total number of points across the panel's traces.
func (p Panel) Points() int {
	n := 0
	for _, t := range p.Traces {
		n += t.Len()
	}
	return n
}

// Figure is a grid of panels laid out row-major with Columns panels per row.
type Figure struct {
	Title   string  `json:"title,omitempty"`
	Kind    string  `json:"kind"`
	Columns int     `json:"columns"`
	Panels  []Panel `json:"panels"`
}

// Rows is the number of panel rows.
func (f Figure) Rows() int {
	cols := f.Cols()
	return (len(f.Panels) + cols - 1) / cols
}

// Cols is Columns, at least one.
func (f Figure) Cols() int {
	if f.Columns < 1 {
		return 1
	}
	return f.Columns
}

// Figure kinds, recorded with each chart run.
const (
	KindStack    = "stack"
	KindPair     = "pair"
	KindBundle   = "bundle"
	KindTimeline = "timeline"
	KindDaily    = "daily"
)

// unixSeconds converts timestamps to the X values of a time panel.
func unixSeconds(ts []time.Time) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = seconds(t)
	}
	return out
}

func seconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// TimeOf converts a time-panel X value back to a UTC timestamp.
func TimeOf(x float64) time.Time {
	sec := int64(x)
	nsec := int64((x - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}
