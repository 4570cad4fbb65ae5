package profile

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/monitoring"
)

// Column names of the twelve profile fields, in row order.
var Columns = []string{
	"r0t", "r0z", "r1t", "r1z",
	"a0t", "a0z", "a1t", "a1z",
	"d0t", "d0z", "d1t", "d1z",
}

// exportColumns are the header labels the profile export tool uses for the
// same twelve fields. Columns 0, 3, 6, ... carry event metadata we ignore.
var exportColumns = []string{
	"1", "2", "4", "5",
	"7", "8", "10", "11",
	"13", "14", "16", "17",
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ParseTime parses a profile or sensor timestamp. Values without a zone are UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ReadProfileMetadata reads a profile table from CSV. The header either names
// the fields directly (r0t, r0z, ... d1z) or uses the export tool's numbered
// columns. Rows are returned in file order.
func ReadProfileMetadata(r io.Reader) ([]Cycle, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("profile metadata is empty")
		}
		return nil, fmt.Errorf("failed to read profile header: %w", err)
	}

	pos, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	var cycles []Cycle
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		c, err := parseCycle(rec, pos)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		cycles = append(cycles, c)
	}

	for _, w := range CheckContinuity(cycles) {
		monitoring.Logf("profile metadata: %s", w)
	}
	return cycles, nil
}

func locateColumns(header []string) ([]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}
	for _, names := range [][]string{Columns, exportColumns} {
		pos := make([]int, 0, len(names))
		for _, n := range names {
			i, ok := index[n]
			if !ok {
				break
			}
			pos = append(pos, i)
		}
		if len(pos) == len(names) {
			return pos, nil
		}
	}
	return nil, fmt.Errorf("profile header %v lacks the twelve event columns", header)
}

func parseCycle(rec []string, pos []int) (Cycle, error) {
	events := make([]Event, 6)
	for e := range events {
		ti, zi := pos[2*e], pos[2*e+1]
		if ti >= len(rec) || zi >= len(rec) {
			return Cycle{}, fmt.Errorf("row has %d fields, want at least %d", len(rec), max(ti, zi)+1)
		}
		t, err := ParseTime(rec[ti])
		if err != nil {
			return Cycle{}, fmt.Errorf("%s: %w", Columns[2*e], err)
		}
		z, err := strconv.ParseFloat(strings.TrimSpace(rec[zi]), 64)
		if err != nil {
			return Cycle{}, fmt.Errorf("%s: %w", Columns[2*e+1], err)
		}
		events[e] = Event{Time: t, Depth: z}
	}
	return Cycle{
		RestStart:    events[0],
		RestEnd:      events[1],
		AscentStart:  events[2],
		AscentEnd:    events[3],
		DescentStart: events[4],
		DescentEnd:   events[5],
	}, nil
}

// CheckContinuity lists departures from the table's event degeneracy
// (r1 == a0, a1 == d0, d1[n] == r0[n+1]) and any positive depth. The
// profile table is taken as-is, so these are reported rather than rejected.
func CheckContinuity(cycles []Cycle) []string {
	var out []string
	for i, c := range cycles {
		if !c.RestEnd.Time.Equal(c.AscentStart.Time) {
			out = append(out, fmt.Sprintf("row %d: rest end %s != ascent start %s", i, c.RestEnd.Time, c.AscentStart.Time))
		}
		if !c.AscentEnd.Time.Equal(c.DescentStart.Time) {
			out = append(out, fmt.Sprintf("row %d: ascent end %s != descent start %s", i, c.AscentEnd.Time, c.DescentStart.Time))
		}
		if i+1 < len(cycles) && !c.DescentEnd.Time.Equal(cycles[i+1].RestStart.Time) {
			out = append(out, fmt.Sprintf("row %d: descent end %s != next rest start %s", i, c.DescentEnd.Time, cycles[i+1].RestStart.Time))
		}
		for _, e := range []Event{c.RestStart, c.RestEnd, c.AscentStart, c.AscentEnd, c.DescentStart, c.DescentEnd} {
			if e.Depth > 0 {
				out = append(out, fmt.Sprintf("row %d: depth %.2f above the surface at %s", i, e.Depth, e.Time))
				break
			}
		}
	}
	return out
}

// WriteProfileMetadata writes cycles as CSV with named headers, the inverse
// of ReadProfileMetadata.
func WriteProfileMetadata(w io.Writer, cycles []Cycle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, c := range cycles {
		rec := make([]string, 0, len(Columns))
		for _, e := range []Event{c.RestStart, c.RestEnd, c.AscentStart, c.AscentEnd, c.DescentStart, c.DescentEnd} {
			rec = append(rec, e.Time.UTC().Format(time.RFC3339), strconv.FormatFloat(e.Depth, 'f', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
