package sensor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/profile"
)

// Source supplies the value/depth pair for a sensor at a site.
type Source interface {
	LoadPair(ctx context.Context, site string, s Sensor) (*Pair, error)
}

// CSVSource reads pairs from <Root>/<site>/<sensor>.csv.
type CSVSource struct {
	Root string
}

// Path returns the file a pair is read from.
func (c CSVSource) Path(site string, s Sensor) string {
	return filepath.Join(c.Root, site, s.String()+".csv")
}

// LoadPair implements Source.
func (c CSVSource) LoadPair(ctx context.Context, site string, s Sensor) (*Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(c.Path(site, s)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s data for %s: %w", s, site, err)
	}
	defer f.Close()
	return ReadPairCSV(f, s)
}

// ReadPairCSV reads a pair from CSV with a header naming a time column
// ("time"), a value column ("value" or the sensor key) and a depth column
// ("depth" or "z").
func ReadPairCSV(r io.Reader, s Sensor) (*Pair, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DataShapeError{Sensor: s, Reason: "sensor file is empty"}
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	ti, vi, zi := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "time":
			ti = i
		case "value", s.String():
			vi = i
		case "depth", "z":
			zi = i
		}
	}
	if ti < 0 || vi < 0 || zi < 0 {
		return nil, fmt.Errorf("sensor %s: header %v needs time, value and depth columns", s, header)
	}

	var values, depth Series
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		t, err := profile.ParseTime(rec[ti])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(rec[vi]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: value: %w", line, err)
		}
		z, err := strconv.ParseFloat(strings.TrimSpace(rec[zi]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: depth: %w", line, err)
		}
		values.Times = append(values.Times, t)
		values.Values = append(values.Values, v)
		depth.Times = append(depth.Times, t)
		depth.Values = append(depth.Values, z)
	}
	return NewPair(s, values, depth)
}

// WritePairCSV writes p in the layout ReadPairCSV accepts.
func WritePairCSV(w io.Writer, p *Pair) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "value", "depth"}); err != nil {
		return err
	}
	for i := range p.Values {
		rec := []string{
			p.Times[i].UTC().Format(time.RFC3339Nano),
			strconv.FormatFloat(p.Values[i], 'g', -1, 64),
			strconv.FormatFloat(p.Depth[i], 'g', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// MemorySource serves pairs from memory, keyed by site and sensor.
type MemorySource map[string]map[Sensor]*Pair

// Put stores p for site.
func (m MemorySource) Put(site string, p *Pair) {
	if m[site] == nil {
		m[site] = make(map[Sensor]*Pair)
	}
	m[site][p.Sensor] = p
}

// LoadPair implements Source.
func (m MemorySource) LoadPair(ctx context.Context, site string, s Sensor) (*Pair, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, ok := m[site][s]
	if !ok {
		return nil, &DataShapeError{Sensor: s, Reason: fmt.Sprintf("no data for site %q", site)}
	}
	return p, nil
}
