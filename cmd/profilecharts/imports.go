package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/monitoring"
	"github.com/oceanobs/shallowprofiler/internal/profile"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

func (a *app) importProfiles(args []string) error {
	fs := flag.NewFlagSet("import-profiles", flag.ContinueOnError)
	common := addCommonFlags(fs)
	file := fs.String("file", "", "Profile metadata CSV (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", errUsage)
	}
	cfg, err := a.loadConfig(common)
	if err != nil {
		return err
	}

	f, err := a.fsys.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	cycles, err := profile.ReadProfileMetadata(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *file, err)
	}
	for _, w := range profile.CheckContinuity(cycles) {
		monitoring.Logf("%s: %s", *file, w)
	}

	store, err := a.openDB(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveProfiles(context.Background(), cfg.GetSite(), cycles); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d profiles for %s\n", len(cycles), cfg.GetSite())
	return nil
}

func (a *app) importSensor(args []string) error {
	fs := flag.NewFlagSet("import-sensor", flag.ContinueOnError)
	common := addCommonFlags(fs)
	file := fs.String("file", "", "Sensor CSV with time, value and depth columns (required)")
	key := fs.String("sensor", "", "Sensor key (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" || *key == "" {
		return fmt.Errorf("%w: -file and -sensor are required", errUsage)
	}
	s, err := sensor.ParseSensor(*key)
	if err != nil {
		return err
	}
	cfg, err := a.loadConfig(common)
	if err != nil {
		return err
	}

	f, err := a.fsys.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	pair, err := sensor.ReadPairCSV(f, s)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *file, err)
	}

	store, err := a.openDB(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.SaveSeries(context.Background(), cfg.GetSite(), pair); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Imported %d %s samples for %s\n", pair.Len(), s, cfg.GetSite())
	return nil
}

func (a *app) importSpectral(args []string) error {
	fs := flag.NewFlagSet("import-spectral", flag.ContinueOnError)
	common := addCommonFlags(fs)
	file := fs.String("file", "", "Spectral irradiance CSV with time, depth and per-channel columns (required)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("%w: -file is required", errUsage)
	}
	cfg, err := a.loadConfig(common)
	if err != nil {
		return err
	}

	f, err := a.fsys.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()
	times, depth, channels, err := readSpectralCSV(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *file, err)
	}
	pairs, err := sensor.SplitSpectral(times, depth, channels)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("%s has no spectral channels", *file)
	}

	store, err := a.openDB(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	keys := make([]sensor.Sensor, 0, len(pairs))
	for s := range pairs {
		keys = append(keys, s)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, s := range keys {
		if err := store.SaveSeries(context.Background(), cfg.GetSite(), pairs[s]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Imported %d %s samples for %s\n", pairs[s].Len(), s, cfg.GetSite())
	}
	return nil
}

// readSpectralCSV reads a table with "time" and "depth" columns plus one
// column per channel label (e.g. "412nm"). Empty cells read as NaN.
func readSpectralCSV(r io.Reader) ([]time.Time, []float64, map[string][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil, errors.New("spectral table is empty")
		}
		return nil, nil, nil, err
	}

	timeCol, depthCol := -1, -1
	channelCols := make(map[int]string)
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case name == "time":
			timeCol = i
		case name == "depth" || name == "z":
			depthCol = i
		default:
			if _, ok := sensor.SpectralChannels[name]; ok {
				channelCols[i] = name
			}
		}
	}
	if timeCol < 0 || depthCol < 0 {
		return nil, nil, nil, errors.New("spectral table needs time and depth columns")
	}

	var times []time.Time
	var depth []float64
	channels := make(map[string][]float64, len(channelCols))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, nil, err
		}
		t, err := profile.ParseTime(rec[timeCol])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		z, err := parseCell(rec[depthCol])
		if err != nil {
			return nil, nil, nil, fmt.Errorf("line %d depth: %w", line, err)
		}
		times = append(times, t)
		depth = append(depth, z)
		for col, name := range channelCols {
			v, err := parseCell(rec[col])
			if err != nil {
				return nil, nil, nil, fmt.Errorf("line %d %s: %w", line, name, err)
			}
			channels[name] = append(channels[name], v)
		}
	}
	return times, depth, channels, nil
}

func parseCell(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
