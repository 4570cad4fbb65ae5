package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/chart"
	"github.com/oceanobs/shallowprofiler/internal/config"
	"github.com/oceanobs/shallowprofiler/internal/db"
	"github.com/oceanobs/shallowprofiler/internal/profile"
	"github.com/oceanobs/shallowprofiler/internal/render"
	"github.com/oceanobs/shallowprofiler/internal/security"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

// selectFlags describe the profile time box.
type selectFlags struct {
	from, to     string
	time0, time1 time.Duration
}

func addSelectFlags(fs *flag.FlagSet) *selectFlags {
	s := &selectFlags{}
	fs.StringVar(&s.from, "from", "", "First day, YYYY-MM-DD or YYYY:DOY (required)")
	fs.StringVar(&s.to, "to", "", "Last day (default: same as -from)")
	fs.DurationVar(&s.time0, "time0", 0, "Earliest ascent start time of day (UTC)")
	fs.DurationVar(&s.time1, "time1", profile.Day, "Latest ascent start time of day (UTC)")
	return s
}

func (s *selectFlags) box() (profile.TimeBox, error) {
	if s.from == "" {
		return profile.TimeBox{}, fmt.Errorf("%w: -from is required", errUsage)
	}
	d0, err := parseDate(s.from)
	if err != nil {
		return profile.TimeBox{}, err
	}
	d1 := d0
	if s.to != "" {
		if d1, err = parseDate(s.to); err != nil {
			return profile.TimeBox{}, err
		}
	}
	box := profile.TimeBox{Date0: d0, Date1: d1, Time0: s.time0, Time1: s.time1}
	if err := box.Validate(); err != nil {
		return profile.TimeBox{}, err
	}
	return box, nil
}

// outputFlags choose the data source and the rendered output.
type outputFlags struct {
	format string
	outDir string
	csv    bool
}

func addOutputFlags(fs *flag.FlagSet) *outputFlags {
	o := &outputFlags{}
	fs.StringVar(&o.format, "format", "", "Output format: png, svg, html or json (overrides output_format)")
	fs.StringVar(&o.outDir, "out", "", "Output directory (overrides output_dir)")
	fs.BoolVar(&o.csv, "csv", false, "Read sensor data from <data_dir>/<site>/<sensor>.csv instead of the database")
	return o
}

// layerFlags name one sensor and how to slice it.
type layerFlags struct {
	sensor string
	leg    string
	xrange string
}

func addLayerFlags(fs *flag.FlagSet, suffix, defaultSensor string) *layerFlags {
	l := &layerFlags{}
	fs.StringVar(&l.sensor, "sensor"+suffix, defaultSensor, "Sensor key")
	fs.StringVar(&l.leg, "leg"+suffix, "", "Leg: rest, ascent or descent (default: the sensor's usual leg)")
	fs.StringVar(&l.xrange, "range"+suffix, "", "X-axis range lo,hi (default: catalog range)")
	return l
}

// session is the state shared by one chart command.
type session struct {
	cfg     *config.ChartConfig
	store   *db.DB
	source  sensor.Source
	builder *chart.Builder
	site    string
	out     *outputFlags
}

func (a *app) openSession(common *commonFlags, out *outputFlags) (*session, error) {
	cfg, err := a.loadConfig(common)
	if err != nil {
		return nil, err
	}
	cat, err := cfg.Catalog(sensor.DefaultCatalog())
	if err != nil {
		return nil, err
	}
	store, err := a.openDB(cfg)
	if err != nil {
		return nil, err
	}

	b := chart.NewBuilder(cat)
	b.MaxCharts = cfg.GetMaxCharts()
	b.Depth = cfg.GetDepthRange()
	b.BinWidth = cfg.GetEnvelopeBinM()
	b.Site = cfg.GetSite()

	s := &session{cfg: cfg, store: store, source: store, builder: b, site: cfg.GetSite(), out: out}
	if out.csv {
		s.source = sensor.CSVSource{Root: cfg.GetDataDir()}
	}
	return s, nil
}

func (s *session) close() {
	s.store.Close()
}

func (s *session) cycles(ctx context.Context) ([]profile.Cycle, error) {
	cycles, err := s.store.LoadProfiles(ctx, s.site)
	if err != nil {
		return nil, err
	}
	if len(cycles) == 0 {
		return nil, fmt.Errorf("no profiles stored for %s; run import-profiles first", s.site)
	}
	return cycles, nil
}

func (s *session) layer(ctx context.Context, lf *layerFlags) (chart.Layer, error) {
	sn, err := sensor.ParseSensor(lf.sensor)
	if err != nil {
		return chart.Layer{}, err
	}
	leg := sensor.DefaultLeg(sn)
	if lf.leg != "" {
		if leg, err = profile.ParseLeg(lf.leg); err != nil {
			return chart.Layer{}, err
		}
	}
	xr, err := parseRange(lf.xrange)
	if err != nil {
		return chart.Layer{}, err
	}
	pair, err := s.source.LoadPair(ctx, s.site, sn)
	if err != nil {
		return chart.Layer{}, err
	}
	return chart.Layer{Pair: pair, Leg: leg, Range: xr}, nil
}

// save renders fig under a fresh run directory and records the run.
func (a *app) save(ctx context.Context, s *session, fig chart.Figure, sensors []string, profiles int) error {
	format := s.cfg.GetOutputFormat()
	if s.out.format != "" {
		format = s.out.format
	}
	r, err := render.ForFormat(format, s.cfg.GetPanelWidthIn(), s.cfg.GetPanelHeightIn())
	if err != nil {
		return err
	}
	outDir := s.cfg.GetOutputDir()
	if s.out.outDir != "" {
		outDir = s.out.outDir
	}
	path := filepath.Join(render.MakeOutputDir(outDir, s.site, a.clock.Now()), render.FileName(fig.Kind, sensors, format))
	if err := security.ValidateWithinDir(path, outDir); err != nil {
		return err
	}
	if err := render.SaveFigure(a.fsys, r, fig, path); err != nil {
		return err
	}

	run := &db.ChartRun{
		Kind:         fig.Kind,
		Sensors:      sensors,
		Site:         s.site,
		ProfileCount: profiles,
		ChartCount:   fig.Rows(),
		OutputPath:   path,
	}
	if err := s.store.RecordChartRun(ctx, run); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote %s (run %s)\n", path, run.RunID)
	return nil
}

func (a *app) stack(args []string) error {
	fs := flag.NewFlagSet("stack", flag.ContinueOnError)
	common := addCommonFlags(fs)
	out := addOutputFlags(fs)
	sel := addSelectFlags(fs)
	lf := addLayerFlags(fs, "", "")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	box, err := sel.box()
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := a.openSession(common, out)
	if err != nil {
		return err
	}
	defer s.close()
	cycles, err := s.cycles(ctx)
	if err != nil {
		return err
	}
	layer, err := s.layer(ctx, lf)
	if err != nil {
		return err
	}

	selection := chart.Select(cycles, box)
	fig, err := s.builder.SensorStack(selection, layer)
	if err != nil {
		return err
	}
	return a.save(ctx, s, fig, []string{layer.Pair.Sensor.String()}, s.builder.ChartCount(selection.Len()))
}

func (a *app) pair(args []string) error {
	fs := flag.NewFlagSet("pair", flag.ContinueOnError)
	common := addCommonFlags(fs)
	out := addOutputFlags(fs)
	sel := addSelectFlags(fs)
	first := addLayerFlags(fs, "", "")
	second := addLayerFlags(fs, "2", "")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	box, err := sel.box()
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := a.openSession(common, out)
	if err != nil {
		return err
	}
	defer s.close()
	cycles, err := s.cycles(ctx)
	if err != nil {
		return err
	}
	la, err := s.layer(ctx, first)
	if err != nil {
		return err
	}
	lb, err := s.layer(ctx, second)
	if err != nil {
		return err
	}

	selection := chart.Select(cycles, box)
	fig, err := s.builder.PairedStack(selection, la, lb)
	if err != nil {
		return err
	}
	sensors := []string{la.Pair.Sensor.String(), lb.Pair.Sensor.String()}
	return a.save(ctx, s, fig, sensors, s.builder.ChartCount(selection.Len()))
}

func (a *app) bundle(args []string) error {
	fs := flag.NewFlagSet("bundle", flag.ContinueOnError)
	common := addCommonFlags(fs)
	out := addOutputFlags(fs)
	sel := addSelectFlags(fs)
	lf := addLayerFlags(fs, "", "")
	envelope := fs.Bool("envelope", false, "Overlay the per-depth mean and standard deviation")
	start := fs.Int("start", -1, "First profile of a bundle slice (default: bundle the whole selection)")
	size := fs.Int("size", 0, "Bundle slice width (default: bundle_size)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	box, err := sel.box()
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := a.openSession(common, out)
	if err != nil {
		return err
	}
	defer s.close()
	cycles, err := s.cycles(ctx)
	if err != nil {
		return err
	}
	layer, err := s.layer(ctx, lf)
	if err != nil {
		return err
	}

	selection := chart.Select(cycles, box)
	opts := chart.BundleOptions{Envelope: *envelope}
	profiles := selection.Len()
	var fig chart.Figure
	if *start >= 0 {
		width := *size
		if width == 0 {
			width = s.cfg.GetBundleSize()
		}
		fig, err = s.builder.BundleSlice(selection, layer, *start, width, opts)
		profiles = min(width, max(profiles-*start, 0))
	} else {
		fig, err = s.builder.Bundle(selection, layer, opts)
	}
	if err != nil {
		return err
	}
	return a.save(ctx, s, fig, []string{layer.Pair.Sensor.String()}, profiles)
}

func (a *app) timeline(args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ContinueOnError)
	common := addCommonFlags(fs)
	out := addOutputFlags(fs)
	from := fs.String("from", "", "Start, a date or timestamp (required)")
	to := fs.String("to", "", "End, exclusive (default: one day after -from)")
	depthSensor := fs.String("sensor", sensor.Temperature.String(), "Sensor whose depth record is plotted")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *from == "" {
		return fmt.Errorf("%w: -from is required", errUsage)
	}
	t0, err := parseInstant(*from)
	if err != nil {
		return err
	}
	t1 := t0.Add(profile.Day)
	if *to != "" {
		if t1, err = parseInstant(*to); err != nil {
			return err
		}
	}

	ctx := context.Background()
	s, err := a.openSession(common, out)
	if err != nil {
		return err
	}
	defer s.close()
	cycles, err := s.cycles(ctx)
	if err != nil {
		return err
	}
	layer, err := s.layer(ctx, &layerFlags{sensor: *depthSensor})
	if err != nil {
		return err
	}

	fig, err := s.builder.DepthTimeline(layer.Pair.DepthSeries(), cycles, t0, t1)
	if err != nil {
		return err
	}
	return a.save(ctx, s, fig, []string{"depth"}, countStarts(cycles, t0, t1))
}

func (a *app) daily(args []string) error {
	fs := flag.NewFlagSet("daily", flag.ContinueOnError)
	common := addCommonFlags(fs)
	out := addOutputFlags(fs)
	from := fs.String("from", "", "First day, YYYY-MM-DD or YYYY:DOY (required)")
	days := fs.Int("days", 7, "Number of days")
	depthSensor := fs.String("sensor", sensor.Temperature.String(), "Sensor whose depth record is plotted")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *from == "" {
		return fmt.Errorf("%w: -from is required", errUsage)
	}
	day0, err := parseDate(*from)
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := a.openSession(common, out)
	if err != nil {
		return err
	}
	defer s.close()
	layer, err := s.layer(ctx, &layerFlags{sensor: *depthSensor})
	if err != nil {
		return err
	}

	fig, err := s.builder.DailyTimeline(layer.Pair.DepthSeries(), day0, *days)
	if err != nil {
		return err
	}
	profiles := 0
	if cycles, err := s.store.LoadProfiles(ctx, s.site); err == nil {
		profiles = countStarts(cycles, day0, day0.Add(time.Duration(*days)*profile.Day))
	}
	return a.save(ctx, s, fig, []string{"depth"}, profiles)
}

// countStarts is the number of ascents starting in [from, to).
func countStarts(cycles []profile.Cycle, from, to time.Time) int {
	n := 0
	for _, c := range cycles {
		a0 := c.AscentStart.Time
		if !a0.Before(from) && a0.Before(to) {
			n++
		}
	}
	return n
}
