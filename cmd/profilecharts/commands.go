package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/config"
	"github.com/oceanobs/shallowprofiler/internal/db"
	"github.com/oceanobs/shallowprofiler/internal/fsutil"
	"github.com/oceanobs/shallowprofiler/internal/profile"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
	"github.com/oceanobs/shallowprofiler/internal/timeutil"
	"github.com/oceanobs/shallowprofiler/internal/units"
	"github.com/oceanobs/shallowprofiler/internal/version"
)

// errUsage marks a command line that could not be parsed. The flag package
// has already printed the details.
var errUsage = errors.New("invalid arguments")

type app struct {
	out   io.Writer
	fsys  fsutil.FileSystem
	clock timeutil.Clock
}

func newApp(out io.Writer) *app {
	return &app{out: out, fsys: fsutil.OSFileSystem{}, clock: timeutil.RealClock{}}
}

func (a *app) run(command string, args []string) error {
	switch command {
	case "import-profiles":
		return a.importProfiles(args)
	case "import-sensor":
		return a.importSensor(args)
	case "import-spectral":
		return a.importSpectral(args)
	case "stack":
		return a.stack(args)
	case "pair":
		return a.pair(args)
	case "bundle":
		return a.bundle(args)
	case "timeline":
		return a.timeline(args)
	case "daily":
		return a.daily(args)
	case "runs":
		return a.runs(args)
	case "migrate":
		return a.migrate(args)
	case "version":
		fmt.Fprintln(a.out, version.String())
		return nil
	case "help":
		printUsage(a.out)
		return nil
	}
	printUsage(a.out)
	return fmt.Errorf("unknown command: %s", command)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `profilecharts - shallow profiler diagnostic charts

Usage: profilecharts <command> [options]

Commands:
  import-profiles  Load a profile metadata CSV into the database
  import-sensor    Load a sensor time,value,depth CSV into the database
  import-spectral  Split a spectral irradiance CSV into per-wavelength series
  stack            One chart per selected profile for a sensor
  pair             Two sensors side by side per selected profile
  bundle           All selected profiles overlaid on one chart
  timeline         Profiler depth against time
  daily            Profiler depth against time, one row per day
  runs             List recorded chart runs
  migrate          Manage database schema migrations
  version          Show version information
  help             Show this help message

Common Flags:
  -config <file>   Chart configuration (default config/charts.defaults.json if present)
  -db <path>       Database path (overrides db_path)
  -site <key>      Site: osb, axb or oos (overrides site)

Dates are YYYY-MM-DD or YYYY:DOY (day of year). Times of day are
durations since midnight UTC, e.g. 7h10m.

Examples:
  profilecharts import-profiles -file osb_profiles_2021.csv
  profilecharts stack -sensor temperature -from 2021-03-01 -to 2021-03-01
  profilecharts bundle -sensor ph -from 2021:060 -to 2021:090 -time0 7h -time1 8h -envelope
  profilecharts migrate status
`)
}

// commonFlags are accepted by every command that touches the database.
type commonFlags struct {
	configPath string
	dbPath     string
	site       string
}

func addCommonFlags(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.configPath, "config", "", "Chart configuration JSON file")
	fs.StringVar(&c.dbPath, "db", "", "Database path (overrides db_path)")
	fs.StringVar(&c.site, "site", "", "Site key (overrides site)")
	return c
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// loadConfig reads the chart configuration and applies flag overrides.
func (a *app) loadConfig(c *commonFlags) (*config.ChartConfig, error) {
	cfg := config.EmptyChartConfig()
	path := c.configPath
	if path == "" && a.fsys.Exists(config.DefaultConfigPath) {
		path = config.DefaultConfigPath
	}
	if path != "" {
		loaded, err := config.LoadChartConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.dbPath != "" {
		cfg.DBPath = &c.dbPath
	}
	if c.site != "" {
		cfg.Site = &c.site
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) openDB(cfg *config.ChartConfig) (*db.DB, error) {
	store, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		return nil, err
	}
	store.Clock = a.clock
	return store, nil
}

func (a *app) migrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := a.loadConfig(common)
	if err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), cfg.GetDBPath(), a.out)
}

func (a *app) runs(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "Number of runs to list (0 for all)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	cfg, err := a.loadConfig(common)
	if err != nil {
		return err
	}
	store, err := a.openDB(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListChartRuns(context.Background(), *limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(a.out, "%s  %s  %-8s %-4s %-28s profiles=%-4d charts=%-4d %s\n",
			r.RunID, r.CreatedAt.Format(time.RFC3339), r.Kind, r.Site,
			strings.Join(r.Sensors, ","), r.ProfileCount, r.ChartCount, r.OutputPath)
	}
	return nil
}

// parseDate accepts YYYY-MM-DD or YYYY:DOY.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if year, doy, ok := strings.Cut(s, ":"); ok {
		y, err := strconv.Atoi(year)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid year in %q: %w", s, err)
		}
		d, err := strconv.Atoi(doy)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day of year in %q: %w", s, err)
		}
		return units.DateFromDayOfYear(y, d)
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or YYYY:DOY", s)
	}
	return t, nil
}

// parseInstant accepts a full timestamp or a date.
func parseInstant(s string) (time.Time, error) {
	if t, err := profile.ParseTime(s); err == nil {
		return t, nil
	}
	return parseDate(s)
}

// parseRange reads "lo,hi" into a range; an empty string is no override.
func parseRange(s string) (*sensor.Range, error) {
	if s == "" {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(s, ",")
	if !ok {
		return nil, fmt.Errorf("invalid range %q: want lo,hi", s)
	}
	l, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid range low %q: %w", lo, err)
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid range high %q: %w", hi, err)
	}
	if h <= l {
		return nil, &profile.InvalidRangeError{Field: "x range", Lo: lo, Hi: hi}
	}
	return &sensor.Range{Lo: l, Hi: h}, nil
}
