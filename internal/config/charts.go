// Package config loads the chart tool's JSON configuration. Every field is
// optional; the Get* methods supply the built-in default for unset fields.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

// DefaultConfigPath is the path to the canonical chart defaults file.
const DefaultConfigPath = "config/charts.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Built-in defaults.
const (
	DefaultMaxCharts     = 100
	DefaultDepthMin      = -200.0
	DefaultDepthMax      = 0.0
	DefaultPanelWidthIn  = 8.0
	DefaultPanelHeightIn = 2.5
	DefaultOutputFormat  = "png"
	DefaultOutputDir     = "plots"
	DefaultDBPath        = "profiler.db"
	DefaultDataDir       = "data"
	DefaultSite          = "osb"
	DefaultEnvelopeBinM  = 5.0
	DefaultBundleSize    = 20
)

var outputFormats = []string{"png", "svg", "html", "json"}

// ChartConfig is the root configuration.
type ChartConfig struct {
	MaxCharts     *int     `json:"max_charts,omitempty"`
	DepthMin      *float64 `json:"depth_min,omitempty"`
	DepthMax      *float64 `json:"depth_max,omitempty"`
	PanelWidthIn  *float64 `json:"panel_width_in,omitempty"`
	PanelHeightIn *float64 `json:"panel_height_in,omitempty"`

	OutputFormat *string `json:"output_format,omitempty"`
	OutputDir    *string `json:"output_dir,omitempty"`
	DBPath       *string `json:"db_path,omitempty"`
	DataDir      *string `json:"data_dir,omitempty"`
	Site         *string `json:"site,omitempty"`

	EnvelopeBinM *float64 `json:"envelope_bin_m,omitempty"`
	BundleSize   *int     `json:"bundle_size,omitempty"`

	// SensorRanges overrides catalog x-axis ranges, keyed by sensor key.
	SensorRanges map[string][2]float64 `json:"sensor_ranges,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyChartConfig returns a ChartConfig with every field unset.
func EmptyChartConfig() *ChartConfig {
	return &ChartConfig{}
}

// LoadChartConfig loads and validates a ChartConfig from a JSON file no
// larger than 1MB. Omitted fields keep their defaults.
func LoadChartConfig(path string) (*ChartConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyChartConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory or
// one of its parents. It panics on failure and is meant for test setup.
func MustLoadDefaultConfig() *ChartConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadChartConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *ChartConfig) Validate() error {
	if c.MaxCharts != nil && *c.MaxCharts < 1 {
		return fmt.Errorf("max_charts must be at least 1, got %d", *c.MaxCharts)
	}
	if lo, hi := c.GetDepthMin(), c.GetDepthMax(); lo >= hi {
		return fmt.Errorf("depth_min must be below depth_max, got %g >= %g", lo, hi)
	}
	if c.PanelWidthIn != nil && *c.PanelWidthIn <= 0 {
		return fmt.Errorf("panel_width_in must be positive, got %g", *c.PanelWidthIn)
	}
	if c.PanelHeightIn != nil && *c.PanelHeightIn <= 0 {
		return fmt.Errorf("panel_height_in must be positive, got %g", *c.PanelHeightIn)
	}
	if c.OutputFormat != nil && !validFormat(*c.OutputFormat) {
		return fmt.Errorf("output_format must be one of %s, got %q", strings.Join(outputFormats, ", "), *c.OutputFormat)
	}
	if c.EnvelopeBinM != nil && *c.EnvelopeBinM <= 0 {
		return fmt.Errorf("envelope_bin_m must be positive, got %g", *c.EnvelopeBinM)
	}
	if c.BundleSize != nil && *c.BundleSize < 1 {
		return fmt.Errorf("bundle_size must be at least 1, got %d", *c.BundleSize)
	}
	if c.Site != nil {
		if _, err := sensor.LookupSite(*c.Site); err != nil {
			return err
		}
	}

	keys := make([]string, 0, len(c.SensorRanges))
	for k := range c.SensorRanges {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := sensor.ParseSensor(k); err != nil {
			return fmt.Errorf("sensor_ranges: %w", err)
		}
		if r := c.SensorRanges[k]; r[0] >= r[1] {
			return fmt.Errorf("sensor_ranges[%s]: low %g must be below high %g", k, r[0], r[1])
		}
	}
	return nil
}

func validFormat(f string) bool {
	for _, v := range outputFormats {
		if strings.EqualFold(f, v) {
			return true
		}
	}
	return false
}

// GetMaxCharts returns the max_charts value or the default.
func (c *ChartConfig) GetMaxCharts() int {
	if c.MaxCharts == nil {
		return DefaultMaxCharts
	}
	return *c.MaxCharts
}

// GetDepthMin returns the depth_min value or the default.
func (c *ChartConfig) GetDepthMin() float64 {
	if c.DepthMin == nil {
		return DefaultDepthMin
	}
	return *c.DepthMin
}

// GetDepthMax returns the depth_max value or the default.
func (c *ChartConfig) GetDepthMax() float64 {
	if c.DepthMax == nil {
		return DefaultDepthMax
	}
	return *c.DepthMax
}

// GetDepthRange returns the depth axis as a range.
func (c *ChartConfig) GetDepthRange() sensor.Range {
	return sensor.Range{Lo: c.GetDepthMin(), Hi: c.GetDepthMax()}
}

// GetPanelWidthIn returns the panel_width_in value or the default.
func (c *ChartConfig) GetPanelWidthIn() float64 {
	if c.PanelWidthIn == nil {
		return DefaultPanelWidthIn
	}
	return *c.PanelWidthIn
}

// GetPanelHeightIn returns the panel_height_in value or the default.
func (c *ChartConfig) GetPanelHeightIn() float64 {
	if c.PanelHeightIn == nil {
		return DefaultPanelHeightIn
	}
	return *c.PanelHeightIn
}

// GetOutputFormat returns the lower-cased output_format or the default.
func (c *ChartConfig) GetOutputFormat() string {
	if c.OutputFormat == nil || *c.OutputFormat == "" {
		return DefaultOutputFormat
	}
	return strings.ToLower(*c.OutputFormat)
}

// GetOutputDir returns the output_dir value or the default.
func (c *ChartConfig) GetOutputDir() string {
	if c.OutputDir == nil || *c.OutputDir == "" {
		return DefaultOutputDir
	}
	return *c.OutputDir
}

// GetDBPath returns the db_path value or the default.
func (c *ChartConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return DefaultDBPath
	}
	return *c.DBPath
}

// GetDataDir returns the data_dir value or the default.
func (c *ChartConfig) GetDataDir() string {
	if c.DataDir == nil || *c.DataDir == "" {
		return DefaultDataDir
	}
	return *c.DataDir
}

// GetSite returns the site value or the default.
func (c *ChartConfig) GetSite() string {
	if c.Site == nil || *c.Site == "" {
		return DefaultSite
	}
	return strings.ToLower(*c.Site)
}

// GetEnvelopeBinM returns the envelope_bin_m value or the default.
func (c *ChartConfig) GetEnvelopeBinM() float64 {
	if c.EnvelopeBinM == nil {
		return DefaultEnvelopeBinM
	}
	return *c.EnvelopeBinM
}

// GetBundleSize returns the bundle_size value or the default.
func (c *ChartConfig) GetBundleSize() int {
	if c.BundleSize == nil {
		return DefaultBundleSize
	}
	return *c.BundleSize
}

// Catalog applies SensorRanges to base. Keys are validated by Validate;
// unknown keys here are an error as well.
func (c *ChartConfig) Catalog(base sensor.Catalog) (sensor.Catalog, error) {
	cat := base
	for k, r := range c.SensorRanges {
		s, err := sensor.ParseSensor(k)
		if err != nil {
			return sensor.Catalog{}, fmt.Errorf("sensor_ranges: %w", err)
		}
		cat = cat.WithRange(s, sensor.Range{Lo: r[0], Hi: r[1]})
	}
	return cat, nil
}
