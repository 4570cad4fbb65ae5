package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanobs/shallowprofiler/internal/sensor"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	cfg := EmptyChartConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 100, cfg.GetMaxCharts())
	assert.Equal(t, sensor.Range{Lo: -200, Hi: 0}, cfg.GetDepthRange())
	assert.Equal(t, 8.0, cfg.GetPanelWidthIn())
	assert.Equal(t, 2.5, cfg.GetPanelHeightIn())
	assert.Equal(t, "png", cfg.GetOutputFormat())
	assert.Equal(t, "plots", cfg.GetOutputDir())
	assert.Equal(t, "profiler.db", cfg.GetDBPath())
	assert.Equal(t, "data", cfg.GetDataDir())
	assert.Equal(t, "osb", cfg.GetSite())
	assert.Equal(t, 5.0, cfg.GetEnvelopeBinM())
	assert.Equal(t, 20, cfg.GetBundleSize())
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptyChartConfig()
	assert.Equal(t, empty.GetMaxCharts(), cfg.GetMaxCharts())
	assert.Equal(t, empty.GetDepthRange(), cfg.GetDepthRange())
	assert.Equal(t, empty.GetOutputFormat(), cfg.GetOutputFormat())
	assert.Equal(t, empty.GetBundleSize(), cfg.GetBundleSize())
	assert.Equal(t, empty.GetSite(), cfg.GetSite())
}

func TestLoadChartConfigPartial(t *testing.T) {
	path := writeConfig(t, "charts.json", `{"max_charts": 12, "output_format": "SVG", "sensor_ranges": {"temp": [6, 12]}}`)
	cfg, err := LoadChartConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.GetMaxCharts())
	assert.Equal(t, "svg", cfg.GetOutputFormat())
	assert.Equal(t, -200.0, cfg.GetDepthMin())

	cat, err := cfg.Catalog(sensor.DefaultCatalog())
	require.NoError(t, err)
	info, _ := cat.Info(sensor.Temperature)
	assert.Equal(t, sensor.Range{Lo: 6, Hi: 12}, info.Range)
}

func TestLoadChartConfigErrors(t *testing.T) {
	_, err := LoadChartConfig(writeConfig(t, "charts.yaml", "{}"))
	assert.ErrorContains(t, err, ".json extension")

	_, err = LoadChartConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "failed to stat")

	_, err = LoadChartConfig(writeConfig(t, "bad.json", "{not json"))
	assert.ErrorContains(t, err, "failed to parse")

	big := `{"output_dir": "` + strings.Repeat("x", maxFileSize) + `"}`
	_, err = LoadChartConfig(writeConfig(t, "big.json", big))
	assert.ErrorContains(t, err, "too large")

	_, err = LoadChartConfig(writeConfig(t, "invalid.json", `{"max_charts": 0}`))
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ChartConfig
		wantErr string
	}{
		{"max charts", ChartConfig{MaxCharts: ptrInt(0)}, "max_charts"},
		{"depth order", ChartConfig{DepthMin: ptrFloat64(0), DepthMax: ptrFloat64(-200)}, "depth_min"},
		{"depth only min", ChartConfig{DepthMin: ptrFloat64(10)}, "depth_min"},
		{"panel width", ChartConfig{PanelWidthIn: ptrFloat64(0)}, "panel_width_in"},
		{"panel height", ChartConfig{PanelHeightIn: ptrFloat64(-1)}, "panel_height_in"},
		{"format", ChartConfig{OutputFormat: ptrString("pdf")}, "output_format"},
		{"bin width", ChartConfig{EnvelopeBinM: ptrFloat64(0)}, "envelope_bin_m"},
		{"bundle size", ChartConfig{BundleSize: ptrInt(0)}, "bundle_size"},
		{"site", ChartConfig{Site: ptrString("atlantis")}, "unknown site"},
		{"range sensor", ChartConfig{SensorRanges: map[string][2]float64{"salt": {0, 1}}}, "sensor_ranges"},
		{"range order", ChartConfig{SensorRanges: map[string][2]float64{"ph": {8, 7}}}, "sensor_ranges[ph]"},
		{"valid", ChartConfig{MaxCharts: ptrInt(5), OutputFormat: ptrString("html"), Site: ptrString("AXB")}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestCatalogUnknownSensor(t *testing.T) {
	cfg := &ChartConfig{SensorRanges: map[string][2]float64{"nope": {0, 1}}}
	_, err := cfg.Catalog(sensor.DefaultCatalog())
	assert.Error(t, err)
}
