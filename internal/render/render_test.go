package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/color"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanobs/shallowprofiler/internal/chart"
	"github.com/oceanobs/shallowprofiler/internal/fsutil"
	"github.com/oceanobs/shallowprofiler/internal/monitoring"
	"github.com/oceanobs/shallowprofiler/internal/profile"
	"github.com/oceanobs/shallowprofiler/internal/sensor"
	"github.com/oceanobs/shallowprofiler/internal/testutil"
)

func quiet(t *testing.T) {
	t.Helper()
	original := monitoring.Logf
	t.Cleanup(func() { monitoring.Logf = original })
	monitoring.SetLogger(nil)
}

// pairFigure is a two-column figure over the first day of fixture data.
func pairFigure(t *testing.T) chart.Figure {
	t.Helper()
	quiet(t)
	day := testutil.Day(2022, time.January, 1)
	cycles := testutil.Cycles(day, 1)
	depth := testutil.DepthSeries(cycles, time.Minute)
	temp := testutil.SensorPair(t, sensor.Temperature, depth, testutil.Linear(10, 0.01))
	do := testutil.SensorPair(t, sensor.DissolvedOxygen, depth, testutil.Linear(250, 0.5))

	b := chart.NewBuilder(sensor.DefaultCatalog())
	fig, err := b.PairedStack(chart.Selection{Cycles: cycles, Indices: []int{3, 8}},
		chart.Layer{Pair: temp, Leg: profile.LegAscent},
		chart.Layer{Pair: do, Leg: profile.LegAscent})
	require.NoError(t, err)
	return fig
}

func timelineFigure(t *testing.T) chart.Figure {
	t.Helper()
	quiet(t)
	day := testutil.Day(2022, time.January, 1)
	cycles := testutil.Cycles(day, 2)
	depth := testutil.DepthSeries(cycles, 5*time.Minute)
	fig, err := chart.NewBuilder(sensor.DefaultCatalog()).DepthTimeline(depth, cycles, day, day.AddDate(0, 0, 2))
	require.NoError(t, err)
	return fig
}

func TestPlotRenderer_PNG(t *testing.T) {
	r := NewPlotRenderer(FormatPNG, 4, 2)
	var buf bytes.Buffer
	require.NoError(t, r.Render(pairFigure(t), &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "png signature")

	w, h := r.Size(pairFigure(t))
	assert.InDelta(t, 8*72, float64(w), 1e-9)
	assert.InDelta(t, 4*72, float64(h), 1e-9)
}

func TestPlotRenderer_SVGTimeline(t *testing.T) {
	r := NewPlotRenderer(FormatSVG, 8, 2.5)
	var buf bytes.Buffer
	require.NoError(t, r.Render(timelineFigure(t), &buf))
	out := buf.String()
	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "midnight")
	assert.Contains(t, out, "noon")
}

func TestPlotRenderer_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, NewPlotRenderer(FormatPNG, 4, 2).Render(chart.Figure{}, &buf), ErrEmptyFigure)

	err := NewPlotRenderer("gif", 4, 2).Render(pairFigure(t), &buf)
	var unknown *UnknownFormatError
	assert.True(t, errors.As(err, &unknown))
}

func TestHTMLRenderer(t *testing.T) {
	r := NewHTMLRenderer(8, 2.5)
	assert.Equal(t, 768, r.PanelWidth)
	assert.Equal(t, 240, r.PanelHeight)

	var buf bytes.Buffer
	require.NoError(t, r.Render(pairFigure(t), &buf))
	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "echarts")
	assert.Contains(t, out, "Temperature (deg C) (red)")
	assert.Contains(t, out, "MIDNIGHT local")

	buf.Reset()
	require.NoError(t, r.Render(timelineFigure(t), &buf))
	assert.Contains(t, buf.String(), `"time"`)
}

func TestJSONRenderer(t *testing.T) {
	fig := pairFigure(t)
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(fig, &buf))

	var back chart.Figure
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	if diff := cmp.Diff(fig, back); diff != "" {
		t.Errorf("figure mismatch (-want +got):\n%s", diff)
	}
}

func TestForFormat(t *testing.T) {
	for _, f := range Formats {
		r, err := ForFormat(strings.ToUpper(f), 8, 2.5)
		require.NoError(t, err, f)
		assert.NotNil(t, r)
	}
	_, err := ForFormat("pdf", 8, 2.5)
	var unknown *UnknownFormatError
	require.True(t, errors.As(err, &unknown))
	assert.Contains(t, err.Error(), "png, svg, html, json")
}

func TestSaveFigure(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	path := filepath.Join("plots", "osb", "pair_temperature_do.json")
	require.NoError(t, SaveFigure(mfs, JSONRenderer{}, pairFigure(t), path))

	data, err := mfs.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	err = SaveFigure(mfs, JSONRenderer{}, chart.Figure{}, filepath.Join("plots", "empty.json"))
	assert.ErrorIs(t, err, ErrEmptyFigure)
}

func TestOutputNames(t *testing.T) {
	at := time.Date(2022, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "20220102_030405", FormatTimestamp(at))
	assert.Equal(t, filepath.Join("plots", "osb", "20220102_030405"), MakeOutputDir("plots", "osb", at))
	assert.Equal(t, filepath.Join("plots", "20220102_030405"), MakeOutputDir("plots", "", at))
	assert.Equal(t, "pair_temperature_do.svg", FileName("pair", []string{"temperature", "do"}, "SVG"))
	assert.Equal(t, "stack_a_b.png", FileName("stack", []string{"a/b"}, "png"))
	assert.Equal(t, filepath.Join("plots", "x_y", "20220102_030405"), MakeOutputDir("plots", "../x/y", at))
}

func TestParseHexColor(t *testing.T) {
	c, err := parseHexColor("#8f1402")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 0x8f, G: 0x14, B: 0x02, A: 255}, c)

	for _, bad := range []string{"", "red", "#12345", "#zzzzzz"} {
		_, err := parseHexColor(bad)
		assert.Error(t, err, bad)
	}
}

func TestGenerateColors(t *testing.T) {
	assert.Nil(t, generateColors(0))
	colors := generateColors(3)
	require.Len(t, colors, 3)
	assert.NotEqual(t, colors[0], colors[1])

	r, g, b := hslToRGB(0, 0, 0.5)
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestFinitePoints(t *testing.T) {
	tr := chart.Trace{X: []float64{1, math.NaN(), 3, 4}, Y: []float64{-1, -2, math.Inf(-1), -4}}
	pts := finitePoints(tr)
	require.Len(t, pts, 2)
	assert.Equal(t, 4.0, pts[1].X)
}

func TestJSONRendererDropsNaN(t *testing.T) {
	fig := chart.Figure{Kind: chart.KindBundle, Panels: []chart.Panel{{
		Traces: []chart.Trace{{Name: "t", X: []float64{1, math.NaN(), 3}, Y: []float64{-1, -2, math.Inf(-1)}}},
	}}}
	var buf bytes.Buffer
	require.NoError(t, JSONRenderer{}.Render(fig, &buf))

	var back chart.Figure
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, []float64{1}, back.Panels[0].Traces[0].X)
	assert.Equal(t, []float64{-1}, back.Panels[0].Traces[0].Y)
	assert.True(t, math.IsNaN(fig.Panels[0].Traces[0].X[1]), "input is not modified")
}
