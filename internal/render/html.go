package render

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/oceanobs/shallowprofiler/internal/chart"
)

// HTMLRenderer writes a figure as an interactive page with one echarts
// scatter chart per panel. Panel labels become the chart subtitle.
type HTMLRenderer struct {
	PanelWidth  int // pixels
	PanelHeight int // pixels
	AssetsHost  string
}

// NewHTMLRenderer converts a panel size in inches to pixels at 96 dpi.
func NewHTMLRenderer(widthIn, heightIn float64) *HTMLRenderer {
	return &HTMLRenderer{
		PanelWidth:  int(math.Round(widthIn * 96)),
		PanelHeight: int(math.Round(heightIn * 96)),
	}
}

// Render implements Renderer.
func (r *HTMLRenderer) Render(fig chart.Figure, w io.Writer) error {
	if len(fig.Panels) == 0 {
		return ErrEmptyFigure
	}
	page := components.NewPage()
	if r.AssetsHost != "" {
		page.SetAssetsHost(r.AssetsHost)
	}
	for _, panel := range fig.Panels {
		page.AddCharts(r.panelChart(fig.Title, panel))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	return nil
}

func (r *HTMLRenderer) panelChart(pageTitle string, panel chart.Panel) *charts.Scatter {
	xScale := 1.0
	xAxis := opts.XAxis{Name: panel.XLabel, NameLocation: "middle", NameGap: 25}
	if panel.XTime {
		// echarts time axes take milliseconds
		xScale = 1000
		xAxis.Type = "time"
	}
	if !panel.X.Empty() {
		xAxis.Min = panel.X.Lo * xScale
		xAxis.Max = panel.X.Hi * xScale
	}
	yAxis := opts.YAxis{Name: panel.YLabel, NameLocation: "middle", NameGap: 40}
	if !panel.Y.Empty() {
		yAxis.Min = panel.Y.Lo
		yAxis.Max = panel.Y.Hi
	}

	labels := make([]string, len(panel.Labels))
	for i, l := range panel.Labels {
		labels[i] = l.Text
	}

	init := opts.Initialization{
		PageTitle: pageTitle,
		Width:     fmt.Sprintf("%dpx", r.PanelWidth),
		Height:    fmt.Sprintf("%dpx", r.PanelHeight),
	}
	if r.AssetsHost != "" {
		init.AssetsHost = r.AssetsHost
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(init),
		charts.WithTitleOpts(opts.Title{Title: panel.Title, Subtitle: strings.Join(labels, "\n")}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(xAxis),
		charts.WithYAxisOpts(yAxis),
	)

	for _, tr := range panel.Traces {
		pts := finitePoints(tr)
		data := make([]opts.ScatterData, len(pts))
		for i, p := range pts {
			data[i] = opts.ScatterData{Value: []interface{}{p.X * xScale, p.Y}}
		}
		size := 4
		if tr.Line {
			size = 2
		}
		series := []charts.SeriesOpts{charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: size})}
		if tr.Color != "" {
			series = append(series, charts.WithItemStyleOpts(opts.ItemStyle{Color: tr.Color}))
		}
		scatter.AddSeries(tr.Name, data, series...)
	}
	return scatter
}
