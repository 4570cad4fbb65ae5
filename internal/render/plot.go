package render

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/oceanobs/shallowprofiler/internal/chart"
)

// PlotRenderer draws figures as static PNG or SVG images, tiling panels
// row-major with every panel the same size.
type PlotRenderer struct {
	Format       string // FormatPNG or FormatSVG
	PanelWidth   vg.Length
	PanelHeight  vg.Length
	MarkerRadius vg.Length
}

// NewPlotRenderer returns a renderer with the given panel size in inches.
func NewPlotRenderer(format string, widthIn, heightIn float64) *PlotRenderer {
	return &PlotRenderer{
		Format:       format,
		PanelWidth:   vg.Length(widthIn) * vg.Inch,
		PanelHeight:  vg.Length(heightIn) * vg.Inch,
		MarkerRadius: vg.Points(1.5),
	}
}

// Size is the full canvas size for fig.
func (r *PlotRenderer) Size(fig chart.Figure) (vg.Length, vg.Length) {
	return r.PanelWidth * vg.Length(fig.Cols()), r.PanelHeight * vg.Length(fig.Rows())
}

// Render implements Renderer.
func (r *PlotRenderer) Render(fig chart.Figure, w io.Writer) error {
	if len(fig.Panels) == 0 {
		return ErrEmptyFigure
	}

	rows, cols := fig.Rows(), fig.Cols()
	plots := make([][]*plot.Plot, rows)
	for j := range plots {
		plots[j] = make([]*plot.Plot, cols)
		for i := range plots[j] {
			blank := plot.New()
			blank.HideAxes()
			plots[j][i] = blank
		}
	}
	for k, panel := range fig.Panels {
		p, err := r.panelPlot(panel)
		if err != nil {
			return fmt.Errorf("panel %d: %w", k, err)
		}
		plots[k/cols][k%cols] = p
	}

	width, height := r.Size(fig)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
	}

	switch r.Format {
	case FormatPNG:
		img := vgimg.New(width, height)
		drawTiles(plots, tiles, draw.New(img))
		if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
			return fmt.Errorf("failed to write png: %w", err)
		}
	case FormatSVG:
		svg := vgsvg.New(width, height)
		drawTiles(plots, tiles, draw.New(svg))
		if _, err := svg.WriteTo(w); err != nil {
			return fmt.Errorf("failed to write svg: %w", err)
		}
	default:
		return &UnknownFormatError{Format: r.Format}
	}
	return nil
}

func drawTiles(plots [][]*plot.Plot, tiles draw.Tiles, dc draw.Canvas) {
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}
}

// panelPlot builds one gonum plot. Axis limits are applied after the data
// so out-of-range samples are clipped rather than widening the axes.
func (r *PlotRenderer) panelPlot(panel chart.Panel) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = panel.XLabel
	p.Y.Label.Text = panel.YLabel
	if panel.XTime {
		p.X.Tick.Marker = plot.TimeTicks{Format: "01-02\n15:04"}
	}

	palette := generateColors(len(panel.Traces))
	for i, tr := range panel.Traces {
		pts := finitePoints(tr)
		if len(pts) == 0 {
			continue
		}
		c := palette[i]
		if parsed, err := parseHexColor(tr.Color); err == nil {
			c = parsed
		}

		if tr.Line {
			l, err := plotter.NewLine(pts)
			if err != nil {
				return nil, err
			}
			l.Color = c
			l.Width = vg.Points(1)
			if tr.Dashed {
				l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			}
			p.Add(l)
			continue
		}

		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = c
		s.GlyphStyle.Radius = r.MarkerRadius
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
	}

	if len(panel.Labels) > 0 {
		xyl := plotter.XYLabels{
			XYs:    make(plotter.XYs, len(panel.Labels)),
			Labels: make([]string, len(panel.Labels)),
		}
		for i, l := range panel.Labels {
			xyl.XYs[i] = plotter.XY{X: l.X, Y: l.Y}
			xyl.Labels[i] = l.Text
		}
		labels, err := plotter.NewLabels(xyl)
		if err != nil {
			return nil, err
		}
		p.Add(labels)
	}

	if !panel.X.Empty() {
		p.X.Min, p.X.Max = panel.X.Lo, panel.X.Hi
	}
	if !panel.Y.Empty() {
		p.Y.Min, p.Y.Max = panel.Y.Lo, panel.Y.Hi
	}
	return p, nil
}

// finitePoints drops NaN and infinite samples, which gonum plotters reject.
func finitePoints(tr chart.Trace) plotter.XYs {
	n := len(tr.X)
	if len(tr.Y) < n {
		n = len(tr.Y)
	}
	pts := make(plotter.XYs, 0, n)
	for i := 0; i < n; i++ {
		x, y := tr.X[i], tr.Y[i]
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
	}
	return pts
}

// parseHexColor parses "#rrggbb".
func parseHexColor(s string) (color.RGBA, error) {
	var c color.RGBA
	if len(s) != 7 || s[0] != '#' {
		return c, fmt.Errorf("invalid hex color %q", s)
	}
	if _, err := fmt.Sscanf(s, "#%2x%2x%2x", &c.R, &c.G, &c.B); err != nil {
		return c, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	c.A = 255
	return c, nil
}

// generateColors creates a palette of distinct colors for traces without one.
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	if s == 0 {
		v := uint8(l * 255)
		return v, v, v
	}
	q := l + s - l*s
	if l < 0.5 {
		q = l * (1 + s)
	}
	p := 2*l - q
	return uint8(hueToRGB(p, q, h+1.0/3.0) * 255),
		uint8(hueToRGB(p, q, h) * 255),
		uint8(hueToRGB(p, q, h-1.0/3.0) * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case t < 1.0/6.0:
		return p + (q-p)*6*t
	case t < 1.0/2.0:
		return q
	case t < 2.0/3.0:
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
