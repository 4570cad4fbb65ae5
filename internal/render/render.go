// Package render draws chart figures. Static images go through gonum/plot
// and interactive pages through go-echarts.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/oceanobs/shallowprofiler/internal/chart"
	"github.com/oceanobs/shallowprofiler/internal/fsutil"
	"github.com/oceanobs/shallowprofiler/internal/security"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatSVG  = "svg"
	FormatHTML = "html"
	FormatJSON = "json"
)

// Formats lists every supported output format.
var Formats = []string{FormatPNG, FormatSVG, FormatHTML, FormatJSON}

// ErrEmptyFigure is returned for figures without panels.
var ErrEmptyFigure = errors.New("figure has no panels")

// UnknownFormatError reports an unsupported output format.
type UnknownFormatError struct {
	Format string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown output format %q (want one of %s)", e.Format, strings.Join(Formats, ", "))
}

// Renderer writes a figure to w.
type Renderer interface {
	Render(fig chart.Figure, w io.Writer) error
}

// ForFormat returns the renderer for format with panels of the given size
// in inches.
func ForFormat(format string, widthIn, heightIn float64) (Renderer, error) {
	switch strings.ToLower(format) {
	case FormatPNG:
		return NewPlotRenderer(FormatPNG, widthIn, heightIn), nil
	case FormatSVG:
		return NewPlotRenderer(FormatSVG, widthIn, heightIn), nil
	case FormatHTML:
		return NewHTMLRenderer(widthIn, heightIn), nil
	case FormatJSON:
		return JSONRenderer{Indent: "  "}, nil
	}
	return nil, &UnknownFormatError{Format: format}
}

// JSONRenderer writes the figure model itself, for inspection or for
// plotting elsewhere. JSON has no NaN, so non-finite points are dropped.
type JSONRenderer struct {
	Indent string
}

// Render implements Renderer.
func (r JSONRenderer) Render(fig chart.Figure, w io.Writer) error {
	if len(fig.Panels) == 0 {
		return ErrEmptyFigure
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", r.Indent)
	return enc.Encode(finiteFigure(fig))
}

// finiteFigure copies fig with every trace reduced to its finite points.
func finiteFigure(fig chart.Figure) chart.Figure {
	out := fig
	out.Panels = make([]chart.Panel, len(fig.Panels))
	for i, p := range fig.Panels {
		p.Traces = make([]chart.Trace, len(fig.Panels[i].Traces))
		for j, tr := range fig.Panels[i].Traces {
			pts := finitePoints(tr)
			tr.X = make([]float64, len(pts))
			tr.Y = make([]float64, len(pts))
			for k, pt := range pts {
				tr.X[k], tr.Y[k] = pt.X, pt.Y
			}
			p.Traces[j] = tr
		}
		out.Panels[i] = p
	}
	return out
}

// SaveFigure renders fig to path, creating the parent directory.
func SaveFigure(fsys fsutil.FileSystem, r Renderer, fig chart.Figure, path string) (err error) {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := r.Render(fig, f); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

// FormatTimestamp generates a timestamp string for directory naming.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("20060102_150405")
}

// MakeOutputDir returns a timestamped directory for one run's charts:
// <baseDir>/<site>/<timestamp>, or <baseDir>/<timestamp> without a site.
func MakeOutputDir(baseDir, site string, now time.Time) string {
	ts := FormatTimestamp(now)
	if site != "" {
		return filepath.Join(baseDir, security.SanitizeName(site), ts)
	}
	return filepath.Join(baseDir, ts)
}

// FileName builds a chart file name from its kind, the sensors it shows
// and the output format.
func FileName(kind string, sensors []string, format string) string {
	parts := make([]string, 0, len(sensors)+1)
	parts = append(parts, security.SanitizeName(kind))
	for _, s := range sensors {
		parts = append(parts, security.SanitizeName(s))
	}
	return strings.Join(parts, "_") + "." + strings.ToLower(format)
}
