// Package chart renders the model comparison as a 2x2 grid of bar charts:
// accuracy, precision, recall and F1 per model.
package chart

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-sod/perfml/internal/report"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

const (
	width  = 14 * vg.Inch
	height = 10 * vg.Inch
)

var ErrNoRows = errors.New("no report rows to chart")

type panel struct {
	title string
	value func(report.Row) float64
}

var panels = []panel{
	{title: "Accuracy", value: func(r report.Row) float64 { return r.Accuracy }},
	{title: "Precision", value: func(r report.Row) float64 { return r.Precision }},
	{title: "Recall", value: func(r report.Row) float64 { return r.Recall }},
	{title: "F1-Score", value: func(r report.Row) float64 { return r.F1 }},
}

// Render writes the PNG chart to path.
func Render(rows []report.Row, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create chart directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	if err := RenderTo(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// RenderTo writes the PNG chart to w.
func RenderTo(w io.Writer, rows []report.Row) error {
	if len(rows) == 0 {
		return ErrNoRows
	}
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Model
	}

	plots := make([][]*plot.Plot, 2)
	for i := range plots {
		plots[i] = make([]*plot.Plot, 2)
	}
	for i, pn := range panels {
		p, err := barPlot(pn, rows, names, i)
		if err != nil {
			return err
		}
		plots[i/2][i%2] = p
	}

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      2,
		PadX:      vg.Millimeter * 6,
		PadY:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 4,
		PadBottom: vg.Millimeter * 4,
		PadLeft:   vg.Millimeter * 4,
		PadRight:  vg.Millimeter * 4,
	}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i := range plots[j] {
			plots[j][i].Draw(canvases[j][i])
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

func barPlot(pn panel, rows []report.Row, names []string, idx int) (*plot.Plot, error) {
	values := make(plotter.Values, len(rows))
	for i, r := range rows {
		values[i] = pn.value(r)
	}
	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("%s bars: %w", pn.title, err)
	}
	bars.Color = plotutil.Color(idx)
	bars.LineStyle.Width = vg.Length(0)

	p := plot.New()
	p.Title.Text = pn.title + " by model"
	p.Y.Label.Text = pn.title + " (%)"
	p.Add(bars, plotter.NewGrid())
	p.NominalX(names...)
	p.Y.Min, p.Y.Max = 0, 100
	return p, nil
}
