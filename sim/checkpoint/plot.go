package checkpoint

import (
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// maxRegionCurves bounds how many per-region infected curves PlotSIR draws
// next to the totals.
const maxRegionCurves = 8

var regionCurveColor = drawing.Color{R: 160, G: 160, B: 160, A: 255}

// PlotSIR renders the summed S, I and R curves of all regions as a PNG,
// plus the infected curve of each region when there are few of them.
func PlotSIR(w io.Writer, series []RegionSeries) error {
	if len(series) == 0 || len(series[0].Records) < 2 {
		return fmt.Errorf("plot: need at least one region with two or more days")
	}
	days := len(series[0].Records)
	xs := make([]float64, days)
	s, i, r := make([]float64, days), make([]float64, days), make([]float64, days)
	for d := range xs {
		xs[d] = float64(d)
	}
	for _, rs := range series {
		if len(rs.Records) != days {
			return fmt.Errorf("plot: region %d has %d days, want %d", rs.Region, len(rs.Records), days)
		}
		for d, rec := range rs.Records {
			s[d] += rec.S
			i[d] += rec.I
			r[d] += rec.R
		}
	}

	curves := []chart.Series{
		chart.ContinuousSeries{Name: "Susceptible", XValues: xs, YValues: s,
			Style: chart.Style{StrokeColor: chart.ColorBlue, StrokeWidth: 3.0}},
		chart.ContinuousSeries{Name: "Infected", XValues: xs, YValues: i,
			Style: chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 3.0}},
		chart.ContinuousSeries{Name: "Recovered", XValues: xs, YValues: r,
			Style: chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 3.0}},
	}
	if len(series) <= maxRegionCurves && len(series) > 1 {
		for _, rs := range series {
			ys := make([]float64, days)
			for d, rec := range rs.Records {
				ys[d] = rec.I
			}
			curves = append(curves, chart.ContinuousSeries{
				Name: fmt.Sprintf("I region %d", rs.Region), XValues: xs, YValues: ys,
				Style: chart.Style{StrokeColor: regionCurveColor, StrokeWidth: 1.0},
			})
		}
	}

	graph := chart.Chart{
		Title:  "SIR",
		Width:  1024,
		Height: 512,
		XAxis: chart.XAxis{
			Name:  "Day",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis:  chart.YAxis{Name: "Population", Style: chart.Style{FontSize: 10.0}},
		Series: curves,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}
	return graph.Render(chart.PNG, w)
}

// PlotGrowth renders the occupied-cell count of a grid run as a PNG.
func PlotGrowth(w io.Writer, rows []CountRow) error {
	if len(rows) < 2 {
		return fmt.Errorf("plot: need at least two metrics rows, got %d", len(rows))
	}
	xs := make([]float64, len(rows))
	ys := make([]float64, len(rows))
	for k, row := range rows {
		xs[k] = float64(row.Iteration)
		ys[k] = float64(row.Count)
	}
	graph := chart.Chart{
		Title:  "Occupied cells",
		Width:  1024,
		Height: 512,
		XAxis: chart.XAxis{
			Name:  "Iteration",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{Name: "Cells", Style: chart.Style{FontSize: 10.0}},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: "CellCount", XValues: xs, YValues: ys,
				Style: chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 3.0}},
		},
	}
	return graph.Render(chart.PNG, w)
}

// SavePlot creates path and renders into it.
func SavePlot(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}
	if err := render(f); err != nil {
		f.Close()
		return fmt.Errorf("render plot %s: %w", path, err)
	}
	return f.Close()
}
