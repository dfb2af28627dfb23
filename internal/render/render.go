// ABOUTME: Renders the smoothed DoDH curve into a PNG chart
// ABOUTME: In-memory go-chart line plot, stored alongside the numeric result

// Package render draws the result chart for a processed measurement series.
//
// The chart is a single line plot of smoothed DoDH over time on stream,
// rendered to PNG bytes in memory. Callers persist or serve the bytes; this
// package never touches disk.
package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
)

// Canvas size in pixels. Wide enough that a full run (typically a few dozen
// samples) does not crowd the x axis.
const (
	chartWidth  = 900
	chartHeight = 540
)

// ErrNoData is returned when there are no points to plot.
var ErrNoData = errors.New("no points to plot")

// Render draws smoothed DoDH against time on stream and returns the PNG
// bytes. Both slices must be the same length and non-empty.
func Render(timeOnStream, smoothed []float64) ([]byte, error) {
	if len(timeOnStream) != len(smoothed) {
		return nil, fmt.Errorf("series length mismatch: %d time values, %d DoDH values", len(timeOnStream), len(smoothed))
	}
	if len(timeOnStream) == 0 {
		return nil, ErrNoData
	}

	ch := chart.Chart{
		Title:      "DoDH Over Time",
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 24}},
		Width:      chartWidth,
		Height:     chartHeight,
		XAxis:      chart.XAxis{Name: "Time on stream (h)"},
		YAxis:      chart.YAxis{Name: "DoDH (%)", Range: yRange(smoothed)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Smoothed DoDH",
				XValues: timeOnStream,
				YValues: smoothed,
				Style: chart.Style{
					StrokeWidth: 2,
					StrokeColor: chart.ColorBlue,
				},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("rendering chart: %w", err)
	}
	return buf.Bytes(), nil
}

// yRange pads a flat series. A zero-span axis breaks go-chart's tick
// generation, and a stable run of measurements can legitimately come out
// flat after smoothing.
func yRange(values []float64) chart.Range {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max > min {
		return &chart.ContinuousRange{Min: min, Max: max}
	}
	return &chart.ContinuousRange{Min: min - 1, Max: max + 1}
}
