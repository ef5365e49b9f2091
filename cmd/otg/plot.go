package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sevenphase/otg/internal/sim"
)

// plot runs the motion and renders one line chart per kinematic quantity,
// with one series per axis, onto a single HTML page.
func plot(data []byte, outputPath string) error {
	var input sim.Input
	if err := json.Unmarshal(data, &input); err != nil {
		return fmt.Errorf("invalid input JSON: %w", err)
	}
	log, err := sim.Run(input)
	if err != nil {
		return err
	}
	if len(log.Output) == 0 {
		return fmt.Errorf("run %q produced no samples", input.Meta.RunID)
	}

	times := make([]string, len(log.Output))
	for i, row := range log.Output {
		times[i] = fmt.Sprintf("%.3f", row.Time)
	}

	dofs := len(log.Output[0].Position)
	page := components.NewPage()
	page.AddCharts(
		quantityChart("Position", times, dofs, log.Output, func(r sim.LogRow) []float64 { return r.Position }),
		quantityChart("Velocity", times, dofs, log.Output, func(r sim.LogRow) []float64 { return r.Velocity }),
		quantityChart("Acceleration", times, dofs, log.Output, func(r sim.LogRow) []float64 { return r.Acceleration }),
	)

	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outputPath, err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func quantityChart(title string, times []string, dofs int, rows []sim.LogRow, pick func(sim.LogRow) []float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Trajectory", Width: "1100px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: title}),
	)
	line.SetXAxis(times)
	for axis := 0; axis < dofs; axis++ {
		series := make([]opts.LineData, len(rows))
		for i, row := range rows {
			series[i] = opts.LineData{Value: pick(row)[axis]}
		}
		line.AddSeries(fmt.Sprintf("axis %d", axis), series)
	}
	return line
}
