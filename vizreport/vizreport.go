// Package vizreport renders an HTML bar chart of a decision's aggregated
// per-subpartition byte weights, with the chosen range boundaries overlaid,
// for offline debugging of one decider.Decide call. Directly mirrors the
// teacher's output.PlotHeatmap: build chart options, add one page, render to
// a file.
package vizreport

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/ChristianF88/batchdecider/model"
)

// RenderDistribution writes an HTML bar chart of weights to filename, with
// one bar per subpartition and a vertical marker at the start of every range
// in ranges so a reviewer can see how evenly the packing split the data.
func RenderDistribution(weights []int64, ranges []model.IndexRange, filename string) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       "Subpartition byte distribution",
			Width:           "180vh",
			Height:          "60vh",
			Theme:           types.ThemeVintage,
			BackgroundColor: "transparent",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("Aggregated subpartition bytes (%d ranges)", len(ranges)),
			Subtitle: "vertical markers show the chosen range boundaries",
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "subpartition index",
			Type: "category",
			Data: indexLabels(len(weights)),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "bytes",
			Type: "value",
		}),
	)

	barData := make([]opts.BarData, len(weights))
	for i, w := range weights {
		barData[i] = opts.BarData{Value: w}
	}

	markLines := make([]opts.MarkLineNameXAxisItem, 0, len(ranges))
	for _, r := range ranges {
		markLines = append(markLines, opts.MarkLineNameXAxisItem{
			Name:  fmt.Sprintf("range start %d", r.Start),
			XAxis: r.Start,
		})
	}

	bar.SetXAxis(indexLabels(len(weights))).
		AddSeries("bytes", barData).
		SetSeriesOptions(
			charts.WithMarkLineNameXAxisItemOpts(markLines...),
			charts.WithMarkLineStyleOpts(opts.MarkLineStyle{Symbol: []string{"none", "none"}}),
		)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.AddCharts(bar)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("vizreport: could not create report file %s: %w", filename, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("vizreport: rendering report: %w", err)
	}

	return nil
}

func indexLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d", i)
	}
	return labels
}
