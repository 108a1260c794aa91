package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/occupancy.dataset/internal/dataset/pipeline"
)

// WriteFoldsHTML renders the test and train row counts of every fold as a
// stacked bar chart, followed by the retention bars.
func WriteFoldsHTML(w io.Writer, rep *pipeline.Report) error {
	x := make([]string, len(rep.FoldResults))
	test := make([]opts.BarData, len(rep.FoldResults))
	train := make([]opts.BarData, len(rep.FoldResults))
	for i, f := range rep.FoldResults {
		x[i] = fmt.Sprintf("fold_%d", f.Fold)
		if f.Err != nil {
			x[i] += " (failed)"
		}
		test[i] = opts.BarData{Value: f.TestRows}
		train[i] = opts.BarData{Value: f.TrainRows}
	}

	folds := charts.NewBar()
	folds.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Dataset folds", Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Rows per fold",
			Subtitle: fmt.Sprintf("run=%s status=%s seed=%d groups=%d", rep.RunID, rep.Status, rep.Seed, rep.Groups),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	folds.SetXAxis(x).
		AddSeries("test", test, charts.WithBarChartOpts(opts.BarChart{Stack: "rows"})).
		AddSeries("train", train, charts.WithBarChartOpts(opts.BarChart{Stack: "rows"}))

	rows := RetentionRows(rep)
	names := make([]string, len(rows))
	kept := make([]opts.BarData, len(rows))
	rejected := make([]opts.BarData, len(rows))
	for i, r := range rows {
		names[i] = r.Location
		kept[i] = opts.BarData{Value: r.Kept}
		rejected[i] = opts.BarData{Value: r.Rejected}
	}
	retention := charts.NewBar()
	retention.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: "Days per location"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	retention.SetXAxis(names).
		AddSeries("kept", kept, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"})).
		AddSeries("rejected", rejected, charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))

	page := components.NewPage()
	page.AddCharts(folds, retention)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render folds page: %w", err)
	}
	return nil
}
