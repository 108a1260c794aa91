package report

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/occupancy.dataset/internal/dataset"
	"github.com/banshee-data/occupancy.dataset/internal/dataset/pipeline"
)

// Retention is the kept and rejected day counts of one location.
type Retention struct {
	Location string
	Kept     int
	Rejected int
}

// RetentionRows lists the locations that produced any day, in location
// order.
func RetentionRows(rep *pipeline.Report) []Retention {
	var out []Retention
	for _, loc := range dataset.Locations() {
		st, ok := rep.PerLocation[loc.String()]
		if !ok {
			continue
		}
		out = append(out, Retention{Location: loc.String(), Kept: st.Kept, Rejected: st.Rejected})
	}
	return out
}

// WriteRetentionPNG draws kept and rejected days per location as grouped
// bars.
func WriteRetentionPNG(w io.Writer, rep *pipeline.Report) error {
	rows := RetentionRows(rep)
	if len(rows) == 0 {
		return fmt.Errorf("run %s has no per-location results", rep.RunID)
	}

	kept := make(plotter.Values, len(rows))
	rejected := make(plotter.Values, len(rows))
	names := make([]string, len(rows))
	for i, r := range rows {
		kept[i] = float64(r.Kept)
		rejected[i] = float64(r.Rejected)
		names[i] = r.Location
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Day retention - run %s", rep.RunID)
	p.Y.Label.Text = "Days"

	width := vg.Points(18)
	keptBars, err := plotter.NewBarChart(kept, width)
	if err != nil {
		return fmt.Errorf("kept bars: %w", err)
	}
	keptBars.LineStyle.Width = vg.Length(0)
	keptBars.Color = plotutil.Color(2)
	keptBars.Offset = -width / 2

	rejectedBars, err := plotter.NewBarChart(rejected, width)
	if err != nil {
		return fmt.Errorf("rejected bars: %w", err)
	}
	rejectedBars.LineStyle.Width = vg.Length(0)
	rejectedBars.Color = plotutil.Color(0)
	rejectedBars.Offset = width / 2

	p.Add(keptBars, rejectedBars)
	p.Legend.Add("kept", keptBars)
	p.Legend.Add("rejected", rejectedBars)
	p.Legend.Top = true
	p.NominalX(names...)

	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("render retention plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write retention plot: %w", err)
	}
	return nil
}
