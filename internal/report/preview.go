package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kingrea/tree-sampler/internal/catalog"
	"github.com/kingrea/tree-sampler/internal/workflow"
)

// Preview renders the measurement rows as a terminal table. maxRows <= 0
// shows everything; otherwise the remainder is summarized in the footer.
func (r *Report) Preview(maxRows int) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{ColRegion, ColAgeCategory, ColGardenID, ColGardenAreaHa, ColTreeNumber, ColHeight, ColYield})
	shown := r.Measurements
	if maxRows > 0 && len(shown) > maxRows {
		shown = shown[:maxRows]
	}
	for _, m := range shown {
		t.AppendRow(table.Row{m.Region, m.AgeBucket, m.PlotID, workflow.FormatHectares(m.PlotAreaHa), m.TreeNumber, m.Height, m.Yield})
	}
	if hidden := len(r.Measurements) - len(shown); hidden > 0 {
		t.AppendFooter(table.Row{"", "", "", "", "", "", fmt.Sprintf("+%d more", hidden)})
	}
	return t.Render()
}

// SummaryTable renders the summary row.
func (r *Report) SummaryTable() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{ColRegion, ColAgeCategory, ColGardensSampled, ColTotalTreesSampled})
	t.AppendRow(table.Row{r.Summary.Region, r.Summary.AgeCategory, r.Summary.GardensSampled, r.Summary.TotalTreesSampled})
	return t.Render()
}

// PlotTable renders plots with their derived tree counts.
func PlotTable(plots []catalog.Plot, density float64) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Garden ID", "Area", "Age Bucket", ColGardenAreaHa, "Trees"})
	for _, p := range plots {
		trees := "-"
		if n, err := catalog.TreeCountWithDensity(p.AreaHa, density); err == nil {
			trees = fmt.Sprint(n)
		}
		t.AppendRow(table.Row{p.ID, p.Area, p.AgeBucket, workflow.FormatHectares(p.AreaHa), trees})
	}
	t.AppendFooter(table.Row{"", "", "Total", len(plots), ""})
	return t.Render()
}

// SizeTableView renders the ideal sample size for every area and bucket,
// including combinations that fall back to 0.
func SizeTableView(sizes catalog.SizeTable, areas []catalog.Area, buckets []catalog.AgeBucket) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	header := table.Row{"Area"}
	for _, b := range buckets {
		header = append(header, b)
	}
	t.AppendHeader(header)
	for _, a := range areas {
		row := table.Row{a}
		for _, b := range buckets {
			row = append(row, sizes.IdealSampleSize(a, b))
		}
		t.AppendRow(row)
	}
	return strings.TrimRight(t.Render(), "\n")
}
