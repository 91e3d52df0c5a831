package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/kingrea/tree-sampler/internal/catalog"
	"github.com/kingrea/tree-sampler/internal/workflow"
)

// Records renders the header and every row as CSV fields.
func (r *Report) Records() [][]string {
	out := make([][]string, 0, r.RowCount()+1)
	out = append(out, Header())
	out = append(out, []string{
		string(r.Summary.Region),
		string(r.Summary.AgeCategory),
		strconv.Itoa(r.Summary.GardensSampled),
		strconv.Itoa(r.Summary.TotalTreesSampled),
		"", "", "", "", "",
	})
	for _, m := range r.Measurements {
		out = append(out, []string{
			string(m.Region),
			string(m.AgeBucket),
			"", "",
			strconv.Itoa(m.PlotID),
			workflow.FormatHectares(m.PlotAreaHa),
			strconv.Itoa(m.TreeNumber),
			m.Height,
			m.Yield,
		})
	}
	return out
}

// WriteCSV writes the report as UTF-8 comma-separated text.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(r.Records()); err != nil {
		return fmt.Errorf("report: write csv: %w", err)
	}
	return nil
}

// Export writes the report to dir/tree_sampling_report.csv, replacing any
// previous export, and returns the path.
func (r *Report) Export(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: ensure dir: %w", err)
	}
	path := filepath.Join(dir, Filename)
	tmp, err := os.CreateTemp(dir, ".report-*.csv")
	if err != nil {
		return "", fmt.Errorf("report: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := r.WriteCSV(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("report: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("report: move export into place: %w", err)
	}
	return path, nil
}

// ParseCSV reads an export back. Height and yield come back exactly as written.
func ParseCSV(rd io.Reader) (*Report, error) {
	cr := csv.NewReader(rd)
	cr.FieldsPerRecord = len(Header())
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("report: read csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("report: expected header and summary row, got %d rows", len(records))
	}
	for i, name := range Header() {
		if records[0][i] != name {
			return nil, fmt.Errorf("report: header column %d is %q, want %q", i, records[0][i], name)
		}
	}
	summaryRow := records[1]
	gardens, err := atoi(summaryRow[2], ColGardensSampled, 2)
	if err != nil {
		return nil, err
	}
	trees, err := atoi(summaryRow[3], ColTotalTreesSampled, 2)
	if err != nil {
		return nil, err
	}
	rep := &Report{Summary: Summary{
		Region:            catalog.Area(summaryRow[0]),
		AgeCategory:       catalog.AgeBucket(summaryRow[1]),
		GardensSampled:    gardens,
		TotalTreesSampled: trees,
	}}
	rep.Measurements = make([]workflow.Measurement, 0, len(records)-2)
	for i, row := range records[2:] {
		line := i + 3
		id, err := atoi(row[4], ColGardenID, line)
		if err != nil {
			return nil, err
		}
		ha, err := strconv.ParseFloat(row[5], 64)
		if err != nil {
			return nil, fmt.Errorf("report: row %d %s %q: %w", line, ColGardenAreaHa, row[5], catalog.ErrInvalidInput)
		}
		tree, err := atoi(row[6], ColTreeNumber, line)
		if err != nil {
			return nil, err
		}
		rep.Measurements = append(rep.Measurements, workflow.Measurement{
			Region:     catalog.Area(row[0]),
			AgeBucket:  catalog.AgeBucket(row[1]),
			PlotID:     id,
			PlotAreaHa: ha,
			TreeNumber: tree,
			Height:     row[7],
			Yield:      row[8],
		})
	}
	return rep, nil
}

func atoi(value, column string, line int) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("report: row %d %s %q: %w", line, column, value, catalog.ErrInvalidInput)
	}
	return n, nil
}
