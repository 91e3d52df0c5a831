// Package report turns a finished sampling session into the summary-plus-rows
// table handed to the operator as tree_sampling_report.csv.
package report

import (
	"github.com/kingrea/tree-sampler/internal/catalog"
	"github.com/kingrea/tree-sampler/internal/workflow"
)

const (
	// Filename is the name the export is offered under.
	Filename = "tree_sampling_report.csv"
	// MIMEType is the content type of the export.
	MIMEType = "text/csv"
)

// Column names, in header order. The first four belong to the summary row,
// the rest to measurement rows; Region and Age Category are shared.
const (
	ColRegion            = "Region"
	ColAgeCategory       = "Age Category"
	ColGardensSampled    = "Gardens Sampled"
	ColTotalTreesSampled = "Total Trees Sampled"
	ColGardenID          = "Garden ID"
	ColGardenAreaHa      = "Garden Area (ha)"
	ColTreeNumber        = "Tree Number"
	ColHeight            = "Height (m)"
	ColYield             = "Yield (kg)"
)

// Header returns the CSV header row.
func Header() []string {
	return []string{
		ColRegion,
		ColAgeCategory,
		ColGardensSampled,
		ColTotalTreesSampled,
		ColGardenID,
		ColGardenAreaHa,
		ColTreeNumber,
		ColHeight,
		ColYield,
	}
}

// Summary is the first data row.
type Summary struct {
	Region            catalog.Area
	AgeCategory       catalog.AgeBucket
	GardensSampled    int
	TotalTreesSampled int
}

// Report is the full export: one summary then every measurement in session order.
type Report struct {
	Summary      Summary
	Measurements []workflow.Measurement
}

// Build assembles the report for a session that has reached the Report step.
func Build(st workflow.State) (*Report, error) {
	if st.Step != workflow.StepReport || st.Measurements == nil {
		var missing []string
		if st.Measurements == nil {
			missing = append(missing, "measurements")
		}
		return nil, &workflow.PreconditionError{Step: workflow.StepReport, Current: st.Step, Missing: missing}
	}
	return &Report{
		Summary: Summary{
			Region:            st.Area,
			AgeCategory:       st.AgeBucket,
			GardensSampled:    len(st.Selection),
			TotalTreesSampled: len(st.Measurements),
		},
		Measurements: append([]workflow.Measurement(nil), st.Measurements...),
	}, nil
}

// RowCount is the number of data rows below the header.
func (r *Report) RowCount() int {
	return 1 + len(r.Measurements)
}
