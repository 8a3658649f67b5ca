package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Phase is the outcome of one pipeline phase.
type Phase struct {
	Name       string `json:"name"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// Report summarizes an enrichment run.
type Report struct {
	StartedAt          time.Time          `json:"started_at"`
	FinishedAt         time.Time          `json:"finished_at"`
	RowsIn             int                `json:"rows_in"`
	RowsOut            int                `json:"rows_out"`
	DroppedIncomplete  int                `json:"dropped_incomplete"`
	DroppedByYear      int                `json:"dropped_by_year"`
	Duplicates         int                `json:"duplicates"`
	Aliases            int                `json:"aliases"`
	OEMMatched         int                `json:"oem_matched"`
	OverlayMatched     int                `json:"overlay_matched"`
	SalesMatched       int                `json:"sales_matched"`
	MaintenanceMatched map[string]int     `json:"maintenance_matched"`
	Coverage           map[string]float64 `json:"coverage"`
	Warnings           []string           `json:"warnings"`
	Phases             []Phase            `json:"phases"`
}

// Format renders the report as markdown.
func (r *Report) Format() string {
	var b strings.Builder

	b.WriteString("# Enrichment Report\n")
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Finished: %s\n", r.FinishedAt.Format(time.RFC3339))
	}
	b.WriteString("\n")

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Rows in: %d\n", r.RowsIn)
	fmt.Fprintf(&b, "- Rows out: %d\n", r.RowsOut)
	fmt.Fprintf(&b, "- Dropped (incomplete identity): %d\n", r.DroppedIncomplete)
	fmt.Fprintf(&b, "- Dropped (year not allowed): %d\n", r.DroppedByYear)
	fmt.Fprintf(&b, "- Duplicate vehicle_ids: %d\n", r.Duplicates)
	fmt.Fprintf(&b, "- Aliases: %d\n\n", r.Aliases)

	b.WriteString("## Sources\n")
	fmt.Fprintf(&b, "- OEM fills: %d\n", r.OEMMatched)
	fmt.Fprintf(&b, "- Overlay rows applied: %d\n", r.OverlayMatched)
	fmt.Fprintf(&b, "- Sales rows matched: %d\n", r.SalesMatched)
	if len(r.MaintenanceMatched) > 0 {
		keys := make([]string, 0, len(r.MaintenanceMatched))
		for k := range r.MaintenanceMatched {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "- Maintenance (%s): %d\n", k, r.MaintenanceMatched[k])
		}
	}
	b.WriteString("\n")

	b.WriteString("## Coverage\n")
	for _, col := range model.PillarColumns {
		fmt.Fprintf(&b, "- %s: %.1f%%\n", col, r.Coverage[col]*100)
	}
	b.WriteString("\n")

	b.WriteString("## Phases\n")
	for _, p := range r.Phases {
		status := "complete"
		if p.Error != "" {
			status = "failed"
		}
		fmt.Fprintf(&b, "- %s: %s (%dms)\n", p.Name, status, p.DurationMS)
		if p.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", p.Error)
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n## Warnings\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func sortByID(rows []model.Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Str(model.ColVehicleID) < rows[j].Str(model.ColVehicleID)
	})
}
