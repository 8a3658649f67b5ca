package merge

import (
	"sort"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/source"
	"github.com/sells-group/catalog-cli/internal/value"
)

type salesKey struct {
	model string // normalized make|model
	year  int
}

type salesAgg struct {
	months  map[int]float64
	ytd     float64
	segment string
}

// JoinSales attaches ventas_{year}_{MM}, ventas_ytd_{year} and
// ventas_share_seg_pct to rows by (make, model, year). The segment total sums
// the year-to-date units of every distinct (make, model) sold in that
// segment and year, so versions of one model are counted once. A row without
// a segment takes the registry's. Returns the number of rows matched.
func JoinSales(base []model.Row, recs []source.SalesRecord) int {
	if len(recs) == 0 {
		return 0
	}

	aggs := make(map[salesKey]*salesAgg)
	for _, r := range recs {
		k := salesKey{model: normalize.Key(r.Make, r.Model), year: r.Year}
		a, ok := aggs[k]
		if !ok {
			a = &salesAgg{months: make(map[int]float64)}
			aggs[k] = a
		}
		a.months[r.Month] += r.Units
		a.ytd += r.Units
		if a.segment == "" {
			a.segment = r.Segment
		}
	}

	// Registry rows without a segment borrow it from the catalog.
	for _, row := range base {
		y, ok := row.Year()
		if !ok {
			continue
		}
		k := salesKey{model: normalize.Key(row.Str(model.ColMake), row.Str(model.ColModel)), year: y}
		if a, ok := aggs[k]; ok && a.segment == "" {
			a.segment = row.Str(model.ColSegment)
		}
	}

	type segKey struct {
		segment string
		year    int
	}
	segTotals := make(map[segKey]float64)
	for k, a := range aggs {
		if a.segment == "" {
			continue
		}
		segTotals[segKey{normalize.Key(a.segment), k.year}] += a.ytd
	}

	var matched int
	for _, row := range base {
		y, ok := row.Year()
		if !ok {
			continue
		}
		a, ok := aggs[salesKey{model: normalize.Key(row.Str(model.ColMake), row.Str(model.ColModel)), year: y}]
		if !ok {
			continue
		}
		matched++

		months := make([]int, 0, len(a.months))
		for m := range a.months {
			months = append(months, m)
		}
		sort.Ints(months)
		for _, m := range months {
			row.SetNum(model.SalesMonthColumn(y, m), a.months[m])
		}
		row.SetNum(model.SalesYTDColumn(y), a.ytd)

		if row.Missing(model.ColSegment) && a.segment != "" {
			row.SetStr(model.ColSegment, a.segment)
		}
		seg := a.segment
		if seg == "" {
			seg = row.Str(model.ColSegment)
		}
		if total := segTotals[segKey{normalize.Key(seg), y}]; total > 0 {
			row.SetNum(model.ColSalesSharePct, value.Round(a.ytd/total*100, 2))
		}
	}
	return matched
}
