package merge

import (
	"strconv"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/source"
)

// keyStrategy derives the same join key from a catalog row and a maintenance
// record. An empty key means the strategy does not apply.
type keyStrategy struct {
	name   string
	row    func(model.Row) string
	record func(source.MaintenanceRecord) string
}

// maintenanceStrategies run from the tightest key to the loosest. The order
// matters: a year-agnostic match must never shadow a year match.
var maintenanceStrategies = []keyStrategy{
	{
		name: "make_model_year_version",
		row: func(r model.Row) string {
			return rowKey(r, true, false, true, false)
		},
		record: func(m source.MaintenanceRecord) string {
			return recordKey(m, true, false, true, false)
		},
	},
	{
		name: "make_model_year",
		row: func(r model.Row) string {
			return rowKey(r, true, false, false, false)
		},
		record: func(m source.MaintenanceRecord) string {
			return recordKey(m, true, false, false, false)
		},
	},
	{
		name: "make_compact_model_year",
		row: func(r model.Row) string {
			return rowKey(r, true, true, false, false)
		},
		record: func(m source.MaintenanceRecord) string {
			return recordKey(m, true, true, false, false)
		},
	},
	{
		name: "make_model_version",
		row: func(r model.Row) string {
			return rowKey(r, false, false, true, false)
		},
		record: func(m source.MaintenanceRecord) string {
			return recordKey(m, false, false, true, false)
		},
	},
	{
		name: "make_compact_model_compact_version",
		row: func(r model.Row) string {
			return rowKey(r, false, true, true, true)
		},
		record: func(m source.MaintenanceRecord) string {
			return recordKey(m, false, true, true, true)
		},
	},
}

// MaintenanceStrategyNames lists the cascade in evaluation order.
func MaintenanceStrategyNames() []string {
	names := make([]string, len(maintenanceStrategies))
	for i, s := range maintenanceStrategies {
		names[i] = s.name
	}
	return names
}

func rowKey(r model.Row, withYear, compactModel, withVersion, compactVersion bool) string {
	y, _ := r.Year()
	return joinKey(r.Str(model.ColMake), r.Str(model.ColModel), r.Str(model.ColVersion), y,
		withYear, compactModel, withVersion, compactVersion)
}

func recordKey(m source.MaintenanceRecord, withYear, compactModel, withVersion, compactVersion bool) string {
	return joinKey(m.Make, m.Model, m.Version, m.Year, withYear, compactModel, withVersion, compactVersion)
}

func joinKey(mk, md, ver string, year int, withYear, compactModel, withVersion, compactVersion bool) string {
	if mk == "" || md == "" {
		return ""
	}
	if compactModel {
		md = normalize.Compact(md)
	}
	parts := []string{mk, md}
	if withYear {
		if year == 0 {
			return ""
		}
		parts = append(parts, strconv.Itoa(year))
	}
	if withVersion {
		if ver == "" {
			return ""
		}
		if compactVersion {
			ver = normalize.Compact(ver)
		}
		parts = append(parts, ver)
	}
	return normalize.Key(parts...)
}

// JoinMaintenance sets service_cost_60k_mxn on rows that lack it, trying each
// key strategy in order and stopping at the first hit. Within a strategy the
// first record for a key wins. Returns match counts per strategy name.
func JoinMaintenance(base []model.Row, recs []source.MaintenanceRecord) map[string]int {
	counts := make(map[string]int, len(maintenanceStrategies))
	if len(recs) == 0 {
		return counts
	}

	indexes := make([]map[string]float64, len(maintenanceStrategies))
	for i, s := range maintenanceStrategies {
		idx := make(map[string]float64)
		for _, m := range recs {
			k := s.record(m)
			if k == "" {
				continue
			}
			if _, seen := idx[k]; !seen {
				idx[k] = m.Cost
			}
		}
		indexes[i] = idx
	}

	for _, row := range base {
		if !row.Missing(model.ColServiceCost) {
			continue
		}
		for i, s := range maintenanceStrategies {
			k := s.row(row)
			if k == "" {
				continue
			}
			if cost, ok := indexes[i][k]; ok {
				row.SetNum(model.ColServiceCost, cost)
				counts[s.name]++
				break
			}
		}
	}
	return counts
}
