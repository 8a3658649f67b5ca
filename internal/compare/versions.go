package compare

import (
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/cost"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
)

// Sentinel errors for version diffs.
var (
	ErrModelRequired = eris.New("model is required")
	ErrNoVersions    = eris.New("no versions found")
)

// VersionQuery selects the versions of one model.
type VersionQuery struct {
	Make        string
	Model       string
	Year        int
	BaseVersion string
}

// VersionDiff is the response of Versions.
type VersionDiff struct {
	Base  model.Row    `json:"base"`
	Items []Comparison `json:"items"`
	Count int          `json:"count"`
}

// Versions compares every version of a model against a base version: the
// requested one, or the cheapest. Make and year narrow the selection when
// set. Identity matching ignores case and accents.
func Versions(rows []model.Row, q VersionQuery) (*VersionDiff, error) {
	if normalize.Key(q.Model) == "" {
		return nil, ErrModelRequired
	}

	wantModel := normalize.Key(q.Model)
	wantMake := normalize.Key(q.Make)

	var selected []model.Row
	for _, r := range rows {
		if normalize.Key(r.Str(model.ColModel)) != wantModel {
			continue
		}
		if wantMake != "" && normalize.Key(r.Str(model.ColMake)) != wantMake {
			continue
		}
		if q.Year != 0 {
			if y, ok := r.Year(); !ok || y != q.Year {
				continue
			}
		}
		c := r.Clone()
		cost.Complete(c)
		selected = append(selected, c)
	}
	if len(selected) == 0 {
		return nil, eris.Wrapf(ErrNoVersions, "compare: %s %s", q.Make, q.Model)
	}

	SortByPrice(selected)

	baseIdx := 0
	if q.BaseVersion != "" {
		want := normalize.Key(q.BaseVersion)
		found := false
		for i, r := range selected {
			if normalize.Key(r.Str(model.ColVersion)) == want {
				baseIdx, found = i, true
				break
			}
		}
		if !found {
			zap.L().Debug("compare: base version not found, using cheapest",
				zap.String("model", q.Model),
				zap.String("base_version", q.BaseVersion),
			)
		}
	}

	base := selected[baseIdx]
	out := &VersionDiff{Base: base, Items: []Comparison{}}
	for i, r := range selected {
		if i == baseIdx {
			continue
		}
		out.Items = append(out.Items, Pair(base, r))
	}
	out.Count = len(out.Items)
	return out, nil
}

// SortByPrice orders rows by transaction price (msrp when missing), rows
// without a price last, ties broken by version then vehicle_id.
func SortByPrice(rows []model.Row) {
	price := func(r model.Row) float64 {
		if p, ok := cost.Price(r); ok {
			return p
		}
		return math.Inf(1)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := price(rows[i]), price(rows[j])
		if pi != pj {
			return pi < pj
		}
		vi, vj := rows[i].Str(model.ColVersion), rows[j].Str(model.ColVersion)
		if vi != vj {
			return vi < vj
		}
		return rows[i].Str(model.ColVehicleID) < rows[j].Str(model.ColVehicleID)
	})
}
