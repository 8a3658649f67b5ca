// Package compare builds vehicle-versus-competitor and version-versus-version
// diffs: numeric deltas, equipment gained or lost, differing counts and an
// equipment match percentage from pillar proximity.
package compare

import (
	"math"

	"github.com/sells-group/catalog-cli/internal/cost"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/value"
)

// deltaKey names a delta in the response and the column it reads.
type deltaKey struct {
	name string
	col  string
}

// deltaKeys is the fixed delta set. The *_mxn and hp names are aliases kept
// for clients that use them.
var deltaKeys = func() []deltaKey {
	keys := []deltaKey{
		{"msrp", model.ColMSRP},
		{"precio_transaccion", model.ColTxPrice},
		{"hp", model.ColHP},
		{"msrp_mxn", model.ColMSRP},
		{"bono", model.ColBono},
		{"bono_mxn", model.ColBono},
		{model.ColFuelCost, model.ColFuelCost},
		{model.ColServiceCost, model.ColServiceCost},
		{model.ColTCO, model.ColTCO},
		{model.ColTCOTotal, model.ColTCOTotal},
		{model.ColCostPerHP, model.ColCostPerHP},
		{model.ColEquipScore, model.ColEquipScore},
	}
	for _, p := range model.PillarColumns {
		keys = append(keys, deltaKey{p, p})
	}
	return append(keys, deltaKey{model.ColWarrantyScore, model.ColWarrantyScore})
}()

// DeltaKeys returns the names of every delta Compare can emit.
func DeltaKeys() []string {
	out := make([]string, len(deltaKeys))
	for i, k := range deltaKeys {
		out[i] = k.name
	}
	return out
}

// Delta is comp minus own. DeltaPct is relative to own and nil when own is 0.
type Delta struct {
	Delta    float64  `json:"delta"`
	DeltaPct *float64 `json:"delta_pct"`
}

// NumericDiff is a labeled count or size that differs between two vehicles.
type NumericDiff struct {
	Label string   `json:"label"`
	Own   *float64 `json:"own"`
	Comp  *float64 `json:"comp"`
}

// Diffs is the equipment side of a comparison.
type Diffs struct {
	Plus          []string      `json:"features_plus"`
	Minus         []string      `json:"features_minus"`
	Numeric       []NumericDiff `json:"numeric_diffs"`
	EquipMatchPct *float64      `json:"equip_match_pct"`
}

// Comparison is one competitor measured against the own vehicle.
type Comparison struct {
	Item   model.Row        `json:"item"`
	Deltas map[string]Delta `json:"deltas"`
	Diffs  Diffs            `json:"diffs"`
}

// Result is the response of Compare.
type Result struct {
	Own         model.Row    `json:"own"`
	Competitors []Comparison `json:"competitors"`
}

// Compare measures every competitor against own. Inputs are not modified;
// derived cost columns missing on either side are completed on copies.
func Compare(own model.Row, competitors []model.Row) Result {
	base := own.Clone()
	cost.Complete(base)

	res := Result{Own: base, Competitors: make([]Comparison, 0, len(competitors))}
	for _, c := range competitors {
		comp := c.Clone()
		cost.Complete(comp)
		res.Competitors = append(res.Competitors, Pair(base, comp))
	}
	return res
}

// Pair builds the comparison of comp against own without completing either.
func Pair(own, comp model.Row) Comparison {
	plus, minus := FeatureDiff(own, comp)
	return Comparison{
		Item:   comp,
		Deltas: Deltas(own, comp),
		Diffs: Diffs{
			Plus:          plus,
			Minus:         minus,
			Numeric:       NumericDiffs(own, comp),
			EquipMatchPct: EquipMatch(own, comp),
		},
	}
}

// Deltas returns comp − own for every delta key both rows carry.
func Deltas(own, comp model.Row) map[string]Delta {
	out := make(map[string]Delta)
	for _, k := range deltaKeys {
		a, okA := value.Number(own, k.col)
		b, okB := value.Number(comp, k.col)
		if !okA || !okB {
			continue
		}
		d := Delta{Delta: value.Round(b-a, 2)}
		if a != 0 {
			pct := value.Round((b-a)/math.Abs(a)*100, 2)
			d.DeltaPct = &pct
		}
		out[k.name] = d
	}
	return out
}

// minPillars is the number of shared pillars the primary match needs.
const minPillars = 2

// EquipMatch is 100 minus the mean absolute pillar difference over pillars
// positive on both sides. With fewer than two such pillars it falls back to
// 100 minus the equip_score difference, and to nil without that either.
func EquipMatch(own, comp model.Row) *float64 {
	var sum float64
	var n int
	for _, col := range model.PillarColumns {
		a, okA := value.Positive(own, col)
		b, okB := value.Positive(comp, col)
		if !okA || !okB {
			continue
		}
		sum += math.Abs(a - b)
		n++
	}
	if n >= minPillars {
		m := value.Round(value.Clip(100-sum/float64(n), 0, 100), 1)
		return &m
	}

	a, okA := value.Positive(own, model.ColEquipScore)
	b, okB := value.Positive(comp, model.ColEquipScore)
	if okA && okB {
		m := value.Round(value.Clip(100-math.Abs(a-b), 0, 100), 1)
		return &m
	}
	return nil
}
