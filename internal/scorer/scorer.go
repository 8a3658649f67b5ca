// Package scorer derives the nine equipment pillars, the warranty score and
// the segment-weighted composite equip_score of catalog rows.
package scorer

import (
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/value"
)

// Scorer scores rows against a per-segment weight table.
type Scorer struct {
	weights map[string]Weights
}

// New creates a Scorer. A nil table uses DefaultWeights.
func New(weights map[string]Weights) *Scorer {
	if weights == nil {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Pillars derives every pillar for r. Positive scores already on the row are
// kept (clipped and rounded); battery electrics always get full efficiency
// and electrification.
func Pillars(r model.Row) map[string]float64 {
	text := rowText(r)
	derive := map[string]func() float64{
		model.ColPillarADAS:            func() float64 { return scoreADAS(r, text) },
		model.ColPillarSafety:          func() float64 { return scoreSafety(r, text) },
		model.ColPillarComfort:         func() float64 { return scoreComfort(r, text) },
		model.ColPillarInfotainment:    func() float64 { return scoreInfotainment(r, text) },
		model.ColPillarTraction:        func() float64 { return scoreTraction(r) },
		model.ColPillarUtility:         func() float64 { return scoreUtility(r) },
		model.ColPillarPerformance:     func() float64 { return scorePerformance(r, text) },
		model.ColPillarEfficiency:      func() float64 { return scoreEfficiency(r) },
		model.ColPillarElectrification: func() float64 { return scoreElectrification(r) },
	}

	out := make(map[string]float64, len(model.PillarColumns))
	for _, col := range model.PillarColumns {
		if direct, ok := value.Positive(r, col); ok {
			out[col] = finish(direct)
			continue
		}
		out[col] = derive[col]()
	}

	if model.NormalizeFuel(r.Str(model.ColFuelCategory)) == model.FuelBEV {
		out[model.ColPillarEfficiency] = 100
		out[model.ColPillarElectrification] = 100
	}
	return out
}

// WeightsFor returns the weights that apply to r: the segment table for its
// body style, shifted toward efficiency and electrification when the
// powertrain is electrified.
func (s *Scorer) WeightsFor(r model.Row) Weights {
	w, ok := s.weights[model.SegmentBucket(r.Str(model.ColBodyStyle))]
	if !ok {
		w = s.weights[model.SegmentSedan]
	}
	w = w.Clone()

	if model.IsElectrified(r.Str(model.ColFuelCategory)) {
		if w[CatMultimedia] >= evShift {
			w[CatMultimedia] -= evShift
			w[CatEfficiency] += evShift
		}
		if w[CatCapacity] >= evShift {
			w[CatCapacity] -= evShift
			w[CatElectrification] += evShift
		}
	}
	return w
}

// Composite returns the weighted sum of pillars under w.
func Composite(pillars map[string]float64, w Weights) float64 {
	var total float64
	for _, cat := range Categories {
		total += w[cat] / 100 * pillars[categoryPillar[cat]]
	}
	return finish(total)
}

// Score writes pillars, equip_score and warranty_score onto r.
func (s *Scorer) Score(r model.Row) {
	pillars := Pillars(r)
	for col, v := range pillars {
		r.SetNum(col, v)
	}
	r.SetNum(model.ColEquipScore, Composite(pillars, s.WeightsFor(r)))
	r.SetNum(model.ColWarrantyScore, WarrantyScore(r))
}

// ScoreAll scores every row.
func (s *Scorer) ScoreAll(rows []model.Row) {
	for _, r := range rows {
		s.Score(r)
	}
}

// Coverage returns, per pillar, the fraction of rows with a non-zero value.
func Coverage(rows []model.Row) map[string]float64 {
	out := make(map[string]float64, len(model.PillarColumns))
	if len(rows) == 0 {
		return out
	}
	for _, col := range model.PillarColumns {
		var n int
		for _, r := range rows {
			if _, ok := value.Positive(r, col); ok {
				n++
			}
		}
		out[col] = float64(n) / float64(len(rows))
	}
	return out
}
