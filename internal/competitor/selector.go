// Package competitor auto-selects a competitor set for a vehicle by price,
// length and equipment-score proximity under segment, propulsion, brand and
// year filters.
package competitor

import (
	"math"
	"sort"

	"github.com/sells-group/catalog-cli/internal/cost"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/value"
)

// DefaultK is the competitor count when a request does not set one.
const DefaultK = 3

// Request configures a selection. Nil soft constraints are not applied.
type Request struct {
	K                     *int     `json:"k"`
	SameSegment           bool     `json:"same_segment"`
	SamePropulsion        bool     `json:"same_propulsion"`
	IncludeSameBrand      bool     `json:"include_same_brand"`
	IncludeDifferentYears bool     `json:"include_different_years"`
	MaxLengthPct          *float64 `json:"max_length_pct"`
	MaxLengthMM           *float64 `json:"max_length_mm"`
	ScoreDiffPct          *float64 `json:"score_diff_pct"`
	MinMatchPct           *float64 `json:"min_match_pct"`
}

// Candidate is a selected competitor.
type Candidate struct {
	Item      model.Row `json:"item"`
	MatchPct  *float64  `json:"match_pct"`
	PriceDiff *float64  `json:"price_diff"`
}

// Selector ranks competitors from a catalog snapshot.
type Selector struct {
	rows    []model.Row
	allowed map[int]bool
}

// NewSelector creates a Selector over rows. An empty allowedYears admits
// every year.
func NewSelector(rows []model.Row, allowedYears []int) *Selector {
	allowed := make(map[int]bool, len(allowedYears))
	for _, y := range allowedYears {
		allowed[y] = true
	}
	return &Selector{rows: rows, allowed: allowed}
}

// Select returns up to k competitors for own, closest first.
func (s *Selector) Select(own model.Row, req Request) []Candidate {
	k := DefaultK
	if req.K != nil {
		k = *req.K
	}
	if k <= 0 {
		return []Candidate{}
	}

	ownMake := normalize.Key(own.Str(model.ColMake))
	ownModel := normalize.Key(own.Str(model.ColModel))
	ownYear, hasYear := own.Year()
	ownSegment := model.SegmentBucket(own.Str(model.ColBodyStyle))
	ownPropulsion := model.PropulsionBucket(own.Str(model.ColFuelCategory))
	ownPrice, hasPrice := cost.Price(own)

	var pool []model.Row
	for _, r := range s.rows {
		y, ok := r.Year()
		if !ok || (len(s.allowed) > 0 && !s.allowed[y]) {
			continue
		}
		sameMake := normalize.Key(r.Str(model.ColMake)) == ownMake
		if sameMake && !req.IncludeSameBrand {
			continue
		}
		if sameMake && normalize.Key(r.Str(model.ColModel)) == ownModel && (!hasYear || y == ownYear) {
			continue
		}
		if !req.IncludeDifferentYears && hasYear && y != ownYear {
			continue
		}
		if req.SameSegment && model.SegmentBucket(r.Str(model.ColBodyStyle)) != ownSegment {
			continue
		}
		if req.SamePropulsion && model.PropulsionBucket(r.Str(model.ColFuelCategory)) != ownPropulsion {
			continue
		}
		pool = append(pool, r)
	}

	if req.MinMatchPct == nil {
		pool = filterLength(own, pool, req.MaxLengthMM, req.MaxLengthPct)
		pool = filterScore(own, pool, req.ScoreDiffPct)
	}

	out := make([]Candidate, 0, len(pool))
	for _, r := range pool {
		c := Candidate{Item: r, MatchPct: Match(own, r)}
		if p, ok := cost.Price(r); ok && hasPrice {
			d := value.Round(p-ownPrice, 2)
			c.PriceDiff = &d
		}
		if req.MinMatchPct != nil && (c.MatchPct == nil || *c.MatchPct < *req.MinMatchPct) {
			continue
		}
		out = append(out, c)
	}

	byMatch := req.MinMatchPct != nil
	sort.SliceStable(out, func(i, j int) bool {
		if byMatch {
			mi, mj := matchOrZero(out[i]), matchOrZero(out[j])
			if mi != mj {
				return mi > mj
			}
		}
		di, dj := priceDistance(out[i]), priceDistance(out[j])
		if di != dj {
			return di < dj
		}
		return out[i].Item.Str(model.ColVehicleID) < out[j].Item.Str(model.ColVehicleID)
	})

	if len(out) > k {
		out = out[:k]
	}
	return out
}

func matchOrZero(c Candidate) float64 {
	if c.MatchPct == nil {
		return 0
	}
	return *c.MatchPct
}

// priceDistance ranks candidates without a price last.
func priceDistance(c Candidate) float64 {
	if c.PriceDiff == nil {
		return math.Inf(1)
	}
	return math.Abs(*c.PriceDiff)
}

// filterLength keeps candidates within the tighter of the absolute and the
// relative length bound. Candidates without a length fail an active filter.
func filterLength(own model.Row, pool []model.Row, maxMM, maxPct *float64) []model.Row {
	ownLen, ok := value.Positive(own, model.ColLength)
	if !ok || (maxMM == nil && maxPct == nil) {
		return pool
	}
	limit := math.Inf(1)
	if maxMM != nil {
		limit = *maxMM
	}
	if maxPct != nil {
		limit = math.Min(limit, ownLen*(*maxPct)/100)
	}

	out := pool[:0:0]
	for _, r := range pool {
		l, ok := value.Positive(r, model.ColLength)
		if ok && math.Abs(l-ownLen) <= limit {
			out = append(out, r)
		}
	}
	return out
}

// filterScore keeps candidates whose equip_score is within pct percent of
// own's.
func filterScore(own model.Row, pool []model.Row, pct *float64) []model.Row {
	ownScore, ok := value.Positive(own, model.ColEquipScore)
	if !ok || pct == nil {
		return pool
	}
	limit := ownScore * (*pct) / 100

	out := pool[:0:0]
	for _, r := range pool {
		sc, ok := value.Number(r, model.ColEquipScore)
		if ok && math.Abs(sc-ownScore) <= limit {
			out = append(out, r)
		}
	}
	return out
}

// Match is 100 minus the mean relative error over price, length and
// equip_score, using only the dimensions both rows carry. Nil when none do.
func Match(own, comp model.Row) *float64 {
	var errs []float64
	if a, ok := cost.Price(own); ok {
		if b, ok := cost.Price(comp); ok {
			errs = append(errs, math.Abs(b-a)/a*100)
		}
	}
	for _, col := range []string{model.ColLength, model.ColEquipScore} {
		a, okA := value.Positive(own, col)
		b, okB := value.Number(comp, col)
		if okA && okB {
			errs = append(errs, math.Abs(b-a)/a*100)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	var sum float64
	for _, e := range errs {
		sum += e
	}
	m := value.Round(value.Clip(100-sum/float64(len(errs)), 0, 100), 1)
	return &m
}
