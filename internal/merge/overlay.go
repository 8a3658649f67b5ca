package merge

import (
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/value"
)

// EconomicColumns are corrected by the overlay whenever the base lacks them.
var EconomicColumns = []string{
	model.ColTxPrice, model.ColMSRP, model.ColBono,
	model.ColLength, model.ColWidth, model.ColHeight, model.ColWheelbase, model.ColWeight,
}

var economic = func() map[string]bool {
	m := make(map[string]bool, len(EconomicColumns))
	for _, c := range EconomicColumns {
		m[c] = true
	}
	return m
}()

// ApplyOverlay applies vehicle_id keyed corrections. Economic columns replace
// the base when it is missing or not positive; the transaction price is also
// replaced when the overlay price sits below msrp, which corrects stale
// street prices. Everything else, pillars included, only fills gaps. Returns
// the number of base rows touched.
func ApplyOverlay(base []model.Row, overlay map[string]model.Row) int {
	if len(overlay) == 0 {
		return 0
	}

	var matched int
	for _, row := range base {
		ov, ok := overlay[row.Str(model.ColVehicleID)]
		if !ok {
			continue
		}
		matched++

		// msrp first so the price consistency check sees the corrected value.
		fillNonPositive(row, ov, model.ColMSRP)
		for _, col := range EconomicColumns {
			if col == model.ColMSRP {
				continue
			}
			if fillNonPositive(row, ov, col) || col != model.ColTxPrice {
				continue
			}
			tx, ok := value.Positive(ov, col)
			if !ok {
				continue
			}
			if msrp, ok := value.Positive(row, model.ColMSRP); ok && tx < msrp {
				row.SetNum(col, tx)
			}
		}

		for col := range ov {
			if economic[col] || identityColumns[col] {
				continue
			}
			fillMissing(row, ov, col)
		}
	}
	return matched
}
