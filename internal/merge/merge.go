// Package merge layers secondary sources onto the primary catalog rows. Each
// stage is a left join against the base rows with its own precedence rule:
// OEM frames fill gaps, the overlay corrects prices and dimensions,
// maintenance costs join through a cascade of looser keys and sales
// registries add monthly units and segment share.
package merge

import (
	"strconv"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/value"
)

// identityColumns are never rewritten by a join.
var identityColumns = map[string]bool{
	model.ColVehicleID: true,
	model.ColMake:      true,
	model.ColModel:     true,
	model.ColVersion:   true,
	model.ColYear:      true,
}

// ProtectedColumns only take an OEM value when the base value is missing or
// not positive.
var ProtectedColumns = []string{
	model.ColMSRP, model.ColTxPrice, model.ColHP, model.ColLength, model.ColBono,
}

// fullKey is the (make, model, version, year) join key.
func fullKey(r model.Row) string {
	y, ok := r.Year()
	if !ok || r.Missing(model.ColMake) || r.Missing(model.ColModel) {
		return ""
	}
	return normalize.Key(r.Str(model.ColMake), r.Str(model.ColModel), r.Str(model.ColVersion), strconv.Itoa(y))
}

// fillMissing copies col from src when dst lacks it or holds a blank string.
func fillMissing(dst, src model.Row, col string) bool {
	v := src.Get(col)
	if v.IsAbsent() || !dst.Missing(col) {
		return false
	}
	if s, ok := v.AsString(); ok && s == "" {
		return false
	}
	dst.Set(col, v)
	return true
}

// fillNonPositive copies a numeric col from src when dst lacks a positive
// value and src has one.
func fillNonPositive(dst, src model.Row, col string) bool {
	if _, ok := value.Positive(dst, col); ok {
		return false
	}
	f, ok := value.Positive(src, col)
	if !ok {
		return false
	}
	dst.SetNum(col, f)
	return true
}
