package merge

import (
	"github.com/sells-group/catalog-cli/internal/model"
)

var protected = func() map[string]bool {
	m := make(map[string]bool, len(ProtectedColumns))
	for _, c := range ProtectedColumns {
		m[c] = true
	}
	return m
}()

// JoinOEM fills base rows from OEM rows sharing (make, model, version, year).
// Protected numerics take the OEM value only when the base value is missing
// or not positive; every other column is filled when missing or blank. When
// several OEM rows share a key the last one wins. Returns the number of base
// rows that matched.
func JoinOEM(base []model.Row, oem []model.Row) int {
	if len(oem) == 0 {
		return 0
	}
	index := make(map[string]model.Row, len(oem))
	for _, r := range oem {
		if k := fullKey(r); k != "" {
			index[k] = r
		}
	}

	var matched int
	for _, row := range base {
		src, ok := index[fullKey(row)]
		if !ok {
			continue
		}
		matched++
		for col := range src {
			switch {
			case identityColumns[col]:
			case protected[col]:
				fillNonPositive(row, src, col)
			default:
				fillMissing(row, src, col)
			}
		}
	}
	return matched
}
