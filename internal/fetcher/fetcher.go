// Package fetcher reads vendor data from CSV, XLSX, JSON and HTTP sources.
// Tabular readers return header-keyed records so loaders never depend on
// column positions.
package fetcher

import (
	"strings"

	"github.com/sells-group/catalog-cli/internal/normalize"
)

// Record is one tabular row keyed by normalized header name.
type Record map[string]string

// Get returns the first non-blank value among keys.
func (r Record) Get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

// HeaderKey normalizes a raw header cell: "Año Modelo" → "ano_modelo".
func HeaderKey(h string) string {
	return normalize.Slug(strings.TrimPrefix(h, "\ufeff"))
}

// toRecords pairs each data row with the normalized header. Short rows are
// padded with blanks; extra cells are dropped. Duplicate headers keep the
// first column.
func toRecords(header []string, rows [][]string) []Record {
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = HeaderKey(h)
	}

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		rec := make(Record, len(keys))
		for i, k := range keys {
			if k == "" {
				continue
			}
			if _, dup := rec[k]; dup {
				continue
			}
			if i < len(row) {
				rec[k] = strings.TrimSpace(row[i])
			} else {
				rec[k] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
