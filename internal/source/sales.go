package source

import (
	"context"
	"os"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/value"
)

// SalesRecord is the units sold of one model in one month.
type SalesRecord struct {
	Make    string
	Model   string
	Year    int
	Month   int
	Units   float64
	Segment string
}

var wideMonthRe = regexp.MustCompile(`^(?:ventas_)?(\d{4})_(\d{1,2})$`)

var monthNames = map[string]int{
	"ene": 1, "enero": 1, "jan": 1,
	"feb": 2, "febrero": 2,
	"mar": 3, "marzo": 3,
	"abr": 4, "abril": 4, "apr": 4,
	"may": 5, "mayo": 5,
	"jun": 6, "junio": 6,
	"jul": 7, "julio": 7,
	"ago": 8, "agosto": 8, "aug": 8,
	"sep": 9, "sept": 9, "septiembre": 9,
	"oct": 10, "octubre": 10,
	"nov": 11, "noviembre": 11,
	"dic": 12, "diciembre": 12, "dec": 12,
}

// LoadSales reads a sales registry CSV. Two layouts are accepted: long
// (make, model, year, month, units) and wide, with one column per month named
// ventas_YYYY_MM / YYYY_MM or by Spanish month name next to a year column.
func LoadSales(ctx context.Context, path string) ([]SalesRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open sales %s", path)
	}
	defer f.Close() //nolint:errcheck

	recs, err := fetcher.ReadCSVRecords(ctx, f, fetcher.CSVOptions{LazyQuotes: true})
	if err != nil {
		return nil, eris.Wrapf(err, "source: read sales %s", path)
	}

	var out []SalesRecord
	for _, rec := range recs {
		out = append(out, salesFromRecord(rec)...)
	}
	zap.L().Info("source: loaded sales registry",
		zap.String("path", path),
		zap.Int("records", len(out)),
	)
	return out, nil
}

func salesFromRecord(rec fetcher.Record) []SalesRecord {
	base := SalesRecord{
		Make:    normalize.Canonical(rec.Get("make", "marca", "brand")),
		Model:   normalize.Canonical(rec.Get("model", "modelo")),
		Segment: rec.Get(model.ColSegment, "segmento", "segment"),
	}
	if base.Make == "" || base.Model == "" {
		return nil
	}
	year, hasYear := value.ParseYear(rec.Get("ano", "year", "anio", "ano_modelo"))

	if m, ok := parseMonth(rec.Get("mes", "month")); ok && hasYear {
		units, ok := value.ParseNumber(rec.Get("unidades", "units", "ventas", "cantidad"))
		if !ok {
			return nil
		}
		r := base
		r.Year, r.Month, r.Units = year, m, units
		return []SalesRecord{r}
	}

	var out []SalesRecord
	for _, k := range sortedKeys(rec) {
		var y, m int
		if sub := wideMonthRe.FindStringSubmatch(k); sub != nil {
			y, _ = strconv.Atoi(sub[1])
			m, _ = strconv.Atoi(sub[2])
		} else if mm, ok := monthNames[k]; ok && hasYear {
			y, m = year, mm
		} else {
			continue
		}
		if m < 1 || m > 12 {
			continue
		}
		units, ok := value.ParseNumber(rec[k])
		if !ok {
			continue
		}
		r := base
		r.Year, r.Month, r.Units = y, m, units
		out = append(out, r)
	}
	return out
}

func parseMonth(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n, true
	}
	m, ok := monthNames[normalize.Slug(s)]
	return m, ok
}
