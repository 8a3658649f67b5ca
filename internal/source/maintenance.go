package source

import (
	"context"
	"os"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/value"
)

// MaintenanceRecord is the scheduled service cost up to 60,000 km of one
// (make, model, year, version). Year is zero when the table omits it.
type MaintenanceRecord struct {
	Make    string
	Model   string
	Version string
	Year    int
	Cost    float64
}

// serviceIntervalRe matches per-service cost columns: servicio_10000,
// costo_20k, service_30_km.
var serviceIntervalRe = regexp.MustCompile(`^(?:servicio|service|costo)_(\d+)(k|_?km)?$`)

const serviceHorizonKm = 60000

// LoadMaintenance reads the maintenance cost CSV. The cost is read from a
// 60k total column when present, otherwise summed over per-service columns up
// to 60,000 km. Rows without make, model or any cost are skipped.
func LoadMaintenance(ctx context.Context, path string) ([]MaintenanceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open maintenance %s", path)
	}
	defer f.Close() //nolint:errcheck

	recs, err := fetcher.ReadCSVRecords(ctx, f, fetcher.CSVOptions{LazyQuotes: true})
	if err != nil {
		return nil, eris.Wrapf(err, "source: read maintenance %s", path)
	}

	out := make([]MaintenanceRecord, 0, len(recs))
	for _, rec := range recs {
		m := MaintenanceRecord{
			Make:    normalize.Canonical(rec.Get("make", "marca")),
			Model:   normalize.Canonical(rec.Get("model", "modelo")),
			Version: normalize.Canonical(rec.Get("version", "version_name", "trim")),
		}
		if m.Make == "" || m.Model == "" {
			continue
		}
		if y, ok := value.ParseYear(rec.Get("ano", "year", "anio", "ano_modelo")); ok {
			m.Year = y
		}
		cost, ok := maintenanceCost(rec)
		if !ok {
			continue
		}
		m.Cost = cost
		out = append(out, m)
	}

	zap.L().Info("source: loaded maintenance costs",
		zap.String("path", path),
		zap.Int("records", len(out)),
	)
	return out, nil
}

func maintenanceCost(rec fetcher.Record) (float64, bool) {
	total := rec.Get("service_cost_60k_mxn", "costo_60k", "costo_60k_mxn", "costo_mantenimiento_60k",
		"mantenimiento_60k", "total_60k", "costo_total")
	if f, ok := value.ParseNumber(total); ok {
		return f, true
	}

	var sum float64
	var found bool
	// Summed in key order so the float total is identical across runs.
	for _, k := range sortedKeys(rec) {
		sub := serviceIntervalRe.FindStringSubmatch(k)
		if sub == nil {
			continue
		}
		km, _ := strconv.Atoi(sub[1])
		if sub[2] == "k" || km < 1000 {
			km *= 1000
		}
		if km > serviceHorizonKm {
			continue
		}
		if f, ok := value.ParseNumber(rec[k]); ok {
			sum += f
			found = true
		}
	}
	return sum, found
}
