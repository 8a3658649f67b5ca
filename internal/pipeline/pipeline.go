// Package pipeline runs catalog enrichment: load every source, resolve name
// aliases, layer the secondary sources onto the primary rows, derive costs
// and scores, and report coverage.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/catalog-cli/internal/cost"
	"github.com/sells-group/catalog-cli/internal/fuel"
	"github.com/sells-group/catalog-cli/internal/merge"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/scorer"
	"github.com/sells-group/catalog-cli/internal/source"
)

// ErrPrimaryMissing aborts a run whose primary dump does not exist.
var ErrPrimaryMissing = eris.New("primary normalized dump not found")

// DefaultCoverageThreshold is the pillar fill rate below which a run warns.
const DefaultCoverageThreshold = 0.6

// Sources are the input paths. Every path but Primary is optional.
type Sources struct {
	Primary     string
	OEMDir      string
	OEMYears    []int
	Overlay     string
	Sales       string
	Maintenance string
	Aliases     string
}

// Options configures a Pipeline.
type Options struct {
	Sources           Sources
	AllowedYears      []int
	Prices            fuel.Prices
	Weights           map[string]scorer.Weights
	CoverageThreshold float64
}

// Pipeline runs enrichment with fixed options.
type Pipeline struct {
	opts   Options
	calc   *cost.Calculator
	scorer *scorer.Scorer
}

// New creates a Pipeline.
func New(opts Options) *Pipeline {
	if opts.CoverageThreshold <= 0 {
		opts.CoverageThreshold = DefaultCoverageThreshold
	}
	if len(opts.Sources.OEMYears) == 0 {
		opts.Sources.OEMYears = source.DefaultOEMYears
	}
	return &Pipeline{
		opts:   opts,
		calc:   cost.NewCalculator(opts.Prices),
		scorer: scorer.New(opts.Weights),
	}
}

// inputs holds everything the load phase read.
type inputs struct {
	primary     []model.Row
	oem         []model.Row
	overlay     map[string]model.Row
	sales       []source.SalesRecord
	maintenance []source.MaintenanceRecord
	aliases     []normalize.Alias
}

// Run executes the pipeline and returns the canonical rows sorted by
// vehicle_id along with the run report.
func (p *Pipeline) Run(ctx context.Context) ([]model.Row, *Report, error) {
	log := zap.L().With(zap.String("component", "pipeline"))
	report := &Report{StartedAt: time.Now().UTC()}

	src := p.opts.Sources
	if _, err := os.Stat(src.Primary); err != nil {
		return nil, report, eris.Wrapf(ErrPrimaryMissing, "pipeline: %s", src.Primary)
	}

	// Phase tracking helper with mutex for concurrent access.
	var phasesMu sync.Mutex
	trackPhase := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		ph := Phase{Name: name, DurationMS: time.Since(start).Milliseconds()}
		if err != nil {
			ph.Error = err.Error()
			log.Error("pipeline: phase failed", zap.String("phase", name), zap.Int64("duration_ms", ph.DurationMS), zap.Error(err))
		} else {
			log.Info("pipeline: phase complete", zap.String("phase", name), zap.Int64("duration_ms", ph.DurationMS))
		}
		phasesMu.Lock()
		report.Phases = append(report.Phases, ph)
		phasesMu.Unlock()
		return err
	}

	var in inputs
	if err := trackPhase("load", func() error { return p.load(ctx, &in, report) }); err != nil {
		return nil, report, err
	}
	report.RowsIn = len(in.primary)

	_ = trackPhase("aliases", func() error {
		resolver := normalize.NewResolver(in.aliases)
		for _, r := range in.primary {
			resolver.Apply(r)
		}
		for _, r := range in.oem {
			resolver.Apply(r)
		}
		for i := range in.sales {
			s := &in.sales[i]
			s.Make = resolver.Make(s.Make)
			s.Model = resolver.Model(s.Make, s.Model)
		}
		for i := range in.maintenance {
			m := &in.maintenance[i]
			m.Make = resolver.Make(m.Make)
			m.Model = resolver.Model(m.Make, m.Model)
			if m.Version != "" {
				m.Version = resolver.Version(m.Make, m.Model, m.Version)
			}
		}
		report.Aliases = resolver.Len()
		return nil
	})

	rows := in.primary
	_ = trackPhase("merge", func() error {
		report.OEMMatched = merge.JoinOEM(rows, in.oem)
		report.OverlayMatched = merge.ApplyOverlay(rows, in.overlay)
		report.MaintenanceMatched = merge.JoinMaintenance(rows, in.maintenance)
		report.SalesMatched = merge.JoinSales(rows, in.sales)
		return nil
	})

	_ = trackPhase("filter", func() error {
		rows = p.filter(rows, report)
		return nil
	})

	_ = trackPhase("costs", func() error {
		p.calc.ApplyAll(rows)
		return nil
	})

	_ = trackPhase("scores", func() error {
		p.scorer.ScoreAll(rows)
		return nil
	})

	report.RowsOut = len(rows)
	report.Coverage = scorer.Coverage(rows)
	for _, col := range model.PillarColumns {
		if cov := report.Coverage[col]; len(rows) > 0 && cov < p.opts.CoverageThreshold {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("%s coverage %.1f%% below %.0f%%", col, cov*100, p.opts.CoverageThreshold*100))
		}
	}
	for _, w := range report.Warnings {
		log.Warn("pipeline: coverage", zap.String("warning", w))
	}

	sortByID(rows)
	report.FinishedAt = time.Now().UTC()
	log.Info("pipeline: enrichment complete",
		zap.Int("rows_in", report.RowsIn),
		zap.Int("rows_out", report.RowsOut),
		zap.Int("warnings", len(report.Warnings)),
	)
	return rows, report, nil
}

// load reads every source concurrently. Only primary failures are fatal;
// an optional source that is absent or unreadable is skipped with a warning.
func (p *Pipeline) load(ctx context.Context, in *inputs, report *Report) error {
	src := p.opts.Sources
	var mu sync.Mutex
	skip := func(kind, path string, err error) {
		zap.L().Warn("pipeline: skipping source", zap.String("source", kind), zap.String("path", path), zap.Error(err))
		mu.Lock()
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s source skipped: %v", kind, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		rows, err := source.LoadPrimary(gctx, src.Primary)
		if err != nil {
			return eris.Wrap(err, "pipeline: load primary")
		}
		in.primary = rows
		return nil
	})
	if present(src.OEMDir) {
		g.Go(func() error {
			rows, err := source.LoadOEM(gctx, src.OEMDir, src.OEMYears)
			if err != nil {
				skip("oem", src.OEMDir, err)
				return nil
			}
			in.oem = rows
			return nil
		})
	}
	if present(src.Overlay) {
		g.Go(func() error {
			ov, err := source.LoadOverlay(gctx, src.Overlay)
			if err != nil {
				skip("overlay", src.Overlay, err)
				return nil
			}
			in.overlay = ov
			return nil
		})
	}
	if present(src.Sales) {
		g.Go(func() error {
			recs, err := source.LoadSales(gctx, src.Sales)
			if err != nil {
				skip("sales", src.Sales, err)
				return nil
			}
			in.sales = recs
			return nil
		})
	}
	if present(src.Maintenance) {
		g.Go(func() error {
			recs, err := source.LoadMaintenance(gctx, src.Maintenance)
			if err != nil {
				skip("maintenance", src.Maintenance, err)
				return nil
			}
			in.maintenance = recs
			return nil
		})
	}
	if present(src.Aliases) {
		g.Go(func() error {
			aliases, err := source.LoadAliases(gctx, src.Aliases)
			if err != nil {
				skip("aliases", src.Aliases, err)
				return nil
			}
			in.aliases = aliases
			return nil
		})
	}
	return g.Wait()
}

// present reports whether an optional source path is set and exists.
func present(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	if err != nil {
		zap.L().Info("pipeline: optional source not found", zap.String("path", path))
		return false
	}
	return true
}

// filter drops rows without make, model or an allowed year, then collapses
// duplicate vehicle_ids keeping the last one seen.
func (p *Pipeline) filter(rows []model.Row, report *Report) []model.Row {
	allowed := make(map[int]bool, len(p.opts.AllowedYears))
	for _, y := range p.opts.AllowedYears {
		allowed[y] = true
	}

	kept := make([]model.Row, 0, len(rows))
	for _, r := range rows {
		if r.Missing(model.ColMake) || r.Missing(model.ColModel) {
			report.DroppedIncomplete++
			continue
		}
		y, ok := r.Year()
		if !ok {
			report.DroppedIncomplete++
			continue
		}
		if len(allowed) > 0 && !allowed[y] {
			report.DroppedByYear++
			continue
		}
		kept = append(kept, r)
	}

	last := make(map[string]int, len(kept))
	for i, r := range kept {
		last[r.Str(model.ColVehicleID)] = i
	}
	out := kept[:0]
	for i, r := range kept {
		if last[r.Str(model.ColVehicleID)] != i {
			report.Duplicates++
			continue
		}
		out = append(out, r)
	}
	return out
}
