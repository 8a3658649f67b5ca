package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/config"
	"github.com/sells-group/catalog-cli/internal/pipeline"
	"github.com/sells-group/catalog-cli/internal/scorer"
	"github.com/sells-group/catalog-cli/internal/store"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Build a new versioned catalog from the configured sources",
	Long:  "Loads every source, resolves aliases, merges OEM, overlay, maintenance and sales data, derives costs and pillar scores, writes catalog_<timestamp>.csv and repoints current.csv.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("enrich"); err != nil {
			return err
		}

		dryRun, _ := cmd.Flags().GetBool("dry-run")
		printReport, _ := cmd.Flags().GetBool("report")

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		var out io.Writer
		if printReport {
			out = os.Stdout
		}
		_, err = runEnrich(ctx, cfg, st, enrichOptions{DryRun: dryRun, Report: out, Now: time.Now})
		return err
	},
}

func init() {
	enrichCmd.Flags().Bool("dry-run", false, "run the pipeline without writing a catalog")
	enrichCmd.Flags().Bool("report", false, "print the enrichment report as markdown")
	rootCmd.AddCommand(enrichCmd)
}

type enrichOptions struct {
	DryRun bool
	Report io.Writer
	Now    func() time.Time
}

// pipelineOptions maps configuration onto pipeline options.
func pipelineOptions(ctx context.Context, c *config.Config) (pipeline.Options, error) {
	var weights map[string]scorer.Weights
	if c.Scoring.WeightsFile != "" {
		w, err := scorer.LoadWeights(c.Scoring.WeightsFile)
		if err != nil {
			return pipeline.Options{}, err
		}
		weights = w
	}

	return pipeline.Options{
		Sources: pipeline.Sources{
			Primary:     c.Sources.Primary,
			OEMDir:      c.Sources.OEMDir,
			OEMYears:    c.Sources.OEMYears,
			Overlay:     c.Sources.Overlay,
			Sales:       c.Sources.Sales,
			Maintenance: c.Sources.Maintenance,
			Aliases:     c.Sources.Aliases,
		},
		AllowedYears:      c.Catalog.AllowedYears,
		Prices:            newFuelResolver(c.Fuel).Prices(ctx),
		Weights:           weights,
		CoverageThreshold: c.Scoring.CoverageThreshold,
	}, nil
}

// runEnrich executes one ledgered enrichment run and returns the path of the
// written catalog (empty on a dry run).
func runEnrich(ctx context.Context, c *config.Config, st store.Store, opts enrichOptions) (string, error) {
	log := zap.L().With(zap.String("component", "enrich"))

	run, err := st.CreateRun(ctx)
	if err != nil {
		return "", eris.Wrap(err, "enrich: create run")
	}
	log = log.With(zap.String("run_id", run.ID))

	fail := func(cause error) (string, error) {
		if ferr := st.FailRun(ctx, run.ID, cause); ferr != nil {
			log.Error("enrich: failed to record failure", zap.Error(ferr))
		}
		return "", cause
	}

	popts, err := pipelineOptions(ctx, c)
	if err != nil {
		return fail(eris.Wrap(err, "enrich: options"))
	}

	rows, report, err := pipeline.New(popts).Run(ctx)
	if err != nil {
		return fail(eris.Wrap(err, "enrich: pipeline"))
	}

	path := ""
	if !opts.DryRun {
		path, err = catalog.Write(c.Catalog.OutputDir, rows, opts.Now())
		if err != nil {
			return fail(eris.Wrap(err, "enrich: write catalog"))
		}
	}

	if err := st.CompleteRun(ctx, run.ID, runResult(report, path)); err != nil {
		return path, eris.Wrap(err, "enrich: complete run")
	}

	for _, w := range report.Warnings {
		log.Warn("enrich: " + w)
	}
	log.Info("enrich: run complete",
		zap.Int("rows", report.RowsOut),
		zap.String("path", path),
		zap.Bool("dry_run", opts.DryRun),
	)

	if opts.Report != nil {
		if _, err := fmt.Fprint(opts.Report, report.Format()); err != nil {
			return path, eris.Wrap(err, "enrich: print report")
		}
	}
	return path, nil
}

func runResult(r *pipeline.Report, path string) store.RunResult {
	res := store.RunResult{
		Rows:       r.RowsOut,
		OutputPath: path,
		Warnings:   r.Warnings,
	}
	for _, ph := range r.Phases {
		res.Phases = append(res.Phases, store.Phase{Name: ph.Name, DurationMS: ph.DurationMS, Error: ph.Error})
	}
	return res
}
