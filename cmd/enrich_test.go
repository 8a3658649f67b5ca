package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/config"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/pipeline"
	"github.com/sells-group/catalog-cli/internal/store"
)

const testDump = `[
  {"vehicle_id": "corolla-le", "make": "Toyota", "model": "Corolla", "version": "LE", "ano": 2025,
   "body_style": "Sedán", "fuel_category": "Gasolina", "msrp": 400000, "precio_transaccion": 380000,
   "combinado_kml": 16},
  {"vehicle_id": "dolphin", "make": "BYD", "model": "Dolphin", "version": "Mini", "ano": 2025,
   "body_style": "Hatchback", "fuel_category": "Eléctrico", "msrp": 360000},
  {"vehicle_id": "jetta", "make": "Volkswagen", "model": "Jetta", "ano": 2019, "msrp": 350000}
]`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	primary := filepath.Join(dir, "in", "vehiculos.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(primary), 0o755))
	require.NoError(t, os.WriteFile(primary, []byte(testDump), 0o644))

	c := &config.Config{}
	c.Sources.Primary = primary
	c.Sources.OEMDir = filepath.Join(dir, "oem")
	c.Catalog.OutputDir = filepath.Join(dir, "enriched")
	c.Catalog.Path = filepath.Join(c.Catalog.OutputDir, catalog.CurrentName)
	c.Catalog.AllowedYears = []int{2024, 2025, 2026}
	c.Fuel.Magna = 24
	c.Scoring.CoverageThreshold = 0.6
	c.Store.Path = filepath.Join(dir, "runs.db")
	return c
}

func testStore(t *testing.T, path string) store.Store {
	t.Helper()
	st, err := store.NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestRunEnrich(t *testing.T) {
	c := testConfig(t)
	st := testStore(t, c.Store.Path)
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var report bytes.Buffer
	path, err := runEnrich(ctx, c, st, enrichOptions{Report: &report, Now: func() time.Time { return now }})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(c.Catalog.OutputDir, "catalog_20250601T120000Z.csv"), path)
	assert.Contains(t, report.String(), "# Enrichment Report")

	rows, err := catalog.Read(ctx, c.Catalog.Path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "corolla-le", rows[0].Str(model.ColVehicleID))
	bono, ok := rows[0].Num(model.ColBono)
	require.True(t, ok)
	assert.InDelta(t, 20000, bono, 1e-9)

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusComplete, runs[0].Status)
	assert.Equal(t, 2, runs[0].Rows)
	assert.Equal(t, path, runs[0].OutputPath)

	run, err := st.GetRun(ctx, runs[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, run.Phases)
	assert.Equal(t, "load", run.Phases[0].Name)
}

func TestRunEnrich_DryRun(t *testing.T) {
	c := testConfig(t)
	st := testStore(t, c.Store.Path)
	ctx := context.Background()

	path, err := runEnrich(ctx, c, st, enrichOptions{DryRun: true, Now: time.Now})
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.NoFileExists(t, c.Catalog.Path)

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusComplete, runs[0].Status)
}

func TestRunEnrich_PrimaryMissing(t *testing.T) {
	c := testConfig(t)
	require.NoError(t, os.Remove(c.Sources.Primary))
	st := testStore(t, c.Store.Path)
	ctx := context.Background()

	_, err := runEnrich(ctx, c, st, enrichOptions{Now: time.Now})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrPrimaryMissing)

	runs, err := st.ListRuns(ctx, store.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.RunStatusFailed, runs[0].Status)
	assert.Contains(t, runs[0].Error, "primary normalized dump not found")
}

func TestRunEnrich_BadWeightsFile(t *testing.T) {
	c := testConfig(t)
	c.Scoring.WeightsFile = filepath.Join(t.TempDir(), "missing.yaml")
	st := testStore(t, c.Store.Path)

	_, err := runEnrich(context.Background(), c, st, enrichOptions{Now: time.Now})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weights")
}

func TestRunResult(t *testing.T) {
	r := &pipeline.Report{
		RowsOut:  3,
		Warnings: []string{"w"},
		Phases:   []pipeline.Phase{{Name: "load", DurationMS: 5}, {Name: "merge", Error: "boom"}},
	}
	got := runResult(r, "out.csv")
	assert.Equal(t, store.RunResult{
		Rows:       3,
		OutputPath: "out.csv",
		Warnings:   []string{"w"},
		Phases:     []store.Phase{{Name: "load", DurationMS: 5}, {Name: "merge", Error: "boom"}},
	}, got)
}
