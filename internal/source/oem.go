package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
)

// DefaultOEMYears are the model years kept from OEM frames.
var DefaultOEMYears = []int{2025, 2026}

// oemFileLimit bounds concurrent OEM file parsing.
const oemFileLimit = 4

// LoadOEM reads every CSV and XLSX file under dir (recursively) and keeps
// rows whose year is in years. Files that fail to parse are skipped with a
// warning. Rows come back ordered by file path, then file order.
func LoadOEM(ctx context.Context, dir string, years []int) ([]model.Row, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv", ".xlsx":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "source: walk oem dir %s", dir)
	}
	sort.Strings(files)

	if len(years) == 0 {
		years = DefaultOEMYears
	}
	keep := make(map[int]bool, len(years))
	for _, y := range years {
		keep[y] = true
	}

	perFile := make([][]model.Row, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(oemFileLimit)
	for i, path := range files {
		g.Go(func() error {
			recs, err := readTabular(gctx, path)
			if err != nil {
				if gctx.Err() != nil {
					return err
				}
				zap.L().Warn("source: skipping unreadable oem file",
					zap.String("path", path),
					zap.Error(err),
				)
				return nil
			}
			rows := make([]model.Row, 0, len(recs))
			for _, rec := range recs {
				row := rowFromRecord(rec)
				y, ok := row.Year()
				if !ok || !keep[y] {
					continue
				}
				EnsureVehicleID(row)
				rows = append(rows, row)
			}
			perFile[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "source: load oem frames")
	}

	var out []model.Row
	for _, rows := range perFile {
		out = append(out, rows...)
	}
	zap.L().Info("source: loaded oem frames",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

// readTabular reads a CSV or XLSX file into header-keyed records.
func readTabular(ctx context.Context, path string) ([]fetcher.Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return fetcher.ReadXLSXRecords(path, fetcher.XLSXOptions{})
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	recs, err := fetcher.ReadCSVRecords(ctx, f, fetcher.CSVOptions{LazyQuotes: true})
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", path)
	}
	return recs, nil
}
