// Package catalog persists the canonical vehicle table as versioned CSV
// files and serves it back through a reload-on-change snapshot cache.
package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/value"
)

// CurrentName is the pointer file refreshed after every write.
const CurrentName = "current.csv"

// timestampLayout renders file versions as 20250102T150405Z.
const timestampLayout = "20060102T150405Z"

// FileName returns the versioned file name for a write at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("catalog_%s.csv", t.UTC().Format(timestampLayout))
}

// Columns returns the output column order for rows: every canonical column,
// then any other column seen in rows in lexical order.
func Columns(rows []model.Row) []string {
	cols := make([]string, 0, len(model.CanonicalColumns)+16)
	seen := make(map[string]bool, len(model.CanonicalColumns))
	for _, c := range model.CanonicalColumns {
		cols = append(cols, c)
		seen[c] = true
	}
	var extra []string
	for _, r := range rows {
		for c := range r {
			if !seen[c] {
				seen[c] = true
				extra = append(extra, c)
			}
		}
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// Encode writes rows as CSV to w, sorted by vehicle_id. The input slice is
// not reordered.
func Encode(w io.Writer, rows []model.Row) error {
	sorted := make([]model.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Str(model.ColVehicleID) < sorted[j].Str(model.ColVehicleID)
	})

	cols := Columns(sorted)
	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return eris.Wrap(err, "catalog: write header")
	}
	rec := make([]string, len(cols))
	for _, r := range sorted {
		for i, c := range cols {
			rec[i] = r.Str(c)
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "catalog: write row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "catalog: flush")
}

// Write persists rows under dir as a versioned file stamped with now and
// repoints current.csv at it. Returns the versioned file path.
func Write(dir string, rows []model.Row, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "catalog: create output dir %s", dir)
	}

	name := FileName(now)
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".catalog-*.csv")
	if err != nil {
		return "", eris.Wrap(err, "catalog: create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if err := Encode(tmp, rows); err != nil {
		tmp.Close() //nolint:errcheck
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "catalog: close temp file")
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", eris.Wrapf(err, "catalog: rename to %s", path)
	}

	if err := UpdateCurrent(dir, name); err != nil {
		return path, err
	}

	zap.L().Info("catalog: written",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)
	return path, nil
}

// UpdateCurrent atomically points dir/current.csv at dir/name: a relative
// symlink swapped in by rename, or a full copy renamed into place when the
// filesystem refuses symlinks.
func UpdateCurrent(dir, name string) error {
	current := filepath.Join(dir, CurrentName)
	link := filepath.Join(dir, ".current.link")
	_ = os.Remove(link)

	if err := os.Symlink(name, link); err == nil {
		if err := os.Rename(link, current); err == nil {
			return nil
		}
		_ = os.Remove(link)
	}

	zap.L().Debug("catalog: symlink swap unavailable, copying", zap.String("dir", dir))
	return copyInto(filepath.Join(dir, name), current)
}

func copyInto(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "catalog: open %s", src)
	}
	defer in.Close() //nolint:errcheck

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".current-*.csv")
	if err != nil {
		return eris.Wrap(err, "catalog: create copy temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close() //nolint:errcheck
		return eris.Wrap(err, "catalog: copy current")
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "catalog: close copy temp file")
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return eris.Wrapf(err, "catalog: replace %s", dst)
	}
	return nil
}

// Read loads a catalog CSV. Text columns stay strings; other cells become
// bools or numbers when they parse as such.
func Read(ctx context.Context, path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	recs, err := fetcher.ReadCSVRecords(ctx, f, fetcher.CSVOptions{Delimiter: ','})
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}

	rows := make([]model.Row, 0, len(recs))
	for _, rec := range recs {
		r := model.NewRow()
		for col, cell := range rec {
			if cell == "" {
				continue
			}
			if model.IsTextColumn(col) {
				r.SetStr(col, cell)
				continue
			}
			r.Set(col, value.Infer(cell))
		}
		rows = append(rows, r)
	}
	return rows, nil
}
