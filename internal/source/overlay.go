package source

import (
	"context"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
)

// LoadOverlay reads the correction overlay: either an array of objects that
// carry vehicle_id, or a map of vehicle_id → object. Entries without an id
// are dropped. A later entry for the same id overrides field by field.
func LoadOverlay(ctx context.Context, path string) (map[string]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open overlay %s", path)
	}
	defer f.Close() //nolint:errcheck

	objs, err := fetcher.DecodeObjects(f)
	if err != nil {
		return nil, eris.Wrapf(err, "source: decode overlay %s", path)
	}

	out := make(map[string]model.Row, len(objs))
	var dropped int
	for _, obj := range objs {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "source: load overlay")
		}

		row := model.NewRow()
		for _, k := range sortedKeys(obj.Fields) {
			col := CanonicalColumn(k)
			if col == "" {
				continue
			}
			row.Set(col, Coerce(col, obj.Fields[k]))
		}

		id := strings.TrimSpace(row.Str(model.ColVehicleID))
		if id == "" {
			id = strings.TrimSpace(obj.Key)
		}
		if id == "" {
			dropped++
			continue
		}
		row.Delete(model.ColVehicleID)

		if prev, ok := out[id]; ok {
			for col, v := range row {
				prev[col] = v
			}
			continue
		}
		out[id] = row
	}

	zap.L().Info("source: loaded overlay",
		zap.String("path", path),
		zap.Int("vehicles", len(out)),
		zap.Int("dropped_without_id", dropped),
	)
	return out, nil
}
