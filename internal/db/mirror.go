package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

// DefaultTable is the mirror table name.
const DefaultTable = "vehicle_catalog"

// mirrorColumns are the mirror's columns in COPY order.
var mirrorColumns = []string{"vehicle_id", "make", "model", "version", "ano", "equip_score", "data", "updated_at"}

// Mirror publishes catalog rows to Postgres.
type Mirror struct {
	pool  Pool
	table string
	now   func() time.Time
}

// NewMirror creates a Mirror writing to table (DefaultTable when blank).
func NewMirror(pool Pool, table string) *Mirror {
	if table == "" {
		table = DefaultTable
	}
	return &Mirror{pool: pool, table: table, now: func() time.Time { return time.Now().UTC() }}
}

// Migrate creates the mirror table when it does not exist.
func (m *Mirror) Migrate(ctx context.Context) error {
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	vehicle_id  TEXT PRIMARY KEY,
	make        TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL DEFAULT '',
	version     TEXT NOT NULL DEFAULT '',
	ano         INTEGER,
	equip_score DOUBLE PRECISION,
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`, sanitizeTable(m.table))
	if _, err := m.pool.Exec(ctx, ddl); err != nil {
		return eris.Wrapf(err, "db: migrate %s", m.table)
	}
	return nil
}

// Publish writes rows keyed by vehicle_id. An empty table is filled with a
// plain COPY; otherwise rows are upserted. Rows without an id are skipped.
func (m *Mirror) Publish(ctx context.Context, rows []model.Row) (int64, error) {
	records, err := m.records(rows)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	empty, err := m.isEmpty(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if empty {
		n, err = CopyFrom(ctx, m.pool, m.table, mirrorColumns, records)
	} else {
		n, err = BulkUpsert(ctx, m.pool, UpsertConfig{
			Table:        m.table,
			Columns:      mirrorColumns,
			ConflictKeys: []string{"vehicle_id"},
		}, records)
	}
	if err != nil {
		return 0, err
	}
	zap.L().Info("db: catalog published",
		zap.String("table", m.table),
		zap.Bool("initial_load", empty),
		zap.Int("rows", len(records)),
		zap.Int64("affected", n),
	)
	return n, nil
}

func (m *Mirror) isEmpty(ctx context.Context) (bool, error) {
	var exists bool
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s)", sanitizeTable(m.table))
	if err := m.pool.QueryRow(ctx, q).Scan(&exists); err != nil {
		return false, eris.Wrapf(err, "db: check %s for rows", m.table)
	}
	return !exists, nil
}

func (m *Mirror) records(rows []model.Row) ([][]any, error) {
	now := m.now()
	out := make([][]any, 0, len(rows))
	for _, r := range rows {
		id := r.Str(model.ColVehicleID)
		if id == "" {
			continue
		}
		data, err := json.Marshal(r)
		if err != nil {
			return nil, eris.Wrapf(err, "db: marshal row %s", id)
		}

		var year, score any
		if y, ok := r.Year(); ok {
			year = y
		}
		if s, ok := r.Num(model.ColEquipScore); ok {
			score = s
		}
		out = append(out, []any{
			id,
			r.Str(model.ColMake),
			r.Str(model.ColModel),
			r.Str(model.ColVersion),
			year,
			score,
			data,
			now,
		})
	}
	return out, nil
}
