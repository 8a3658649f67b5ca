package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/config"
	"github.com/sells-group/catalog-cli/internal/fuel"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/store"
)

// staticPrices turns configured prices into overrides; zero means unset.
func staticPrices(c config.FuelConfig) fuel.Prices {
	opt := func(f float64) *float64 {
		if f <= 0 {
			return nil
		}
		return fuel.Float(f)
	}
	return fuel.Prices{
		Magna:       opt(c.Magna),
		Premium:     opt(c.Premium),
		Diesel:      opt(c.Diesel),
		Electricity: opt(c.Electricity),
	}
}

func newFuelResolver(c config.FuelConfig) *fuel.Resolver {
	return fuel.NewResolver(fuel.Options{
		Static:    staticPrices(c),
		RemoteURL: c.RemoteURL,
		Timeout:   time.Duration(c.TimeoutSecs) * time.Second,
		TTL:       time.Duration(c.CacheTTLHours) * time.Hour,
	})
}

func newCatalogCache(c config.CatalogConfig) *catalog.Cache {
	return catalog.NewCache(c.Path, c.FallbackPath)
}

// loadSnapshot reads the configured catalog once.
func loadSnapshot(ctx context.Context) (*catalog.Snapshot, error) {
	return newCatalogCache(cfg.Catalog).Get(ctx)
}

// lookup returns the rows for ids in order.
func lookup(snap *catalog.Snapshot, ids ...string) ([]model.Row, error) {
	out := make([]model.Row, 0, len(ids))
	for _, id := range ids {
		row, ok := snap.Lookup(id)
		if !ok {
			return nil, eris.Errorf("vehicle %q not found in %s", id, snap.Path)
		}
		out = append(out, row)
	}
	return out, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
