package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/model"
)

func TestLookup(t *testing.T) {
	dir := t.TempDir()
	var rows []model.Row
	for _, id := range []string{"a", "b"} {
		r := model.NewRow()
		r.SetStr(model.ColVehicleID, id)
		r.SetStr(model.ColMake, "Mazda")
		rows = append(rows, r)
	}
	_, err := catalog.Write(dir, rows, time.Now())
	require.NoError(t, err)

	snap, err := catalog.NewCache(filepath.Join(dir, catalog.CurrentName), "").Get(context.Background())
	require.NoError(t, err)

	got, err := lookup(snap, "b", "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].Str(model.ColVehicleID))

	_, err = lookup(snap, "a", "zzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"zzz"`)
}
