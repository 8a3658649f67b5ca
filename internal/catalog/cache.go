package catalog

import (
	"context"
	"os"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/catalog-cli/internal/model"
)

// ErrNotFound is returned when neither the catalog path nor its fallback
// exists.
var ErrNotFound = eris.New("catalog not found")

// Snapshot is an immutable view of one catalog file.
type Snapshot struct {
	Path     string
	ModTime  time.Time
	Size     int64
	LoadedAt time.Time
	Rows     []model.Row

	byID map[string]model.Row
}

// Lookup returns the row with the given vehicle_id.
func (s *Snapshot) Lookup(id string) (model.Row, bool) {
	r, ok := s.byID[id]
	return r, ok
}

func newSnapshot(path string, info os.FileInfo, rows []model.Row) *Snapshot {
	s := &Snapshot{
		Path:     path,
		ModTime:  info.ModTime(),
		Size:     info.Size(),
		LoadedAt: time.Now().UTC(),
		Rows:     rows,
		byID:     make(map[string]model.Row, len(rows)),
	}
	for _, r := range rows {
		s.byID[r.Str(model.ColVehicleID)] = r
	}
	return s
}

// Cache serves the current catalog snapshot, reloading it when the file's
// modification time or size changes. Readers never block each other; a
// reload is shared by every caller that observes the change.
type Cache struct {
	path     string
	fallback string

	snap  atomic.Pointer[Snapshot]
	group singleflight.Group
}

// NewCache creates a Cache over path, trying fallback when path is missing.
func NewCache(path, fallback string) *Cache {
	return &Cache{path: path, fallback: fallback}
}

// resolve returns the first existing candidate path.
func (c *Cache) resolve() (string, os.FileInfo, error) {
	info, err := os.Stat(c.path)
	if err == nil {
		return c.path, info, nil
	}
	if c.fallback != "" {
		if info, ferr := os.Stat(c.fallback); ferr == nil {
			return c.fallback, info, nil
		}
		return "", nil, eris.Wrapf(ErrNotFound, "catalog: %s (fallback %s)", c.path, c.fallback)
	}
	return "", nil, eris.Wrapf(ErrNotFound, "catalog: %s", c.path)
}

// Get returns the current snapshot.
func (c *Cache) Get(ctx context.Context) (*Snapshot, error) {
	path, info, err := c.resolve()
	if err != nil {
		return nil, err
	}
	if cur := c.snap.Load(); cur != nil && fresh(cur, path, info) {
		return cur, nil
	}

	v, err, _ := c.group.Do(path, func() (any, error) {
		if cur := c.snap.Load(); cur != nil && fresh(cur, path, info) {
			return cur, nil
		}
		rows, err := Read(ctx, path)
		if err != nil {
			return nil, err
		}
		s := newSnapshot(path, info, rows)
		c.snap.Store(s)
		zap.L().Info("catalog: snapshot loaded",
			zap.String("path", path),
			zap.Int("rows", len(rows)),
			zap.Time("mtime", s.ModTime),
		)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func fresh(s *Snapshot, path string, info os.FileInfo) bool {
	return s.Path == path && s.ModTime.Equal(info.ModTime()) && s.Size == info.Size()
}
