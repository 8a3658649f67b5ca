package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/normalize"
)

type aliasFile struct {
	Aliases []normalize.Alias `yaml:"aliases"`
}

// LoadAliases reads an alias table from YAML (.yaml/.yml) or CSV. File order
// is preserved so the resolver can apply first-seen precedence.
func LoadAliases(ctx context.Context, path string) ([]normalize.Alias, error) {
	var (
		out []normalize.Alias
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		out, err = loadAliasYAML(path)
	default:
		out, err = loadAliasCSV(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	zap.L().Info("source: loaded aliases",
		zap.String("path", path),
		zap.Int("aliases", len(out)),
	)
	return out, nil
}

func loadAliasYAML(path string) ([]normalize.Alias, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read aliases %s", path)
	}

	var doc aliasFile
	if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Aliases) > 0 {
		return doc.Aliases, nil
	}
	var list []normalize.Alias
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, eris.Wrapf(err, "source: parse aliases %s", path)
	}
	return list, nil
}

func loadAliasCSV(ctx context.Context, path string) ([]normalize.Alias, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open aliases %s", path)
	}
	defer f.Close() //nolint:errcheck

	recs, err := fetcher.ReadCSVRecords(ctx, f, fetcher.CSVOptions{})
	if err != nil {
		return nil, eris.Wrapf(err, "source: read aliases %s", path)
	}

	out := make([]normalize.Alias, 0, len(recs))
	for _, rec := range recs {
		a := normalize.Alias{
			Scope:    normalize.Scope(strings.ToLower(rec.Get("scope", "alcance"))),
			FromName: rec.Get("from_name", "from", "de"),
			ToName:   rec.Get("to_name", "to", "a"),
			Make:     rec.Get("make", "marca"),
			Model:    rec.Get("model", "modelo"),
		}
		if a.FromName == "" || a.ToName == "" {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
