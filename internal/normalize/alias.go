package normalize

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Scope selects which name column an alias rewrites.
type Scope string

// Alias scopes.
const (
	ScopeMake    Scope = "make"
	ScopeModel   Scope = "model"
	ScopeVersion Scope = "version"
)

// wildcard matches any make or model context.
const wildcard = "*"

// maxAliasHops bounds chain resolution (A→B→C) and breaks cycles.
const maxAliasHops = 8

// Alias maps FromName to ToName within Scope, optionally restricted to a make
// and model context.
type Alias struct {
	Scope    Scope  `yaml:"scope" json:"scope"`
	FromName string `yaml:"from" json:"from_name"`
	ToName   string `yaml:"to" json:"to_name"`
	Make     string `yaml:"make,omitempty" json:"make,omitempty"`
	Model    string `yaml:"model,omitempty" json:"model,omitempty"`
}

type modelKey struct{ make, from string }

type versionKey struct{ make, model, from string }

// Resolver applies a scoped alias table. The zero value resolves nothing.
type Resolver struct {
	makes    map[string]string
	models   map[modelKey]string
	versions map[versionKey]string
}

// NewResolver indexes aliases. All names are canonicalized first; when two
// aliases share the same scope and context the first one wins.
func NewResolver(aliases []Alias) *Resolver {
	r := &Resolver{
		makes:    make(map[string]string),
		models:   make(map[modelKey]string),
		versions: make(map[versionKey]string),
	}
	var dup int
	for _, a := range aliases {
		from := matchKey(a.FromName)
		to := Canonical(a.ToName)
		if from == "" || to == "" {
			continue
		}
		mk, md := contextKey(a.Make), contextKey(a.Model)

		switch Scope(strings.ToLower(string(a.Scope))) {
		case ScopeMake:
			if _, ok := r.makes[from]; ok {
				dup++
				continue
			}
			r.makes[from] = to
		case ScopeModel:
			k := modelKey{make: mk, from: from}
			if _, ok := r.models[k]; ok {
				dup++
				continue
			}
			r.models[k] = to
		case ScopeVersion:
			k := versionKey{make: mk, model: md, from: from}
			if _, ok := r.versions[k]; ok {
				dup++
				continue
			}
			r.versions[k] = to
		default:
			zap.L().Debug("normalize: unknown alias scope", zap.String("scope", string(a.Scope)))
		}
	}
	if dup > 0 {
		zap.L().Warn("normalize: conflicting aliases ignored, first seen kept", zap.Int("count", dup))
	}
	return r
}

func contextKey(s string) string {
	k := matchKey(s)
	if k == "" {
		return wildcard
	}
	return k
}

// Len returns the number of indexed aliases.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	return len(r.makes) + len(r.models) + len(r.versions)
}

// Make resolves a make name.
func (r *Resolver) Make(name string) string {
	return r.follow(Canonical(name), func(cur string) (string, bool) {
		if r == nil {
			return "", false
		}
		to, ok := r.makes[matchKey(cur)]
		return to, ok
	})
}

// Model resolves a model name within a (resolved) make.
func (r *Resolver) Model(make, name string) string {
	mk := contextKey(make)
	return r.follow(Canonical(name), func(cur string) (string, bool) {
		if r == nil {
			return "", false
		}
		from := matchKey(cur)
		for _, k := range []modelKey{{mk, from}, {wildcard, from}} {
			if to, ok := r.models[k]; ok {
				return to, true
			}
		}
		return "", false
	})
}

// Version resolves a version name within a (resolved) make and model.
// Lookup order: make+model, make only, model only, global.
func (r *Resolver) Version(make, model, name string) string {
	mk, md := contextKey(make), contextKey(model)
	return r.follow(Canonical(name), func(cur string) (string, bool) {
		if r == nil {
			return "", false
		}
		from := matchKey(cur)
		for _, k := range []versionKey{
			{mk, md, from},
			{mk, wildcard, from},
			{wildcard, md, from},
			{wildcard, wildcard, from},
		} {
			if to, ok := r.versions[k]; ok {
				return to, true
			}
		}
		return "", false
	})
}

// follow applies lookup until no alias matches, so resolution is idempotent
// for acyclic tables.
func (r *Resolver) follow(cur string, lookup func(string) (string, bool)) string {
	seen := map[string]bool{matchKey(cur): true}
	for range maxAliasHops {
		next, ok := lookup(cur)
		if !ok {
			return cur
		}
		key := matchKey(next)
		if seen[key] {
			return next
		}
		seen[key] = true
		cur = next
	}
	return cur
}

// Apply canonicalizes and resolves the make, model and version columns of
// row in place.
func (r *Resolver) Apply(row model.Row) {
	mk := r.Make(row.Str(model.ColMake))
	row.SetStr(model.ColMake, mk)

	md := r.Model(mk, row.Str(model.ColModel))
	row.SetStr(model.ColModel, md)

	if !row.Missing(model.ColVersion) {
		row.SetStr(model.ColVersion, r.Version(mk, md, row.Str(model.ColVersion)))
	}
}
