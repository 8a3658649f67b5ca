package api

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/catalog-cli/internal/catalog"
	"github.com/sells-group/catalog-cli/internal/compare"
	"github.com/sells-group/catalog-cli/internal/competitor"
	"github.com/sells-group/catalog-cli/internal/cost"
	"github.com/sells-group/catalog-cli/internal/fuel"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/source"
	"github.com/sells-group/catalog-cli/internal/value"
)

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"ts": s.now().Format(time.RFC3339),
	})
}

// ConfigResponse is the body of GET /config.
type ConfigResponse struct {
	App          string      `json:"app"`
	Version      string      `json:"version"`
	CatalogPath  string      `json:"catalog_path"`
	Rows         int         `json:"rows"`
	LoadedAt     *time.Time  `json:"loaded_at,omitempty"`
	AllowedYears []int       `json:"allowed_years"`
	TCOKm        int         `json:"tco_km"`
	FuelPrices   fuel.Prices `json:"fuel_prices"`
}

// Config handles GET /config. A missing catalog is reported with zero rows
// instead of failing.
func (s *Server) Config(w http.ResponseWriter, r *http.Request) {
	resp := ConfigResponse{
		App:          "catalog-cli",
		Version:      Version,
		CatalogPath:  s.catalogPath,
		AllowedYears: s.allowedYears,
		TCOKm:        cost.Kilometres,
	}
	if s.prices != nil {
		resp.FuelPrices = s.prices.Prices(r.Context())
	}
	if snap, err := s.catalog.Get(r.Context()); err == nil {
		resp.CatalogPath = snap.Path
		resp.Rows = len(snap.Rows)
		loaded := snap.LoadedAt
		resp.LoadedAt = &loaded
	}
	writeJSON(w, http.StatusOK, resp)
}

// rowFilter selects rows by identity; blank fields match everything.
type rowFilter struct {
	make  string
	model string
	year  int
	q     string
}

func parseFilter(r *http.Request) (rowFilter, error) {
	q := r.URL.Query()
	f := rowFilter{
		make:  strings.TrimSpace(q.Get("make")),
		model: strings.TrimSpace(q.Get("model")),
		q:     strings.TrimSpace(q.Get("q")),
	}
	if y := strings.TrimSpace(q.Get("year")); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			return f, err
		}
		f.year = year
	}
	return f, nil
}

func (f rowFilter) match(row model.Row) bool {
	if f.make != "" && normalize.Key(row.Str(model.ColMake)) != normalize.Key(f.make) {
		return false
	}
	if f.model != "" && normalize.Key(row.Str(model.ColModel)) != normalize.Key(f.model) {
		return false
	}
	if f.year != 0 {
		if y, ok := row.Year(); !ok || y != f.year {
			return false
		}
	}
	if f.q != "" {
		needle := normalize.Key(f.q)
		hay := normalize.Key(row.Str(model.ColMake)) + " " +
			normalize.Key(row.Str(model.ColModel)) + " " +
			normalize.Key(row.Str(model.ColVersion))
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}

// CatalogResponse is the default body of GET /catalog.
type CatalogResponse struct {
	Count int         `json:"count"`
	Items []model.Row `json:"items"`
	Total int         `json:"total"`
}

// Catalog handles GET /catalog. format=csv streams the selection as CSV and
// format=array returns a bare JSON array.
func (s *Server) Catalog(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err.Error())
		return
	}
	limit := DefaultLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", l)
			return
		}
		limit = n
	}

	snap, err := s.catalog.Get(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}

	items := []model.Row{}
	total := 0
	for _, row := range snap.Rows {
		if !f.match(row) {
			continue
		}
		total++
		if len(items) < limit {
			items = append(items, row)
		}
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="catalog.csv"`)
		if err := catalog.Encode(w, items); err != nil {
			writeErr(w, err)
		}
	case "array":
		writeJSON(w, http.StatusOK, items)
	default:
		writeJSON(w, http.StatusOK, CatalogResponse{Count: len(items), Items: items, Total: total})
	}
}

// OptionsResponse is the body of GET /options.
type OptionsResponse struct {
	Makes         []string  `json:"makes"`
	Models        []string  `json:"models"`
	MakesForModel []string  `json:"makes_for_model"`
	Years         []int     `json:"years"`
	Versions      []string  `json:"versions"`
	Autofill      model.Row `json:"autofill"`
}

// Options handles GET /options. Models narrow by make, years by make and
// model, versions by all three.
func (s *Server) Options(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err.Error())
		return
	}
	snap, err := s.catalog.Get(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}

	makes := newNameSet()
	models := newNameSet()
	makesForModel := newNameSet()
	versions := newNameSet()
	years := map[int]bool{}
	var autofill model.Row

	byMake := rowFilter{make: f.make}
	byMakeModel := rowFilter{make: f.make, model: f.model}
	for _, row := range snap.Rows {
		makes.add(row.Str(model.ColMake))
		if f.model != "" && (rowFilter{model: f.model}).match(row) {
			makesForModel.add(row.Str(model.ColMake))
		}
		if !byMake.match(row) {
			continue
		}
		models.add(row.Str(model.ColModel))
		if !byMakeModel.match(row) {
			continue
		}
		if y, ok := row.Year(); ok {
			years[y] = true
		}
		if !f.match(row) {
			continue
		}
		versions.add(row.Str(model.ColVersion))
		if autofill == nil && (f.make != "" || f.model != "" || f.year != 0) {
			autofill = row
		}
	}

	resp := OptionsResponse{
		Makes:         makes.sorted(),
		Models:        models.sorted(),
		MakesForModel: makesForModel.sorted(),
		Years:         make([]int, 0, len(years)),
		Versions:      versions.sorted(),
		Autofill:      autofill,
	}
	for y := range years {
		resp.Years = append(resp.Years, y)
	}
	sort.Ints(resp.Years)
	writeJSON(w, http.StatusOK, resp)
}

// nameSet dedupes display names by their match key, keeping the first
// spelling seen.
type nameSet map[string]string

func newNameSet() nameSet { return nameSet{} }

func (n nameSet) add(name string) {
	if strings.TrimSpace(name) == "" {
		return
	}
	k := normalize.Key(name)
	if _, ok := n[k]; !ok {
		n[k] = name
	}
}

func (n nameSet) sorted() []string {
	keys := make([]string, 0, len(n))
	for k := range n {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = n[k]
	}
	return out
}

// Counts summarizes a set of rows.
type Counts struct {
	Rows      int `json:"rows"`
	Brands    int `json:"brands"`
	Models    int `json:"models"`
	Versions  int `json:"versions"`
	ValidBono int `json:"valid_bono"`
}

// DashboardResponse is the body of GET /dashboard.
type DashboardResponse struct {
	Counts
	ByYear map[int]Counts `json:"by_year"`
}

type counter struct {
	rows, bono               int
	brands, models, versions map[string]bool
}

func newCounter() *counter {
	return &counter{brands: map[string]bool{}, models: map[string]bool{}, versions: map[string]bool{}}
}

func (c *counter) add(row model.Row) {
	mk := row.Str(model.ColMake)
	md := row.Str(model.ColModel)
	c.rows++
	c.brands[normalize.Key(mk)] = true
	c.models[normalize.Key(mk, md)] = true
	c.versions[normalize.Key(mk, md, row.Str(model.ColVersion))] = true
	if _, ok := value.Positive(row, model.ColBono); ok {
		c.bono++
	}
}

func (c *counter) counts() Counts {
	return Counts{
		Rows:      c.rows,
		Brands:    len(c.brands),
		Models:    len(c.models),
		Versions:  len(c.versions),
		ValidBono: c.bono,
	}
}

// Dashboard handles GET /dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := s.catalog.Get(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}

	all := newCounter()
	years := map[int]*counter{}
	for _, row := range snap.Rows {
		all.add(row)
		if y, ok := row.Year(); ok {
			c, ok := years[y]
			if !ok {
				c = newCounter()
				years[y] = c
			}
			c.add(row)
		}
	}

	resp := DashboardResponse{Counts: all.counts(), ByYear: make(map[int]Counts, len(years))}
	for y, c := range years {
		resp.ByYear[y] = c.counts()
	}
	writeJSON(w, http.StatusOK, resp)
}

// hydrate resolves a request row against the catalog. Field names are mapped
// onto catalog columns first ("year", "hp"); when the vehicle_id is known, the
// catalog row is used with the request's own values on top.
func hydrate(snap *catalog.Snapshot, row model.Row) model.Row {
	if row == nil {
		return nil
	}
	row = source.CanonicalRow(row)
	id := row.Str(model.ColVehicleID)
	base, ok := snap.Lookup(id)
	if id == "" || !ok {
		return row
	}
	out := base.Clone()
	for col, v := range row {
		if !v.IsAbsent() {
			out.Set(col, v)
		}
	}
	return out
}

// CompareRequest is the body of POST /compare.
type CompareRequest struct {
	Own         model.Row   `json:"own"`
	Competitors []model.Row `json:"competitors"`
}

// Compare handles POST /compare.
func (s *Server) Compare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if len(req.Own) == 0 {
		writeError(w, http.StatusBadRequest, "own is required", "")
		return
	}

	snap, err := s.catalog.Get(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}

	own := hydrate(snap, req.Own)
	comps := make([]model.Row, 0, len(req.Competitors))
	for _, c := range req.Competitors {
		if len(c) > 0 {
			comps = append(comps, hydrate(snap, c))
		}
	}
	writeJSON(w, http.StatusOK, compare.Compare(own, comps))
}

// AutoCompetitorsRequest is the body of POST /auto_competitors. The base
// vehicle is given as a row or by vehicle_id.
type AutoCompetitorsRequest struct {
	competitor.Request
	Own       model.Row `json:"own"`
	VehicleID string    `json:"vehicle_id"`
}

// AutoCompetitorsResponse is the body of POST /auto_competitors.
type AutoCompetitorsResponse struct {
	Items []competitor.Candidate `json:"items"`
	Count int                    `json:"count"`
}

// AutoCompetitors handles POST /auto_competitors.
func (s *Server) AutoCompetitors(w http.ResponseWriter, r *http.Request) {
	var req AutoCompetitorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	snap, err := s.catalog.Get(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}

	own := req.Own
	if len(own) == 0 && req.VehicleID != "" {
		row, ok := snap.Lookup(req.VehicleID)
		if !ok {
			writeError(w, http.StatusNotFound, "vehicle not found", req.VehicleID)
			return
		}
		own = row
	}
	if len(own) == 0 {
		writeError(w, http.StatusBadRequest, "own or vehicle_id is required", "")
		return
	}
	own = hydrate(snap, own)

	items := competitor.NewSelector(snap.Rows, s.allowedYears).Select(own, req.Request)
	writeJSON(w, http.StatusOK, AutoCompetitorsResponse{Items: items, Count: len(items)})
}

// VersionDiffs handles GET /version_diffs.
func (s *Server) VersionDiffs(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid year", err.Error())
		return
	}
	if f.model == "" {
		writeErr(w, compare.ErrModelRequired)
		return
	}

	snap, err := s.catalog.Get(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}

	diff, err := compare.Versions(snap.Rows, compare.VersionQuery{
		Make:        f.make,
		Model:       f.model,
		Year:        f.year,
		BaseVersion: r.URL.Query().Get("base_version"),
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diff)
}

// AuditEntries handles GET /audit.
func (s *Server) AuditEntries(w http.ResponseWriter, r *http.Request) {
	items := s.audit.Entries()
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}
