package scorer

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/catalog-cli/internal/model"
)

// Weight categories of the composite score.
const (
	CatADAS            = "adas"
	CatSafety          = "seguridad"
	CatComfort         = "confort"
	CatConnectivity    = "conectividad"
	CatMultimedia      = "multimedia"
	CatTraction        = "traccion"
	CatCapacity        = "capacidad"
	CatEfficiency      = "eficiencia"
	CatElectrification = "electrificacion"
)

// Categories lists the weight categories in summation order.
var Categories = []string{
	CatADAS, CatSafety, CatComfort, CatConnectivity, CatMultimedia,
	CatTraction, CatCapacity, CatEfficiency, CatElectrification,
}

// categoryPillar maps each weight category onto the pillar it reads.
// Connectivity and multimedia both read the infotainment pillar.
var categoryPillar = map[string]string{
	CatADAS:            model.ColPillarADAS,
	CatSafety:          model.ColPillarSafety,
	CatComfort:         model.ColPillarComfort,
	CatConnectivity:    model.ColPillarInfotainment,
	CatMultimedia:      model.ColPillarInfotainment,
	CatTraction:        model.ColPillarTraction,
	CatCapacity:        model.ColPillarUtility,
	CatEfficiency:      model.ColPillarEfficiency,
	CatElectrification: model.ColPillarElectrification,
}

// Weights maps category to weight points out of 100.
type Weights map[string]float64

// Clone returns a copy of w.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// evShift is moved from multimedia to efficiency and from capacity to
// electrification for electrified powertrains.
const evShift = 5

// DefaultWeights returns the per-segment weight table. Hatchbacks score with
// the sedan weights.
func DefaultWeights() map[string]Weights {
	return map[string]Weights{
		model.SegmentPickup: {
			CatSafety: 20, CatComfort: 10, CatConnectivity: 10, CatTraction: 10, CatCapacity: 30,
		},
		model.SegmentSUV: {
			CatADAS: 25, CatSafety: 25, CatComfort: 15, CatConnectivity: 15, CatMultimedia: 10, CatCapacity: 10,
		},
		model.SegmentSedan: {
			CatADAS: 25, CatSafety: 25, CatComfort: 15, CatConnectivity: 15, CatMultimedia: 10, CatEfficiency: 10,
		},
		model.SegmentVan: {
			CatADAS: 20, CatSafety: 25, CatComfort: 20, CatConnectivity: 10, CatMultimedia: 5, CatCapacity: 20,
		},
	}
}

// WeightSum returns the sum of all category weights.
func WeightSum(w Weights) float64 {
	var sum float64
	for _, v := range w {
		sum += v
	}
	return sum
}

// ValidateWeights checks that a weight table is internally consistent.
func ValidateWeights(table map[string]Weights) error {
	var errs []string

	segments := make([]string, 0, len(table))
	for seg := range table {
		segments = append(segments, seg)
	}
	sort.Strings(segments)

	for _, seg := range segments {
		w := table[seg]
		for cat, v := range w {
			if _, ok := categoryPillar[cat]; !ok {
				errs = append(errs, fmt.Sprintf("%s: unknown category %q", seg, cat))
			}
			if v < 0 {
				errs = append(errs, fmt.Sprintf("%s: %s must be >= 0", seg, cat))
			}
		}
		sum := WeightSum(w)
		if sum <= 0 {
			errs = append(errs, fmt.Sprintf("%s: weight sum must be > 0", seg))
		}
		// Allow tolerance for floating-point.
		if sum > 100+1 || math.IsNaN(sum) {
			errs = append(errs, fmt.Sprintf("%s: weights should not exceed 100, got %.1f", seg, sum))
		}
	}
	if _, ok := table[model.SegmentSedan]; !ok {
		errs = append(errs, "sedan weights are required as the fallback segment")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: weight validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

type weightsFile struct {
	Segments map[string]Weights `yaml:"segments"`
}

// LoadWeights reads a YAML weight table (a "segments" mapping of segment to
// category weights). Segments the file omits keep their defaults.
func LoadWeights(path string) (map[string]Weights, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scorer: read weights %s", path)
	}
	var f weightsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "scorer: parse weights %s", path)
	}

	table := DefaultWeights()
	for seg, w := range f.Segments {
		table[strings.ToLower(strings.TrimSpace(seg))] = w
	}
	if err := ValidateWeights(table); err != nil {
		return nil, err
	}
	return table, nil
}
