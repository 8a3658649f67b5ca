package compare

import (
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/value"
)

// feature is a labeled piece of equipment; any of its columns counts.
type feature struct {
	label string
	cols  []string
}

var features = []feature{
	{"Alerta de colisión frontal", []string{model.ColForwardCollision}},
	{"Monitor de punto ciego", []string{model.ColBlindSpot}},
	{"Cámara 360°", []string{model.ColCamera360}},
	{"Sensores de estacionamiento delanteros", []string{model.ColParkFront}},
	{"Sensores de estacionamiento traseros", []string{model.ColParkRear}},
	{"Llave inteligente", []string{model.ColSmartKey}},
	{"Pantalla táctil", []string{model.ColTouchscreen}},
	{"Apple CarPlay", []string{model.ColCarPlay}},
	{"Android Auto", []string{model.ColAndroidAuto}},
	{"Techo corredizo", []string{model.ColSunroof}},
	{"Portón eléctrico", []string{model.ColPowerTailgate}},
	{"Limpiadores con sensor de lluvia", []string{model.ColRainSensor}},
	{"Rieles de techo", []string{model.ColRoofRails}},
	{"Tercera fila de asientos", []string{model.ColThirdRow}},
	{"Enganche o preparación para remolque", []string{model.ColTrailerHitch, model.ColTowPrep}},
	{"Asientos con calefacción", []string{model.ColSeatHeatFront, model.ColSeatHeatRear}},
	{"Asientos ventilados", []string{model.ColSeatVentFront, model.ColSeatVentRear}},
}

// FeatureLabels returns the equipment dictionary labels in order.
func FeatureLabels() []string {
	out := make([]string, len(features))
	for i, f := range features {
		out[i] = f.label
	}
	return out
}

func (f feature) in(r model.Row) bool {
	for _, c := range f.cols {
		if value.Has(r, c) {
			return true
		}
	}
	return false
}

// FeatureDiff returns the labels comp has and own lacks (plus) and the labels
// own has and comp lacks (minus).
func FeatureDiff(own, comp model.Row) (plus, minus []string) {
	plus, minus = []string{}, []string{}
	for _, f := range features {
		a, b := f.in(own), f.in(comp)
		switch {
		case b && !a:
			plus = append(plus, f.label)
		case a && !b:
			minus = append(minus, f.label)
		}
	}
	return plus, minus
}

var numericFeatures = []feature{
	{"Bocinas", []string{model.ColSpeakers}},
	{"Pantalla central (pulgadas)", []string{model.ColMainScreenIn}},
	{"Pantalla de instrumentos (pulgadas)", []string{model.ColClusterScreenIn}},
	{"Puertos USB-A", []string{model.ColUSBA}},
	{"Puertos USB-C", []string{model.ColUSBC}},
	{"Tomas de 12V", []string{model.ColOutlets12V}},
	{"Tomas de 110V", []string{model.ColOutlets110V}},
}

// NumericDiffs returns the labeled counts that differ. A side without the
// value reports nil; rows where neither side has it are skipped.
func NumericDiffs(own, comp model.Row) []NumericDiff {
	out := []NumericDiff{}
	seen := make(map[string]bool)
	for _, f := range numericFeatures {
		if seen[f.label] {
			continue
		}
		a, okA := value.Number(own, f.cols[0])
		b, okB := value.Number(comp, f.cols[0])
		if (!okA && !okB) || (okA && okB && a == b) {
			continue
		}
		seen[f.label] = true
		d := NumericDiff{Label: f.label}
		if okA {
			d.Own = &a
		}
		if okB {
			d.Comp = &b
		}
		out = append(out, d)
	}
	return out
}
