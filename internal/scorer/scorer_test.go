package scorer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/model"
)

func newRow(kv map[string]any) model.Row {
	r := model.NewRow()
	for k, v := range kv {
		switch t := v.(type) {
		case bool:
			r.SetBool(k, t)
		case int:
			r.SetNum(k, float64(t))
		case float64:
			r.SetNum(k, t)
		case string:
			r.SetStr(k, t)
		}
	}
	return r
}

func TestScoreADAS(t *testing.T) {
	tests := []struct {
		name string
		row  map[string]any
		want float64
	}{
		{
			name: "collision blind spot camera rear park",
			row: map[string]any{
				model.ColForwardCollision: true,
				model.ColBlindSpot:        true,
				model.ColCamera360:        true,
				model.ColParkRear:         true,
			},
			want: 65.0,
		},
		{
			name: "string flags and lane text",
			row: map[string]any{
				model.ColForwardCollision: "Sí",
				model.ColAdaptiveCruise:   "estándar",
				model.ColDescription:      "Asistente de mantenimiento de carril",
			},
			want: 45,
		},
		{
			name: "traffic sign text",
			row:  map[string]any{model.ColFeaturesText: "Reconocimiento de señales de tránsito"},
			want: 6,
		},
		{
			name: "everything is clipped",
			row: map[string]any{
				model.ColForwardCollision: true, model.ColBlindSpot: true, model.ColCamera360: true,
				model.ColParkFront: true, model.ColParkRear: true, model.ColCurveBrake: true,
				model.ColAdaptiveCruise: true, model.ColLaneAssist: true, model.ColEquipment: "TSR",
			},
			want: 100,
		},
		{
			name: "not reported",
			row:  map[string]any{model.ColForwardCollision: "n/a"},
			want: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRow(tt.row)
			assert.InDelta(t, tt.want, scoreADAS(r, rowText(r)), 1e-9)
		})
	}
}

func TestScoreSafety(t *testing.T) {
	full := newRow(map[string]any{
		model.ColABS:        true,
		model.ColStability:  true,
		model.ColAirbags:    8,
		model.ColBlindSpot:  true,
		model.ColCamera360:  true,
		model.ColHeadlights: "LED",
		model.ColFogLights:  true,
	})
	assert.InDelta(t, 100, scoreSafety(full, rowText(full)), 1e-9)

	basic := newRow(map[string]any{
		model.ColABS:             true,
		model.ColTractionControl: true,
		model.ColAirbags:         3,
	})
	assert.InDelta(t, 60, scoreSafety(basic, rowText(basic)), 1e-9)

	matrix := newRow(map[string]any{model.ColHeadlights: "LED Matriz"})
	assert.InDelta(t, 12, scoreSafety(matrix, rowText(matrix)), 1e-9)
}

func TestScoreComfort(t *testing.T) {
	r := newRow(map[string]any{
		model.ColHVACZones:  2,
		model.ColSmartKey:   true,
		model.ColSunroof:    true,
		model.ColUpholstery: "Piel",
	})
	assert.InDelta(t, 38, scoreComfort(r, rowText(r)), 1e-9)

	ac := newRow(map[string]any{
		model.ColAirConditioner: true,
		model.ColSeatHeatFront:  true,
		model.ColPowerWindows:   true,
		model.ColPowerLocks:     true,
	})
	assert.InDelta(t, 22, scoreComfort(ac, rowText(ac)), 1e-9)

	tri := newRow(map[string]any{model.ColHVACZones: 4, model.ColAirConditioner: true})
	assert.InDelta(t, 26, scoreComfort(tri, rowText(tri)), 1e-9, "zones and basic A/C both count")
}

func TestScoreInfotainment(t *testing.T) {
	r := newRow(map[string]any{
		model.ColTouchscreen:  true,
		model.ColAndroidAuto:  true,
		model.ColCarPlay:      true,
		model.ColSpeakers:     6,
		model.ColMainScreenIn: 9,
		model.ColUSBA:         2,
		model.ColUSBC:         4,
		model.ColAudioBrand:   "Bose",
	})
	assert.InDelta(t, 94.5, scoreInfotainment(r, rowText(r)), 1e-9)

	r.SetBool(model.ColWirelessCharge, true)
	assert.InDelta(t, 100, scoreInfotainment(r, rowText(r)), 1e-9)

	cluster := newRow(map[string]any{model.ColClusterScreenIn: 7})
	assert.InDelta(t, 6, scoreInfotainment(cluster, rowText(cluster)), 1e-9)
}

func TestScoreTraction(t *testing.T) {
	tests := []struct {
		drive string
		body  string
		tc    bool
		want  float64
	}{
		{"4x4", "SUV", true, 85},
		{"AWD", "SUV", false, 70},
		{"Trasera", "Sedán", false, 45},
		{"FWD", "SUV", true, 45},
		{"4x2", "Pick-up", false, 45},
		{"4x2", "SUV", false, 30},
		{"", "SUV", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.drive+" "+tt.body, func(t *testing.T) {
			r := newRow(map[string]any{
				model.ColDrivetrain:      tt.drive,
				model.ColBodyStyle:       tt.body,
				model.ColTractionControl: tt.tc,
			})
			assert.InDelta(t, tt.want, scoreTraction(r), 1e-9)
		})
	}
}

func TestScoreUtility(t *testing.T) {
	r := newRow(map[string]any{
		model.ColSeats:       7,
		model.ColThirdRow:    true,
		model.ColOutlets110V: 3,
	})
	assert.InDelta(t, 60, scoreUtility(r), 1e-9)

	r = newRow(map[string]any{
		model.ColRoofRails:    true,
		model.ColTrailerHitch: true,
		model.ColSoftClose:    true,
		model.ColOutlets12V:   2,
	})
	assert.InDelta(t, 49, scoreUtility(r), 1e-9)
}

func TestScorePerformance(t *testing.T) {
	r := newRow(map[string]any{
		model.ColBodyStyle: "SUV",
		model.ColHP:        150,
		model.ColAccel:     8,
		model.ColVmax:      200,
	})
	assert.InDelta(t, 64.5, scorePerformance(r, rowText(r)), 1e-9)

	r.SetStr(model.ColDriveModes, "Eco, Normal, Sport")
	assert.InDelta(t, 69.5, scorePerformance(r, rowText(r)), 1e-9)

	for _, none := range []model.Value{model.Bool(false), model.String("No"), model.String("N/A"), model.Number(0)} {
		r.Set(model.ColDriveModes, none)
		assert.InDelta(t, 64.5, scorePerformance(r, rowText(r)), 1e-9, "drive modes %v", none)
	}

	slow := newRow(map[string]any{model.ColBodyStyle: "Pick-up", model.ColHP: 100, model.ColAccel: 14})
	assert.InDelta(t, 25, scorePerformance(slow, rowText(slow)), 1e-9)
}

func TestScoreEfficiency(t *testing.T) {
	tests := []struct {
		name string
		fuel string
		kml  float64
		want float64
	}{
		{"magna", "gasolina magna", 14, 50},
		{"magna poor", "gasolina magna", 5, 0},
		{"magna without kml", "gasolina magna", 0, 0},
		{"hev bonus", "Híbrido", 17, 85},
		{"hev clipped", "hev", 20, 100},
		{"hev without kml", "hev", 0, 70},
		{"phev without kml", "phev", 0, 85},
		{"phev with kml", "phev", 11, 25},
		{"bev", "Eléctrico", 0, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRow(map[string]any{model.ColFuelCategory: tt.fuel})
			if tt.kml > 0 {
				r.SetNum(model.ColKmlCombined, tt.kml)
			}
			assert.InDelta(t, tt.want, scoreEfficiency(r), 1e-9)
		})
	}
}

func TestScoreElectrification(t *testing.T) {
	for fuel, want := range map[string]float64{"bev": 100, "phev": 80, "hev": 60, "diesel": 0, "": 0} {
		r := newRow(map[string]any{model.ColFuelCategory: fuel})
		assert.InDelta(t, want, scoreElectrification(r), 1e-9, fuel)
	}
}

func TestWarrantyScore(t *testing.T) {
	r := newRow(map[string]any{
		model.ColWarrantyFullMonths:       36,
		model.ColWarrantyFullKm:           60000,
		model.ColWarrantyPowertrainMonths: 60,
		model.ColWarrantyPowertrainKm:     100000,
		model.ColWarrantyRoadsideMonths:   36,
	})
	assert.InDelta(t, 80.8, WarrantyScore(r), 1e-9)

	long := newRow(map[string]any{
		model.ColWarrantyFullMonths:       120,
		model.ColWarrantyFullKm:           200000,
		model.ColWarrantyPowertrainMonths: 120,
		model.ColWarrantyPowertrainKm:     200000,
		model.ColWarrantyRoadsideMonths:   60,
		model.ColWarrantyCorrosionMonths:  72,
		model.ColWarrantyElectricMonths:   96,
	})
	assert.InDelta(t, 100, WarrantyScore(long), 1e-9)
	assert.InDelta(t, 0, WarrantyScore(model.NewRow()), 1e-9)
}

func TestPillars_DirectAndBEV(t *testing.T) {
	r := newRow(map[string]any{
		model.ColFuelCategory:     "bev",
		model.ColPillarADAS:       77.77,
		model.ColPillarEfficiency: 40,
		model.ColPillarSafety:     140,
	})
	p := Pillars(r)

	assert.InDelta(t, 77.8, p[model.ColPillarADAS], 1e-9)
	assert.InDelta(t, 100, p[model.ColPillarSafety], 1e-9)
	assert.InDelta(t, 100, p[model.ColPillarEfficiency], 1e-9)
	assert.InDelta(t, 100, p[model.ColPillarElectrification], 1e-9)
	assert.Len(t, p, len(model.PillarColumns))
	for col, v := range p {
		assert.GreaterOrEqual(t, v, 0.0, col)
		assert.LessOrEqual(t, v, 100.0, col)
	}
}

func TestWeightsFor(t *testing.T) {
	s := New(nil)

	suvHybrid := s.WeightsFor(newRow(map[string]any{model.ColBodyStyle: "SUV", model.ColFuelCategory: "hev"}))
	assert.InDelta(t, 5, suvHybrid[CatMultimedia], 1e-9)
	assert.InDelta(t, 5, suvHybrid[CatEfficiency], 1e-9)
	assert.InDelta(t, 5, suvHybrid[CatCapacity], 1e-9)
	assert.InDelta(t, 5, suvHybrid[CatElectrification], 1e-9)
	assert.InDelta(t, 100, WeightSum(suvHybrid), 1e-9)

	pickupEV := s.WeightsFor(newRow(map[string]any{model.ColBodyStyle: "Pickup doble cabina", model.ColFuelCategory: "bev"}))
	assert.Zero(t, pickupEV[CatMultimedia])
	assert.Zero(t, pickupEV[CatEfficiency])
	assert.InDelta(t, 25, pickupEV[CatCapacity], 1e-9)
	assert.InDelta(t, 5, pickupEV[CatElectrification], 1e-9)

	hatch := s.WeightsFor(newRow(map[string]any{model.ColBodyStyle: "Hatchback"}))
	assert.Equal(t, DefaultWeights()[model.SegmentSedan], hatch)

	// The shared table is never mutated.
	assert.InDelta(t, 10, DefaultWeights()[model.SegmentSUV][CatMultimedia], 1e-9)
	assert.InDelta(t, 10, s.weights[model.SegmentSUV][CatMultimedia], 1e-9)
}

func TestComposite(t *testing.T) {
	pillars := make(map[string]float64)
	for _, c := range model.PillarColumns {
		pillars[c] = 50
	}
	w := DefaultWeights()
	assert.InDelta(t, 50, Composite(pillars, w[model.SegmentSedan]), 1e-9)
	assert.InDelta(t, 40, Composite(pillars, w[model.SegmentPickup]), 1e-9)
}

func TestScore(t *testing.T) {
	r := newRow(map[string]any{
		model.ColBodyStyle:          "Sedán",
		model.ColFuelCategory:       "gasolina magna",
		model.ColForwardCollision:   true,
		model.ColBlindSpot:          true,
		model.ColCamera360:          true,
		model.ColParkRear:           true,
		model.ColKmlCombined:        14,
		model.ColWarrantyFullMonths: 36,
	})
	New(nil).Score(r)

	adas, ok := r.Num(model.ColPillarADAS)
	require.True(t, ok)
	assert.InDelta(t, 65, adas, 1e-9)
	// 25% of ADAS 65 + 10% of efficiency 50.
	assert.Equal(t, model.Number(21.3), r.Get(model.ColEquipScore))
	assert.Equal(t, model.Number(30), r.Get(model.ColWarrantyScore))

	before := r.Clone()
	New(nil).Score(r)
	assert.Equal(t, before, r, "scoring is idempotent")
}

func TestCoverage(t *testing.T) {
	a := newRow(map[string]any{model.ColPillarADAS: 50})
	b := newRow(map[string]any{model.ColPillarADAS: 0})
	cov := Coverage([]model.Row{a, b})
	assert.InDelta(t, 0.5, cov[model.ColPillarADAS], 1e-9)
	assert.InDelta(t, 0, cov[model.ColPillarSafety], 1e-9)
	assert.Empty(t, Coverage(nil))
}

func TestValidateWeights(t *testing.T) {
	require.NoError(t, ValidateWeights(DefaultWeights()))

	bad := DefaultWeights()
	bad[model.SegmentSUV] = Weights{"sound": 10, CatSafety: -5}
	err := ValidateWeights(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown category "sound"`)
	assert.Contains(t, err.Error(), "seguridad must be >= 0")

	over := DefaultWeights()
	over[model.SegmentVan] = Weights{CatADAS: 90, CatSafety: 30}
	assert.Error(t, ValidateWeights(over))

	assert.Error(t, ValidateWeights(map[string]Weights{model.SegmentSUV: {CatADAS: 100}}))
}

func TestLoadWeights(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "weights.yaml")
	require.NoError(t, os.WriteFile(path, []byte("segments:\n  SUV:\n    adas: 50\n    seguridad: 50\n"), 0o644))

	table, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, Weights{CatADAS: 50, CatSafety: 50}, table[model.SegmentSUV])
	assert.Equal(t, DefaultWeights()[model.SegmentPickup], table[model.SegmentPickup])

	require.NoError(t, os.WriteFile(path, []byte("segments:\n  suv:\n    bogus: 10\n"), 0o644))
	_, err = LoadWeights(path)
	assert.Error(t, err)

	_, err = LoadWeights(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
