package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/catalog-cli/internal/fuel"
	"github.com/sells-group/catalog-cli/internal/model"
)

func testPrices() fuel.Prices {
	return fuel.Prices{
		Magna:   fuel.Float(24),
		Premium: fuel.Float(26),
		Diesel:  fuel.Float(25),
	}
}

func row(kv map[string]any) model.Row {
	r := model.NewRow()
	for k, v := range kv {
		switch t := v.(type) {
		case float64:
			r.SetNum(k, t)
		case int:
			r.SetNum(k, float64(t))
		case string:
			r.SetStr(k, t)
		}
	}
	return r
}

func TestBono(t *testing.T) {
	tests := []struct {
		name   string
		msrp   float64
		tx     float64
		want   float64
		wantOK bool
	}{
		{"valid discount", 500000, 470000, 30000, true},
		{"zero street price", 500000, 0, 0, false},
		{"street above msrp", 500000, 510000, 0, false},
		{"street equals msrp", 500000, 500000, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := row(map[string]any{model.ColMSRP: tt.msrp, model.ColTxPrice: tt.tx, model.ColBono: 12345})
			Bono(r)
			got, ok := r.Num(model.ColBono)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	r := row(map[string]any{model.ColTxPrice: 470000, model.ColBono: 30000})
	Bono(r)
	assert.True(t, r.Get(model.ColBono).IsAbsent(), "bono needs msrp")
}

func TestApply_TCO(t *testing.T) {
	r := row(map[string]any{
		model.ColTxPrice:     500000,
		model.ColServiceCost: 30000,
		model.ColFuelCost:    45000,
	})
	// No kml: the fuel cost cannot be derived and is removed.
	NewCalculator(testPrices()).Apply(r)
	assert.True(t, r.Get(model.ColFuelCost).IsAbsent())
	assert.Equal(t, model.Number(530000), r.Get(model.ColTCO))
	assert.True(t, r.Get(model.ColTCOTotal).IsAbsent())

	r = row(map[string]any{
		model.ColTxPrice:     500000,
		model.ColServiceCost: 30000,
		model.ColFuelCost:    45000,
	})
	Complete(r)
	assert.Equal(t, model.Number(530000), r.Get(model.ColTCO))
	assert.Equal(t, model.Number(575000), r.Get(model.ColTCOTotal))
}

func TestApply_TCOFallsBackToMSRP(t *testing.T) {
	r := row(map[string]any{
		model.ColMSRP:        420000,
		model.ColServiceCost: 20000,
	})
	NewCalculator(testPrices()).Apply(r)
	assert.Equal(t, model.Number(440000), r.Get(model.ColTCO))
}

func TestCostPerHP(t *testing.T) {
	r := row(map[string]any{model.ColTxPrice: 600000, model.ColHP: 200})
	NewCalculator(fuel.Prices{}).Apply(r)
	assert.Equal(t, model.Number(3000), r.Get(model.ColCostPerHP))

	r = row(map[string]any{model.ColTxPrice: 600000, model.ColHP: 0})
	NewCalculator(fuel.Prices{}).Apply(r)
	assert.True(t, r.Get(model.ColCostPerHP).IsAbsent())
}

func TestFuelCost(t *testing.T) {
	calc := NewCalculator(testPrices())
	tests := []struct {
		name   string
		fuel   string
		kml    float64
		want   float64
		wantOK bool
	}{
		{"magna", "gasolina magna", 15, 96000, true},
		{"premium", "gasolina premium", 12, 130000, true},
		{"diesel", "diesel", 10, 150000, true},
		{"hybrid burns magna", "hev", 20, 72000, true},
		{"bev costs nothing", "bev", 0, 0, true},
		{"missing kml", "gasolina magna", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := row(map[string]any{model.ColFuelCategory: tt.fuel})
			if tt.kml > 0 {
				r.SetNum(model.ColKmlCombined, tt.kml)
			}
			got, ok := calc.FuelCost(r)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}

	_, ok := NewCalculator(fuel.Prices{}).FuelCost(row(map[string]any{model.ColKmlCombined: 15}))
	assert.False(t, ok, "unknown price")
}

func TestApply_FullRow(t *testing.T) {
	r := row(map[string]any{
		model.ColFuelCategory: "gasolina magna",
		model.ColMSRP:         500000,
		model.ColTxPrice:      470000,
		model.ColHP:           188,
		model.ColServiceCost:  30000,
		model.ColKmlCombined:  16,
	})
	NewCalculator(testPrices()).Apply(r)

	assert.Equal(t, model.Number(30000), r.Get(model.ColBono))
	assert.Equal(t, model.Number(90000), r.Get(model.ColFuelCost))
	assert.Equal(t, model.Number(500000), r.Get(model.ColTCO))
	assert.Equal(t, model.Number(590000), r.Get(model.ColTCOTotal))
	assert.Equal(t, model.Number(2500), r.Get(model.ColCostPerHP))
	assert.Equal(t, model.Number(6.25), r.Get(model.ColL100))
}

func TestSyncEfficiency(t *testing.T) {
	tests := []struct {
		name string
		kml  float64
		l100 float64
	}{
		{"from kml", 15.3, 0},
		{"from l_100km", 0, 7.8},
		{"kml wins", 30, 9},
		{"very efficient", 61.2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.NewRow()
			if tt.kml > 0 {
				r.SetNum(model.ColKmlCombined, tt.kml)
			}
			if tt.l100 > 0 {
				r.SetNum(model.ColL100, tt.l100)
			}
			SyncEfficiency(r)
			kml, ok := r.Num(model.ColKmlCombined)
			require.True(t, ok)
			l100, ok := r.Num(model.ColL100)
			require.True(t, ok)
			assert.Less(t, kml*l100-100, 0.1)
			assert.Greater(t, kml*l100-100, -0.1)
		})
	}

	r := model.NewRow()
	SyncEfficiency(r)
	assert.Empty(t, r)
}

func TestComplete_KeepsExisting(t *testing.T) {
	r := row(map[string]any{
		model.ColTxPrice:     500000,
		model.ColServiceCost: 30000,
		model.ColTCO:         1,
		model.ColHP:          250,
	})
	Complete(r)
	assert.Equal(t, model.Number(1), r.Get(model.ColTCO))
	assert.Equal(t, model.Number(2000), r.Get(model.ColCostPerHP))
}
