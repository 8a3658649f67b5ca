// Package cost derives the economic columns of a catalog row: dealer bonus,
// fuel spend and total cost of ownership at 60,000 km, and price per
// horsepower.
package cost

import (
	"github.com/sells-group/catalog-cli/internal/fuel"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/value"
)

// Kilometres is the distance every TCO figure is anchored at.
const Kilometres = 60000

// Calculator computes cost columns with a fixed set of fuel prices.
type Calculator struct {
	prices fuel.Prices
}

// NewCalculator creates a Calculator with the given prices.
func NewCalculator(prices fuel.Prices) *Calculator {
	return &Calculator{prices: prices}
}

// Apply recomputes every derived cost column of row. Inputs that are missing
// leave the matching output absent.
func (c *Calculator) Apply(row model.Row) {
	SyncEfficiency(row)
	Bono(row)
	derive(row, model.ColFuelCost, c.FuelCost)
	derive(row, model.ColTCO, tco)
	derive(row, model.ColTCOTotal, tcoTotal)
	derive(row, model.ColCostPerHP, costPerHP)
}

// ApplyAll runs Apply over rows.
func (c *Calculator) ApplyAll(rows []model.Row) {
	for _, r := range rows {
		c.Apply(r)
	}
}

// FuelCost returns the fuel spend over Kilometres. Battery electrics cost
// nothing at the pump; other rows need a combined kml and a known price.
func (c *Calculator) FuelCost(row model.Row) (float64, bool) {
	fuelCat := row.Str(model.ColFuelCategory)
	if model.NormalizeFuel(fuelCat) == model.FuelBEV {
		return 0, true
	}
	kml, ok := value.Positive(row, model.ColKmlCombined)
	if !ok {
		return 0, false
	}
	price, ok := c.prices.PerLitre(fuelCat)
	if !ok {
		return 0, false
	}
	return value.Round(Kilometres/kml*price, 2), true
}

// Complete fills the derived columns a comparison needs without touching
// values the catalog already carries. The bonus is always recomputed.
func Complete(row model.Row) {
	Bono(row)
	if row.Missing(model.ColTCO) {
		derive(row, model.ColTCO, tco)
	}
	if row.Missing(model.ColTCOTotal) {
		derive(row, model.ColTCOTotal, tcoTotal)
	}
	if row.Missing(model.ColCostPerHP) {
		derive(row, model.ColCostPerHP, costPerHP)
	}
}

// Bono sets bono to msrp minus the transaction price when the street price
// sits strictly between zero and msrp, and removes it otherwise.
func Bono(row model.Row) {
	msrp, okM := value.Positive(row, model.ColMSRP)
	tx, okT := value.Positive(row, model.ColTxPrice)
	if okM && okT && tx < msrp {
		row.SetNum(model.ColBono, msrp-tx)
		return
	}
	row.Delete(model.ColBono)
}

// SyncEfficiency derives l_100km from combinado_kml or the reverse. When both
// are present the kml figure wins.
func SyncEfficiency(row model.Row) {
	if kml, ok := value.Positive(row, model.ColKmlCombined); ok {
		row.SetNum(model.ColKmlCombined, kml)
		row.SetNum(model.ColL100, value.Round(100/kml, 4))
		return
	}
	if l100, ok := value.Positive(row, model.ColL100); ok {
		row.SetNum(model.ColL100, l100)
		row.SetNum(model.ColKmlCombined, value.Round(100/l100, 4))
	}
}

// Price returns the transaction price, falling back to msrp.
func Price(row model.Row) (float64, bool) {
	if tx, ok := value.Positive(row, model.ColTxPrice); ok {
		return tx, true
	}
	return value.Positive(row, model.ColMSRP)
}

func tco(row model.Row) (float64, bool) {
	price, ok := Price(row)
	if !ok {
		return 0, false
	}
	service, ok := value.Number(row, model.ColServiceCost)
	if !ok || service < 0 {
		return 0, false
	}
	return value.Round(price+service, 2), true
}

func tcoTotal(row model.Row) (float64, bool) {
	base, ok := tco(row)
	if !ok {
		return 0, false
	}
	fuelCost, ok := value.Number(row, model.ColFuelCost)
	if !ok || fuelCost < 0 {
		return 0, false
	}
	return value.Round(base+fuelCost, 2), true
}

func costPerHP(row model.Row) (float64, bool) {
	price, ok := Price(row)
	if !ok {
		return 0, false
	}
	hp, ok := value.Positive(row, model.ColHP)
	if !ok {
		return 0, false
	}
	return value.Round(price/hp, 2), true
}

// derive stores fn(row) under col, or removes col when fn has no answer.
func derive(row model.Row, col string, fn func(model.Row) (float64, bool)) {
	f, ok := fn(row)
	if !ok {
		row.Delete(col)
		return
	}
	row.SetNum(col, f)
}
