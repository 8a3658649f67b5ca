// Package source loads the vendor inputs of an enrichment run: the primary
// normalized dump, OEM frames, the correction overlay, sales registries,
// maintenance costs and alias tables. Every loader coerces values eagerly
// so downstream code only sees typed rows.
package source

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
	"github.com/sells-group/catalog-cli/internal/value"
)

type fieldKind int

const (
	kindText fieldKind = iota
	kindNumber
	kindBool
	kindYear
)

var numberColumns = []string{
	model.ColHP, model.ColTorque, model.ColAccel, model.ColVmax,
	model.ColMSRP, model.ColTxPrice, model.ColBono, model.ColFuelCost, model.ColServiceCost,
	model.ColTCO, model.ColTCOTotal, model.ColCostPerHP,
	model.ColKmlCombined, model.ColKmlCity, model.ColKmlHighway, model.ColL100,
	model.ColLength, model.ColWidth, model.ColHeight, model.ColWheelbase, model.ColWeight,
	model.ColAirbags, model.ColHVACZones, model.ColSpeakers, model.ColMainScreenIn,
	model.ColClusterScreenIn, model.ColUSBA, model.ColUSBC, model.ColSeats,
	model.ColOutlets12V, model.ColOutlets110V,
	model.ColWarrantyFullMonths, model.ColWarrantyFullKm, model.ColWarrantyPowertrainMonths,
	model.ColWarrantyPowertrainKm, model.ColWarrantyRoadsideMonths, model.ColWarrantyCorrosionMonths,
	model.ColWarrantyElectricMonths, model.ColWarrantyElectricKm,
	model.ColEquipScore, model.ColWarrantyScore, model.ColSalesSharePct,
}

var boolColumns = []string{
	model.ColForwardCollision, model.ColBlindSpot, model.ColCamera360, model.ColParkFront,
	model.ColParkRear, model.ColCurveBrake, model.ColAdaptiveCruise, model.ColLaneAssist,
	model.ColABS, model.ColStability, model.ColTractionControl, model.ColFogLights,
	model.ColSeatHeatFront, model.ColSeatHeatRear, model.ColSeatVentFront, model.ColSeatVentRear,
	model.ColAirConditioner, model.ColSmartKey, model.ColSunroof, model.ColPowerTailgate,
	model.ColSoftClose, model.ColPowerColumn, model.ColPowerWindows, model.ColPowerLocks,
	model.ColRainSensor, model.ColTouchscreen, model.ColAndroidAuto, model.ColCarPlay,
	model.ColWirelessCharge, model.ColThirdRow, model.ColRoofRails, model.ColTowPrep,
	model.ColTrailerHitch,
}

var kinds = func() map[string]fieldKind {
	m := map[string]fieldKind{model.ColYear: kindYear}
	for _, c := range numberColumns {
		m[c] = kindNumber
	}
	for _, c := range boolColumns {
		m[c] = kindBool
	}
	for _, c := range model.PillarColumns {
		m[c] = kindNumber
	}
	return m
}()

// columnAliases maps slugged vendor headers onto canonical columns.
var columnAliases = map[string]string{
	"id": model.ColVehicleID, "vehicleid": model.ColVehicleID,

	"marca": model.ColMake, "brand": model.ColMake, "make_name": model.ColMake,
	"modelo": model.ColModel, "model_name": model.ColModel,
	"version_name": model.ColVersion, "variante": model.ColVersion,
	"year": model.ColYear, "anio": model.ColYear, "ano_modelo": model.ColYear,
	"model_year": model.ColYear, "modelyear": model.ColYear,
	"carroceria": model.ColBodyStyle, "body": model.ColBodyStyle, "bodystyle": model.ColBodyStyle,
	"body_type": model.ColBodyStyle,
	"segmento": model.ColSegment, "segment": model.ColSegment,

	"combustible": model.ColFuelCategory, "fuel": model.ColFuelCategory, "fuel_type": model.ColFuelCategory,
	"tipo_combustible": model.ColFuelCategory,
	"traccion": model.ColDrivetrain, "transmision_traccion": model.ColDrivetrain,
	"hp": model.ColHP, "potencia": model.ColHP, "potencia_hp": model.ColHP, "horsepower": model.ColHP,
	"torque": model.ColTorque, "par_nm": model.ColTorque, "par_motor_nm": model.ColTorque,
	"aceleracion_0_100": model.ColAccel, "accel_0_100": model.ColAccel,
	"velocidad_maxima": model.ColVmax, "top_speed_kmh": model.ColVmax,

	"msrp_mxn": model.ColMSRP, "precio_lista": model.ColMSRP, "list_price": model.ColMSRP,
	"precio": model.ColMSRP,
	"transaction_price": model.ColTxPrice, "precio_real": model.ColTxPrice, "street_price": model.ColTxPrice,
	"bono_mxn": model.ColBono, "bonus": model.ColBono,

	"combined_kml": model.ColKmlCombined, "rendimiento_combinado": model.ColKmlCombined,
	"city_kml": model.ColKmlCity, "rendimiento_ciudad": model.ColKmlCity,
	"highway_kml": model.ColKmlHighway, "rendimiento_carretera": model.ColKmlHighway,

	"largo_mm": model.ColLength, "length_mm": model.ColLength, "longitud": model.ColLength,
	"anchura_mm": model.ColWidth, "width_mm": model.ColWidth, "ancho": model.ColWidth,
	"alto_mm": model.ColHeight, "height_mm": model.ColHeight,
	"distancia_entre_ejes_mm": model.ColWheelbase, "batalla_mm": model.ColWheelbase,
	"wheelbase": model.ColWheelbase,
	"peso": model.ColWeight, "curb_weight_kg": model.ColWeight, "peso_vehicular_kg": model.ColWeight,

	"airbags": model.ColAirbags, "speakers": model.ColSpeakers, "seats": model.ColSeats,
	"plazas": model.ColSeats, "carplay": model.ColCarPlay,
}

// CanonicalColumn maps a vendor field name onto the catalog column name:
// slugged, then resolved through the header alias table.
func CanonicalColumn(name string) string {
	k := normalize.Slug(name)
	if c, ok := columnAliases[k]; ok {
		return c
	}
	return k
}

// Coerce types a raw decoded value for col. Unknown columns keep scalars as
// they came and render nested JSON as text.
func Coerce(col string, raw any) model.Value {
	switch kinds[col] {
	case kindNumber:
		return value.NumberValue(raw)
	case kindBool:
		return value.BoolValue(raw)
	case kindYear:
		return value.YearValue(raw)
	}

	switch t := raw.(type) {
	case nil:
		return model.Absent()
	case string:
		return textValue(col, t)
	case bool:
		if model.IsTextColumn(col) {
			return model.String(strconv.FormatBool(t))
		}
		return model.Bool(t)
	case float64:
		if model.IsTextColumn(col) {
			return model.String(strconv.FormatFloat(t, 'f', -1, 64))
		}
		return model.Number(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return model.Absent()
		}
		return model.String(string(b))
	default:
		return model.Absent()
	}
}

// CoerceText types a raw tabular cell for col.
func CoerceText(col, raw string) model.Value {
	switch kinds[col] {
	case kindNumber, kindBool, kindYear:
		return Coerce(col, raw)
	}
	return textValue(col, raw)
}

func textValue(col, s string) model.Value {
	s = strings.TrimSpace(s)
	if s == "" {
		return model.Absent()
	}
	switch col {
	case model.ColFuelCategory:
		return model.String(model.NormalizeFuel(s))
	case model.ColMake, model.ColModel, model.ColVersion:
		return model.String(normalize.Canonical(s))
	}
	return model.String(s)
}

// CanonicalRow rebuilds a row whose keys may be vendor or API field names
// ("year", "hp") onto catalog columns, typing each value for its column.
// Keys that already carry a canonical name win over aliased ones.
func CanonicalRow(in model.Row) model.Row {
	if in == nil {
		return nil
	}
	keys := sortedKeys(in)
	out := model.NewRow()
	for _, exact := range []bool{true, false} {
		for _, k := range keys {
			col := CanonicalColumn(k)
			if col == "" || (col == k) != exact || !out.Get(col).IsAbsent() {
				continue
			}
			out.Set(col, Coerce(col, rawValue(in[k])))
		}
	}
	return out
}

func rawValue(v model.Value) any {
	switch v.Kind() {
	case model.KindBool:
		b, _ := v.AsBool()
		return b
	case model.KindNumber:
		f, _ := v.AsNumber()
		return f
	case model.KindString:
		s, _ := v.AsString()
		return s
	default:
		return nil
	}
}

// rowFromRecord converts a header-keyed record into a typed row. Headers that
// already carry a canonical name win over aliased ones.
func rowFromRecord(rec map[string]string) model.Row {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	row := model.NewRow()
	for _, exact := range []bool{true, false} {
		for _, k := range keys {
			col := CanonicalColumn(k)
			if col == "" || (col == k) != exact || !row.Get(col).IsAbsent() {
				continue
			}
			row.Set(col, CoerceText(col, rec[k]))
		}
	}
	return row
}
