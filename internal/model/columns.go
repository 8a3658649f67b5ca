package model

import (
	"fmt"
	"strings"
)

// Identity columns.
const (
	ColVehicleID = "vehicle_id"
	ColMake      = "make"
	ColModel     = "model"
	ColVersion   = "version"
	ColTrim      = "trim"
	ColYear      = "ano"
	ColBodyStyle = "body_style"
	ColSegment   = "segmento_ventas"
)

// Powertrain columns.
const (
	ColFuelCategory = "fuel_category"
	ColDrivetrain   = "drivetrain"
	ColHP           = "caballos_fuerza"
	ColTorque       = "torque_nm"
	ColAccel        = "accel_0_100_s"
	ColVmax         = "vmax_kmh"
)

// Economic columns.
const (
	ColMSRP        = "msrp"
	ColTxPrice     = "precio_transaccion"
	ColBono        = "bono"
	ColFuelCost    = "fuel_cost_60k_mxn"
	ColServiceCost = "service_cost_60k_mxn"
	ColTCO         = "tco_60k_mxn"
	ColTCOTotal    = "tco_total_60k_mxn"
	ColCostPerHP   = "cost_per_hp_mxn"
)

// Efficiency columns.
const (
	ColKmlCombined = "combinado_kml"
	ColKmlCity     = "ciudad_kml"
	ColKmlHighway  = "carretera_kml"
	ColL100        = "l_100km"
)

// Dimension columns.
const (
	ColLength    = "longitud_mm"
	ColWidth     = "ancho_mm"
	ColHeight    = "altura_mm"
	ColWheelbase = "wheelbase_mm"
	ColWeight    = "peso_kg"
)

// Equipment flag and count columns.
const (
	ColForwardCollision = "alerta_colision"
	ColBlindSpot        = "sensor_punto_ciego"
	ColCamera360        = "camara_360"
	ColParkFront        = "sensores_estacionamiento_delanteros"
	ColParkRear         = "sensores_estacionamiento_traseros"
	ColCurveBrake       = "frenado_curvas"
	ColAdaptiveCruise   = "control_crucero_adaptativo"
	ColLaneAssist       = "asistente_carril"

	ColABS             = "abs"
	ColStability       = "control_estabilidad"
	ColTractionControl = "control_traccion"
	ColAirbags         = "bolsas_aire"
	ColHeadlights      = "faros"
	ColFogLights       = "faros_niebla"

	ColSeatHeatFront  = "asientos_calefaccion_delanteros"
	ColSeatHeatRear   = "asientos_calefaccion_traseros"
	ColSeatVentFront  = "asientos_ventilacion_delanteros"
	ColSeatVentRear   = "asientos_ventilacion_traseros"
	ColHVACZones      = "zonas_clima"
	ColAirConditioner = "aire_acondicionado"
	ColSmartKey       = "llave_inteligente"
	ColSunroof        = "techo_corredizo"
	ColPowerTailgate  = "porton_electrico"
	ColSoftClose      = "cierre_suave"
	ColPowerColumn    = "columna_direccion_electrica"
	ColPowerWindows   = "vidrios_electricos"
	ColPowerLocks     = "seguros_electricos"
	ColRainSensor     = "sensor_lluvia"
	ColUpholstery     = "tapiceria"

	ColTouchscreen     = "pantalla_tactil"
	ColAndroidAuto     = "android_auto"
	ColCarPlay         = "apple_carplay"
	ColSpeakers        = "bocinas"
	ColMainScreenIn    = "pantalla_central_pulgadas"
	ColClusterScreenIn = "pantalla_cluster_pulgadas"
	ColUSBA            = "usb_a"
	ColUSBC            = "usb_c"
	ColWirelessCharge  = "cargador_inalambrico"
	ColAudioBrand      = "audio_marca"

	ColSeats        = "asientos"
	ColThirdRow     = "tercera_fila"
	ColRoofRails    = "rieles_techo"
	ColTowPrep      = "preparacion_remolque"
	ColTrailerHitch = "enganche_remolque"
	ColOutlets12V   = "tomas_12v"
	ColOutlets110V  = "tomas_110v"
	ColDriveModes   = "modos_manejo"
)

// Free-text columns.
const (
	ColDescription  = "descripcion"
	ColEquipment    = "equipamiento"
	ColFeaturesText = "features_text"
)

// Warranty columns.
const (
	ColWarrantyFullMonths       = "garantia_total_meses"
	ColWarrantyFullKm           = "garantia_total_km"
	ColWarrantyPowertrainMonths = "garantia_tren_motriz_meses"
	ColWarrantyPowertrainKm     = "garantia_tren_motriz_km"
	ColWarrantyRoadsideMonths   = "garantia_asistencia_meses"
	ColWarrantyCorrosionMonths  = "garantia_corrosion_meses"
	ColWarrantyElectricMonths   = "garantia_electrica_meses"
	ColWarrantyElectricKm       = "garantia_electrica_km"
)

// Derived score columns.
const (
	ColPillarADAS            = "equip_p_adas"
	ColPillarSafety          = "equip_p_safety"
	ColPillarComfort         = "equip_p_comfort"
	ColPillarInfotainment    = "equip_p_infotainment"
	ColPillarTraction        = "equip_p_traction"
	ColPillarUtility         = "equip_p_utility"
	ColPillarPerformance     = "equip_p_performance"
	ColPillarEfficiency      = "equip_p_efficiency"
	ColPillarElectrification = "equip_p_electrification"
	ColEquipScore            = "equip_score"
	ColWarrantyScore         = "warranty_score"
)

// Sales overlay columns. Monthly and YTD columns are generated per year.
const (
	ColSalesSharePct = "ventas_share_seg_pct"
)

// PillarColumns lists the nine pillar columns in scoring order.
var PillarColumns = []string{
	ColPillarADAS,
	ColPillarSafety,
	ColPillarComfort,
	ColPillarInfotainment,
	ColPillarTraction,
	ColPillarUtility,
	ColPillarPerformance,
	ColPillarEfficiency,
	ColPillarElectrification,
}

// CanonicalColumns is the leading column order of the persisted catalog.
// Columns not listed here follow in lexical order.
var CanonicalColumns = []string{
	ColVehicleID, ColMake, ColModel, ColVersion, ColTrim, ColYear, ColBodyStyle, ColSegment,
	ColFuelCategory, ColDrivetrain, ColHP, ColTorque, ColAccel, ColVmax,
	ColMSRP, ColTxPrice, ColBono, ColFuelCost, ColServiceCost, ColTCO, ColTCOTotal, ColCostPerHP,
	ColKmlCombined, ColKmlCity, ColKmlHighway, ColL100,
	ColLength, ColWidth, ColHeight, ColWheelbase, ColWeight,
	ColPillarADAS, ColPillarSafety, ColPillarComfort, ColPillarInfotainment, ColPillarTraction,
	ColPillarUtility, ColPillarPerformance, ColPillarEfficiency, ColPillarElectrification,
	ColEquipScore, ColWarrantyScore,
}

// textColumns are always kept as strings when reading the catalog back.
var textColumns = map[string]bool{
	ColVehicleID: true, ColMake: true, ColModel: true, ColVersion: true, ColTrim: true,
	ColBodyStyle: true, ColSegment: true, ColFuelCategory: true, ColDrivetrain: true,
	ColHeadlights: true, ColUpholstery: true, ColAudioBrand: true, ColDriveModes: true,
	ColDescription: true, ColEquipment: true, ColFeaturesText: true,
}

// IsTextColumn reports whether col always holds free text.
func IsTextColumn(col string) bool {
	return textColumns[col] || strings.HasPrefix(col, "features_")
}

// SalesMonthColumn returns the monthly sales column for year and month.
func SalesMonthColumn(year, month int) string {
	return fmt.Sprintf("ventas_%d_%02d", year, month)
}

// SalesYTDColumn returns the year-to-date sales column for year.
func SalesYTDColumn(year int) string {
	return fmt.Sprintf("ventas_ytd_%d", year)
}
