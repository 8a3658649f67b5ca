package scorer

import (
	"math"
	"strings"

	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/value"
)

// TextColumns are the descriptive fields scanned by the text heuristics, in
// concatenation order.
var TextColumns = []string{
	model.ColVersion, model.ColTrim, model.ColDescription, model.ColEquipment,
	model.ColFeaturesText, model.ColHeadlights, model.ColUpholstery,
	model.ColAudioBrand, model.ColDriveModes,
}

// rowText is the accent-folded, lowercased concatenation of TextColumns.
func rowText(r model.Row) string {
	var b strings.Builder
	for _, c := range TextColumns {
		if s := r.Str(c); s != "" {
			b.WriteByte(' ')
			b.WriteString(s)
		}
	}
	return strings.ToLower(value.FoldAccents(b.String()))
}

func containsAny(text string, tokens ...string) bool {
	for _, t := range tokens {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// count returns a non-negative numeric column, 0 when missing.
func count(r model.Row, col string) float64 {
	f, ok := value.Number(r, col)
	if !ok || f < 0 {
		return 0
	}
	return f
}

func flag(r model.Row, col string, points float64) float64 {
	if value.Has(r, col) {
		return points
	}
	return 0
}

// finish clips to [0, 100] and rounds to one decimal.
func finish(f float64) float64 {
	return value.Round(value.Clip(f, 0, 100), 1)
}

func scoreADAS(r model.Row, text string) float64 {
	s := flag(r, model.ColForwardCollision, 20) +
		flag(r, model.ColBlindSpot, 20) +
		flag(r, model.ColCamera360, 15) +
		flag(r, model.ColParkFront, 10) +
		flag(r, model.ColParkRear, 10) +
		flag(r, model.ColCurveBrake, 10) +
		flag(r, model.ColAdaptiveCruise, 15)
	if value.Has(r, model.ColLaneAssist) || containsAny(text, "lane", "carril") {
		s += 10
	}
	if containsAny(text, "tsr", "senales") {
		s += 6
	}
	return finish(s)
}

func scoreSafety(r model.Row, text string) float64 {
	s := flag(r, model.ColABS, 20)
	if value.Has(r, model.ColStability) || value.Has(r, model.ColTractionControl) {
		s += 20
	}
	s += math.Min(count(r, model.ColAirbags), 6) / 6 * 40
	if value.Has(r, model.ColBlindSpot) && value.Has(r, model.ColCamera360) {
		s += 10
	}
	lights := strings.ToLower(r.Str(model.ColHeadlights))
	if strings.Contains(lights, "led") {
		s += 6
	}
	if containsAny(text, "matrix", "matriz") {
		s += 6
	}
	s += flag(r, model.ColFogLights, 4)
	return finish(s)
}

func scoreComfort(r model.Row, text string) float64 {
	s := flag(r, model.ColSeatHeatFront, 8) +
		flag(r, model.ColSeatHeatRear, 8) +
		flag(r, model.ColSeatVentFront, 8) +
		flag(r, model.ColSeatVentRear, 8)

	switch zones := count(r, model.ColHVACZones); {
	case zones >= 3:
		s += 20
	case zones >= 2:
		s += 12
	case zones >= 1:
		s += 6
	}

	s += flag(r, model.ColAirConditioner, 6) +
		flag(r, model.ColSmartKey, 8) +
		flag(r, model.ColSunroof, 12) +
		flag(r, model.ColPowerTailgate, 6) +
		flag(r, model.ColSoftClose, 8) +
		flag(r, model.ColPowerColumn, 6) +
		flag(r, model.ColPowerWindows, 4) +
		flag(r, model.ColPowerLocks, 4) +
		flag(r, model.ColRainSensor, 4)
	if strings.Contains(text, "piel") {
		s += 6
	}
	return finish(s)
}

var premiumAudio = []string{"bose", "jbl", "harman", "sony"}

func scoreInfotainment(r model.Row, text string) float64 {
	s := flag(r, model.ColTouchscreen, 18) +
		flag(r, model.ColAndroidAuto, 18) +
		flag(r, model.ColCarPlay, 18)

	s += math.Min(count(r, model.ColSpeakers), 12) / 12 * 30
	if in := count(r, model.ColMainScreenIn); in > 6 {
		s += (math.Min(in, 12) - 6) / 6 * 15
	}
	if in := count(r, model.ColClusterScreenIn); in > 4 {
		s += (math.Min(in, 9) - 4) / 5 * 10
	}
	s += math.Min(count(r, model.ColUSBA)*2, 8)
	s += math.Min(count(r, model.ColUSBC)*2.5, 8)
	s += flag(r, model.ColWirelessCharge, 8)
	if containsAny(text, premiumAudio...) {
		s += 6
	}
	return finish(s)
}

func scoreTraction(r model.Row) float64 {
	var s float64
	switch model.DrivetrainClass(r.Str(model.ColDrivetrain), model.SegmentBucket(r.Str(model.ColBodyStyle))) {
	case model.DriveAWD:
		s = 70
	case model.DriveRWD:
		s = 45
	case model.DriveFWD:
		s = 30
	}
	s += flag(r, model.ColTractionControl, 15)
	return finish(s)
}

func scoreUtility(r model.Row) float64 {
	var s float64
	if count(r, model.ColSeats) >= 7 {
		s += 30
	}
	s += flag(r, model.ColThirdRow, 20) + flag(r, model.ColRoofRails, 15)
	if value.Has(r, model.ColTowPrep) || value.Has(r, model.ColTrailerHitch) {
		s += 20
	}
	if value.Has(r, model.ColPowerTailgate) || value.Has(r, model.ColSoftClose) {
		s += 10
	}
	s += math.Min(count(r, model.ColOutlets12V)*2, 8)
	s += math.Min(count(r, model.ColOutlets110V)*5, 10)
	return finish(s)
}

// performanceRef is the horsepower that maps to a full base score.
var performanceRef = map[string]float64{
	model.SegmentSUV:    300,
	model.SegmentPickup: 400,
	model.SegmentSedan:  280,
	model.SegmentHatch:  220,
	model.SegmentVan:    260,
}

func scorePerformance(r model.Row, text string) float64 {
	var s float64
	if hp, ok := value.Positive(r, model.ColHP); ok {
		ref := performanceRef[model.SegmentBucket(r.Str(model.ColBodyStyle))]
		s = math.Min(100, hp/ref*100)
	}
	if accel, ok := value.Positive(r, model.ColAccel); ok {
		s += math.Max(0, math.Min(25, (12/accel-1)*25))
	}
	if vmax, ok := value.Positive(r, model.ColVmax); ok && vmax > 180 {
		s += math.Min(10, (vmax-180)*0.1)
	}
	if value.Listed(r.Get(model.ColDriveModes)) || containsAny(text, "modos de manejo", "drive mode", "modo sport", "modo eco") {
		s += 5
	}
	return finish(s)
}

// kmlScore maps combined kml linearly from 8 (0) to 20 (100).
func kmlScore(kml float64) float64 {
	return (kml - 8) / (20 - 8) * 100
}

// hevNoKml is the efficiency of a hybrid without a published kml figure.
const hevNoKml = 70

func scoreEfficiency(r model.Row) float64 {
	kml, hasKml := value.Positive(r, model.ColKmlCombined)
	switch model.NormalizeFuel(r.Str(model.ColFuelCategory)) {
	case model.FuelBEV:
		return 100
	case model.FuelPHEV:
		if !hasKml {
			return 85
		}
		return finish(kmlScore(kml))
	case model.FuelHEV:
		if !hasKml {
			return hevNoKml
		}
		return finish(kmlScore(kml) + 10)
	default:
		if !hasKml {
			return 0
		}
		return finish(kmlScore(kml))
	}
}

func scoreElectrification(r model.Row) float64 {
	switch model.NormalizeFuel(r.Str(model.ColFuelCategory)) {
	case model.FuelBEV:
		return 100
	case model.FuelPHEV:
		return 80
	case model.FuelHEV:
		return 60
	default:
		return 0
	}
}

// WarrantyScore sums capped credit for each warranty term.
func WarrantyScore(r model.Row) float64 {
	part := func(col string, full, points float64) float64 {
		return math.Min(points, count(r, col)/full*points)
	}
	s := part(model.ColWarrantyFullMonths, 36, 30) +
		part(model.ColWarrantyFullKm, 60000, 10) +
		part(model.ColWarrantyPowertrainMonths, 72, 25) +
		part(model.ColWarrantyPowertrainKm, 100000, 10) +
		part(model.ColWarrantyRoadsideMonths, 36, 10) +
		part(model.ColWarrantyCorrosionMonths, 60, 5) +
		part(model.ColWarrantyElectricMonths, 96, 10)
	return finish(s)
}
