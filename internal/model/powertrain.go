package model

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fuel categories of the canonical catalog.
const (
	FuelBEV     = "bev"
	FuelPHEV    = "phev"
	FuelHEV     = "hev"
	FuelDiesel  = "diesel"
	FuelMagna   = "gasolina magna"
	FuelPremium = "gasolina premium"
	FuelOther   = "other"
)

// Propulsion buckets used by competitor filters.
const (
	PropulsionBEV   = "bev"
	PropulsionPHEV  = "phev"
	PropulsionHEV   = "hev"
	PropulsionICE   = "ice"
	PropulsionOther = "other"
)

// Segment buckets derived from body style.
const (
	SegmentPickup = "pickup"
	SegmentSUV    = "suv"
	SegmentSedan  = "sedan"
	SegmentHatch  = "hatch"
	SegmentVan    = "van"
)

// Drivetrain classes.
const (
	DriveAWD = "awd"
	DriveRWD = "rwd"
	DriveFWD = "fwd"
)

func lowerFold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func hasWord(s, w string) bool {
	for _, f := range strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if f == w {
			return true
		}
	}
	return false
}

// NormalizeFuel maps a free-form fuel description onto the canonical fuel
// categories. Blank input stays blank.
func NormalizeFuel(s string) string {
	t := lowerFold(s)
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "phev"), strings.Contains(t, "plug"), strings.Contains(t, "enchufable"):
		return FuelPHEV
	case strings.Contains(t, "hev"), strings.Contains(t, "hibrid"), strings.Contains(t, "hybrid"):
		return FuelHEV
	case strings.Contains(t, "bev"), strings.Contains(t, "electric"), hasWord(t, "ev"):
		return FuelBEV
	case strings.Contains(t, "diesel"):
		return FuelDiesel
	case strings.Contains(t, "premium"):
		return FuelPremium
	case strings.Contains(t, "magna"), strings.Contains(t, "regular"), strings.Contains(t, "gasolin"),
		strings.Contains(t, "petrol"), strings.Contains(t, "nafta"):
		return FuelMagna
	default:
		return FuelOther
	}
}

// IsElectrified reports whether a fuel category carries any electric drive.
func IsElectrified(fuel string) bool {
	switch NormalizeFuel(fuel) {
	case FuelBEV, FuelPHEV, FuelHEV:
		return true
	}
	return false
}

// PropulsionBucket groups a fuel category into bev, phev, hev, ice or other.
func PropulsionBucket(fuel string) string {
	switch NormalizeFuel(fuel) {
	case FuelBEV:
		return PropulsionBEV
	case FuelPHEV:
		return PropulsionPHEV
	case FuelHEV:
		return PropulsionHEV
	case FuelDiesel, FuelMagna, FuelPremium:
		return PropulsionICE
	default:
		return PropulsionOther
	}
}

// SegmentBucket classifies a body style.
func SegmentBucket(bodyStyle string) string {
	t := lowerFold(bodyStyle)
	switch {
	case strings.Contains(t, "pick"), strings.Contains(t, "cab"):
		return SegmentPickup
	case strings.Contains(t, "todo terreno"), strings.Contains(t, "suv"), strings.Contains(t, "crossover"):
		return SegmentSUV
	case strings.Contains(t, "van"):
		return SegmentVan
	case strings.Contains(t, "hatch"):
		return SegmentHatch
	default:
		return SegmentSedan
	}
}

// DrivetrainClass maps drivetrain text to awd, rwd or fwd ("" when unknown).
// "4x2" is rear drive on pickups and front drive on everything else.
func DrivetrainClass(s, segment string) string {
	t := lowerFold(s)
	switch {
	case t == "":
		return ""
	case strings.Contains(t, "4x4"), strings.Contains(t, "awd"), strings.Contains(t, "4wd"),
		strings.Contains(t, "integral"), strings.Contains(t, "total"):
		return DriveAWD
	case strings.Contains(t, "rwd"), strings.Contains(t, "trasera"), strings.Contains(t, "rear"):
		return DriveRWD
	case strings.Contains(t, "fwd"), strings.Contains(t, "delantera"), strings.Contains(t, "front"):
		return DriveFWD
	case strings.Contains(t, "4x2"):
		if segment == SegmentPickup {
			return DriveRWD
		}
		return DriveFWD
	default:
		return ""
	}
}
