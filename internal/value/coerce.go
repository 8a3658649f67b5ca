// Package value implements tolerant scalar coercion for vendor-supplied
// catalog fields: multilingual booleans, unit-suffixed numbers and model years.
package value

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/catalog-cli/internal/model"
)

var trueTokens = map[string]bool{
	"true": true, "1": true, "yes": true, "si": true, "y": true, "on": true,
	"standard": true, "serie": true, "incluido": true, "included": true,
	"estandar": true, "present": true, "x": true,
}

var falseTokens = map[string]bool{
	"false": true, "0": true, "no": true, "n": true, "off": true, "none": true,
	"sin": true, "-": true,
}

// naTokens mean "not reported" and stay absent for every kind.
var naTokens = map[string]bool{
	"": true, "na": true, "n/a": true, "null": true, "nan": true,
}

// missingTokens never carry a number.
var missingTokens = map[string]bool{
	"": true, "-": true, "na": true, "n/a": true, "nan": true, "null": true,
	"none": true, "nd": true, "n.d.": true, "s/d": true,
}

// FoldAccents strips combining marks after NFD decomposition ("Estándar" → "Estandar").
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func token(s string) string {
	return strings.ToLower(FoldAccents(strings.TrimSpace(s)))
}

// ParseBool maps a free-form token to a boolean. The second result is false
// when the token is not recognised.
func ParseBool(s string) (bool, bool) {
	t := token(s)
	if naTokens[t] {
		return false, false
	}
	if trueTokens[t] {
		return true, true
	}
	if falseTokens[t] {
		return false, true
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f != 0, true
	}
	return false, false
}

// ParseNumber extracts a number from strings like "1,234.5 mm", "$ 489.900",
// "7,5 l" or "-3". Everything but digits, separators and minus is dropped.
// With both separators present the rightmost one is the decimal mark; a
// lone comma is decimal, repeated commas are thousands.
func ParseNumber(s string) (float64, bool) {
	if missingTokens[token(s)] {
		return 0, false
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.':
			b.WriteRune(r)
		case r == '-':
			if b.Len() == 0 {
				b.WriteRune(r)
			}
		}
	}
	cleaned := b.String()

	neg := strings.HasPrefix(cleaned, "-")
	cleaned = strings.TrimPrefix(cleaned, "-")
	if !strings.ContainsAny(cleaned, "0123456789") {
		return 0, false
	}

	lastComma := strings.LastIndex(cleaned, ",")
	lastDot := strings.LastIndex(cleaned, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(cleaned, ",") == 1 {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(cleaned, ".") > 1 {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		}
	}

	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}

// ParseYear floors a float-like string into a year.
func ParseYear(s string) (int, bool) {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(math.Floor(f)), true
}

// Flag coerces a row value to a boolean: bools pass through, numbers are
// nonzero-true, strings go through ParseBool.
func Flag(v model.Value) (bool, bool) {
	switch v.Kind() {
	case model.KindBool:
		return v.AsBool()
	case model.KindNumber:
		n, _ := v.AsNumber()
		return n != 0, true
	case model.KindString:
		s, _ := v.AsString()
		return ParseBool(s)
	default:
		return false, false
	}
}

// Num coerces a row value to a number: numbers pass through, strings go
// through ParseNumber. Booleans are not numbers.
func Num(v model.Value) (float64, bool) {
	switch v.Kind() {
	case model.KindNumber:
		return v.AsNumber()
	case model.KindString:
		s, _ := v.AsString()
		return ParseNumber(s)
	default:
		return 0, false
	}
}

// Has reports whether col in r coerces to true.
func Has(r model.Row, col string) bool {
	b, ok := Flag(r.Get(col))
	return ok && b
}

// Listed reports whether a free-text or flag value names something. Absent
// values, false flags and "not reported" tokens do not.
func Listed(v model.Value) bool {
	if v.IsAbsent() {
		return false
	}
	if b, ok := Flag(v); ok {
		return b
	}
	if s, ok := v.AsString(); ok && missingTokens[token(s)] {
		return false
	}
	return true
}

// Number returns col in r as a number.
func Number(r model.Row, col string) (float64, bool) {
	return Num(r.Get(col))
}

// Positive returns col in r when it coerces to a number greater than zero.
func Positive(r model.Row, col string) (float64, bool) {
	f, ok := Num(r.Get(col))
	if !ok || f <= 0 {
		return 0, false
	}
	return f, true
}

// BoolValue converts an arbitrary decoded scalar into a bool Value.
func BoolValue(x any) model.Value {
	switch t := x.(type) {
	case nil:
		return model.Absent()
	case bool:
		return model.Bool(t)
	case float64:
		return model.Bool(t != 0)
	case int:
		return model.Bool(t != 0)
	case int64:
		return model.Bool(t != 0)
	case string:
		if b, ok := ParseBool(t); ok {
			return model.Bool(b)
		}
	case model.Value:
		if b, ok := Flag(t); ok {
			return model.Bool(b)
		}
	}
	return model.Absent()
}

// NumberValue converts an arbitrary decoded scalar into a number Value.
func NumberValue(x any) model.Value {
	switch t := x.(type) {
	case nil:
		return model.Absent()
	case float64:
		return model.Number(t)
	case float32:
		return model.Number(float64(t))
	case int:
		return model.Number(float64(t))
	case int64:
		return model.Number(float64(t))
	case string:
		if f, ok := ParseNumber(t); ok {
			return model.Number(f)
		}
	case model.Value:
		if f, ok := Num(t); ok {
			return model.Number(f)
		}
	}
	return model.Absent()
}

// YearValue converts an arbitrary decoded scalar into a year Value.
func YearValue(x any) model.Value {
	switch t := x.(type) {
	case float64:
		return model.Number(math.Floor(t))
	case int:
		return model.Number(float64(t))
	case int64:
		return model.Number(float64(t))
	case string:
		if y, ok := ParseYear(t); ok {
			return model.Number(float64(y))
		}
	case model.Value:
		if f, ok := t.AsNumber(); ok {
			return model.Number(math.Floor(f))
		}
		if s, ok := t.AsString(); ok {
			if y, ok := ParseYear(s); ok {
				return model.Number(float64(y))
			}
		}
	}
	return model.Absent()
}

// Infer types a raw catalog cell: "true"/"false" become bools, strict
// numbers become numbers, everything else stays a string. Empty is absent.
func Infer(s string) model.Value {
	if s == "" {
		return model.Absent()
	}
	switch s {
	case "true":
		return model.Bool(true)
	case "false":
		return model.Bool(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return model.Number(f)
	}
	return model.String(s)
}

// Round rounds f to the given number of decimals.
func Round(f float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(f*p) / p
}

// Clip bounds f to [lo, hi].
func Clip(f, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, f))
}
