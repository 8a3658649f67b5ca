package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueKinds(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		kind Kind
		text string
	}{
		{"absent", Absent(), KindAbsent, ""},
		{"false is not absent", Bool(false), KindBool, "false"},
		{"zero is not absent", Number(0), KindNumber, "0"},
		{"decimal", Number(16.25), KindNumber, "16.25"},
		{"large", Number(1234567), KindNumber, "1234567"},
		{"nan", Number(math.NaN()), KindAbsent, ""},
		{"inf", Number(math.Inf(1)), KindAbsent, ""},
		{"string", String("CX-5"), KindString, "CX-5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.v.Kind())
			assert.Equal(t, tt.text, tt.v.Text())
			assert.Equal(t, tt.kind == KindAbsent, tt.v.IsAbsent())
		})
	}
}

func TestValueAccessors(t *testing.T) {
	n, ok := Number(3).AsNumber()
	assert.True(t, ok)
	assert.InDelta(t, 3, n, 1e-9)

	_, ok = String("3").AsNumber()
	assert.False(t, ok)

	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	_, ok = Number(1).AsBool()
	assert.False(t, ok)

	s, ok := String("x").AsString()
	assert.True(t, ok)
	assert.Equal(t, "x", s)

	assert.True(t, Number(2).Equal(Number(2)))
	assert.False(t, Number(1).Equal(Bool(true)))
	assert.Equal(t, "number", KindNumber.String())
}

func TestValueJSON(t *testing.T) {
	in := `{"a": 1.5, "b": true, "c": "Mazda", "d": null, "e": {"x": 1}, "f": [1, 2]}`
	var r Row
	require.NoError(t, json.Unmarshal([]byte(in), &r))

	assert.Equal(t, Number(1.5), r.Get("a"))
	assert.Equal(t, Bool(true), r.Get("b"))
	assert.Equal(t, String("Mazda"), r.Get("c"))
	assert.True(t, r.Get("d").IsAbsent())
	assert.Equal(t, String(`{"x": 1}`), r.Get("e"))
	assert.Equal(t, String("[1, 2]"), r.Get("f"))

	out, err := json.Marshal(Row{"a": Number(2), "b": Bool(false), "c": String("x"), "d": Absent()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 2, "b": false, "c": "x", "d": null}`, string(out))

	var v Value
	assert.Error(t, json.Unmarshal([]byte(`12abc`), &v))
}

func TestRowSetters(t *testing.T) {
	r := NewRow()
	r.SetNum(ColMSRP, 500000)
	r.SetStr(ColMake, "Mazda")
	r.SetBool(ColSunroof, true)

	n, ok := r.Num(ColMSRP)
	assert.True(t, ok)
	assert.InDelta(t, 500000, n, 1e-9)
	assert.Equal(t, "Mazda", r.Str(ColMake))
	assert.Equal(t, "true", r.Str(ColSunroof))

	r.SetStr(ColMake, "  ")
	assert.True(t, r.Missing(ColMake))
	_, present := r[ColMake]
	assert.False(t, present)

	r.Set(ColMSRP, Absent())
	assert.True(t, r.Missing(ColMSRP))

	r.Delete(ColSunroof)
	assert.Empty(t, r)
}

func TestRowMissing(t *testing.T) {
	r := Row{ColMake: String(" "), ColModel: String("CX-5"), ColBono: Number(0), ColSunroof: Bool(false)}
	assert.True(t, r.Missing(ColMake))
	assert.False(t, r.Missing(ColModel))
	assert.False(t, r.Missing(ColBono))
	assert.False(t, r.Missing(ColSunroof))
	assert.True(t, r.Missing(ColVersion))
}

func TestRowYear(t *testing.T) {
	y, ok := Row{ColYear: Number(2025)}.Year()
	assert.True(t, ok)
	assert.Equal(t, 2025, y)

	_, ok = Row{ColYear: String("2025")}.Year()
	assert.False(t, ok)

	_, ok = Row(nil).Year()
	assert.False(t, ok)
}

func TestRowCloneAndColumns(t *testing.T) {
	r := Row{ColModel: String("CX-5"), ColMake: String("Mazda")}
	c := r.Clone()
	c.SetStr(ColMake, "Toyota")

	assert.Equal(t, "Mazda", r.Str(ColMake))
	assert.Equal(t, []string{ColMake, ColModel}, r.Columns())
}

func TestIsTextColumn(t *testing.T) {
	assert.True(t, IsTextColumn(ColVersion))
	assert.True(t, IsTextColumn("features_confort"))
	assert.False(t, IsTextColumn(ColMSRP))
}

func TestSalesColumns(t *testing.T) {
	assert.Equal(t, "ventas_2025_03", SalesMonthColumn(2025, 3))
	assert.Equal(t, "ventas_ytd_2025", SalesYTDColumn(2025))
}
