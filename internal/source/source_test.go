package source

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPrimary(t *testing.T) {
	dump := `[
	  {
	    "vehicle_id": "tc-le-25",
	    "make": "toyota", "model": "corolla", "version": "le plus", "year": 2025.0,
	    "body_style": "Sedán", "fuel_category": "Híbrido",
	    "Descripcion_Larga": "Sedán con carril asistido",
	    "pricing": {"msrp": "$489,900", "precio_transaccion": 470000, "bono": null},
	    "fuelEconomy": {"combinado_kml": "25,1"},
	    "equipment": {"camara_360": "Estándar", "bocinas": "6"},
	    "features": {"Seguridad": {"Frenos ABS": "Sí", "Bolsas de aire": 7}},
	    "msrp": 499900
	  },
	  {"make": "kia", "model": "rio", "version": "lx", "ano": "2026"}
	]`
	path := writeFile(t, t.TempDir(), "dump.json", dump)

	rows, err := LoadPrimary(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, "tc-le-25", r.Str(model.ColVehicleID))
	assert.Equal(t, "Toyota", r.Str(model.ColMake))
	assert.Equal(t, "Le Plus", r.Str(model.ColVersion))
	assert.Equal(t, model.Number(2025), r.Get(model.ColYear))
	assert.Equal(t, model.FuelHEV, r.Str(model.ColFuelCategory))

	// Top-level msrp wins over the pricing subtree.
	assert.Equal(t, model.Number(499900), r.Get(model.ColMSRP))
	assert.Equal(t, model.Number(470000), r.Get(model.ColTxPrice))
	assert.True(t, r.Get(model.ColBono).IsAbsent())
	assert.Equal(t, model.Number(25.1), r.Get(model.ColKmlCombined))
	assert.Equal(t, model.Bool(true), r.Get(model.ColCamera360))
	assert.Equal(t, model.Number(6), r.Get(model.ColSpeakers))
	assert.Equal(t, model.Bool(true), r.Get(model.ColABS))
	assert.Equal(t, model.Number(7), r.Get(model.ColAirbags))
	assert.Contains(t, r.Str(model.ColFeaturesText), "Frenos ABS: Sí")

	// Unmapped top-level keys pass through lowercased.
	assert.Equal(t, "Sedán con carril asistido", r.Str("descripcion_larga"))

	assert.Equal(t, "kia_rio_lx_2026", rows[1].Str(model.ColVehicleID))
	assert.Equal(t, model.Number(2026), rows[1].Get(model.ColYear))
}

func TestLoadPrimary_Shapes(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		ids  []string
	}{
		{"bare array with leading space", "\n  [{\"vehicle_id\": \"a\"}, 3, {\"vehicle_id\": \"b\"}]", []string{"a", "b"}},
		{"envelope", `{"data": [{"vehicle_id": "a"}]}`, []string{"a"}},
		{"id map", `{"z": {"make": "Kia"}, "y": {"vehicle_id": "own"}}`, []string{"own", "z"}},
		{"empty", ``, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "dump.json", tt.doc)
			rows, err := LoadPrimary(context.Background(), path)
			require.NoError(t, err)

			var ids []string
			for _, r := range rows {
				ids = append(ids, r.Str(model.ColVehicleID))
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestLoadPrimary_BrokenArray(t *testing.T) {
	path := writeFile(t, t.TempDir(), "dump.json", `[{"vehicle_id": "a"}, {"vehicle_id": `)
	_, err := LoadPrimary(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode primary dump")
}

func TestLoadPrimary_Missing(t *testing.T) {
	_, err := LoadPrimary(context.Background(), filepath.Join(t.TempDir(), "none.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open primary dump")
}

func TestLoadOEM(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "toyota/precios.csv",
		"Marca;Modelo;Versión;Año;Precio Lista;HP\n"+
			"Toyota;Corolla;LE Plus;2025;$489,900.00;169\n"+
			"Toyota;Corolla;LE Plus;2024;469,900;169\n"+
			"Toyota;Yaris;S;MY26;299,900;106\n")
	writeFile(t, dir, "notes.txt", "ignored")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, data := range [][]string{
		{"Make", "Model", "Version", "Year", "Largo mm"},
		{"Kia", "K3", "GT Line", "2026", "4640"},
	} {
		row := sheet.AddRow()
		for _, c := range data {
			row.AddCell().SetString(c)
		}
	}
	require.NoError(t, f.Save(filepath.Join(dir, "kia.xlsx")))

	rows, err := LoadOEM(context.Background(), dir, nil)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byMake := map[string]model.Row{}
	for _, r := range rows {
		byMake[r.Str(model.ColMake)] = r
	}
	assert.Equal(t, model.Number(489900), byMake["Toyota"].Get(model.ColMSRP))
	assert.Equal(t, model.Number(169), byMake["Toyota"].Get(model.ColHP))
	assert.Equal(t, "toyota_corolla_le_plus_2025", byMake["Toyota"].Str(model.ColVehicleID))
	assert.Equal(t, "Gt Line", byMake["Kia"].Str(model.ColVersion))
	assert.Equal(t, model.Number(4640), byMake["Kia"].Get(model.ColLength))
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()

	arr := writeFile(t, dir, "overlay.json", `[
	  {"vehicle_id": "a", "precio_transaccion": "455000", "anchura_mm": 1780},
	  {"vehicle_id": "a", "segmento_ventas": "Compactos"},
	  {"precio_transaccion": 1}
	]`)
	got, err := LoadOverlay(context.Background(), arr)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.Number(455000), got["a"].Get(model.ColTxPrice))
	assert.Equal(t, model.Number(1780), got["a"].Get(model.ColWidth))
	assert.Equal(t, "Compactos", got["a"].Str(model.ColSegment))
	assert.True(t, got["a"].Get(model.ColVehicleID).IsAbsent())

	byID := writeFile(t, dir, "overlay_map.json", `{"b": {"msrp": 500000}}`)
	got, err = LoadOverlay(context.Background(), byID)
	require.NoError(t, err)
	assert.Equal(t, model.Number(500000), got["b"].Get(model.ColMSRP))
}

func TestLoadSales_Long(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ventas.csv",
		"marca,modelo,ano,mes,unidades,segmento\n"+
			"Toyota,Corolla,2025,1,1200,Compactos\n"+
			"Toyota,Corolla,2025,febrero,1100,Compactos\n"+
			"Toyota,,2025,3,10,Compactos\n")
	recs, err := LoadSales(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, SalesRecord{Make: "Toyota", Model: "Corolla", Year: 2025, Month: 1, Units: 1200, Segment: "Compactos"}, recs[0])
	assert.Equal(t, 2, recs[1].Month)
}

func TestLoadSales_Wide(t *testing.T) {
	path := writeFile(t, t.TempDir(), "ventas.csv",
		"Marca,Modelo,ventas_2025_01,ventas_2025_02,2025_13\n"+
			"Kia,Rio,300,,9\n")
	recs, err := LoadSales(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 2025, recs[0].Year)
	assert.Equal(t, 1, recs[0].Month)
	assert.Equal(t, 300.0, recs[0].Units)

	path = writeFile(t, t.TempDir(), "ventas_meses.csv",
		"Marca,Modelo,Año,Ene,Feb\n"+
			"Kia,Rio,2025,10,20\n")
	recs, err = LoadSales(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	sort.Slice(recs, func(i, j int) bool { return recs[i].Month < recs[j].Month })
	assert.Equal(t, 20.0, recs[1].Units)
}

func TestLoadMaintenance(t *testing.T) {
	path := writeFile(t, t.TempDir(), "mant.csv",
		"marca,modelo,version,ano,costo_60k,servicio_10000,servicio_70000\n"+
			"Toyota,Corolla,LE,2025,$32500,,\n"+
			"Kia,Rio,,,,4000,99999\n"+
			"Mazda,CX-5,,,,,\n")
	recs, err := LoadMaintenance(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, MaintenanceRecord{Make: "Toyota", Model: "Corolla", Version: "Le", Year: 2025, Cost: 32500}, recs[0])
	assert.Equal(t, 0, recs[1].Year)
	assert.Equal(t, 4000.0, recs[1].Cost)
}

func TestMaintenanceCost_StableSum(t *testing.T) {
	rec := fetcher.Record{
		"servicio_10k": "0.1", "servicio_20k": "0.2", "servicio_30k": "0.3",
		"servicio_40k": "0.7", "servicio_50k": "0.11", "servicio_60k": "0.13",
		"servicio_70k": "5",
	}
	var want float64
	for _, v := range []float64{0.1, 0.2, 0.3, 0.7, 0.11, 0.13} {
		want += v
	}
	for range 50 {
		got, ok := maintenanceCost(rec)
		require.True(t, ok)
		require.Equal(t, want, got)
	}
}

func TestLoadAliases(t *testing.T) {
	dir := t.TempDir()
	y := writeFile(t, dir, "aliases.yaml", `aliases:
  - scope: version
    make: TOYOTA
    from: LE PLUS
    to: LE+
  - scope: make
    from: volkswagen
    to: VW
`)
	got, err := LoadAliases(context.Background(), y)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, normalize.ScopeVersion, got[0].Scope)
	assert.Equal(t, "TOYOTA", got[0].Make)

	c := writeFile(t, dir, "aliases.csv", "scope,from_name,to_name,make,model\nVersion,LE PLUS,LE-PLUS,,\nmodel,,x,,\n")
	got, err = LoadAliases(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, normalize.ScopeVersion, got[0].Scope)
	assert.Equal(t, "LE-PLUS", got[0].ToName)
}

func TestCanonicalColumnAndCoerce(t *testing.T) {
	assert.Equal(t, model.ColWidth, CanonicalColumn("Anchura mm"))
	assert.Equal(t, model.ColHP, CanonicalColumn("HP"))
	assert.Equal(t, model.ColMSRP, CanonicalColumn("msrp_mxn"))
	assert.Equal(t, "color_exterior", CanonicalColumn("Color Exterior"))

	assert.True(t, Coerce(model.ColABS, "N/A").IsAbsent())
	assert.Equal(t, model.Bool(false), Coerce(model.ColABS, "no"))
	assert.Equal(t, model.String("12345"), Coerce(model.ColVehicleID, 12345.0))
	assert.Equal(t, model.String(`{"a":1}`), Coerce("extra", map[string]any{"a": 1.0}))
}

func TestCanonicalRow(t *testing.T) {
	in := model.Row{
		"year":               model.Number(2025),
		"hp":                 model.String("200"),
		"msrp_mxn":           model.String("$520,000"),
		model.ColMSRP:        model.Number(510000),
		"make":               model.String("mazda"),
		"Color Exterior":     model.String("Rojo"),
		model.ColVehicleID:   model.Number(42),
		model.ColABS:         model.String("sí"),
		model.ColServiceCost: model.Absent(),
	}

	r := CanonicalRow(in)
	assert.Equal(t, model.Number(2025), r.Get(model.ColYear))
	assert.Equal(t, model.Number(200), r.Get(model.ColHP))
	assert.Equal(t, model.Number(510000), r.Get(model.ColMSRP), "canonical key wins over its alias")
	assert.Equal(t, "Mazda", r.Str(model.ColMake))
	assert.Equal(t, "Rojo", r.Str("color_exterior"))
	assert.Equal(t, model.String("42"), r.Get(model.ColVehicleID))
	assert.Equal(t, model.Bool(true), r.Get(model.ColABS))
	assert.True(t, r.Missing(model.ColServiceCost))
	assert.False(t, r.Missing("year"), "aliases do not survive")

	assert.Nil(t, CanonicalRow(nil))
}
