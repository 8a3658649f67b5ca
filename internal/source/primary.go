package source

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/catalog-cli/internal/fetcher"
	"github.com/sells-group/catalog-cli/internal/model"
	"github.com/sells-group/catalog-cli/internal/normalize"
)

// Nested subtrees of a primary dump object that are flattened into columns.
const (
	subtreePricing     = "pricing"
	subtreeFuelEconomy = "fueleconomy"
	subtreeEquipment   = "equipment"
	subtreeDimensions  = "dimensions"
	subtreeWarranty    = "warranty"
	subtreeFeatures    = "features"
)

var flatSubtrees = map[string]bool{
	subtreePricing:     true,
	subtreeFuelEconomy: true,
	subtreeEquipment:   true,
	subtreeDimensions:  true,
	subtreeWarranty:    true,
}

// featureAliases maps slugged feature labels of the features subtree onto
// equipment columns.
var featureAliases = map[string]string{
	"frenos_abs":                             model.ColABS,
	"control_de_estabilidad":                 model.ColStability,
	"control_electronico_de_estabilidad":     model.ColStability,
	"control_de_traccion":                    model.ColTractionControl,
	"alerta_de_colision_frontal":             model.ColForwardCollision,
	"frenado_autonomo_de_emergencia":         model.ColForwardCollision,
	"monitor_de_punto_ciego":                 model.ColBlindSpot,
	"camara_de_vision_360":                   model.ColCamera360,
	"camara_360_grados":                      model.ColCamera360,
	"sensores_de_estacionamiento_delanteros": model.ColParkFront,
	"sensores_de_estacionamiento_traseros":   model.ColParkRear,
	"control_de_crucero_adaptativo":          model.ColAdaptiveCruise,
	"asistente_de_mantenimiento_de_carril":   model.ColLaneAssist,
	"llave_inteligente_push_button":          model.ColSmartKey,
	"encendido_por_boton":                    model.ColSmartKey,
	"quemacocos":                             model.ColSunroof,
	"toldo_corredizo":                        model.ColSunroof,
	"cajuela_electrica":                      model.ColPowerTailgate,
	"sensor_de_lluvia":                       model.ColRainSensor,
	"pantalla_tactil_pulgadas":               model.ColMainScreenIn,
	"cargador_inalambrico_de_celular":        model.ColWirelessCharge,
	"numero_de_bocinas":                      model.ColSpeakers,
	"bolsas_de_aire":                         model.ColAirbags,
	"tercera_fila_de_asientos":               model.ColThirdRow,
	"rieles_de_techo":                        model.ColRoofRails,
	"gancho_de_arrastre":                     model.ColTrailerHitch,
}

// LoadPrimary reads the primary normalized dump: a JSON array (or enveloped
// array, or id map) with one vehicle per object. Bare arrays are streamed.
func LoadPrimary(ctx context.Context, path string) ([]model.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open primary dump %s", path)
	}
	defer f.Close() //nolint:errcheck

	var rows []model.Row
	add := func(obj fetcher.Object) {
		row := primaryRow(obj.Fields)
		if row.Missing(model.ColVehicleID) && obj.Key != "" {
			row.SetStr(model.ColVehicleID, obj.Key)
		}
		EnsureVehicleID(row)
		rows = append(rows, row)
	}

	br := bufio.NewReader(f)
	if startsWithArray(br) {
		ch, errCh := fetcher.DecodeJSONArray[any](ctx, br)
		for el := range ch {
			if m, ok := el.(map[string]any); ok {
				add(fetcher.Object{Fields: m})
			}
		}
		if err := <-errCh; err != nil {
			return nil, eris.Wrapf(err, "source: decode primary dump %s", path)
		}
	} else {
		objs, err := fetcher.DecodeObjects(br)
		if err != nil {
			return nil, eris.Wrapf(err, "source: decode primary dump %s", path)
		}
		for _, obj := range objs {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "source: load primary")
			}
			add(obj)
		}
	}

	zap.L().Info("source: loaded primary dump",
		zap.String("path", path),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

// startsWithArray reports whether the first non-space byte of br opens a JSON
// array. Nothing is consumed but leading whitespace.
func startsWithArray(br *bufio.Reader) bool {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return false
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		_ = br.UnreadByte()
		return b == '['
	}
}

func primaryRow(obj map[string]any) model.Row {
	row := model.NewRow()
	var feats map[string]any

	keys := sortedKeys(obj)
	for _, k := range keys {
		lk := strings.ToLower(k)
		raw := obj[k]
		switch {
		case flatSubtrees[lk]:
			continue
		case lk == subtreeFeatures:
			if feats == nil {
				feats, _ = raw.(map[string]any)
				row.Set(lk, Coerce(lk, raw))
			}
			continue
		}
		col := CanonicalColumn(k)
		if !isKnownColumn(col) {
			col = lk
		}
		if row.Get(col).IsAbsent() {
			row.Set(col, Coerce(col, raw))
		}
	}

	// Top-level fields win over the same field inside a subtree.
	for _, k := range keys {
		lk := strings.ToLower(k)
		if !flatSubtrees[lk] {
			continue
		}
		sub, ok := obj[k].(map[string]any)
		if !ok {
			continue
		}
		for _, sk := range sortedKeys(sub) {
			col := CanonicalColumn(sk)
			if row.Get(col).IsAbsent() {
				row.Set(col, Coerce(col, sub[sk]))
			}
		}
	}

	if feats != nil {
		applyFeatures(row, feats)
	}
	return row
}

// applyFeatures maps the section → label → value features subtree onto
// equipment columns and renders a "label: value" digest into features_text.
func applyFeatures(row model.Row, sections map[string]any) {
	var digest []string
	for _, sec := range sortedKeys(sections) {
		items, ok := sections[sec].(map[string]any)
		if !ok {
			continue
		}
		for _, label := range sortedKeys(items) {
			raw := items[label]
			digest = append(digest, fmt.Sprintf("%s: %v", label, raw))

			col := CanonicalColumn(label)
			if alias, ok := featureAliases[col]; ok {
				col = alias
			}
			if _, typed := kinds[col]; !typed {
				continue
			}
			if row.Get(col).IsAbsent() {
				row.Set(col, Coerce(col, raw))
			}
		}
	}
	if len(digest) > 0 && row.Missing(model.ColFeaturesText) {
		row.SetStr(model.ColFeaturesText, strings.Join(digest, "; "))
	}
}

func isKnownColumn(col string) bool {
	if _, ok := kinds[col]; ok {
		return true
	}
	return model.IsTextColumn(col)
}

// EnsureVehicleID constructs a vehicle_id from make, model, version and year
// when the source did not provide one.
func EnsureVehicleID(row model.Row) {
	if !row.Missing(model.ColVehicleID) {
		return
	}
	parts := []string{row.Str(model.ColMake), row.Str(model.ColModel), row.Str(model.ColVersion), row.Str(model.ColYear)}
	if id := normalize.Slug(strings.Join(parts, " ")); id != "" {
		row.SetStr(model.ColVehicleID, id)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
