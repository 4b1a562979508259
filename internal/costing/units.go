package costing

import (
	"strings"

	"github.com/shopspring/decimal"
)

type dimension int

const (
	dimensionMass dimension = iota + 1
	dimensionVolume
	dimensionCount
)

type unitDef struct {
	dim dimension
	// size of one unit expressed in the dimension's base unit (g, ml, pcs)
	factor decimal.Decimal
}

var knownUnits = map[string]unitDef{
	"mg":    {dimensionMass, decimal.New(1, -3)},
	"g":     {dimensionMass, decimal.New(1, 0)},
	"kg":    {dimensionMass, decimal.New(1, 3)},
	"ml":    {dimensionVolume, decimal.New(1, 0)},
	"cl":    {dimensionVolume, decimal.New(1, 1)},
	"dl":    {dimensionVolume, decimal.New(1, 2)},
	"l":     {dimensionVolume, decimal.New(1, 3)},
	"pcs":   {dimensionCount, decimal.New(1, 0)},
	"dozen": {dimensionCount, decimal.New(12, 0)},
}

var unitAliases = map[string]string{
	"milligram":   "mg",
	"milligrams":  "mg",
	"gram":        "g",
	"grams":       "g",
	"gr":          "g",
	"kgs":         "kg",
	"kilo":        "kg",
	"kilos":       "kg",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"millilitre":  "ml",
	"milliliter":  "ml",
	"millilitres": "ml",
	"milliliters": "ml",
	"mls":         "ml",
	"centilitre":  "cl",
	"centiliter":  "cl",
	"litre":       "l",
	"liter":       "l",
	"litres":      "l",
	"liters":      "l",
	"ltr":         "l",
	"lt":          "l",
	"pc":          "pcs",
	"piece":       "pcs",
	"pieces":      "pcs",
	"packs":       "pack",
	"tins":        "tin",
	"bags":        "bag",
	"bottles":     "bottle",
	"bunches":     "bunch",
}

// CanonicalUnit lower-cases a unit and folds common spellings onto the
// short form ("Litres" -> "l"). Unknown units are returned trimmed and
// lower-cased.
func CanonicalUnit(unit string) string {
	key := strings.ToLower(strings.TrimSpace(unit))
	key = strings.TrimSuffix(key, ".")
	if alias, ok := unitAliases[key]; ok {
		return alias
	}
	return key
}

// convertQuantity expresses qty (in from) in the to unit. An empty unit on
// either side is taken to mean "same unit". Units outside the mass, volume
// and count tables only match themselves.
func convertQuantity(qty decimal.Decimal, from, to string) (decimal.Decimal, bool) {
	from = CanonicalUnit(from)
	to = CanonicalUnit(to)
	if from == "" || to == "" || from == to {
		return qty, true
	}
	fromDef, okFrom := knownUnits[from]
	toDef, okTo := knownUnits[to]
	if !okFrom || !okTo || fromDef.dim != toDef.dim {
		return decimal.Decimal{}, false
	}
	return qty.Mul(fromDef.factor).Div(toDef.factor), true
}

// ConvertUnitPrice re-expresses a price per from unit as a price per to unit,
// rounded to the nearest cent.
func ConvertUnitPrice(priceCents int64, from, to string) (int64, bool) {
	perTo, ok := convertQuantity(decimal.NewFromInt(1), to, from)
	if !ok {
		return 0, false
	}
	return perTo.Mul(decimal.NewFromInt(priceCents)).Round(0).IntPart(), true
}
