package costing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Group is one sub-recipe section of a breakdown.
type Group struct {
	Label string
	Lines []Line
}

// GroupBySubRecipe partitions lines by their sub-recipe label. Lines without
// a label are filed under itemName. Groups appear in the order their first
// line appears; lines keep breakdown order.
func GroupBySubRecipe(lines []Line, itemName string) []Group {
	groups := make([]Group, 0)
	index := make(map[string]int)
	for _, line := range lines {
		label := strings.TrimSpace(line.SubRecipe)
		if label == "" {
			label = itemName
		}
		pos, ok := index[label]
		if !ok {
			pos = len(groups)
			index[label] = pos
			groups = append(groups, Group{Label: label})
		}
		groups[pos].Lines = append(groups[pos].Lines, line)
	}
	return groups
}

// AggregateRow is a consolidated procurement entry for one ingredient name.
type AggregateRow struct {
	IngredientName string
	Quantity       float64
	Unit           string
	Cost           decimal.Decimal
	TotalCostCents int64
	LineCount      int
	HasError       bool
	// MixedUnits is set when some merged lines could not be converted into
	// Unit; their quantities are left out of Quantity but their cost is kept.
	MixedUnits bool
	Groups     []string
}

// AggregateByName merges lines that share the exact same ingredient name
// across all groups, summing quantity and cost. The key is the raw name, so
// "Salt" and "salt" stay separate rows. Rows are sorted by name and do not
// depend on the order of lines.
func AggregateByName(lines []Line) []AggregateRow {
	byName := make(map[string][]Line)
	for _, line := range lines {
		byName[line.IngredientName] = append(byName[line.IngredientName], line)
	}

	rows := make([]AggregateRow, 0, len(byName))
	for name, members := range byName {
		rows = append(rows, aggregate(name, members))
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].IngredientName < rows[j].IngredientName
	})
	return rows
}

func aggregate(name string, members []Line) AggregateRow {
	row := AggregateRow{IngredientName: name, LineCount: len(members), Unit: rowUnit(members)}

	qty := decimal.Zero
	cost := decimal.Zero
	groups := make(map[string]struct{})
	for _, line := range members {
		cost = cost.Add(line.Cost)
		row.HasError = row.HasError || line.HasError
		groups[strings.TrimSpace(line.SubRecipe)] = struct{}{}

		converted, ok := convertQuantity(line.Quantity(), line.Unit, row.Unit)
		if !ok {
			row.MixedUnits = true
			continue
		}
		qty = qty.Add(converted)
	}
	row.Quantity = qty.InexactFloat64()
	row.Cost = cost
	row.TotalCostCents = roundCents(cost)

	row.Groups = make([]string, 0, len(groups))
	for group := range groups {
		row.Groups = append(row.Groups, group)
	}
	sort.Strings(row.Groups)
	return row
}

// rowUnit picks the unit shared by most members, breaking ties by the
// smaller unit string, so the choice does not depend on line order.
func rowUnit(members []Line) string {
	counts := make(map[string]int)
	for _, line := range members {
		counts[CanonicalUnit(line.Unit)]++
	}
	best, bestCount := "", -1
	for unit, count := range counts {
		if count > bestCount || (count == bestCount && unit < best) {
			best, bestCount = unit, count
		}
	}
	return best
}
