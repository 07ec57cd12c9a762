package legend

import (
	"math"
	"strconv"
	"strings"

	"github.com/vitebski/relgraph/pkg/models"
)

// RangeSeparator splits a numeric range label such as "0~10".
const RangeSeparator = "~"

// Range is an inclusive numeric interval parsed from a legend label
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in [Min, Max]
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// ParseRange parses a "min~max" label. It returns false when the label has
// no separator or either side is not a finite number, in which case the
// label is matched as an exact value.
func ParseRange(label string) (Range, bool) {
	lo, hi, found := strings.Cut(label, RangeSeparator)
	if !found {
		return Range{}, false
	}
	min, ok := parseBound(lo)
	if !ok {
		return Range{}, false
	}
	max, ok := parseBound(hi)
	if !ok {
		return Range{}, false
	}
	return Range{Min: min, Max: max}, true
}

func parseBound(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Matches reports whether value falls into the item's bucket
func Matches(item models.LegendItem, value interface{}) bool {
	if r, ok := ParseRange(item.Label); ok {
		v, numeric := models.NumericValue(value)
		return numeric && r.Contains(v)
	}
	return item.Label == models.FormatScalar(value)
}

// ResolveCategory returns the first item, in slice order, whose label or
// range contains value. Nil means the caller applies its default style.
func ResolveCategory(value interface{}, items []models.LegendItem) *models.LegendItem {
	for i := range items {
		if Matches(items[i], value) {
			item := items[i]
			return &item
		}
	}
	return nil
}
