package legend

import (
	"math"
	"sort"
	"strconv"

	"github.com/vitebski/relgraph/pkg/models"
)

// Palette is the default color cycle for generated legends
var Palette = []string{
	"#e6194b", "#3cb44b", "#4363d8", "#f58231", "#911eb4",
	"#46f0f0", "#f032e6", "#bcf60c", "#008080", "#9a6324",
}

// DefaultColor styles values that match no legend item
const DefaultColor = "#9e9e9e"

// Generator produces a legend for the observed values of one field.
// Implementations may be hardcoded, rule based or model backed.
type Generator interface {
	Generate(values []interface{}) []models.LegendItem
}

// GeneratorFunc adapts a plain function to the Generator interface
type GeneratorFunc func(values []interface{}) []models.LegendItem

// Generate calls f(values)
func (f GeneratorFunc) Generate(values []interface{}) []models.LegendItem {
	return f(values)
}

// DistinctGenerator emits one item per distinct value, most frequent first,
// capped at MaxItems (0 means no cap).
type DistinctGenerator struct {
	MaxItems int
}

// Generate implements Generator
func (g DistinctGenerator) Generate(values []interface{}) []models.LegendItem {
	counts := make(map[string]int)
	var order []string
	for _, v := range values {
		if v == nil {
			continue
		}
		key := models.FormatScalar(v)
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if g.MaxItems > 0 && len(order) > g.MaxItems {
		order = order[:g.MaxItems]
	}

	items := make([]models.LegendItem, 0, len(order))
	for i, label := range order {
		items = append(items, NewItem(label, Palette[i%len(Palette)]))
	}
	return items
}

// RangeGenerator splits the observed numeric span into Buckets equal-width
// "min~max" ranges.
type RangeGenerator struct {
	Buckets int
}

// Generate implements Generator
func (g RangeGenerator) Generate(values []interface{}) []models.LegendItem {
	buckets := g.Buckets
	if buckets <= 0 {
		buckets = 5
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		f, ok := models.NumericValue(v)
		if !ok {
			continue
		}
		min = math.Min(min, f)
		max = math.Max(max, f)
	}
	if math.IsInf(min, 1) {
		return nil
	}
	if min == max {
		return []models.LegendItem{NewItem(rangeLabel(min, max), Palette[0])}
	}

	width := (max - min) / float64(buckets)
	items := make([]models.LegendItem, 0, buckets)
	for i := 0; i < buckets; i++ {
		lo := min + float64(i)*width
		hi := lo + width
		if i == buckets-1 {
			hi = max
		}
		items = append(items, NewItem(rangeLabel(lo, hi), Palette[i%len(Palette)]))
	}
	return items
}

// AutoGenerator uses numeric ranges for fields whose values are all numbers
// and too varied to list one by one, and distinct values otherwise
type AutoGenerator struct {
	MaxDistinct int
	Buckets     int
}

// Generate implements Generator
func (g AutoGenerator) Generate(values []interface{}) []models.LegendItem {
	maxDistinct := g.MaxDistinct
	if maxDistinct <= 0 {
		maxDistinct = len(Palette)
	}

	distinct := make(map[string]bool)
	numeric := true
	for _, v := range values {
		if v == nil {
			continue
		}
		if _, ok := models.NumericValue(v); !ok {
			numeric = false
		}
		distinct[models.FormatScalar(v)] = true
	}

	if numeric && len(distinct) > maxDistinct {
		return RangeGenerator{Buckets: g.Buckets}.Generate(values)
	}
	return DistinctGenerator{MaxItems: maxDistinct}.Generate(values)
}

func rangeLabel(lo, hi float64) string {
	return strconv.FormatFloat(lo, 'f', -1, 64) + RangeSeparator + strconv.FormatFloat(hi, 'f', -1, 64)
}
