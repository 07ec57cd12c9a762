package projection

import (
	"math"

	"github.com/vitebski/relgraph/pkg/models"
)

type sizeScale struct {
	min, max  float64
	minRadius float64
	maxRadius float64
	observed  bool
}

func (p *Projector) observeSizes(nc models.NodeConfig, rs models.RowSet) sizeScale {
	s := sizeScale{
		min:       math.Inf(1),
		max:       math.Inf(-1),
		minRadius: p.Options.MinRadius,
		maxRadius: p.Options.MaxRadius,
	}
	if nc.SizeField == "" || nc.SizeField == models.SizeNone {
		return s
	}
	for _, row := range rs.Rows {
		v, ok := models.NumericValue(row[nc.SizeField])
		if !ok {
			continue
		}
		s.min = math.Min(s.min, v)
		s.max = math.Max(s.max, v)
		s.observed = true
	}
	return s
}

// normalize maps v into [0, 1] over the observed range. A flat range maps
// everything to the middle.
func (s sizeScale) normalize(v float64) float64 {
	if s.max == s.min {
		return 0.5
	}
	t := (v - s.min) / (s.max - s.min)
	return math.Max(0, math.Min(1, t))
}

// radius sizes a node; values that are not numeric get the smallest radius.
func (s sizeScale) radius(value interface{}) float64 {
	v, ok := models.NumericValue(value)
	if !ok || !s.observed {
		return s.minRadius
	}
	return lerp(s.minRadius, s.maxRadius, s.normalize(v))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
