package geometry

import (
	"math"

	"github.com/vitebski/relgraph/pkg/models"
)

// LayoutConfig configures the canvas the initial layout fills
type LayoutConfig struct {
	Width   float64
	Height  float64
	Padding float64
}

// DefaultLayoutConfig returns the canvas used when none is given
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{Width: 1200, Height: 800, Padding: 40}
}

// Layout assigns initial positions to projected nodes
type Layout interface {
	Apply(nodes []models.GraphNode) []models.GraphNode
}

// RingLayout places each table's nodes evenly on its own concentric ring,
// tables ordered by first appearance. The result depends only on the input
// order, so re-projecting the same rows yields the same positions.
type RingLayout struct {
	Config LayoutConfig
}

// NewRingLayout creates a ring layout over the given canvas
func NewRingLayout(cfg LayoutConfig) *RingLayout {
	return &RingLayout{Config: cfg}
}

// Apply returns a copy of nodes with Position set
func (l *RingLayout) Apply(nodes []models.GraphNode) []models.GraphNode {
	out := make([]models.GraphNode, len(nodes))
	copy(out, nodes)
	if len(out) == 0 {
		return out
	}

	var tables []string
	members := make(map[string][]int)
	for i, n := range out {
		if _, ok := members[n.Table]; !ok {
			tables = append(tables, n.Table)
		}
		members[n.Table] = append(members[n.Table], i)
	}

	cx := l.Config.Width / 2
	cy := l.Config.Height / 2
	outer := math.Max(math.Min(l.Config.Width, l.Config.Height)/2-l.Config.Padding, 0)

	if len(out) == 1 {
		out[0].Position = models.Position{X: cx, Y: cy}
		return out
	}

	for ring, table := range tables {
		idx := members[table]
		radius := outer * float64(ring+1) / float64(len(tables))
		step := 2 * math.Pi / float64(len(idx))
		for k, i := range idx {
			angle := float64(k) * step
			out[i].Position = models.Position{
				X: cx + radius*math.Cos(angle),
				Y: cy + radius*math.Sin(angle),
			}
		}
	}
	return out
}
