package projection

import (
	"fmt"
	"io"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/internal/geometry"
	"github.com/vitebski/relgraph/internal/legend"
	"github.com/vitebski/relgraph/pkg/models"
)

// DefaultPrimaryKey is used for row sets that do not name their key column
const DefaultPrimaryKey = "id"

// Options tunes node sizing, styling and placement
type Options struct {
	MinRadius     float64
	MaxRadius     float64
	DefaultRadius float64
	DefaultColor  string
	Layout        geometry.Layout
}

// DefaultOptions returns the sizing used by the builder UI
func DefaultOptions() Options {
	return Options{
		MinRadius:     10,
		MaxRadius:     40,
		DefaultRadius: 20,
		DefaultColor:  legend.DefaultColor,
		Layout:        geometry.NewRingLayout(geometry.DefaultLayoutConfig()),
	}
}

// Legends holds legend items by color field. A "table.field" key takes
// precedence over a bare "field" key.
type Legends map[string][]models.LegendItem

// For returns the legend items that apply to field of table
func (l Legends) For(table, field string) []models.LegendItem {
	if items, ok := l[table+"."+field]; ok {
		return items
	}
	return l[field]
}

// Projector turns row sets and a mapping into a node/edge graph
type Projector struct {
	Options Options
	Logger  *logrus.Logger
}

// NewProjector creates a new projector
func NewProjector(opts Options, logger *logrus.Logger) *Projector {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Projector{Options: opts, Logger: logger}
}

// Project builds the graph for one render cycle. It never fails: tables,
// columns or keys that cannot be resolved contribute nothing and are logged.
// Inputs are read only; the returned graph is freshly allocated.
func (p *Projector) Project(
	rowSets []models.RowSet,
	nodeConfigs []models.NodeConfig,
	linkConfigs []models.LinkConfig,
	legends Legends,
) *models.Graph {
	tables := indexRowSets(rowSets)

	nodes := newNodeSet()
	for i, nc := range nodeConfigs {
		rs, ok := tables[nc.Table]
		if !ok {
			p.Logger.Warningf("Node config %d references unknown table %s, skipping", i, nc.Table)
			continue
		}
		p.checkFields(i, nc, rs)
		for _, node := range p.projectTable(nc, rs, legends) {
			nodes.put(node)
		}
	}

	edges := p.joinLinks(tables, linkConfigs, nodes)

	graph := &models.Graph{
		Nodes: nodes.list(),
		Edges: edges,
	}
	if p.Options.Layout != nil {
		graph.Nodes = p.Options.Layout.Apply(graph.Nodes)
	}
	graph.Stats = ComputeStats(graph)

	p.Logger.Debugf("Projected %d nodes and %d edges from %d row sets", len(graph.Nodes), len(graph.Edges), len(rowSets))
	return graph
}

// projectTable projects every row of rs through nc. Radii need the observed
// size range, so values are collected in a first pass and assigned in the
// second.
func (p *Projector) projectTable(nc models.NodeConfig, rs models.RowSet, legends Legends) []models.GraphNode {
	pk := primaryKey(rs)
	scale := p.observeSizes(nc, rs)
	items := legends.For(nc.Table, nc.ColorField)

	out := make([]models.GraphNode, 0, len(rs.Rows))
	skipped := 0
	for _, row := range rs.Rows {
		key, ok := row[pk]
		if !ok || key == nil {
			skipped++
			continue
		}

		node := models.GraphNode{
			ID:    NodeID(nc.Table, key),
			Table: nc.Table,
			Icon:  nc.Icon,
			Color: p.Options.DefaultColor,
		}

		if nc.LabelField != "" {
			node.Label = models.FormatScalar(row[nc.LabelField])
		} else {
			node.Label = models.FormatScalar(key)
		}

		if nc.SizeField == "" || nc.SizeField == models.SizeNone {
			node.Radius = p.Options.DefaultRadius
		} else {
			node.SizeValue = cellValue(row[nc.SizeField])
			node.Radius = scale.radius(node.SizeValue)
		}

		if nc.ColorField != "" {
			node.ColorValue = cellValue(row[nc.ColorField])
			if item := legend.ResolveCategory(node.ColorValue, items); item != nil {
				node.CategoryID = item.ID
				node.Category = item.Label
				if item.Alias != "" {
					node.Category = item.Alias
				}
				node.Color = item.Color
			}
		}

		out = append(out, node)
	}

	if skipped > 0 {
		p.Logger.Warningf("Skipped %d of %d rows in %s without a value for primary key %s", skipped, len(rs.Rows), nc.Table, pk)
	}
	return out
}

func (p *Projector) checkFields(index int, nc models.NodeConfig, rs models.RowSet) {
	fields := []string{nc.LabelField, nc.ColorField}
	if nc.SizeField != models.SizeNone {
		fields = append(fields, nc.SizeField)
	}
	for _, field := range fields {
		if field != "" && len(rs.Rows) > 0 && !rs.HasColumn(field) {
			p.Logger.Warningf("Node config %d references unknown column %s.%s", index, nc.Table, field)
		}
	}
}

// cellValue keeps a row value for the node, rendering NaN and infinities as
// text so the graph stays encodable
func cellValue(v interface{}) interface{} {
	switch f := v.(type) {
	case float64:
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return models.FormatScalar(f)
		}
	case float32:
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return models.FormatScalar(f)
		}
	}
	return v
}

// NodeID derives the stable id of a projected row
func NodeID(table string, key interface{}) string {
	return table + ":" + models.FormatScalar(key)
}

func edgeID(link int, source, target string) string {
	return fmt.Sprintf("%d:%s->%s", link, source, target)
}

func primaryKey(rs models.RowSet) string {
	if rs.PrimaryKey != "" {
		return rs.PrimaryKey
	}
	return DefaultPrimaryKey
}

func indexRowSets(rowSets []models.RowSet) map[string]models.RowSet {
	tables := make(map[string]models.RowSet, len(rowSets))
	for _, rs := range rowSets {
		tables[rs.Table] = rs
	}
	return tables
}

// nodeSet keeps first-seen order while letting later writes replace earlier
// ones with the same id.
type nodeSet struct {
	order []string
	byID  map[string]models.GraphNode
}

func newNodeSet() *nodeSet {
	return &nodeSet{byID: make(map[string]models.GraphNode)}
}

func (s *nodeSet) put(n models.GraphNode) {
	if _, exists := s.byID[n.ID]; !exists {
		s.order = append(s.order, n.ID)
	}
	s.byID[n.ID] = n
}

func (s *nodeSet) has(id string) bool {
	_, ok := s.byID[id]
	return ok
}

func (s *nodeSet) list() []models.GraphNode {
	out := make([]models.GraphNode, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}
