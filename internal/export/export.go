package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vitebski/relgraph/internal/geometry"
	"github.com/vitebski/relgraph/pkg/models"
)

// Format names an output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatDOT  Format = "dot"
)

// Edge is an edge together with the drawable path between its nodes
type Edge struct {
	models.GraphEdge
	Path geometry.Segment `json:"path"`
}

// Document is the renderable form of a graph
type Document struct {
	Nodes []models.GraphNode `json:"nodes"`
	Edges []Edge             `json:"edges"`
	Stats *models.GraphStats `json:"stats,omitempty"`
}

// NewDocument pairs every edge with its path, trimmed so that it stops gap
// short of both node circles
func NewDocument(g *models.Graph, gap float64) Document {
	doc := Document{Nodes: g.Nodes, Edges: make([]Edge, 0, len(g.Edges)), Stats: g.Stats}
	if doc.Nodes == nil {
		doc.Nodes = []models.GraphNode{}
	}

	byID := make(map[string]models.GraphNode, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[n.ID] = n
	}

	for _, e := range g.Edges {
		src, tgt := byID[e.SourceID], byID[e.TargetID]
		path := geometry.TrimEdge(
			geometry.Point{X: src.Position.X, Y: src.Position.Y},
			geometry.Point{X: tgt.Position.X, Y: tgt.Position.Y},
			src.Radius, tgt.Radius, gap,
		)
		doc.Edges = append(doc.Edges, Edge{GraphEdge: e, Path: path})
	}
	return doc
}

// JSON returns the graph document as pretty-printed JSON
func JSON(g *models.Graph) ([]byte, error) {
	return json.MarshalIndent(NewDocument(g, geometry.DefaultGap), "", "  ")
}

// DOT returns the graph in Graphviz DOT format. Nodes are pinned to their
// layout positions and filled with their legend color.
func DOT(g *models.Graph) string {
	var b strings.Builder
	b.WriteString("digraph relgraph {\n")
	b.WriteString("  node [shape=circle, style=filled, fontsize=10];\n\n")

	nodes := append([]models.GraphNode(nil), g.Nodes...)
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for _, n := range nodes {
		b.WriteString(fmt.Sprintf("  %q [label=%q, fillcolor=%q, width=%s, pos=\"%s,%s!\"];\n",
			n.ID, n.Label, n.Color,
			formatFloat(n.Radius*2/72),
			formatFloat(n.Position.X), formatFloat(-n.Position.Y)))
	}

	b.WriteString("\n")
	for _, e := range g.Edges {
		attrs := []string{fmt.Sprintf("label=%q", e.Style.Label)}
		if !e.Style.Directed {
			attrs = append(attrs, "dir=none")
		}
		b.WriteString(fmt.Sprintf("  %q -> %q [%s];\n", e.SourceID, e.TargetID, strings.Join(attrs, ", ")))
	}

	b.WriteString("}\n")
	return b.String()
}

// Write encodes the graph to w
func Write(w io.Writer, g *models.Graph, format Format) error {
	var data []byte
	switch format {
	case FormatJSON:
		var err error
		if data, err = JSON(g); err != nil {
			return fmt.Errorf("encoding graph: %w", err)
		}
		data = append(data, '\n')
	case FormatDOT:
		data = []byte(DOT(g))
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
	_, err := w.Write(data)
	return err
}

func formatFloat(v float64) string {
	s := strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
	if s == "-0" {
		return "0"
	}
	return s
}
