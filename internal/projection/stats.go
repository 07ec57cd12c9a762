package projection

import (
	"github.com/vitebski/relgraph/pkg/models"
	"github.com/yourbasic/graph"
)

// ComputeStats summarizes a projected graph. Components are counted on the
// undirected view of the edges.
func ComputeStats(g *models.Graph) *models.GraphStats {
	stats := &models.GraphStats{
		NodeCount:    len(g.Nodes),
		EdgeCount:    len(g.Edges),
		NodesByTable: make(map[string]int),
		EdgesByLink:  make(map[int]int),
	}

	index := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		index[n.ID] = i
		stats.NodesByTable[n.Table]++
	}

	topology := graph.New(len(g.Nodes))
	for _, e := range g.Edges {
		stats.EdgesByLink[e.Link]++
		s, okS := index[e.SourceID]
		t, okT := index[e.TargetID]
		if okS && okT {
			topology.AddBoth(s, t)
		}
	}

	stats.ComponentCount = len(graph.Components(topology))
	if n := len(g.Nodes); n > 1 {
		stats.Density = float64(len(g.Edges)) / float64(n*(n-1))
	}
	return stats
}

// Neighbors returns the ids of nodes adjacent to id, in edge order
func Neighbors(g *models.Graph, id string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range g.Edges {
		var other string
		switch id {
		case e.SourceID:
			other = e.TargetID
		case e.TargetID:
			other = e.SourceID
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			out = append(out, other)
		}
	}
	return out
}
