package projection

import (
	"github.com/vitebski/relgraph/pkg/models"
)

// joinLinks emits one edge per row pair satisfying each link's equi-join.
// The target side is hashed on its join column and every source row probes
// the table once. Edges whose endpoints were not projected as nodes are
// dropped.
func (p *Projector) joinLinks(tables map[string]models.RowSet, links []models.LinkConfig, nodes *nodeSet) []models.GraphEdge {
	edges := []models.GraphEdge{}
	seen := make(map[string]bool)

	for li, link := range links {
		src, ok := tables[link.SourceTable]
		if !ok {
			p.Logger.Warningf("Link %d references unknown source table %s, no edges drawn", li, link.SourceTable)
			continue
		}
		tgt, ok := tables[link.TargetTable]
		if !ok {
			p.Logger.Warningf("Link %d references unknown target table %s, no edges drawn", li, link.TargetTable)
			continue
		}
		if len(src.Rows) > 0 && !src.HasColumn(link.SourceColumn) {
			p.Logger.Warningf("Link %d references unknown column %s.%s, no edges drawn", li, link.SourceTable, link.SourceColumn)
			continue
		}
		if len(tgt.Rows) > 0 && !tgt.HasColumn(link.TargetColumn) {
			p.Logger.Warningf("Link %d references unknown column %s.%s, no edges drawn", li, link.TargetTable, link.TargetColumn)
			continue
		}

		index := buildJoinIndex(tgt, link.TargetColumn)
		srcPK := primaryKey(src)
		dropped := 0

		for _, row := range src.Rows {
			key := row[link.SourceColumn]
			srcKey := row[srcPK]
			if key == nil || srcKey == nil {
				continue
			}
			sourceID := NodeID(link.SourceTable, srcKey)

			for _, targetID := range index[models.FormatScalar(key)] {
				if !nodes.has(sourceID) || !nodes.has(targetID) {
					dropped++
					continue
				}
				id := edgeID(li, sourceID, targetID)
				if seen[id] {
					continue
				}
				seen[id] = true
				edges = append(edges, models.GraphEdge{
					ID:       id,
					SourceID: sourceID,
					TargetID: targetID,
					Link:     li,
					Style: models.EdgeStyle{
						Label:    link.Label,
						Directed: true,
					},
				})
			}
		}

		if dropped > 0 {
			p.Logger.Debugf("Link %d dropped %d edges without projected endpoints", li, dropped)
		}
	}
	return edges
}

// buildJoinIndex maps each join value to the node ids of the rows holding it,
// in row order. Null join values never match.
func buildJoinIndex(rs models.RowSet, column string) map[string][]string {
	pk := primaryKey(rs)
	index := make(map[string][]string)
	for _, row := range rs.Rows {
		value := row[column]
		key := row[pk]
		if value == nil || key == nil {
			continue
		}
		k := models.FormatScalar(value)
		index[k] = append(index[k], NodeID(rs.Table, key))
	}
	return index
}
