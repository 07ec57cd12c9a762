package mapping

import (
	"github.com/vitebski/relgraph/internal/analyzer"
	"github.com/vitebski/relgraph/internal/legend"
	"github.com/vitebski/relgraph/pkg/models"
)

// Suggest derives a starting document from an analyzed schema
func Suggest(sa *analyzer.SchemaAnalyzer) Document {
	return Document{
		NodeConfigs: sa.SuggestNodeConfigs(),
		LinkConfigs: sa.SuggestLinkConfigs(),
	}
}

// FillLegends generates a legend for every color field that has none yet,
// from the values the rows actually hold. The document passed in is not
// modified.
func FillLegends(doc Document, rowSets []models.RowSet, gen legend.Generator) Document {
	legends := make(map[string][]models.LegendItem, len(doc.Legends))
	for k, v := range doc.Legends {
		legends[k] = v
	}

	byTable := make(map[string]models.RowSet, len(rowSets))
	for _, rs := range rowSets {
		byTable[rs.Table] = rs
	}

	for _, nc := range doc.NodeConfigs {
		if nc.ColorField == "" || len(doc.LegendSet().For(nc.Table, nc.ColorField)) > 0 {
			continue
		}
		rs, ok := byTable[nc.Table]
		if !ok {
			continue
		}

		values := make([]interface{}, 0, len(rs.Rows))
		for _, row := range rs.Rows {
			values = append(values, row[nc.ColorField])
		}
		if items := gen.Generate(values); len(items) > 0 {
			legends[nc.Table+"."+nc.ColorField] = items
		}
	}

	if len(legends) > 0 {
		doc.Legends = legends
	}
	return doc
}

// Tables lists the tables a document reads, node tables first, without
// repeats
func (d Document) Tables() []string {
	seen := make(map[string]bool)
	var tables []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			tables = append(tables, t)
		}
	}
	for _, nc := range d.NodeConfigs {
		add(nc.Table)
	}
	for _, lc := range d.LinkConfigs {
		add(lc.SourceTable)
		add(lc.TargetTable)
	}
	return tables
}
