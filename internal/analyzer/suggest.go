package analyzer

import (
	"strings"

	"github.com/vitebski/relgraph/pkg/models"
)

// labelHints are column names that read well as node labels, best first
var labelHints = []string{"name", "title", "label", "full_name", "username", "email", "code"}

// SuggestNodeConfigs proposes one node config per table. Junction tables
// are left out; their foreign keys still produce links.
func (sa *SchemaAnalyzer) SuggestNodeConfigs() []models.NodeConfig {
	var configs []models.NodeConfig
	for _, table := range sa.Tables {
		if sa.ManyToManyTables[table] {
			continue
		}
		configs = append(configs, models.NodeConfig{
			Table:      table,
			LabelField: sa.labelColumn(table),
			SizeField:  models.SizeNone,
			ColorField: sa.categoryColumn(table),
		})
	}
	return configs
}

// SuggestLinkConfigs proposes one link per foreign key, drawn from the
// referencing row to the referenced row
func (sa *SchemaAnalyzer) SuggestLinkConfigs() []models.LinkConfig {
	var links []models.LinkConfig
	for _, table := range sa.Tables {
		for _, fk := range sa.ForeignKeys[table] {
			links = append(links, models.LinkConfig{
				SourceTable:  fk.Table,
				SourceColumn: fk.Column,
				TargetTable:  fk.ReferencedTable,
				TargetColumn: fk.ReferencedColumn,
				Label:        strings.TrimSuffix(fk.Column, "_id"),
			})
		}
	}
	return links
}

func (sa *SchemaAnalyzer) labelColumn(table string) string {
	columns := sa.TableColumns[table]
	for _, hint := range labelHints {
		for _, col := range columns {
			if strings.EqualFold(col.Name, hint) {
				return col.Name
			}
		}
	}
	for _, col := range columns {
		if strings.Contains(strings.ToLower(col.Name), "name") {
			return col.Name
		}
	}
	return sa.PrimaryKeys[table]
}

// categoryColumn picks an enum or status-like column to color by
func (sa *SchemaAnalyzer) categoryColumn(table string) string {
	for _, col := range sa.TableColumns[table] {
		name := strings.ToLower(col.Name)
		if strings.ToLower(col.DataType) == "enum" ||
			name == "status" || name == "type" || name == "category" || strings.HasSuffix(name, "_type") {
			return col.Name
		}
	}
	return ""
}
