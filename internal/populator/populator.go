package populator

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/internal/analyzer"
	"github.com/vitebski/relgraph/internal/generator"
	"github.com/vitebski/relgraph/pkg/models"
)

// Populator fills an analyzed schema with generated rows held in memory.
// Referenced tables are filled first so that foreign key columns always
// point at rows that exist.
type Populator struct {
	SchemaAnalyzer *analyzer.SchemaAnalyzer
	DataGenerator  *generator.DataGenerator
	NumRecords     int
	Data           map[string][]models.Row
	FailedTables   map[string]bool
	Logger         *logrus.Logger
}

// NewPopulator creates a new mock data populator
func NewPopulator(
	schemaAnalyzer *analyzer.SchemaAnalyzer,
	dataGenerator *generator.DataGenerator,
	numRecords int,
	logger *logrus.Logger,
) *Populator {
	return &Populator{
		SchemaAnalyzer: schemaAnalyzer,
		DataGenerator:  dataGenerator,
		NumRecords:     numRecords,
		Data:           make(map[string][]models.Row),
		FailedTables:   make(map[string]bool),
		Logger:         logger,
	}
}

// Populate generates rows for every table and returns them as row sets in
// schema order. Tables that could not be filled come back empty and are
// recorded in FailedTables.
func (p *Populator) Populate() []models.RowSet {
	orderedTables, circularTables := p.SchemaAnalyzer.GetTableInsertionOrder()

	for _, table := range orderedTables {
		var ok bool
		if circularTables[table] {
			ok = p.populateCircularTable(table, circularTables)
		} else {
			ok = p.populateTable(table)
		}
		if !ok {
			p.FailedTables[table] = true
		}
	}

	rowSets := make([]models.RowSet, 0, len(p.SchemaAnalyzer.Tables))
	for _, table := range p.SchemaAnalyzer.Tables {
		rowSets = append(rowSets, p.RowSet(table))
	}
	return rowSets
}

// RowSet returns the generated rows of one table
func (p *Populator) RowSet(table string) models.RowSet {
	return models.RowSet{
		Table:      table,
		PrimaryKey: p.SchemaAnalyzer.PrimaryKeys[table],
		Columns:    p.SchemaAnalyzer.TableColumns[table],
		Rows:       p.Data[table],
	}
}

func (p *Populator) populateTable(table string) bool {
	columns := p.SchemaAnalyzer.TableColumns[table]
	if len(columns) == 0 {
		p.Logger.Errorf("No columns found for table: %s", table)
		return false
	}

	foreignKeys := p.SchemaAnalyzer.ForeignKeys[table]
	numRecords := p.NumRecords
	if p.SchemaAnalyzer.ManyToManyTables[table] {
		numRecords = p.calculateManyToManyRecords(foreignKeys)
	}

	fkMap := make(map[string]models.ForeignKey, len(foreignKeys))
	for _, fk := range foreignKeys {
		fkMap[fk.Column] = fk
	}

	keys := p.keyColumns(table)
	seenKeys := make(map[string]bool)
	attempts := 0
	for len(p.Data[table]) < numRecords && attempts < numRecords*3 {
		attempts++
		row := p.generateRecord(table, columns, fkMap, nil)
		if row == nil {
			p.Logger.Errorf("Could not generate a row for table %s", table)
			return false
		}

		// Composite keys made of foreign keys repeat easily
		if len(keys) > 1 {
			key := compositeKey(row, keys)
			if seenKeys[key] {
				continue
			}
			seenKeys[key] = true
		}
		p.Data[table] = append(p.Data[table], row)
	}

	p.Logger.Infof("Generated %d rows for table %s", len(p.Data[table]), table)
	return true
}

// populateCircularTable fills references into the cycle in a second pass,
// once every table of the cycle has rows
func (p *Populator) populateCircularTable(table string, circularTables map[string]bool) bool {
	columns := p.SchemaAnalyzer.TableColumns[table]
	if len(columns) == 0 {
		p.Logger.Errorf("No columns found for table: %s", table)
		return false
	}

	fkMap := make(map[string]models.ForeignKey)
	deferred := make(map[string]bool)
	var circularFKs []models.ForeignKey
	for _, fk := range p.SchemaAnalyzer.ForeignKeys[table] {
		fkMap[fk.Column] = fk
		if fk.ReferencedTable != table && circularTables[fk.ReferencedTable] && len(p.Data[fk.ReferencedTable]) == 0 {
			deferred[fk.Column] = true
			circularFKs = append(circularFKs, fk)
		}
	}

	p.Logger.Debugf("First pass for circular table %s, deferring %d references", table, len(circularFKs))
	for i := 0; i < p.NumRecords; i++ {
		row := p.generateRecord(table, columns, fkMap, deferred)
		if row == nil {
			return false
		}
		p.Data[table] = append(p.Data[table], row)
	}

	p.backfill(table, circularFKs)
	p.Logger.Infof("Generated %d rows for circular table %s", len(p.Data[table]), table)
	return true
}

// backfill resolves deferred references of a circular table. A reference to
// a table of the cycle that is still empty waits for that table, which
// resolves it when its own rows exist.
func (p *Populator) backfill(table string, circularFKs []models.ForeignKey) {
	for _, fk := range circularFKs {
		if len(p.Data[fk.ReferencedTable]) == 0 {
			continue
		}
		for _, row := range p.Data[table] {
			row[fk.Column] = p.getRandomForeignKeyValue(fk)
		}
	}

	// Earlier tables of the cycle may have been waiting on this one
	for _, other := range p.SchemaAnalyzer.Tables {
		if other == table {
			continue
		}
		for _, fk := range p.SchemaAnalyzer.ForeignKeys[other] {
			if fk.ReferencedTable != table {
				continue
			}
			for _, row := range p.Data[other] {
				if row[fk.Column] == nil {
					row[fk.Column] = p.getRandomForeignKeyValue(fk)
				}
			}
		}
	}
}

// generateRecord builds one row. Columns in deferred are left nil. A nil
// row means a mandatory reference had nothing to point at.
func (p *Populator) generateRecord(
	table string,
	columns []models.Column,
	fkMap map[string]models.ForeignKey,
	deferred map[string]bool,
) models.Row {
	row := make(models.Row, len(columns))
	next := len(p.Data[table]) + 1

	for _, column := range columns {
		var value interface{}

		switch fk, isFk := fkMap[column.Name]; {
		case deferred[column.Name]:
			value = nil
		case isFk && fk.ReferencedTable == table:
			// Self references point at an earlier row, or nowhere for the first
			if next > 1 {
				value = p.getRandomForeignKeyValue(fk)
			}
		case isFk:
			value = p.getRandomForeignKeyValue(fk)
			if value == nil && !column.IsNullable {
				p.Logger.Errorf("No value available for NOT NULL foreign key %s.%s referencing %s.%s",
					table, column.Name, fk.ReferencedTable, fk.ReferencedColumn)
				return nil
			}
		case isSequentialKey(column):
			value = int64(next)
		case column.ColumnKey == "PRI":
			value = fmt.Sprintf("%s-%d", table, next)
		default:
			value = p.DataGenerator.GenerateData(table, column)
		}

		row[column.Name] = value
	}

	return row
}

// getRandomForeignKeyValue picks the referenced column of a random
// generated row of the referenced table
func (p *Populator) getRandomForeignKeyValue(fk models.ForeignKey) interface{} {
	referencedRecords := p.Data[fk.ReferencedTable]
	if len(referencedRecords) == 0 {
		return nil
	}
	randomRecord := referencedRecords[p.DataGenerator.Rand.Intn(len(referencedRecords))]
	return randomRecord[fk.ReferencedColumn]
}

// calculateManyToManyRecords sizes a junction table from the rows of the
// tables it joins
func (p *Populator) calculateManyToManyRecords(foreignKeys []models.ForeignKey) int {
	referencedTables := make(map[string]bool)
	for _, fk := range foreignKeys {
		referencedTables[fk.ReferencedTable] = true
	}

	totalPossibleCombinations := 1
	for refTable := range referencedTables {
		n := len(p.Data[refTable])
		if n == 0 {
			return 0
		}
		totalPossibleCombinations *= n
	}

	if totalPossibleCombinations > 2*p.NumRecords {
		return 2 * p.NumRecords
	}
	return totalPossibleCombinations
}

func (p *Populator) keyColumns(table string) []string {
	var keys []string
	for _, col := range p.SchemaAnalyzer.TableColumns[table] {
		if col.ColumnKey == "PRI" {
			keys = append(keys, col.Name)
		}
	}
	return keys
}

func isSequentialKey(column models.Column) bool {
	if strings.Contains(strings.ToLower(column.Extra), "auto_increment") {
		return true
	}
	if column.ColumnKey != "PRI" {
		return false
	}
	switch strings.ToLower(column.DataType) {
	case "int", "tinyint", "smallint", "mediumint", "bigint", "integer":
		return true
	}
	return false
}

func compositeKey(row models.Row, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = models.FormatScalar(row[k])
	}
	return strings.Join(parts, "\x1f")
}
