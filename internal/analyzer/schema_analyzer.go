package analyzer

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/pkg/models"
	"github.com/yourbasic/graph"
)

// Querier runs read queries against the schema being analyzed
type Querier interface {
	ExecuteQuery(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error)
	DatabaseName() string
}

// SchemaAnalyzer discovers tables, keys and relationships, and derives a
// default mapping from them
type SchemaAnalyzer struct {
	DB                 Querier
	Tables             []string
	Views              []string
	PrimaryKeys        map[string]string
	ForeignKeys        map[string][]models.ForeignKey
	ManyToManyTables   map[string]bool
	TableColumns       map[string][]models.Column
	DependencyGraph    *graph.Mutable
	TableIndexMap      map[string]int
	IndexTableMap      map[int]string
	DirectCircularDeps [][]string
	Logger             *logrus.Logger
}

// NewSchemaAnalyzer creates a new schema analyzer. db may be nil when the
// schema is loaded from a file.
func NewSchemaAnalyzer(db Querier, logger *logrus.Logger) *SchemaAnalyzer {
	return &SchemaAnalyzer{
		DB:               db,
		PrimaryKeys:      make(map[string]string),
		ForeignKeys:      make(map[string][]models.ForeignKey),
		ManyToManyTables: make(map[string]bool),
		TableColumns:     make(map[string][]models.Column),
		TableIndexMap:    make(map[string]int),
		IndexTableMap:    make(map[int]string),
		Logger:           logger,
	}
}

// AnalyzeSchema reads the schema from information_schema
func (sa *SchemaAnalyzer) AnalyzeSchema(ctx context.Context) error {
	if sa.DB == nil {
		return fmt.Errorf("no database connection to analyze")
	}
	database := sa.DB.DatabaseName()

	tablesQuery := `
		SELECT table_name, table_type
		FROM information_schema.tables
		WHERE table_schema = ?
		ORDER BY table_name
	`
	tablesResult, err := sa.DB.ExecuteQuery(ctx, tablesQuery, database)
	if err != nil {
		sa.Logger.Errorf("Error getting tables: %v", err)
		return fmt.Errorf("listing tables: %w", err)
	}

	for _, row := range tablesResult {
		name := asString(row["table_name"])
		if asString(row["table_type"]) == "VIEW" {
			sa.Views = append(sa.Views, name)
		} else {
			sa.Tables = append(sa.Tables, name)
		}
	}

	for _, table := range sa.Tables {
		columnsQuery := `
			SELECT
				column_name,
				data_type,
				column_type,
				character_maximum_length,
				numeric_precision,
				numeric_scale,
				is_nullable,
				column_key,
				extra,
				column_comment
			FROM information_schema.columns
			WHERE table_schema = ?
			AND table_name = ?
			ORDER BY ordinal_position
		`
		columnsResult, err := sa.DB.ExecuteQuery(ctx, columnsQuery, database, table)
		if err != nil {
			sa.Logger.Warningf("Failed to retrieve columns for table %s: %v", table, err)
			continue
		}

		var columns []models.Column
		for _, row := range columnsResult {
			columns = append(columns, models.Column{
				Name:             asString(row["column_name"]),
				DataType:         asString(row["data_type"]),
				ColumnType:       asString(row["column_type"]),
				CharMaxLength:    asInt64Ptr(row["character_maximum_length"]),
				NumericPrecision: asInt64Ptr(row["numeric_precision"]),
				NumericScale:     asInt64Ptr(row["numeric_scale"]),
				IsNullable:       asString(row["is_nullable"]) == "YES",
				ColumnKey:        asString(row["column_key"]),
				Extra:            asString(row["extra"]),
				ColumnComment:    asString(row["column_comment"]),
			})
		}
		sa.TableColumns[table] = columns
	}

	fkQuery := `
		SELECT
			table_name,
			column_name,
			referenced_table_name,
			referenced_column_name,
			constraint_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		AND referenced_table_name IS NOT NULL
		ORDER BY table_name, column_name
	`
	fkResult, err := sa.DB.ExecuteQuery(ctx, fkQuery, database)
	if err != nil {
		sa.Logger.Errorf("Error getting foreign keys: %v", err)
		return fmt.Errorf("listing foreign keys: %w", err)
	}

	for _, row := range fkResult {
		tableName := asString(row["table_name"])
		columnName := asString(row["column_name"])

		fk := models.ForeignKey{
			Table:            tableName,
			Column:           columnName,
			ReferencedTable:  asString(row["referenced_table_name"]),
			ReferencedColumn: asString(row["referenced_column_name"]),
			IsNullable:       sa.columnNullable(tableName, columnName),
			ConstraintName:   asString(row["constraint_name"]),
		}
		sa.ForeignKeys[tableName] = append(sa.ForeignKeys[tableName], fk)
	}

	sa.finalize()
	sa.Logger.Infof("Analyzed schema %s: %d tables, %d views", database, len(sa.Tables), len(sa.Views))
	return nil
}

// finalize derives primary keys, the dependency graph and junction tables
// from the loaded tables, columns and foreign keys
func (sa *SchemaAnalyzer) finalize() {
	for _, table := range sa.Tables {
		if _, ok := sa.PrimaryKeys[table]; ok {
			continue
		}
		for _, col := range sa.TableColumns[table] {
			if col.ColumnKey == "PRI" {
				sa.PrimaryKeys[table] = col.Name
				break
			}
		}
	}

	sa.buildDependencyGraph()
	sa.detectManyToManyTables()
}

// buildDependencyGraph adds an edge from each table to every table it
// references. Nullable references cost more than mandatory ones.
func (sa *SchemaAnalyzer) buildDependencyGraph() {
	sa.TableIndexMap = make(map[string]int, len(sa.Tables))
	sa.IndexTableMap = make(map[int]string, len(sa.Tables))
	for i, table := range sa.Tables {
		sa.TableIndexMap[table] = i
		sa.IndexTableMap[i] = table
	}

	sa.DependencyGraph = graph.New(len(sa.Tables))
	for _, table := range sa.Tables {
		for _, fk := range sa.ForeignKeys[table] {
			if fk.ReferencedTable == table {
				continue
			}
			weight := int64(2)
			if !fk.IsNullable {
				weight = int64(1)
			}
			srcIdx, ok := sa.TableIndexMap[table]
			if !ok {
				continue
			}
			destIdx, ok := sa.TableIndexMap[fk.ReferencedTable]
			if !ok {
				sa.Logger.Warningf("Foreign key %s.%s references unknown table %s", table, fk.Column, fk.ReferencedTable)
				continue
			}
			sa.DependencyGraph.AddCost(srcIdx, destIdx, weight)
		}
	}
}

// detectManyToManyTables detects tables that represent many-to-many relationships
func (sa *SchemaAnalyzer) detectManyToManyTables() {
	for _, table := range sa.Tables {
		fks, hasFKs := sa.ForeignKeys[table]
		if !hasFKs {
			continue
		}

		columns := sa.TableColumns[table]
		if len(columns) == 0 {
			continue
		}

		pkColumns := 0
		for _, col := range columns {
			if col.ColumnKey == "PRI" {
				pkColumns++
			}
		}

		// A junction table is mostly foreign keys, keyed by (nearly) all of
		// them, and references at least two distinct tables.
		if len(fks) >= 2 && float64(len(fks))/float64(len(columns)) >= 0.5 && pkColumns >= len(fks)-1 {
			referencedTables := make(map[string]bool)
			for _, fk := range fks {
				referencedTables[fk.ReferencedTable] = true
			}

			if len(referencedTables) >= 2 {
				sa.ManyToManyTables[table] = true
			}
		}
	}
}

// GetCircularTables returns tables that sit on a reference cycle with at
// least one other table
func (sa *SchemaAnalyzer) GetCircularTables() map[string]bool {
	circularTables := make(map[string]bool)
	sa.DirectCircularDeps = [][]string{}

	if sa.DependencyGraph == nil {
		return circularTables
	}

	for _, component := range graph.StrongComponents(sa.DependencyGraph) {
		if len(component) < 2 {
			continue
		}
		for _, idx := range component {
			circularTables[sa.IndexTableMap[idx]] = true
		}
	}

	for i := 0; i < len(sa.Tables); i++ {
		for j := i + 1; j < len(sa.Tables); j++ {
			if sa.DependencyGraph.Edge(i, j) && sa.DependencyGraph.Edge(j, i) {
				sa.DirectCircularDeps = append(sa.DirectCircularDeps, []string{sa.IndexTableMap[i], sa.IndexTableMap[j]})
			}
		}
	}

	return circularTables
}

// GetTableInsertionOrder orders tables so that referenced tables come before
// the tables that reference them. Circular tables follow, then junction
// tables.
func (sa *SchemaAnalyzer) GetTableInsertionOrder() ([]string, map[string]bool) {
	circularTables := sa.GetCircularTables()

	var orderedTables []string
	addedTables := make(map[string]bool)
	var dependentTables []string

	for _, table := range sa.Tables {
		if circularTables[table] {
			continue
		}
		if _, hasFKs := sa.ForeignKeys[table]; !hasFKs {
			orderedTables = append(orderedTables, table)
			addedTables[table] = true
		} else {
			dependentTables = append(dependentTables, table)
		}
	}

	unresolved := func(table string) int {
		n := 0
		for _, fk := range sa.ForeignKeys[table] {
			if fk.ReferencedTable != table && !addedTables[fk.ReferencedTable] && !circularTables[fk.ReferencedTable] {
				n++
			}
		}
		return n
	}

	for len(dependentTables) > 0 {
		found := false
		for i, table := range dependentTables {
			if unresolved(table) == 0 {
				orderedTables = append(orderedTables, table)
				addedTables[table] = true
				dependentTables = append(dependentTables[:i], dependentTables[i+1:]...)
				found = true
				break
			}
		}

		// References to tables outside the schema never resolve; take the
		// table with the fewest outstanding references
		if !found {
			sort.SliceStable(dependentTables, func(i, j int) bool {
				return unresolved(dependentTables[i]) < unresolved(dependentTables[j])
			})
			orderedTables = append(orderedTables, dependentTables[0])
			addedTables[dependentTables[0]] = true
			dependentTables = dependentTables[1:]
		}
	}

	var circularTablesList []string
	for table := range circularTables {
		if !addedTables[table] {
			circularTablesList = append(circularTablesList, table)
		}
	}
	sort.Strings(circularTablesList)
	orderedTables = append(orderedTables, circularTablesList...)

	var finalOrderedTables []string
	var manyToManyTablesList []string
	for _, table := range orderedTables {
		if sa.ManyToManyTables[table] {
			manyToManyTablesList = append(manyToManyTablesList, table)
		} else {
			finalOrderedTables = append(finalOrderedTables, table)
		}
	}

	return append(finalOrderedTables, manyToManyTablesList...), circularTables
}

// TableCategory classifies a table for reports
func (sa *SchemaAnalyzer) TableCategory(table string, circularTables map[string]bool) models.TableCategory {
	switch {
	case sa.ManyToManyTables[table]:
		return models.ManyToMany
	case circularTables[table]:
		return models.Circular
	case len(sa.ForeignKeys[table]) > 0:
		return models.Dependent
	default:
		return models.Standalone
	}
}

// RelatedTableGroups partitions the tables into groups connected by foreign
// keys, ignoring direction
func (sa *SchemaAnalyzer) RelatedTableGroups() [][]string {
	if sa.DependencyGraph == nil {
		return nil
	}
	var groups [][]string
	for _, component := range graph.Components(sa.DependencyGraph) {
		group := make([]string, 0, len(component))
		for _, idx := range component {
			group = append(group, sa.IndexTableMap[idx])
		}
		sort.Strings(group)
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })
	return groups
}

// Info returns a snapshot of the analysis
func (sa *SchemaAnalyzer) Info() models.SchemaInfo {
	ordered, circular := sa.GetTableInsertionOrder()
	return models.SchemaInfo{
		Tables:           sa.Tables,
		Views:            sa.Views,
		PrimaryKeys:      sa.PrimaryKeys,
		ForeignKeys:      sa.ForeignKeys,
		ManyToManyTables: sa.ManyToManyTables,
		CircularTables:   circular,
		TableColumns:     sa.TableColumns,
		OrderedTables:    ordered,
	}
}

func (sa *SchemaAnalyzer) columnNullable(table, column string) bool {
	for _, col := range sa.TableColumns[table] {
		if col.Name == column {
			return col.IsNullable
		}
	}
	return false
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func asInt64Ptr(v interface{}) *int64 {
	if v == nil {
		return nil
	}
	val, err := strconv.ParseInt(asString(v), 10, 64)
	if err != nil {
		return nil
	}
	return &val
}
