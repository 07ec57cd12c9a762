package models

// Column represents a table column with its properties
type Column struct {
	Name             string `json:"name" yaml:"name"`
	DataType         string `json:"data_type" yaml:"data_type"`
	ColumnType       string `json:"column_type,omitempty" yaml:"column_type,omitempty"`
	CharMaxLength    *int64 `json:"char_max_length,omitempty" yaml:"char_max_length,omitempty"`
	NumericPrecision *int64 `json:"numeric_precision,omitempty" yaml:"numeric_precision,omitempty"`
	NumericScale     *int64 `json:"numeric_scale,omitempty" yaml:"numeric_scale,omitempty"`
	IsNullable       bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ColumnKey        string `json:"column_key,omitempty" yaml:"column_key,omitempty"`
	Extra            string `json:"extra,omitempty" yaml:"extra,omitempty"`
	ColumnComment    string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// ForeignKey represents a foreign key relationship
type ForeignKey struct {
	Table            string `json:"table" yaml:"table"`
	Column           string `json:"column" yaml:"column"`
	ReferencedTable  string `json:"referenced_table" yaml:"referenced_table"`
	ReferencedColumn string `json:"referenced_column" yaml:"referenced_column"`
	IsNullable       bool   `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	ConstraintName   string `json:"constraint_name,omitempty" yaml:"constraint_name,omitempty"`
}

// TableCategory represents the category of a table
type TableCategory int

const (
	Standalone TableCategory = iota
	Dependent
	ManyToMany
	Circular
)

func (c TableCategory) String() string {
	switch c {
	case Dependent:
		return "Dependent"
	case ManyToMany:
		return "Many-to-Many"
	case Circular:
		return "Circular"
	default:
		return "Standalone"
	}
}

// Row maps a column name to a scalar value (string, number, time, bool or nil).
type Row map[string]interface{}

// RowSet is every row fetched for one table, with the schema alongside.
type RowSet struct {
	Table      string   `json:"table"`
	PrimaryKey string   `json:"primary_key"`
	Columns    []Column `json:"columns,omitempty"`
	Rows       []Row    `json:"rows"`
}

// HasColumn reports whether the schema (or, lacking one, the first row)
// carries the named column.
func (rs RowSet) HasColumn(name string) bool {
	if len(rs.Columns) > 0 {
		for _, c := range rs.Columns {
			if c.Name == name {
				return true
			}
		}
		return false
	}
	if len(rs.Rows) == 0 {
		return false
	}
	_, ok := rs.Rows[0][name]
	return ok
}

// SizeNone disables value-driven sizing for a NodeConfig.
const SizeNone = "none"

// NodeConfig defines how rows from one table become visual nodes
type NodeConfig struct {
	Table      string `json:"table" yaml:"table"`
	LabelField string `json:"label_field" yaml:"label_field"`
	SizeField  string `json:"size_field" yaml:"size_field"`
	ColorField string `json:"color_field" yaml:"color_field"`
	Icon       string `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// LinkConfig declares a join between two tables that is drawn as edges
type LinkConfig struct {
	SourceTable  string `json:"source_table" yaml:"source_table"`
	SourceColumn string `json:"source_column" yaml:"source_column"`
	TargetTable  string `json:"target_table" yaml:"target_table"`
	TargetColumn string `json:"target_column" yaml:"target_column"`
	Label        string `json:"label,omitempty" yaml:"label,omitempty"`
}

// LegendItem is one colored bucket. Label is either an exact value or a
// "min~max" numeric range.
type LegendItem struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
	Alias string `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// Position is a point in canvas space
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GraphNode is a projected row
type GraphNode struct {
	ID         string      `json:"id"`
	Table      string      `json:"table"`
	Label      string      `json:"label"`
	SizeValue  interface{} `json:"size_value"`
	ColorValue interface{} `json:"color_value"`
	CategoryID string      `json:"category_id,omitempty"`
	Category   string      `json:"category,omitempty"`
	Color      string      `json:"color"`
	Icon       string      `json:"icon,omitempty"`
	Position   Position    `json:"position"`
	Radius     float64     `json:"radius"`
}

// EdgeStyle carries the presentation attributes of an edge
type EdgeStyle struct {
	Label    string `json:"label,omitempty"`
	Directed bool   `json:"directed"`
}

// GraphEdge connects two projected rows
type GraphEdge struct {
	ID       string    `json:"id"`
	SourceID string    `json:"source"`
	TargetID string    `json:"target"`
	Link     int       `json:"link"`
	Style    EdgeStyle `json:"style"`
}

// GraphStats summarizes a projected graph
type GraphStats struct {
	NodeCount      int            `json:"node_count"`
	EdgeCount      int            `json:"edge_count"`
	ComponentCount int            `json:"component_count"`
	Density        float64        `json:"density"`
	NodesByTable   map[string]int `json:"nodes_by_table,omitempty"`
	EdgesByLink    map[int]int    `json:"edges_by_link,omitempty"`
}

// Graph is the output of a projection pass
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
	Stats *GraphStats `json:"stats,omitempty"`
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (GraphNode, bool) {
	if g == nil {
		return GraphNode{}, false
	}
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return GraphNode{}, false
}

// SchemaInfo represents the analyzed database schema
type SchemaInfo struct {
	Tables           []string
	Views            []string
	PrimaryKeys      map[string]string
	ForeignKeys      map[string][]ForeignKey
	ManyToManyTables map[string]bool
	CircularTables   map[string]bool
	TableColumns     map[string][]Column
	OrderedTables    []string
}
