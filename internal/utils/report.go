package utils

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/vitebski/relgraph/internal/analyzer"
	"github.com/vitebski/relgraph/internal/interaction"
	"github.com/vitebski/relgraph/pkg/models"
)

var (
	heading = color.New(color.FgHiCyan, color.Bold)
	subtle  = color.New(color.FgHiBlack)
	warn    = color.New(color.FgYellow)
)

func rule(w io.Writer, width int) {
	subtle.Fprintln(w, strings.Repeat("=", width))
}

func title(w io.Writer, text string, width int) {
	fmt.Fprintln(w)
	rule(w, width)
	heading.Fprintln(w, text)
	rule(w, width)
}

// PrintSchemaAnalysis prints a detailed analysis of the database schema
func PrintSchemaAnalysis(w io.Writer, schemaAnalyzer *analyzer.SchemaAnalyzer) {
	tables := schemaAnalyzer.Tables
	foreignKeys := schemaAnalyzer.ForeignKeys
	manyToManyTables := schemaAnalyzer.ManyToManyTables

	orderedTables, circularTables := schemaAnalyzer.GetTableInsertionOrder()

	title(w, "SCHEMA ANALYSIS REPORT", 80)

	heading.Fprintln(w, "\n1. BASIC STATISTICS")
	fmt.Fprintf(w, "   Total tables: %d\n", len(tables))
	fmt.Fprintf(w, "   Total views: %d\n", len(schemaAnalyzer.Views))
	fmt.Fprintf(w, "   Tables with foreign keys: %d\n", len(foreignKeys))
	fmt.Fprintf(w, "   Many-to-many relationship tables: %d\n", len(manyToManyTables))
	fmt.Fprintf(w, "   Tables in circular dependencies: %d\n", len(circularTables))

	counts := make(map[models.TableCategory]int)
	for _, table := range tables {
		counts[schemaAnalyzer.TableCategory(table, circularTables)]++
	}
	heading.Fprintln(w, "\n2. TABLE CATEGORIES")
	for _, c := range []models.TableCategory{models.Standalone, models.Dependent, models.ManyToMany, models.Circular} {
		fmt.Fprintf(w, "   %s: %d\n", c, counts[c])
	}

	if len(circularTables) > 0 {
		heading.Fprintln(w, "\n3. CIRCULAR DEPENDENCIES")
		fmt.Fprintf(w, "   Tables involved: %s\n", strings.Join(sortedKeys(circularTables), ", "))
		if len(schemaAnalyzer.DirectCircularDeps) > 0 {
			fmt.Fprintln(w, "   Direct circular dependencies:")
			for _, dep := range schemaAnalyzer.DirectCircularDeps {
				fmt.Fprintf(w, "     %s <-> %s\n", dep[0], dep[1])
			}
		}
	}

	if len(manyToManyTables) > 0 {
		heading.Fprintln(w, "\n4. MANY-TO-MANY RELATIONSHIP TABLES")
		fmt.Fprintf(w, "   Tables: %s\n", strings.Join(sortedKeys(manyToManyTables), ", "))
	}

	heading.Fprintln(w, "\n5. RELATED TABLE GROUPS")
	for i, group := range schemaAnalyzer.RelatedTableGroups() {
		fmt.Fprintf(w, "   %3d. %s\n", i+1, strings.Join(group, ", "))
	}

	heading.Fprintln(w, "\n6. GENERATION ORDER")
	for i, table := range orderedTables {
		fmt.Fprintf(w, "   %3d. %s (%s)\n", i+1, table, schemaAnalyzer.TableCategory(table, circularTables))
	}

	fmt.Fprintln(w)
	rule(w, 80)
}

// PrintGraphSummary prints the counts of a projected graph
func PrintGraphSummary(w io.Writer, g *models.Graph, links []models.LinkConfig) {
	title(w, "GRAPH SUMMARY", 50)

	stats := g.Stats
	if stats == nil {
		stats = &models.GraphStats{NodeCount: len(g.Nodes), EdgeCount: len(g.Edges)}
	}
	fmt.Fprintf(w, "Nodes: %d\n", stats.NodeCount)
	fmt.Fprintf(w, "Edges: %d\n", stats.EdgeCount)
	fmt.Fprintf(w, "Connected components: %d\n", stats.ComponentCount)
	fmt.Fprintf(w, "Density: %.4f\n", stats.Density)

	if len(stats.NodesByTable) > 0 {
		heading.Fprintln(w, "\nNodes by table:")
		for _, table := range sortedKeys(stats.NodesByTable) {
			fmt.Fprintf(w, "  - %s: %d\n", table, stats.NodesByTable[table])
		}
	}

	if len(links) > 0 {
		heading.Fprintln(w, "\nEdges by link:")
		for i, lc := range links {
			n := stats.EdgesByLink[i]
			line := fmt.Sprintf("  - %s.%s -> %s.%s: %d", lc.SourceTable, lc.SourceColumn, lc.TargetTable, lc.TargetColumn, n)
			if n == 0 {
				warn.Fprintln(w, line)
			} else {
				fmt.Fprintln(w, line)
			}
		}
	}

	rule(w, 50)
}

// PrintNodeTable prints the projected nodes as an aligned table
func PrintNodeTable(w io.Writer, g *models.Graph) {
	headers := []string{"ID", "TABLE", "LABEL", "CATEGORY", "COLOR", "RADIUS"}
	rows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		rows = append(rows, []string{n.ID, n.Table, n.Label, n.Category, n.Color, fmt.Sprintf("%.1f", n.Radius)})
	}
	printTable(w, headers, rows)
}

// PrintDetail prints the detail panel of an interaction snapshot
func PrintDetail(w io.Writer, view interaction.View) {
	fmt.Fprintf(w, "Panel: %s  Mode: %s\n", view.Panel, view.Mode)
	if len(view.Tabs) > 0 {
		fmt.Fprintf(w, "Tabs: %s\n", strings.Join(view.Tabs, " | "))
	}
	if view.Detail == nil {
		return
	}

	n := view.Detail.Node
	heading.Fprintf(w, "\n%s\n", n.Label)
	fmt.Fprintf(w, "  id: %s\n", n.ID)
	fmt.Fprintf(w, "  table: %s\n", n.Table)
	if n.Category != "" {
		fmt.Fprintf(w, "  category: %s (%s)\n", n.Category, n.Color)
	}
	if n.SizeValue != nil {
		fmt.Fprintf(w, "  size: %s\n", models.FormatScalar(n.SizeValue))
	}
	fmt.Fprintf(w, "  neighbors: %d\n", len(view.Detail.Neighbors))

	printEdges := func(label string, edges []models.GraphEdge, other func(models.GraphEdge) string) {
		if len(edges) == 0 {
			return
		}
		heading.Fprintf(w, "  %s:\n", label)
		for _, e := range edges {
			fmt.Fprintf(w, "    %s %s\n", e.Style.Label, other(e))
		}
	}
	printEdges("outgoing", view.Detail.Outgoing, func(e models.GraphEdge) string { return "-> " + e.TargetID })
	printEdges("incoming", view.Detail.Incoming, func(e models.GraphEdge) string { return "<- " + e.SourceID })
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header, sep strings.Builder
	for i, h := range headers {
		fmt.Fprintf(&header, "%-*s  ", widths[i], h)
		sep.WriteString(strings.Repeat("-", widths[i]) + "  ")
	}
	subtle.Fprintln(w, strings.TrimRight(header.String(), " "))
	subtle.Fprintln(w, strings.TrimRight(sep.String(), " "))

	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			fmt.Fprintf(&line, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
