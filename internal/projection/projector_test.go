package projection

import (
	"math"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitebski/relgraph/internal/export"
	"github.com/vitebski/relgraph/pkg/models"
)

func newTestProjector() *Projector {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return NewProjector(DefaultOptions(), logger)
}

func caseRowSets() []models.RowSet {
	return []models.RowSet{
		{
			Table:      "incidents",
			PrimaryKey: "id",
			Rows: []models.Row{
				{"id": 1, "suspect_id": "A", "title": "Burglary", "loss": 1200.0, "kind": "theft"},
				{"id": 2, "suspect_id": "B", "title": "Card skimming", "loss": 300.0, "kind": "fraud"},
			},
		},
		{
			Table:      "suspects",
			PrimaryKey: "id",
			Rows: []models.Row{
				{"id": "A", "name": "Ada"},
				{"id": "B", "name": "Bo"},
				{"id": "C", "name": "Cy"},
			},
		},
	}
}

func caseNodeConfigs() []models.NodeConfig {
	return []models.NodeConfig{
		{Table: "incidents", LabelField: "title", SizeField: "loss", ColorField: "kind", Icon: "alert"},
		{Table: "suspects", LabelField: "name", SizeField: models.SizeNone, ColorField: ""},
	}
}

func caseLinks() []models.LinkConfig {
	return []models.LinkConfig{
		{SourceTable: "incidents", SourceColumn: "suspect_id", TargetTable: "suspects", TargetColumn: "id", Label: "suspect"},
	}
}

func caseLegends() Legends {
	return Legends{
		"kind": {
			{ID: "l1", Label: "theft", Color: "#ff0000"},
			{ID: "l2", Label: "fraud", Color: "#0000ff", Alias: "Financial fraud"},
		},
	}
}

func TestProjectJoin(t *testing.T) {
	p := newTestProjector()
	g := p.Project(caseRowSets(), caseNodeConfigs(), caseLinks(), caseLegends())

	require.Len(t, g.Nodes, 5)
	require.Len(t, g.Edges, 2)

	for _, e := range g.Edges {
		assert.NotEqual(t, "suspects:C", e.TargetID)
		assert.Equal(t, "suspect", e.Style.Label)
		assert.True(t, e.Style.Directed)
	}
	assert.Equal(t, "incidents:1", g.Edges[0].SourceID)
	assert.Equal(t, "suspects:A", g.Edges[0].TargetID)
	assert.Equal(t, "0:incidents:1->suspects:A", g.Edges[0].ID)
	assert.Equal(t, "incidents:2", g.Edges[1].SourceID)
	assert.Equal(t, "suspects:B", g.Edges[1].TargetID)
}

func TestProjectJoinMultiplicity(t *testing.T) {
	rowSets := []models.RowSet{
		{Table: "calls", Rows: []models.Row{
			{"id": 1, "phone": "555"},
			{"id": 2, "phone": "555"},
			{"id": 3, "phone": "777"},
			{"id": 4, "phone": nil},
		}},
		{Table: "subscribers", Rows: []models.Row{
			{"id": 10, "phone": 555},
			{"id": 11, "phone": "555"},
			{"id": 12, "phone": nil},
		}},
	}
	nodeConfigs := []models.NodeConfig{{Table: "calls"}, {Table: "subscribers"}}
	links := []models.LinkConfig{{SourceTable: "calls", SourceColumn: "phone", TargetTable: "subscribers", TargetColumn: "phone"}}

	g := newTestProjector().Project(rowSets, nodeConfigs, links, nil)

	// two calls on 555 against two subscribers on 555; nulls never join
	assert.Len(t, g.Edges, 4)
}

func TestProjectSelfJoin(t *testing.T) {
	rowSets := []models.RowSet{{Table: "people", Rows: []models.Row{
		{"id": 1, "boss_id": nil},
		{"id": 2, "boss_id": 1},
		{"id": 3, "boss_id": 1},
	}}}
	g := newTestProjector().Project(rowSets,
		[]models.NodeConfig{{Table: "people"}},
		[]models.LinkConfig{{SourceTable: "people", SourceColumn: "boss_id", TargetTable: "people", TargetColumn: "id"}},
		nil)

	require.Len(t, g.Edges, 2)
	assert.Equal(t, "people:1", g.Edges[0].TargetID)
	assert.Equal(t, 1, g.Stats.ComponentCount)
}

func TestProjectIdempotent(t *testing.T) {
	p := newTestProjector()
	first := p.Project(caseRowSets(), caseNodeConfigs(), caseLinks(), caseLegends())
	second := p.Project(caseRowSets(), caseNodeConfigs(), caseLinks(), caseLegends())
	assert.Equal(t, first, second)
}

func TestProjectDoesNotMutateInputs(t *testing.T) {
	rowSets := caseRowSets()
	nodeConfigs := caseNodeConfigs()
	links := caseLinks()
	legends := caseLegends()

	newTestProjector().Project(rowSets, nodeConfigs, links, legends)

	assert.Equal(t, caseRowSets(), rowSets)
	assert.Equal(t, caseNodeConfigs(), nodeConfigs)
	assert.Equal(t, caseLinks(), links)
	assert.Equal(t, caseLegends(), legends)
}

func TestProjectLastWriteWins(t *testing.T) {
	rowSets := []models.RowSet{{Table: "t1", Rows: []models.Row{
		{"id": 42, "name": "first", "alias": "second"},
	}}}
	nodeConfigs := []models.NodeConfig{
		{Table: "t1", LabelField: "name", Icon: "a"},
		{Table: "t1", LabelField: "alias", Icon: "b"},
	}

	g := newTestProjector().Project(rowSets, nodeConfigs, nil, nil)

	require.Len(t, g.Nodes, 1)
	assert.Equal(t, "t1:42", g.Nodes[0].ID)
	assert.Equal(t, "second", g.Nodes[0].Label)
	assert.Equal(t, "b", g.Nodes[0].Icon)
}

func TestProjectStyling(t *testing.T) {
	g := newTestProjector().Project(caseRowSets(), caseNodeConfigs(), caseLinks(), caseLegends())

	theft, ok := g.Node("incidents:1")
	require.True(t, ok)
	assert.Equal(t, "#ff0000", theft.Color)
	assert.Equal(t, "l1", theft.CategoryID)
	assert.Equal(t, "theft", theft.Category)
	assert.Equal(t, "alert", theft.Icon)

	fraud, _ := g.Node("incidents:2")
	assert.Equal(t, "Financial fraud", fraud.Category)

	suspect, _ := g.Node("suspects:A")
	assert.Equal(t, DefaultOptions().DefaultColor, suspect.Color)
	assert.Empty(t, suspect.CategoryID)
	assert.Equal(t, DefaultOptions().DefaultRadius, suspect.Radius)
	assert.Nil(t, suspect.SizeValue)
}

func TestProjectTableQualifiedLegend(t *testing.T) {
	legends := caseLegends()
	legends["incidents.kind"] = []models.LegendItem{{ID: "q", Label: "theft", Color: "#00ff00"}}

	g := newTestProjector().Project(caseRowSets(), caseNodeConfigs(), caseLinks(), legends)
	n, _ := g.Node("incidents:1")
	assert.Equal(t, "#00ff00", n.Color)
}

func TestProjectRadius(t *testing.T) {
	rowSets := []models.RowSet{{Table: "accounts", Rows: []models.Row{
		{"id": 1, "balance": 10},
		{"id": 2, "balance": "55"},
		{"id": 3, "balance": 100},
		{"id": 4, "balance": "n/a"},
		{"id": 5, "balance": 1000},
	}}}
	opts := DefaultOptions()

	g := newTestProjector().Project(rowSets, []models.NodeConfig{{Table: "accounts", SizeField: "balance"}}, nil, nil)
	radius := func(id string) float64 {
		n, ok := g.Node(id)
		require.True(t, ok)
		return n.Radius
	}

	assert.Equal(t, opts.MinRadius, radius("accounts:1"))
	assert.Equal(t, opts.MaxRadius, radius("accounts:5"))
	assert.Equal(t, opts.MinRadius, radius("accounts:4"))
	assert.InDelta(t, 10+30*45.0/990, radius("accounts:2"), 1e-9)

	// non-decreasing in size value
	assert.GreaterOrEqual(t, radius("accounts:3"), radius("accounts:2"))
	assert.GreaterOrEqual(t, radius("accounts:5"), radius("accounts:3"))
}

func TestProjectNonFiniteSizes(t *testing.T) {
	rowSets := []models.RowSet{{Table: "t", Rows: []models.Row{
		{"id": 1, "w": 1.0},
		{"id": 2, "w": 5.0},
		{"id": 3, "w": "Infinity"},
		{"id": 4, "w": math.Inf(-1)},
		{"id": 5, "w": math.NaN()},
	}}}
	opts := DefaultOptions()

	g := newTestProjector().Project(rowSets, []models.NodeConfig{{Table: "t", SizeField: "w"}}, nil, nil)
	require.Len(t, g.Nodes, 5)
	for _, n := range g.Nodes {
		assert.False(t, math.IsNaN(n.Radius) || math.IsInf(n.Radius, 0), "radius of %s is %v", n.ID, n.Radius)
	}

	largest, _ := g.Node("t:2")
	assert.Equal(t, opts.MaxRadius, largest.Radius)
	unsized, _ := g.Node("t:3")
	assert.Equal(t, opts.MinRadius, unsized.Radius)

	nan, _ := g.Node("t:5")
	assert.Equal(t, "NaN", nan.SizeValue)

	_, err := export.JSON(g)
	assert.NoError(t, err)
}

func TestProjectWarnsOnMissingKeys(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	p := NewProjector(DefaultOptions(), logger)

	rowSets := []models.RowSet{{Table: "active_cases", Rows: []models.Row{
		{"case_no": 1}, {"case_no": 2}, {"case_no": 3},
	}}}
	g := p.Project(rowSets, []models.NodeConfig{{Table: "active_cases", LabelField: "case_no"}}, nil, nil)
	assert.Empty(t, g.Nodes)

	var warnings []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings = append(warnings, e)
		}
	}
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "Skipped 3 of 3 rows in active_cases")
}

func TestProjectRadiusPerConfig(t *testing.T) {
	rowSets := []models.RowSet{
		{Table: "small", Rows: []models.Row{{"id": 1, "v": 1}, {"id": 2, "v": 2}}},
		{Table: "large", Rows: []models.Row{{"id": 1, "v": 100}, {"id": 2, "v": 200}}},
	}
	g := newTestProjector().Project(rowSets, []models.NodeConfig{
		{Table: "small", SizeField: "v"},
		{Table: "large", SizeField: "v"},
	}, nil, nil)

	small, _ := g.Node("small:2")
	large, _ := g.Node("large:2")
	assert.Equal(t, small.Radius, large.Radius, "ranges are observed per config")
}

func TestProjectFlatSizes(t *testing.T) {
	rowSets := []models.RowSet{{Table: "t", Rows: []models.Row{{"id": 1, "v": 5}, {"id": 2, "v": 5}}}}
	g := newTestProjector().Project(rowSets, []models.NodeConfig{{Table: "t", SizeField: "v"}}, nil, nil)
	for _, n := range g.Nodes {
		assert.Equal(t, 25.0, n.Radius)
	}
}

func TestProjectConfigurationMismatch(t *testing.T) {
	p := newTestProjector()

	t.Run("unknown node table", func(t *testing.T) {
		g := p.Project(caseRowSets(), []models.NodeConfig{{Table: "vehicles"}}, caseLinks(), nil)
		assert.Empty(t, g.Nodes)
		assert.Empty(t, g.Edges)
	})

	t.Run("unknown link table and column", func(t *testing.T) {
		links := []models.LinkConfig{
			{SourceTable: "incidents", SourceColumn: "vehicle_id", TargetTable: "suspects", TargetColumn: "id"},
			{SourceTable: "incidents", SourceColumn: "suspect_id", TargetTable: "vehicles", TargetColumn: "id"},
			{SourceTable: "incidents", SourceColumn: "suspect_id", TargetTable: "suspects", TargetColumn: "plate"},
		}
		g := p.Project(caseRowSets(), caseNodeConfigs(), links, nil)
		assert.Len(t, g.Nodes, 5)
		assert.Empty(t, g.Edges)
	})

	t.Run("unknown node fields", func(t *testing.T) {
		g := p.Project(caseRowSets(), []models.NodeConfig{{Table: "suspects", LabelField: "nickname", SizeField: "age", ColorField: "gang"}}, nil, nil)
		require.Len(t, g.Nodes, 3)
		assert.Empty(t, g.Nodes[0].Label)
		assert.Equal(t, DefaultOptions().MinRadius, g.Nodes[0].Radius)
	})

	t.Run("rows without primary key", func(t *testing.T) {
		rowSets := []models.RowSet{{Table: "t", PrimaryKey: "uid", Rows: []models.Row{{"id": 1}, {"uid": nil}, {"uid": "x"}}}}
		g := p.Project(rowSets, []models.NodeConfig{{Table: "t"}}, nil, nil)
		require.Len(t, g.Nodes, 1)
		assert.Equal(t, "t:x", g.Nodes[0].ID)
		assert.Equal(t, "x", g.Nodes[0].Label)
	})
}

func TestProjectDropsDanglingEdges(t *testing.T) {
	// suspects has rows but no node config, so its endpoints do not exist
	g := newTestProjector().Project(caseRowSets(), caseNodeConfigs()[:1], caseLinks(), nil)
	assert.Len(t, g.Nodes, 2)
	assert.Empty(t, g.Edges)
}

func TestProjectEmpty(t *testing.T) {
	g := newTestProjector().Project(nil, caseNodeConfigs(), caseLinks(), nil)
	assert.NotNil(t, g.Nodes)
	assert.NotNil(t, g.Edges)
	assert.Empty(t, g.Nodes)
	assert.Equal(t, 0, g.Stats.NodeCount)
	assert.Equal(t, 0, g.Stats.ComponentCount)
}

func TestProjectPositions(t *testing.T) {
	g := newTestProjector().Project(caseRowSets(), caseNodeConfigs(), caseLinks(), nil)
	a, _ := g.Node("suspects:A")
	b, _ := g.Node("suspects:B")
	assert.NotEqual(t, a.Position, b.Position)

	noLayout := NewProjector(Options{MinRadius: 1, MaxRadius: 2, DefaultRadius: 1}, nil)
	g = noLayout.Project(caseRowSets(), caseNodeConfigs(), caseLinks(), nil)
	for _, n := range g.Nodes {
		assert.Equal(t, models.Position{}, n.Position)
	}
}

func TestComputeStats(t *testing.T) {
	g := newTestProjector().Project(caseRowSets(), caseNodeConfigs(), caseLinks(), nil)
	s := g.Stats

	assert.Equal(t, 5, s.NodeCount)
	assert.Equal(t, 2, s.EdgeCount)
	// {incidents:1, suspects:A}, {incidents:2, suspects:B}, {suspects:C}
	assert.Equal(t, 3, s.ComponentCount)
	assert.Equal(t, 2, s.NodesByTable["incidents"])
	assert.Equal(t, 3, s.NodesByTable["suspects"])
	assert.Equal(t, 2, s.EdgesByLink[0])
	assert.InDelta(t, 2.0/20, s.Density, 1e-9)
}

func TestNeighbors(t *testing.T) {
	g := newTestProjector().Project(caseRowSets(), caseNodeConfigs(), caseLinks(), nil)
	assert.Equal(t, []string{"suspects:A"}, Neighbors(g, "incidents:1"))
	assert.Equal(t, []string{"incidents:2"}, Neighbors(g, "suspects:B"))
	assert.Empty(t, Neighbors(g, "suspects:C"))
}
