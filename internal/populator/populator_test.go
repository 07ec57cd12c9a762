package populator

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/internal/analyzer"
	"github.com/vitebski/relgraph/internal/generator"
	"github.com/vitebski/relgraph/pkg/models"
)

const caseSchema = `
tables:
  - name: gangs
    primary_key: id
    columns:
      - {name: id, data_type: int, column_key: PRI, extra: auto_increment}
      - {name: name, data_type: varchar}
  - name: suspects
    primary_key: id
    columns:
      - {name: id, data_type: int, column_key: PRI}
      - {name: full_name, data_type: varchar}
      - {name: status, data_type: enum, column_type: "enum('wanted','arrested')"}
      - {name: gang_id, data_type: int, nullable: true}
    foreign_keys:
      - {column: gang_id, referenced_table: gangs}
  - name: incidents
    primary_key: id
    columns:
      - {name: id, data_type: int, column_key: PRI}
      - {name: title, data_type: varchar}
  - name: incident_suspects
    columns:
      - {name: incident_id, data_type: int, column_key: PRI}
      - {name: suspect_id, data_type: int, column_key: PRI}
    foreign_keys:
      - {column: incident_id, referenced_table: incidents}
      - {column: suspect_id, referenced_table: suspects}
`

const circularSchema = `
tables:
  - name: departments
    primary_key: id
    columns:
      - {name: id, data_type: int, column_key: PRI}
      - {name: name, data_type: varchar}
      - {name: head_id, data_type: int, nullable: true}
    foreign_keys:
      - {column: head_id, referenced_table: employees}
  - name: employees
    primary_key: id
    columns:
      - {name: id, data_type: int, column_key: PRI}
      - {name: full_name, data_type: varchar}
      - {name: department_id, data_type: int, nullable: true}
      - {name: mentor_id, data_type: int, nullable: true}
    foreign_keys:
      - {column: department_id, referenced_table: departments}
      - {column: mentor_id, referenced_table: employees}
`

func createTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func newTestPopulator(t *testing.T, schema string, records int, seed int64) *Populator {
	t.Helper()
	logger := createTestLogger()
	sa := analyzer.NewSchemaAnalyzer(nil, logger)
	if err := sa.LoadSchema([]byte(schema)); err != nil {
		t.Fatalf("Failed to load schema: %v", err)
	}
	dg := generator.NewDataGenerator(seed, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), logger)
	return NewPopulator(sa, dg, records, logger)
}

func idSet(rows []models.Row, column string) map[interface{}]bool {
	ids := make(map[interface{}]bool)
	for _, row := range rows {
		ids[row[column]] = true
	}
	return ids
}

func TestPopulateFillsForeignKeys(t *testing.T) {
	p := newTestPopulator(t, caseSchema, 5, 3)
	rowSets := p.Populate()

	if len(rowSets) != 4 {
		t.Fatalf("Expected 4 row sets, got %d", len(rowSets))
	}
	if rowSets[0].Table != "gangs" || rowSets[0].PrimaryKey != "id" {
		t.Errorf("Expected gangs keyed by id first, got %s keyed by %s", rowSets[0].Table, rowSets[0].PrimaryKey)
	}
	if len(p.FailedTables) != 0 {
		t.Errorf("Expected no failed tables, got %v", p.FailedTables)
	}

	gangs := p.Data["gangs"]
	if len(gangs) != 5 {
		t.Fatalf("Expected 5 gangs, got %d", len(gangs))
	}
	if gangs[0]["id"] != int64(1) || gangs[4]["id"] != int64(5) {
		t.Errorf("Expected sequential ids 1..5, got %v..%v", gangs[0]["id"], gangs[4]["id"])
	}

	gangIDs := idSet(gangs, "id")
	for _, suspect := range p.Data["suspects"] {
		if !gangIDs[suspect["gang_id"]] {
			t.Errorf("Suspect %v references unknown gang %v", suspect["id"], suspect["gang_id"])
		}
	}
}

func TestPopulateJunctionTable(t *testing.T) {
	p := newTestPopulator(t, caseSchema, 3, 11)
	p.Populate()

	links := p.Data["incident_suspects"]
	if len(links) == 0 || len(links) > 6 {
		t.Fatalf("Expected between 1 and 6 junction rows, got %d", len(links))
	}

	incidentIDs := idSet(p.Data["incidents"], "id")
	suspectIDs := idSet(p.Data["suspects"], "id")
	seen := make(map[[2]interface{}]bool)
	for _, link := range links {
		pair := [2]interface{}{link["incident_id"], link["suspect_id"]}
		if seen[pair] {
			t.Errorf("Duplicate junction row %v", pair)
		}
		seen[pair] = true
		if !incidentIDs[pair[0]] || !suspectIDs[pair[1]] {
			t.Errorf("Junction row %v references rows that do not exist", pair)
		}
	}
}

func TestPopulateCircularTables(t *testing.T) {
	p := newTestPopulator(t, circularSchema, 4, 5)
	p.Populate()

	employeeIDs := idSet(p.Data["employees"], "id")
	departmentIDs := idSet(p.Data["departments"], "id")

	for _, dept := range p.Data["departments"] {
		if !employeeIDs[dept["head_id"]] {
			t.Errorf("Department %v has unresolved head %v", dept["id"], dept["head_id"])
		}
	}
	for i, emp := range p.Data["employees"] {
		if !departmentIDs[emp["department_id"]] {
			t.Errorf("Employee %v has unresolved department %v", emp["id"], emp["department_id"])
		}
		if i == 0 && emp["mentor_id"] != nil {
			t.Errorf("Expected the first employee to have no mentor, got %v", emp["mentor_id"])
		}
		if i > 0 && !employeeIDs[emp["mentor_id"]] {
			t.Errorf("Employee %v has unresolved mentor %v", emp["id"], emp["mentor_id"])
		}
	}
}

func TestPopulateIsReproducible(t *testing.T) {
	a := newTestPopulator(t, caseSchema, 4, 99).Populate()
	b := newTestPopulator(t, caseSchema, 4, 99).Populate()

	for i := range a {
		if len(a[i].Rows) != len(b[i].Rows) {
			t.Fatalf("Table %s: expected %d rows, got %d", a[i].Table, len(a[i].Rows), len(b[i].Rows))
		}
		for j := range a[i].Rows {
			for col, v := range a[i].Rows[j] {
				if models.FormatScalar(v) != models.FormatScalar(b[i].Rows[j][col]) {
					t.Errorf("Table %s row %d column %s differs: %v vs %v", a[i].Table, j, col, v, b[i].Rows[j][col])
				}
			}
		}
	}
}

func TestPopulateMissingColumns(t *testing.T) {
	p := newTestPopulator(t, `
tables:
  - name: empty
`, 3, 1)
	rowSets := p.Populate()

	if !p.FailedTables["empty"] {
		t.Error("Expected a table without columns to fail")
	}
	if len(rowSets) != 1 || len(rowSets[0].Rows) != 0 {
		t.Errorf("Expected one empty row set, got %+v", rowSets)
	}
}
