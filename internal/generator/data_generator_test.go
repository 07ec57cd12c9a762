package generator

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/pkg/models"
)

var referenceTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func createTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel)
	return logger
}

func TestEnumValues(t *testing.T) {
	values := EnumValues("enum('open','closed','cold case')")
	if len(values) != 3 {
		t.Fatalf("Expected 3 enum values, got %d", len(values))
	}
	if values[2] != "cold case" {
		t.Errorf("Expected third value to be 'cold case', got %q", values[2])
	}

	if got := EnumValues("varchar(20)"); got != nil {
		t.Errorf("Expected no values for a varchar column, got %v", got)
	}
}

func TestGenerateEnumStaysInRange(t *testing.T) {
	dg := NewDataGenerator(7, referenceTime, createTestLogger())
	column := models.Column{Name: "status", DataType: "enum", ColumnType: "enum('wanted','arrested')"}

	for i := 0; i < 50; i++ {
		v := dg.GenerateData("suspects", column)
		if v != "wanted" && v != "arrested" {
			t.Fatalf("Unexpected enum value %v", v)
		}
	}
}

func TestGenerateDataIsReproducible(t *testing.T) {
	columns := []models.Column{
		{Name: "full_name", DataType: "varchar"},
		{Name: "email", DataType: "varchar"},
		{Name: "loss_amount", DataType: "decimal"},
		{Name: "reported_at", DataType: "datetime"},
		{Name: "score", DataType: "int"},
	}

	a := NewDataGenerator(42, referenceTime, createTestLogger())
	b := NewDataGenerator(42, referenceTime, createTestLogger())
	for i := 0; i < 10; i++ {
		for _, col := range columns {
			va := DescribeValue(a.GenerateData("incidents", col))
			vb := DescribeValue(b.GenerateData("incidents", col))
			if va != vb {
				t.Fatalf("Expected identical values for %s, got %q and %q", col.Name, va, vb)
			}
		}
	}
}

func TestGenerateDataRespectsTypes(t *testing.T) {
	dg := NewDataGenerator(1, referenceTime, createTestLogger())

	length := int64(8)
	s, ok := dg.GenerateData("t", models.Column{Name: "code", DataType: "varchar", CharMaxLength: &length}).(string)
	if !ok {
		t.Fatal("Expected a string for a varchar column")
	}
	if len(s) > 8 {
		t.Errorf("Expected at most 8 characters, got %d", len(s))
	}

	if _, ok := dg.GenerateData("t", models.Column{Name: "score", DataType: "int"}).(int64); !ok {
		t.Error("Expected an int64 for an int column")
	}

	flag := dg.GenerateData("t", models.Column{Name: "active", DataType: "tinyint", ColumnType: "tinyint(1)"}).(int64)
	if flag != 0 && flag != 1 {
		t.Errorf("Expected 0 or 1 for tinyint(1), got %d", flag)
	}

	ts, ok := dg.GenerateData("t", models.Column{Name: "reported_at", DataType: "datetime"}).(time.Time)
	if !ok {
		t.Fatal("Expected a time for a datetime column")
	}
	if ts.After(referenceTime) {
		t.Errorf("Expected a timestamp before %v, got %v", referenceTime, ts)
	}

	scale := int64(2)
	f := dg.GenerateData("t", models.Column{Name: "weight", DataType: "decimal", NumericScale: &scale}).(float64)
	if f < 0 || f >= 1000 {
		t.Errorf("Expected a value in [0, 1000), got %v", f)
	}
}
