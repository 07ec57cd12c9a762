package analyzer

import (
	"fmt"
	"os"

	"github.com/vitebski/relgraph/pkg/models"
	"gopkg.in/yaml.v3"
)

// SchemaFile describes tables for mock datasets when no database is at hand
type SchemaFile struct {
	Tables []TableSpec `yaml:"tables"`
}

// TableSpec is one table of a schema file
type TableSpec struct {
	Name        string              `yaml:"name"`
	PrimaryKey  string              `yaml:"primary_key"`
	View        bool                `yaml:"view,omitempty"`
	Columns     []models.Column     `yaml:"columns"`
	ForeignKeys []models.ForeignKey `yaml:"foreign_keys,omitempty"`
}

// LoadSchemaFile reads a YAML schema file into the analyzer
func (sa *SchemaAnalyzer) LoadSchemaFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading schema file %s: %w", path, err)
	}
	if err := sa.LoadSchema(data); err != nil {
		return fmt.Errorf("schema file %s: %w", path, err)
	}
	sa.Logger.Infof("Loaded schema file %s: %d tables", path, len(sa.Tables))
	return nil
}

// LoadSchema parses YAML schema data into the analyzer
func (sa *SchemaAnalyzer) LoadSchema(data []byte) error {
	var file SchemaFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing schema: %w", err)
	}

	seen := make(map[string]bool)
	for _, spec := range file.Tables {
		if spec.Name == "" {
			return fmt.Errorf("table without a name")
		}
		if seen[spec.Name] {
			return fmt.Errorf("table %s defined twice", spec.Name)
		}
		seen[spec.Name] = true

		if spec.View {
			sa.Views = append(sa.Views, spec.Name)
			continue
		}
		sa.Tables = append(sa.Tables, spec.Name)
		sa.TableColumns[spec.Name] = spec.Columns
		if spec.PrimaryKey != "" {
			sa.PrimaryKeys[spec.Name] = spec.PrimaryKey
		}

		for _, fk := range spec.ForeignKeys {
			fk.Table = spec.Name
			if fk.ReferencedColumn == "" {
				fk.ReferencedColumn = "id"
			}
			fk.IsNullable = fk.IsNullable || sa.columnNullable(spec.Name, fk.Column)
			sa.ForeignKeys[spec.Name] = append(sa.ForeignKeys[spec.Name], fk)
		}
	}

	sa.finalize()
	return nil
}
