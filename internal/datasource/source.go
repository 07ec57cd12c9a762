package datasource

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/internal/analyzer"
	"github.com/vitebski/relgraph/internal/connector"
	"github.com/vitebski/relgraph/pkg/models"
)

// ErrUnknownTable is returned when a row set is requested for a table the
// source does not have
var ErrUnknownTable = errors.New("unknown table")

// Source hands out row sets by table name
type Source interface {
	Tables(ctx context.Context) ([]string, error)
	// FetchRowSet returns at most limit rows of a table; limit <= 0 means all
	FetchRowSet(ctx context.Context, table string, limit int) (models.RowSet, error)
}

// MySQLSource reads rows from a live database whose schema has already been
// analyzed
type MySQLSource struct {
	DB     *connector.DatabaseConnector
	Schema *analyzer.SchemaAnalyzer
	Logger *logrus.Logger
}

// NewMySQLSource creates a source over an analyzed MySQL schema
func NewMySQLSource(db *connector.DatabaseConnector, schema *analyzer.SchemaAnalyzer, logger *logrus.Logger) *MySQLSource {
	return &MySQLSource{DB: db, Schema: schema, Logger: logger}
}

// Tables returns the base tables and views of the schema
func (s *MySQLSource) Tables(ctx context.Context) ([]string, error) {
	tables := make([]string, 0, len(s.Schema.Tables)+len(s.Schema.Views))
	tables = append(tables, s.Schema.Tables...)
	return append(tables, s.Schema.Views...), nil
}

// FetchRowSet selects the rows of one table. Only tables known to the
// analyzer are queried, so the identifier never comes from user input.
func (s *MySQLSource) FetchRowSet(ctx context.Context, table string, limit int) (models.RowSet, error) {
	if !s.known(table) {
		return models.RowSet{Table: table}, fmt.Errorf("%s: %w", table, ErrUnknownTable)
	}

	query := fmt.Sprintf("SELECT * FROM %s", quoteIdentifier(table))
	var params []interface{}
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}

	result, err := s.DB.ExecuteQuery(ctx, query, params...)
	if err != nil {
		return models.RowSet{Table: table}, fmt.Errorf("fetching rows of %s: %w", table, err)
	}

	rows := make([]models.Row, 0, len(result))
	for _, r := range result {
		rows = append(rows, models.Row(r))
	}
	s.Logger.Debugf("Fetched %d rows from %s", len(rows), table)

	return models.RowSet{
		Table:      table,
		PrimaryKey: s.Schema.PrimaryKeys[table],
		Columns:    s.Schema.TableColumns[table],
		Rows:       rows,
	}, nil
}

func (s *MySQLSource) known(table string) bool {
	for _, t := range s.Schema.Tables {
		if t == table {
			return true
		}
	}
	for _, v := range s.Schema.Views {
		if v == table {
			return true
		}
	}
	return false
}

func quoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// MockSource serves row sets generated ahead of time
type MockSource struct {
	order   []string
	rowSets map[string]models.RowSet
}

// NewMockSource creates a source over fixed row sets. Later row sets for
// the same table replace earlier ones.
func NewMockSource(rowSets []models.RowSet) *MockSource {
	s := &MockSource{rowSets: make(map[string]models.RowSet, len(rowSets))}
	for _, rs := range rowSets {
		if _, ok := s.rowSets[rs.Table]; !ok {
			s.order = append(s.order, rs.Table)
		}
		s.rowSets[rs.Table] = rs
	}
	return s
}

// Tables returns the tables in the order they were given
func (s *MockSource) Tables(ctx context.Context) ([]string, error) {
	return append([]string(nil), s.order...), nil
}

// FetchRowSet returns a copy of the stored row set, truncated to limit
func (s *MockSource) FetchRowSet(ctx context.Context, table string, limit int) (models.RowSet, error) {
	if err := ctx.Err(); err != nil {
		return models.RowSet{Table: table}, err
	}
	rs, ok := s.rowSets[table]
	if !ok {
		return models.RowSet{Table: table}, fmt.Errorf("%s: %w", table, ErrUnknownTable)
	}

	n := len(rs.Rows)
	if limit > 0 && limit < n {
		n = limit
	}
	rs.Rows = append([]models.Row(nil), rs.Rows[:n]...)
	return rs, nil
}
