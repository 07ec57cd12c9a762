package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/internal/analyzer"
	"github.com/vitebski/relgraph/internal/connector"
	"github.com/vitebski/relgraph/internal/datasource"
	"github.com/vitebski/relgraph/internal/export"
	"github.com/vitebski/relgraph/internal/generator"
	"github.com/vitebski/relgraph/internal/interaction"
	"github.com/vitebski/relgraph/internal/legend"
	"github.com/vitebski/relgraph/internal/mapping"
	"github.com/vitebski/relgraph/internal/populator"
	"github.com/vitebski/relgraph/internal/projection"
	"github.com/vitebski/relgraph/internal/utils"
)

const defaultRowLimit = 500

type options struct {
	host, user, password, database, port string

	mock       bool
	schemaFile string
	records    int
	seed       int64

	mappingFile string
	suggest     bool
	saveMapping string
	graphID     string
	mappingDir  string

	format   string
	output   string
	selectID string
	limit    int

	analyzeOnly bool
	envFile     string
	logLevel    string
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	logger := utils.SetupLogging(opts.logLevel)

	required := utils.DatabaseEnvVars
	if opts.mock {
		required = nil
	}
	utils.LoadEnvironmentVariables(opts.envFile, required, logger)

	switch opts.format {
	case "summary", "table", string(export.FormatJSON), string(export.FormatDOT):
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}

	limit := opts.limit
	if limit <= 0 {
		limit = utils.GetEnvInt("RELGRAPH_ROW_LIMIT", defaultRowLimit)
	}

	sa, source, closeSource, err := openSource(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer closeSource()

	if opts.analyzeOnly {
		w, closeOutput, err := openOutput(opts.output, stdout)
		if err != nil {
			return err
		}
		utils.PrintSchemaAnalysis(w, sa)
		return closeOutput()
	}

	store := mapping.NewStore(opts.mappingDir, mapping.FormatYAML, logger)
	doc, suggested, err := loadMapping(opts, sa, store)
	if err != nil {
		return err
	}

	loader := datasource.NewLoader(source, limit, logger)
	rowSets, err := loader.Load(ctx, doc.Tables())
	if err != nil {
		return fmt.Errorf("loading rows: %w", err)
	}

	if suggested {
		doc = mapping.FillLegends(doc, rowSets, legend.AutoGenerator{})
	}
	if opts.saveMapping != "" {
		if err := mapping.Save(opts.saveMapping, doc); err != nil {
			return err
		}
		logger.Infof("Mapping written to %s", opts.saveMapping)
	}
	if opts.graphID != "" && suggested {
		if err := store.Save(opts.graphID, doc); err != nil {
			return err
		}
	}

	projector := projection.NewProjector(projection.DefaultOptions(), logger)
	graph := projector.Project(rowSets, doc.NodeConfigs, doc.LinkConfigs, doc.LegendSet())

	state := interaction.NewState(graph, logger)
	if opts.format == "table" {
		state.SetMode(interaction.TableMode)
	}
	if opts.selectID != "" {
		if err := state.SelectNode(opts.selectID); err != nil {
			return err
		}
	}

	// the output file is only touched once everything above has succeeded
	w, closeOutput, err := openOutput(opts.output, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	switch {
	case opts.format == string(export.FormatJSON) || opts.format == string(export.FormatDOT):
		if err := export.Write(w, graph, export.Format(opts.format)); err != nil {
			return err
		}
	case state.Mode() == interaction.TableMode:
		utils.PrintNodeTable(w, graph)
	default:
		utils.PrintGraphSummary(w, graph, doc.LinkConfigs)
	}

	if state.Panel() == interaction.DetailView {
		fmt.Fprintln(w)
		utils.PrintDetail(w, state.Snapshot())
	}
	return closeOutput()
}

// openOutput returns the file named by path, or stdout when path is empty.
// The close func may be called more than once.
func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	var once sync.Once
	var closeErr error
	return f, func() error {
		once.Do(func() { closeErr = f.Close() })
		return closeErr
	}, nil
}

// openSource analyzes the schema and returns the row source for it, either
// a generated dataset or a live database
func openSource(ctx context.Context, opts options, logger *logrus.Logger) (*analyzer.SchemaAnalyzer, datasource.Source, func(), error) {
	if opts.mock {
		if opts.schemaFile == "" {
			return nil, nil, nil, errors.New("--mock needs --schema-file")
		}
		sa := analyzer.NewSchemaAnalyzer(nil, logger)
		if err := sa.LoadSchemaFile(opts.schemaFile); err != nil {
			return nil, nil, nil, err
		}

		// Dates are anchored to the day so that a seed reproduces a dataset
		now := time.Now().UTC().Truncate(24 * time.Hour)
		dataGenerator := generator.NewDataGenerator(opts.seed, now, logger)
		p := populator.NewPopulator(sa, dataGenerator, opts.records, logger)
		rowSets := p.Populate()
		for table := range p.FailedTables {
			logger.Warningf("Mock table %s could not be filled", table)
		}
		return sa, datasource.NewMockSource(rowSets), func() {}, nil
	}

	host := firstNonEmpty(opts.host, os.Getenv("MYSQL_HOST"))
	user := firstNonEmpty(opts.user, os.Getenv("MYSQL_USER"))
	password := firstNonEmpty(opts.password, os.Getenv("MYSQL_PASSWORD"))
	database := firstNonEmpty(opts.database, os.Getenv("MYSQL_DATABASE"))
	port := firstNonEmpty(opts.port, os.Getenv("MYSQL_PORT"), "3306")

	if !utils.ValidateConnectionParams(host, user, password, database, port, logger) {
		return nil, nil, nil, errors.New("invalid connection parameters")
	}

	db := connector.NewDatabaseConnector(host, user, password, database, port, logger)
	if err := db.Connect(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	sa := analyzer.NewSchemaAnalyzer(db, logger)
	if err := sa.AnalyzeSchema(ctx); err != nil {
		db.Disconnect()
		return nil, nil, nil, fmt.Errorf("analyzing schema: %w", err)
	}
	return sa, datasource.NewMySQLSource(db, sa, logger), db.Disconnect, nil
}

// loadMapping reads the mapping document from a file or from the saved
// mapping of a graph, or derives one from the schema when there is none.
// The flag reports whether it was derived.
func loadMapping(opts options, sa *analyzer.SchemaAnalyzer, store *mapping.Store) (mapping.Document, bool, error) {
	switch {
	case opts.suggest:
	case opts.mappingFile != "":
		doc, err := mapping.Load(opts.mappingFile)
		return doc, false, err
	case opts.graphID != "":
		doc, err := store.Load(opts.graphID)
		if err == nil {
			return doc, false, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return doc, false, err
		}
	}
	return mapping.Suggest(sa), true, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
