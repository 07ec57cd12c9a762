package datasource

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vitebski/relgraph/pkg/models"
)

// ErrSuperseded is returned by a load that a newer load replaced before it
// finished
var ErrSuperseded = errors.New("load superseded by a newer request")

// Loader fetches row sets for a projection pass. Only the most recent load
// may deliver rows: starting a load cancels the one in flight, and the older
// call returns ErrSuperseded instead of its partial result.
type Loader struct {
	Source Source
	Limit  int
	Logger *logrus.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// NewLoader creates a loader reading at most limit rows per table
func NewLoader(source Source, limit int, logger *logrus.Logger) *Loader {
	return &Loader{Source: source, Limit: limit, Logger: logger}
}

// Load fetches the given tables, or every table of the source when none are
// named. Tables the source does not know are skipped with a warning and
// come back as empty row sets.
func (l *Loader) Load(ctx context.Context, tables []string) ([]models.RowSet, error) {
	ctx, gen := l.begin(ctx)
	defer l.end(gen)

	if len(tables) == 0 {
		var err error
		tables, err = l.Source.Tables(ctx)
		if err != nil {
			return nil, l.settle(gen, fmt.Errorf("listing tables: %w", err))
		}
	}

	rowSets := make([]models.RowSet, 0, len(tables))
	for _, table := range tables {
		rs, err := l.Source.FetchRowSet(ctx, table, l.Limit)
		if !l.current(gen) {
			return nil, ErrSuperseded
		}
		if errors.Is(err, ErrUnknownTable) {
			l.Logger.Warningf("Skipping %s: %v", table, err)
			rowSets = append(rowSets, models.RowSet{Table: table})
			continue
		}
		if err != nil {
			return nil, err
		}
		rowSets = append(rowSets, rs)
	}

	if !l.current(gen) {
		return nil, ErrSuperseded
	}
	l.Logger.Debugf("Load %d finished with %d row sets", gen, len(rowSets))
	return rowSets, nil
}

// Cancel abandons the load in flight, if any
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.generation++
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Loader) begin(ctx context.Context) (context.Context, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.cancel()
	}
	l.generation++
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	return ctx, l.generation
}

func (l *Loader) end(gen uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation == gen && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

func (l *Loader) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.generation == gen
}

// settle turns the error of a replaced load into ErrSuperseded
func (l *Loader) settle(gen uint64, err error) error {
	if !l.current(gen) {
		return ErrSuperseded
	}
	return err
}
