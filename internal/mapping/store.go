package mapping

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrInvalidGraphID is returned for graph ids that cannot name a file
var ErrInvalidGraphID = errors.New("invalid graph id")

// Store keeps one mapping document per graph id in a directory
type Store struct {
	Dir    string
	Format Format
	Logger *logrus.Logger
}

// NewStore creates a store. The directory is created on first save.
func NewStore(dir string, format Format, logger *logrus.Logger) *Store {
	if format == "" {
		format = FormatYAML
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Store{Dir: dir, Format: format, Logger: logger}
}

// Path returns the file that holds the document of a graph
func (s *Store) Path(graphID string) (string, error) {
	if graphID == "" || graphID == "." || graphID == ".." || strings.ContainsAny(graphID, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidGraphID, graphID)
	}
	return filepath.Join(s.Dir, graphID+"."+string(s.Format)), nil
}

// Load returns the saved document of a graph exactly as it was saved
func (s *Store) Load(graphID string) (Document, error) {
	path, err := s.Path(graphID)
	if err != nil {
		return Document{}, err
	}
	doc, err := Load(path)
	if err != nil {
		return doc, err
	}
	s.Logger.Debugf("Loaded mapping for graph %s from %s", graphID, path)
	return doc, nil
}

// Save stores the document of a graph, replacing any earlier version
func (s *Store) Save(graphID string, doc Document) error {
	path, err := s.Path(graphID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("creating mapping directory: %w", err)
	}
	doc.GraphID = graphID
	if err := Save(path, doc); err != nil {
		return err
	}
	s.Logger.Infof("Saved mapping for graph %s to %s", graphID, path)
	return nil
}

// Delete removes the document of a graph. Deleting a missing graph is not
// an error.
func (s *Store) Delete(graphID string) error {
	path, err := s.Path(graphID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting mapping %s: %w", path, err)
	}
	return nil
}

// List returns the graph ids that have a saved document, sorted
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing mappings: %w", err)
	}

	suffix := "." + string(s.Format)
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), suffix))
	}
	sort.Strings(ids)
	return ids, nil
}
