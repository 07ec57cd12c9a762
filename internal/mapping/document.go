package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vitebski/relgraph/internal/projection"
	"github.com/vitebski/relgraph/pkg/models"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDocument is returned for mapping documents that are
// structurally unusable
var ErrInvalidDocument = errors.New("invalid mapping document")

// Format is the serialization of a mapping document
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the format from a file extension, defaulting to YAML
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Document is everything a user authors for one graph: which tables become
// nodes, which joins become edges, and the legends that color them. Field
// references are not checked against any schema; stale ones simply match
// nothing when projected.
type Document struct {
	GraphID     string                         `json:"graph_id,omitempty" yaml:"graph_id,omitempty"`
	NodeConfigs []models.NodeConfig            `json:"node_configs" yaml:"node_configs"`
	LinkConfigs []models.LinkConfig            `json:"link_configs" yaml:"link_configs"`
	Legends     map[string][]models.LegendItem `json:"legends,omitempty" yaml:"legends,omitempty"`
}

// LegendSet returns the legends keyed the way the projector looks them up
func (d Document) LegendSet() projection.Legends {
	return projection.Legends(d.Legends)
}

// Validate checks that every config names what it needs and that legend
// item ids are unique within their list
func (d Document) Validate() error {
	for i, nc := range d.NodeConfigs {
		if nc.Table == "" {
			return fmt.Errorf("%w: node config %d has no table", ErrInvalidDocument, i)
		}
	}
	for i, lc := range d.LinkConfigs {
		if lc.SourceTable == "" || lc.SourceColumn == "" || lc.TargetTable == "" || lc.TargetColumn == "" {
			return fmt.Errorf("%w: link config %d is missing a table or column", ErrInvalidDocument, i)
		}
	}
	for key, items := range d.Legends {
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			if item.ID == "" {
				continue
			}
			if seen[item.ID] {
				return fmt.Errorf("%w: legend %s repeats item id %s", ErrInvalidDocument, key, item.ID)
			}
			seen[item.ID] = true
		}
	}
	return nil
}

// Encode serializes a document
func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported mapping format %q", format)
	}
}

// Decode parses and validates a document
func Decode(data []byte, format Format) (Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return doc, fmt.Errorf("unsupported mapping format %q", format)
	}
	if err != nil {
		return doc, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, doc.Validate()
}

// Load reads a document from a file, choosing the format by extension
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading mapping %s: %w", path, err)
	}
	doc, err := Decode(data, FormatFromPath(path))
	if err != nil {
		return doc, fmt.Errorf("mapping %s: %w", path, err)
	}
	return doc, nil
}

// Save writes a document to a file, choosing the format by extension
func Save(path string, doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	data, err := Encode(doc, FormatFromPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mapping %s: %w", path, err)
	}
	return nil
}
