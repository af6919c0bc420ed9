package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"habittrack/backend"
)

// Format identifies an export file format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// fileVersion is bumped when the document layout changes incompatibly
const fileVersion = 1

// Document is the on-disk export layout: a versioned envelope around the
// dataset so future imports can detect incompatible files.
type Document struct {
	Version    int             `json:"version" yaml:"version"`
	ExportedAt time.Time       `json:"exportedAt" yaml:"exportedAt"`
	Data       backend.Dataset `json:"data" yaml:"data"`
}

// DetectFormat picks a format from a file extension, defaulting to JSON
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat validates an explicit format name
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported export format: %s (use json or yaml)", name)
	}
}

// Write serializes the dataset to w in the given format
func Write(w io.Writer, ds backend.Dataset, format Format) error {
	doc := Document{
		Version:    fileVersion,
		ExportedAt: time.Now().UTC(),
		Data:       ds,
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode yaml export: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode json export: %w", err)
		}
		return nil
	}
}

// Read parses an export document from r
func Read(r io.Reader, format Format) (backend.Dataset, error) {
	var doc Document

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return backend.Dataset{}, fmt.Errorf("failed to parse yaml export: %w", err)
		}
	default:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return backend.Dataset{}, fmt.Errorf("failed to parse json export: %w", err)
		}
	}

	if doc.Version > fileVersion {
		return backend.Dataset{}, fmt.Errorf("export file version %d is newer than supported version %d", doc.Version, fileVersion)
	}
	if err := validate(doc.Data); err != nil {
		return backend.Dataset{}, err
	}
	return doc.Data, nil
}

// WriteFile exports the dataset to a file, format detected from extension
func WriteFile(path string, ds backend.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Write(f, ds, DetectFormat(path))
}

// ReadFile imports a dataset from a file, format detected from extension
func ReadFile(path string) (backend.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return backend.Dataset{}, fmt.Errorf("failed to open import file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return Read(f, DetectFormat(path))
}

// validate rejects datasets that would corrupt the store: every entity
// needs an id, and ids must be unique within their kind.
func validate(ds backend.Dataset) error {
	for _, kind := range backend.Kinds() {
		seen := make(map[string]bool)
		for _, e := range ds.Entities(kind) {
			id := e.EntityID()
			if id == "" {
				return fmt.Errorf("import rejected: %s record without an id", kind)
			}
			if seen[id] {
				return fmt.Errorf("import rejected: duplicate %s id %s", kind, id)
			}
			seen[id] = true
		}
	}
	return nil
}
