package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// document is the wrapped file layout: {"microcontents": [...]}.
type document struct {
	Microcontents []Record `json:"microcontents" yaml:"microcontents"`
}

// LoadFile reads records from a YAML, JSON or XLSX file. YAML and JSON files
// hold either a {microcontents: [...]} document or a bare list of records.
func LoadFile(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadWorkbook(path)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return decodeJSON(data)
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return decodeYAML(data)
	default:
		return nil, fmt.Errorf("unsupported catalog file %s", path)
	}
}

// LoadDir walks dir and loads every catalog file in it. Unreadable files and
// records that fail validation are skipped with a warning.
func LoadDir(dir string) ([]Record, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("opening catalog directory: %w", err)
	}
	if !info.IsDir() {
		return loadValid(dir)
	}

	var records []Record
	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !isCatalogFile(path) {
			return nil
		}
		loaded, err := loadValid(path)
		if err != nil {
			slog.Warn("skipping invalid catalog file", "path", path, "error", err)
			return nil
		}
		records = append(records, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking catalog directory: %w", err)
	}
	return records, nil
}

// NewFileCatalog loads path (a file or directory) into a MemoryCatalog.
func NewFileCatalog(path string) (*MemoryCatalog, error) {
	records, err := LoadDir(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	c := NewMemoryCatalog()
	for _, r := range records {
		c.put(r.Item())
	}

	stats, _ := c.Stats(context.Background())
	slog.Info("catalog loaded",
		"path", path,
		"items", c.Len(),
		"with_embedding", stats.WithEmbedding,
	)
	return c, nil
}

func loadValid(path string) ([]Record, error) {
	records, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	valid := records[:0]
	for _, r := range records {
		if err := Validate(r); err != nil {
			slog.Warn("skipping invalid record", "path", path, "error", err)
			continue
		}
		valid = append(valid, r)
	}
	return valid, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".xlsx":
		return true
	}
	return false
}

func decodeJSON(data []byte) ([]Record, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var records []Record
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("decoding record list: %w", err)
		}
		return records, nil
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog document: %w", err)
	}
	if doc.Microcontents == nil {
		return nil, errors.New("catalog document has no microcontents list")
	}
	return doc.Microcontents, nil
}

func decodeYAML(data []byte) ([]Record, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		var records []Record
		if err := node.Decode(&records); err != nil {
			return nil, fmt.Errorf("decoding record list: %w", err)
		}
		return records, nil
	case yaml.MappingNode:
		var doc document
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding catalog document: %w", err)
		}
		if doc.Microcontents == nil {
			return nil, errors.New("catalog document has no microcontents list")
		}
		return doc.Microcontents, nil
	default:
		return nil, fmt.Errorf("unexpected yaml root kind %d", node.Kind)
	}
}
