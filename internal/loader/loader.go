// Package loader decodes schema documents into validated, indexed snapshots.
package loader

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/modelgraph/internal/schema"
)

// ErrMalformed is returned when a document cannot be decoded into a schema
var ErrMalformed = errors.New("malformed schema document")

// Format is a document serialization
type Format string

const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// FormatFromPath picks the format by file extension, defaulting to JSON
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".msgpack", ".mpk":
		return FormatMsgpack
	default:
		return FormatJSON
	}
}

// Load reads the document at path, validates its relations and indexes it
func Load(path string) (*schema.Schema, *schema.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer func() { _ = f.Close() }()

	s, err := Decode(bufio.NewReader(f), FormatFromPath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	return Prepare(s)
}

// Prepare validates s and builds its index
func Prepare(s *schema.Schema) (*schema.Schema, *schema.Index, error) {
	if err := s.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	idx, err := schema.BuildIndex(s)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return s, idx, nil
}

// Decode parses a single document from r
func Decode(r io.Reader, format Format) (*schema.Schema, error) {
	var s schema.Schema
	var err error

	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&s)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&s)
	case FormatMsgpack:
		err = msgpack.NewDecoder(r).Decode(&s)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	for i, rel := range s.Relations {
		if !rel.RelationType.Valid() {
			return nil, fmt.Errorf("%w: relation %d has no relation_type", ErrMalformed, i)
		}
	}

	return &s, nil
}

// Encode writes s to w
func Encode(w io.Writer, s *schema.Schema, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return err
		}
		return enc.Close()
	case FormatMsgpack:
		return msgpack.NewEncoder(w).Encode(s)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// Save writes s to path in the format implied by its extension
func Save(path string, s *schema.Schema) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Encode(w, s, FormatFromPath(path)); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	return nil
}
