package schema

import (
	"fmt"
)

// Schema is an immutable snapshot of models and the relations between them.
// Nothing writes through a shared *Schema; transformations build a new one.
type Schema struct {
	Models    []Model    `json:"models" yaml:"models" msgpack:"models"`
	Relations []Relation `json:"relations" yaml:"relations" msgpack:"relations"`
}

// Model represents one schema entity
type Model struct {
	ModelName  string   `json:"model_name" yaml:"model_name" msgpack:"model_name"`
	ObjectName string   `json:"object_name" yaml:"object_name" msgpack:"object_name"`
	AppLabel   string   `json:"app_label" yaml:"app_label" msgpack:"app_label"`
	DBTable    string   `json:"db_table" yaml:"db_table" msgpack:"db_table"`
	Fields     []Field  `json:"fields" yaml:"fields" msgpack:"fields"`
	MetaData   MetaData `json:"_meta_data" yaml:"_meta_data" msgpack:"_meta_data"`
}

// UUID returns the model identity
func (m *Model) UUID() string {
	return m.MetaData.UUID
}

// Field represents one attribute owned by a model
type Field struct {
	Name     string   `json:"name" yaml:"name" msgpack:"name"`
	MetaData MetaData `json:"_meta_data" yaml:"_meta_data" msgpack:"_meta_data"`
}

// MetaData carries identity and provenance.
// Provenance is informational and never used for lookup.
type MetaData struct {
	UUID string `json:"uuid" yaml:"uuid" msgpack:"uuid"`
	Code Code   `json:"code" yaml:"code" msgpack:"code"`
}

// Code points at the declaration that produced a model or field
type Code struct {
	SourceFile string `json:"source_file" yaml:"source_file" msgpack:"source_file"`
	LineNumber int    `json:"line_number" yaml:"line_number" msgpack:"line_number"`
}

// Relation is a directed edge from a field to a target model.
// It holds identifiers only, never pointers into a Schema.
type Relation struct {
	SrcField     string       `json:"src_field" yaml:"src_field" msgpack:"src_field"`
	TargetModel  string       `json:"target_model" yaml:"target_model" msgpack:"target_model"`
	RelationType RelationType `json:"relation_type" yaml:"relation_type" msgpack:"relation_type"`
}

// Validate checks that every relation targets a model of this schema and
// starts at a field declared by one of its models.
func (s *Schema) Validate() error {
	models := make(map[string]struct{}, len(s.Models))
	fields := make(map[string]struct{})
	for i := range s.Models {
		models[s.Models[i].UUID()] = struct{}{}
		for _, f := range s.Models[i].Fields {
			fields[f.MetaData.UUID] = struct{}{}
		}
	}

	for i, rel := range s.Relations {
		if _, ok := fields[rel.SrcField]; !ok {
			return &RelationError{Index: i, Relation: rel, Reason: fmt.Sprintf("unknown source field %q", rel.SrcField)}
		}
		if _, ok := models[rel.TargetModel]; !ok {
			return &RelationError{Index: i, Relation: rel, Reason: fmt.Sprintf("unknown target model %q", rel.TargetModel)}
		}
	}
	return nil
}

// FieldCount returns the total number of fields across all models
func (s *Schema) FieldCount() int {
	n := 0
	for i := range s.Models {
		n += len(s.Models[i].Fields)
	}
	return n
}
