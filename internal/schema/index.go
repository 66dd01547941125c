package schema

import (
	"github.com/sahilm/fuzzy"
)

// Index resolves UUIDs and names against exactly one Schema snapshot.
// It is read-only after BuildIndex returns and must be rebuilt, not reused,
// for any other snapshot.
type Index struct {
	schema      *Schema
	models      map[string]*Model
	modelNames  map[string]*Model
	fieldModels map[string]string
	names       []string // object names in store order, for Suggest
}

// BuildIndex indexes every model UUID, object name and field UUID of s.
// Collisions are rejected rather than overwritten.
func BuildIndex(s *Schema) (*Index, error) {
	idx := &Index{
		schema:      s,
		models:      make(map[string]*Model, len(s.Models)),
		modelNames:  make(map[string]*Model, len(s.Models)),
		fieldModels: make(map[string]string, s.FieldCount()),
		names:       make([]string, 0, len(s.Models)),
	}

	for i := range s.Models {
		model := &s.Models[i]
		uuid := model.UUID()

		if _, ok := idx.models[uuid]; ok {
			return nil, &DuplicateError{Kind: "model uuid", Key: uuid}
		}
		if _, ok := idx.modelNames[model.ObjectName]; ok {
			return nil, &DuplicateError{Kind: "model name", Key: model.ObjectName}
		}
		idx.models[uuid] = model
		idx.modelNames[model.ObjectName] = model
		idx.names = append(idx.names, model.ObjectName)

		for _, field := range model.Fields {
			if _, ok := idx.fieldModels[field.MetaData.UUID]; ok {
				return nil, &DuplicateError{Kind: "field uuid", Key: field.MetaData.UUID}
			}
			idx.fieldModels[field.MetaData.UUID] = uuid
		}
	}

	return idx, nil
}

// Schema returns the snapshot the index was built from
func (x *Index) Schema() *Schema {
	return x.schema
}

// Models returns the number of indexed models
func (x *Index) Models() int {
	return len(x.models)
}

// Fields returns the number of indexed fields
func (x *Index) Fields() int {
	return len(x.fieldModels)
}

// HasModel reports whether uuid identifies a model
func (x *Index) HasModel(uuid string) bool {
	_, ok := x.models[uuid]
	return ok
}

// HasModelName reports whether name is the object name of a model
func (x *Index) HasModelName(name string) bool {
	_, ok := x.modelNames[name]
	return ok
}

// Model returns the model identified by uuid
func (x *Index) Model(uuid string) (*Model, error) {
	m, ok := x.models[uuid]
	if !ok {
		return nil, &NotFoundError{Kind: "model", Key: uuid}
	}
	return m, nil
}

// ModelByName returns the model with the given object name
func (x *Index) ModelByName(name string) (*Model, error) {
	m, ok := x.modelNames[name]
	if !ok {
		return nil, &NotFoundError{Kind: "model name", Key: name}
	}
	return m, nil
}

// ModelFromField returns the UUID of the model declaring fieldUUID
func (x *Index) ModelFromField(fieldUUID string) (string, error) {
	uuid, ok := x.fieldModels[fieldUUID]
	if !ok {
		return "", &NotFoundError{Kind: "field", Key: fieldUUID}
	}
	return uuid, nil
}

// Resolve looks up user input that may be an object name or a UUID.
// Names win, so a name that happens to look like a UUID resolves as a name.
func (x *Index) Resolve(nameOrUUID string) (*Model, error) {
	if m, ok := x.modelNames[nameOrUUID]; ok {
		return m, nil
	}
	if m, ok := x.models[nameOrUUID]; ok {
		return m, nil
	}
	return nil, &NotFoundError{Kind: "model", Key: nameOrUUID}
}

// Suggest returns up to n object names fuzzy-matching input, best first
func (x *Index) Suggest(input string, n int) []string {
	if input == "" || n <= 0 {
		return nil
	}

	matches := fuzzy.Find(input, x.names)
	if len(matches) > n {
		matches = matches[:n]
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Str)
	}
	return out
}
