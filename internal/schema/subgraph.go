package schema

import (
	"fmt"
)

// Extract narrows s to the model identified by uuid and every relation
// pointing at it, and returns the new schema with a freshly built index.
//
// Many-to-many relations go through the same filter as every other kind;
// no join model is synthesized. Source models of kept relations are not
// carried over, so a kept relation may name a field the new schema lacks.
func Extract(s *Schema, idx *Index, uuid string) (*Schema, *Index, error) {
	model, err := idx.Model(uuid)
	if err != nil {
		return nil, nil, err
	}

	var relations []Relation
	for _, rel := range s.Relations {
		if rel.TargetModel == uuid {
			relations = append(relations, rel)
		}
	}

	narrowed := &Schema{
		Models:    []Model{cloneModel(model)},
		Relations: relations,
	}

	narrowedIdx, err := BuildIndex(narrowed)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to index subgraph of %s: %w", uuid, err)
	}

	return narrowed, narrowedIdx, nil
}

// cloneModel copies m so the new schema shares no backing arrays with the old
func cloneModel(m *Model) Model {
	c := *m
	c.Fields = append([]Field(nil), m.Fields...)
	return c
}
