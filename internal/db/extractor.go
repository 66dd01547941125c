// Package db builds schema snapshots from live PostgreSQL, MySQL and SQLite
// databases: tables become models, columns become fields and foreign keys
// become relations.
package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/tordrt/modelgraph/internal/schema"
)

// Extractor reads a schema snapshot from a database
type Extractor interface {
	// ExtractSchema extracts the given tables, or every table when empty
	ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error)
}

// table is the driver-independent shape every extractor fills in
type table struct {
	name        string
	columns     []string
	primaryKey  []string
	unique      map[string]bool
	foreignKeys []foreignKey
}

type foreignKey struct {
	column      string
	targetTable string
}

// ModelUUID returns the stable identifier of a table imported from source
func ModelUUID(source, tableName string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("modelgraph:"+source+"/"+tableName)).String()
}

// FieldUUID returns the stable identifier of a column imported from source
func FieldUUID(source, tableName, column string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("modelgraph:"+source+"/"+tableName+"."+column)).String()
}

// buildSchema converts extracted tables into a schema.
// Foreign keys to tables outside the extracted set are dropped.
func buildSchema(source, appLabel string, tables []table) *schema.Schema {
	present := make(map[string]bool, len(tables))
	for _, t := range tables {
		present[t.name] = true
	}

	s := &schema.Schema{Models: make([]schema.Model, 0, len(tables))}

	for _, t := range tables {
		model := schema.Model{
			ModelName:  t.name,
			ObjectName: t.name,
			AppLabel:   appLabel,
			DBTable:    t.name,
			Fields:     make([]schema.Field, 0, len(t.columns)),
			MetaData:   provenance(ModelUUID(source, t.name), source),
		}
		for _, col := range t.columns {
			model.Fields = append(model.Fields, schema.Field{
				Name:     col,
				MetaData: provenance(FieldUUID(source, t.name, col), source),
			})
		}
		s.Models = append(s.Models, model)

		for _, fk := range t.foreignKeys {
			if !present[fk.targetTable] {
				continue
			}
			s.Relations = append(s.Relations, schema.Relation{
				SrcField:     FieldUUID(source, t.name, fk.column),
				TargetModel:  ModelUUID(source, fk.targetTable),
				RelationType: t.relationType(fk.column),
			})
		}
	}

	return s
}

// relationType is one-to-one when the referencing column cannot repeat
func (t *table) relationType(column string) schema.RelationType {
	if t.unique[column] {
		return schema.OneToOne
	}
	if len(t.primaryKey) == 1 && t.primaryKey[0] == column {
		return schema.OneToOne
	}
	return schema.ManyToOne
}

func provenance(id, source string) schema.MetaData {
	return schema.MetaData{
		UUID: id,
		Code: schema.Code{SourceFile: source},
	}
}
