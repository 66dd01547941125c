//go:build integration
// +build integration

package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/modelgraph/internal/schema"
)

const shopDDL = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	username TEXT NOT NULL UNIQUE,
	email TEXT
);
CREATE TABLE profiles (
	user_id INTEGER PRIMARY KEY REFERENCES users(id),
	bio TEXT
);
CREATE TABLE orders (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL REFERENCES users(id),
	created_at TEXT
);
CREATE INDEX idx_orders_created ON orders(created_at);
`

func newShopDB(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "shop.db")
	raw, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer raw.Close()

	_, err = raw.Exec(shopDDL)
	require.NoError(t, err)
	return path
}

func TestSQLiteExtraction(t *testing.T) {
	ctx := context.Background()
	path := newShopDB(t)

	client, err := NewSQLiteClient(ctx, path)
	require.NoError(t, err)
	defer client.Close()

	s, err := NewSQLiteExtractor(client).ExtractSchema(ctx, nil)
	require.NoError(t, err)

	var names []string
	for _, m := range s.Models {
		names = append(names, m.ObjectName)
	}
	assert.Equal(t, []string{"orders", "profiles", "users"}, names)

	source := client.Source()
	users := ModelUUID(source, "users")
	assert.ElementsMatch(t, []schema.Relation{
		{SrcField: FieldUUID(source, "profiles", "user_id"), TargetModel: users, RelationType: schema.OneToOne},
		{SrcField: FieldUUID(source, "orders", "user_id"), TargetModel: users, RelationType: schema.ManyToOne},
	}, s.Relations)

	require.NoError(t, s.Validate())
}

func TestSQLiteExtractionSelectedTables(t *testing.T) {
	ctx := context.Background()
	path := newShopDB(t)

	client, err := NewSQLiteClient(ctx, path)
	require.NoError(t, err)
	defer client.Close()

	s, err := NewSQLiteExtractor(client).ExtractSchema(ctx, []string{"orders"})
	require.NoError(t, err)
	require.Len(t, s.Models, 1)
	assert.Equal(t, []string{"id", "user_id", "created_at"}, fieldNames(s.Models[0]))
	assert.Empty(t, s.Relations, "users was not extracted")

	_, err = NewSQLiteExtractor(client).ExtractSchema(ctx, []string{"missing"})
	assert.Error(t, err)
}

func TestSQLiteUniqueColumns(t *testing.T) {
	ctx := context.Background()
	path := newShopDB(t)

	client, err := NewSQLiteClient(ctx, path)
	require.NoError(t, err)
	defer client.Close()

	unique, err := NewSQLiteExtractor(client).extractUniqueColumns(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"username": true}, unique)
}

func fieldNames(m schema.Model) []string {
	var out []string
	for _, f := range m.Fields {
		out = append(out, f.Name)
	}
	return out
}
