package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/modelgraph/internal/schema"
)

const (
	customerUUID = "c0f7a1de-0000-4000-8000-000000000001"
	orderUUID    = "c0f7a1de-0000-4000-8000-000000000002"
)

func TestLoad(t *testing.T) {
	s, idx, err := Load(filepath.Join("testdata", "shop.json"))
	require.NoError(t, err)

	require.Len(t, s.Models, 2)
	assert.Equal(t, "Customer", s.Models[0].ObjectName)
	assert.Equal(t, "shop_order", s.Models[1].DBTable)
	assert.Equal(t, 13, s.Models[1].Fields[1].MetaData.Code.LineNumber)

	require.Len(t, s.Relations, 1)
	assert.Equal(t, schema.ManyToOne, s.Relations[0].RelationType)

	owner, err := idx.ModelFromField(s.Relations[0].SrcField)
	require.NoError(t, err)
	assert.Equal(t, orderUUID, owner)
	assert.True(t, idx.HasModel(customerUUID))
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		format Format
	}{
		{name: "empty", input: "", format: FormatJSON},
		{name: "not json", input: "{models:", format: FormatJSON},
		{name: "unknown relation type", input: `{"models":[],"relations":[{"src_field":"a","target_model":"b","relation_type":"ForeignKey"}]}`, format: FormatJSON},
		{name: "missing relation type", input: `{"models":[],"relations":[{"src_field":"a","target_model":"b"}]}`, format: FormatJSON},
		{name: "bad yaml", input: "models: [", format: FormatYAML},
		{name: "bad msgpack", input: "\xc1", format: FormatMsgpack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input), tt.format)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestPrepareRejectsInconsistentSchema(t *testing.T) {
	tests := []struct {
		name   string
		schema *schema.Schema
		want   error
	}{
		{
			name: "dangling target",
			schema: &schema.Schema{
				Models:    []schema.Model{{ObjectName: "A", MetaData: schema.MetaData{UUID: "1"}, Fields: []schema.Field{{Name: "x", MetaData: schema.MetaData{UUID: "10"}}}}},
				Relations: []schema.Relation{{SrcField: "10", TargetModel: "2", RelationType: schema.OneToOne}},
			},
			want: schema.ErrInvalidRelation,
		},
		{
			name: "duplicate name",
			schema: &schema.Schema{
				Models: []schema.Model{
					{ObjectName: "A", MetaData: schema.MetaData{UUID: "1"}},
					{ObjectName: "A", MetaData: schema.MetaData{UUID: "2"}},
				},
			},
			want: schema.ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Prepare(tt.schema)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	want, _, err := Load(filepath.Join("testdata", "shop.json"))
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML, FormatMsgpack} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, want, format))

			got, err := Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	want, _, err := Load(filepath.Join("testdata", "shop.json"))
	require.NoError(t, err)

	for _, name := range []string{"out.json", "out.yaml", "out.msgpack"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(path, want))

			got, _, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"schema.json":    FormatJSON,
		"schema.YAML":    FormatYAML,
		"schema.yml":     FormatYAML,
		"schema.msgpack": FormatMsgpack,
		"schema.mpk":     FormatMsgpack,
		"schema":         FormatJSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}
}
