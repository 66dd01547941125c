package formatter

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/modelgraph/internal/schema"
)

func meta(uuid string) schema.MetaData {
	return schema.MetaData{UUID: uuid, Code: schema.Code{SourceFile: "shop/models.py", LineNumber: 42}}
}

func sample(t *testing.T) (*schema.Schema, *schema.Index) {
	t.Helper()

	s := &schema.Schema{
		Models: []schema.Model{
			{ModelName: "a", ObjectName: "A", AppLabel: "shop", DBTable: "shop_a", MetaData: meta("1"),
				Fields: []schema.Field{{Name: "f1", MetaData: meta("10")}}},
			{ModelName: "b", ObjectName: "B", AppLabel: "shop", DBTable: "shop_b", MetaData: meta("2")},
		},
		Relations: []schema.Relation{
			{SrcField: "10", TargetModel: "2", RelationType: schema.ManyToOne},
		},
	}
	idx, err := schema.BuildIndex(s)
	require.NoError(t, err)
	return s, idx
}

// threeModels is A -> B, C -> A and C -> B
func threeModels(t *testing.T) (*schema.Schema, *schema.Index) {
	t.Helper()

	s := &schema.Schema{
		Models: []schema.Model{
			{ObjectName: "A", MetaData: meta("1"), Fields: []schema.Field{{Name: "b", MetaData: meta("10")}}},
			{ObjectName: "B", MetaData: meta("2")},
			{ObjectName: "C", MetaData: meta("3"), Fields: []schema.Field{
				{Name: "a", MetaData: meta("30")},
				{Name: "b", MetaData: meta("31")},
			}},
		},
		Relations: []schema.Relation{
			{SrcField: "10", TargetModel: "2", RelationType: schema.ManyToOne},
			{SrcField: "30", TargetModel: "1", RelationType: schema.OneToOne},
			{SrcField: "31", TargetModel: "2", RelationType: schema.ManyToMany},
		},
	}
	idx, err := schema.BuildIndex(s)
	require.NoError(t, err)
	return s, idx
}

type failingWriter struct{}

var errDiskFull = errors.New("disk full")

func (failingWriter) Write([]byte) (int, error) { return 0, errDiskFull }

func TestDotFormatter(t *testing.T) {
	s, idx := sample(t)

	var buf bytes.Buffer
	require.NoError(t, NewDotFormatter(&buf).Format(s, idx))

	want := `digraph ER {
  "1" [label="A"];
  "2" [label="B"];
  "1" -> "2" [label="ManyToOne"];
}
`
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("DotFormatter.Format() mismatch (-want +got):\n%s", diff)
	}
}

func TestDotFormatterDeterministic(t *testing.T) {
	s, idx := threeModels(t)
	f := NewDotFormatter(nil)

	first, err := f.Render(s, idx)
	require.NoError(t, err)
	second, err := f.Render(s, idx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDotFormatterFocus(t *testing.T) {
	s, idx := threeModels(t)

	tests := []struct {
		name  string
		edges EdgeFilter
		want  string
	}{
		{
			name:  "edges touching focus",
			edges: EdgesTouchingFocus,
			want: `digraph ER {
  "1" [label="A"];
  "1" -> "2" [label="ManyToOne"];
  "3" -> "1" [label="OneToOne"];
}
`,
		},
		{
			name:  "all edges",
			edges: EdgesAll,
			want: `digraph ER {
  "1" [label="A"];
  "1" -> "2" [label="ManyToOne"];
  "3" -> "1" [label="OneToOne"];
  "3" -> "2" [label="ManyToMany"];
}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &DotFormatter{Focus: "1", Edges: tt.edges}
			got, err := f.Render(s, idx)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("Render() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDotFormatterQuotes(t *testing.T) {
	s := &schema.Schema{Models: []schema.Model{
		{ObjectName: `say "hi" \o/`, MetaData: meta(`id"1`)},
	}}
	idx, err := schema.BuildIndex(s)
	require.NoError(t, err)

	got, err := NewDotFormatter(nil).Render(s, idx)
	require.NoError(t, err)
	assert.Contains(t, string(got), `  "id\"1" [label="say \"hi\" \\o/"];`)
}

func TestDotFormatterUnresolvedSource(t *testing.T) {
	s, idx := sample(t)
	sub, subIdx, err := schema.Extract(s, idx, "2")
	require.NoError(t, err)

	_, err = NewDotFormatter(nil).Render(sub, subIdx)
	assert.ErrorIs(t, err, schema.ErrNotFound)
}

func TestDotFormatterWriteError(t *testing.T) {
	s, idx := sample(t)
	err := NewDotFormatter(failingWriter{}).Format(s, idx)
	assert.ErrorIs(t, err, errDiskFull)
}

func TestListFormatter(t *testing.T) {
	s, _ := sample(t)

	tests := []struct {
		name     string
		showUUID bool
		want     string
	}{
		{
			name:     "with uuids",
			showUUID: true,
			want:     "[M] 1: A\n[F] 10: f1\n[M] 2: B\n",
		},
		{
			name: "names only",
			want: "[M] A\n[F] f1\n[M] B\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewListFormatter(&buf)
			f.ShowUUID = tt.showUUID
			require.NoError(t, f.Format(s))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestListFormatterWriteError(t *testing.T) {
	s, _ := sample(t)
	assert.ErrorIs(t, NewListFormatter(failingWriter{}).Format(s), errDiskFull)
}

func TestTextFormatter(t *testing.T) {
	s, _ := sample(t)

	tests := []struct {
		name     string
		showMeta bool
		want     string
	}{
		{
			name: "attributes only",
			want: "model name: a\nobject name: A\napp label: shop\ndb table: shop_a\nfields: 1\n",
		},
		{
			name:     "with metadata",
			showMeta: true,
			want: "model name: a\nobject name: A\napp label: shop\ndb table: shop_a\nfields: 1\n" +
				"uuid: 1\nsource file: shop/models.py\nsource line: 42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			f := NewTextFormatter(&buf)
			f.ShowMeta = tt.showMeta
			require.NoError(t, f.Format(&s.Models[0]))
			if diff := cmp.Diff(tt.want, buf.String()); diff != "" {
				t.Errorf("TextFormatter.Format() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarkdownFormatter(t *testing.T) {
	s, _ := sample(t)

	var buf bytes.Buffer
	f := NewMarkdownFormatter(&buf)
	f.ShowMeta = true
	require.NoError(t, f.Format(&s.Models[0]))

	out := buf.String()
	assert.Contains(t, out, "## A\n")
	assert.Contains(t, out, "- **DB table:** shop_a\n")
	assert.Contains(t, out, "### Fields (1)\n")
	assert.Contains(t, out, "- **f1** (10)\n")
	assert.Contains(t, out, "- **Location:** shop/models.py:42\n")

	buf.Reset()
	require.NoError(t, NewMarkdownFormatter(&buf).Format(&s.Models[1]))
	assert.Contains(t, buf.String(), "_none_")
	assert.NotContains(t, buf.String(), "### Source")
}

func TestMultiFileFormatter(t *testing.T) {
	s, idx := threeModels(t)
	dir := filepath.Join(t.TempDir(), "graphs")

	require.NoError(t, NewMultiFileFormatter(dir, EdgesTouchingFocus).Format(s, idx))

	overview, err := os.ReadFile(filepath.Join(dir, overviewFile))
	require.NoError(t, err)
	want := "MODEL OVERVIEW\nEach model has a file: <uuid>.dot\n\n" +
		"A [1.dot] (references: B)\n" +
		"B [2.dot]\n" +
		"C [3.dot] (references: A, B)\n"
	if diff := cmp.Diff(want, string(overview)); diff != "" {
		t.Errorf("overview mismatch (-want +got):\n%s", diff)
	}

	for _, m := range s.Models {
		content, err := os.ReadFile(filepath.Join(dir, ModelFileName(m.UUID())))
		require.NoError(t, err, m.ObjectName)

		expected, err := (&DotFormatter{Focus: m.UUID()}).Render(s, idx)
		require.NoError(t, err)
		assert.Equal(t, string(expected), string(content))
	}
}

func TestModelFileName(t *testing.T) {
	assert.Equal(t, "abc.dot", ModelFileName("abc"))
	assert.Equal(t, "a_b_c.dot", ModelFileName(`a/b\c`))
}
