package formatter

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/modelgraph/internal/schema"
)

// EdgeFilter selects which relations a focused graph keeps
type EdgeFilter int

const (
	// EdgesTouchingFocus keeps relations whose source or target model is the focus
	EdgesTouchingFocus EdgeFilter = iota
	// EdgesAll keeps every relation even when only the focus node is drawn
	EdgesAll
)

var dotEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// DotFormatter renders a schema as a Graphviz digraph
type DotFormatter struct {
	writer io.Writer

	// Focus restricts node output to the model with this UUID when set
	Focus string
	Edges EdgeFilter
}

// NewDotFormatter creates a new DOT formatter
func NewDotFormatter(w io.Writer) *DotFormatter {
	return &DotFormatter{writer: w}
}

// Format writes the graph for s, resolving edge sources through idx
func (f *DotFormatter) Format(s *schema.Schema, idx *schema.Index) error {
	out, err := f.Render(s, idx)
	if err != nil {
		return err
	}
	if _, err := f.writer.Write(out); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	return nil
}

// Render returns the graph text without writing it
func (f *DotFormatter) Render(s *schema.Schema, idx *schema.Index) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("digraph ER {\n")

	for i := range s.Models {
		model := &s.Models[i]
		if f.Focus != "" && model.UUID() != f.Focus {
			continue
		}
		_, _ = fmt.Fprintf(&buf, "  %s [label=%s];\n", quote(model.UUID()), quote(model.ObjectName))
	}

	for _, rel := range s.Relations {
		src, err := idx.ModelFromField(rel.SrcField)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source of relation to %s: %w", rel.TargetModel, err)
		}
		if !f.keepEdge(src, rel.TargetModel) {
			continue
		}
		_, _ = fmt.Fprintf(&buf, "  %s -> %s [label=%s];\n", quote(src), quote(rel.TargetModel), quote(rel.RelationType.String()))
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func (f *DotFormatter) keepEdge(src, dst string) bool {
	if f.Focus == "" || f.Edges == EdgesAll {
		return true
	}
	return src == f.Focus || dst == f.Focus
}

func quote(id string) string {
	return `"` + dotEscaper.Replace(id) + `"`
}
