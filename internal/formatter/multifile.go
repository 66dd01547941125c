package formatter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/modelgraph/internal/schema"
)

const overviewFile = "_overview.txt"

// MultiFileFormatter writes one focused graph per model into a directory
type MultiFileFormatter struct {
	OutputDir string
	Edges     EdgeFilter
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string, edges EdgeFilter) *MultiFileFormatter {
	return &MultiFileFormatter{
		OutputDir: outputDir,
		Edges:     edges,
	}
}

// Format writes the overview and every per-model graph
func (f *MultiFileFormatter) Format(s *schema.Schema, idx *schema.Index) error {
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := f.writeOverview(s, idx); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	for i := range s.Models {
		model := &s.Models[i]
		if err := f.writeModelFile(model, s, idx); err != nil {
			return fmt.Errorf("failed to write graph for %s: %w", model.ObjectName, err)
		}
	}

	return nil
}

// ModelFileName returns the file a model's graph is written to
func ModelFileName(uuid string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(uuid) + ".dot"
}

func (f *MultiFileFormatter) writeOverview(s *schema.Schema, idx *schema.Index) error {
	refs, err := outgoingReferences(s, idx)
	if err != nil {
		return err
	}

	sorted := make([]*schema.Model, 0, len(s.Models))
	for i := range s.Models {
		sorted = append(sorted, &s.Models[i])
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ObjectName < sorted[j].ObjectName
	})

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "MODEL OVERVIEW\n")
	_, _ = fmt.Fprintf(&buf, "Each model has a file: <uuid>.dot\n\n")

	for _, model := range sorted {
		_, _ = fmt.Fprintf(&buf, "%s [%s]", model.ObjectName, ModelFileName(model.UUID()))
		if targets := refs[model.UUID()]; len(targets) > 0 {
			_, _ = fmt.Fprintf(&buf, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintf(&buf, "\n")
	}

	return os.WriteFile(filepath.Join(f.OutputDir, overviewFile), buf.Bytes(), 0644)
}

func (f *MultiFileFormatter) writeModelFile(model *schema.Model, s *schema.Schema, idx *schema.Index) error {
	dot := &DotFormatter{Focus: model.UUID(), Edges: f.Edges}
	out, err := dot.Render(s, idx)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.OutputDir, ModelFileName(model.UUID())), out, 0644)
}

// outgoingReferences maps each model UUID to the object names it points at
func outgoingReferences(s *schema.Schema, idx *schema.Index) (map[string][]string, error) {
	refs := make(map[string][]string)
	for _, rel := range s.Relations {
		src, err := idx.ModelFromField(rel.SrcField)
		if err != nil {
			return nil, err
		}
		target, err := idx.Model(rel.TargetModel)
		if err != nil {
			return nil, err
		}
		refs[src] = append(refs[src], target.ObjectName)
	}
	return refs, nil
}
