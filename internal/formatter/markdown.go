package formatter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tordrt/modelgraph/internal/schema"
)

// MarkdownFormatter formats a single model as markdown
type MarkdownFormatter struct {
	writer io.Writer

	// ShowMeta adds field UUIDs and a source section
	ShowMeta bool
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: w}
}

// Format writes the model report
func (f *MarkdownFormatter) Format(m *schema.Model) error {
	var buf bytes.Buffer

	_, _ = fmt.Fprintf(&buf, "## %s\n\n", m.ObjectName)
	_, _ = fmt.Fprintf(&buf, "- **Model name:** %s\n", m.ModelName)
	_, _ = fmt.Fprintf(&buf, "- **App label:** %s\n", m.AppLabel)
	_, _ = fmt.Fprintf(&buf, "- **DB table:** %s\n", m.DBTable)
	_, _ = fmt.Fprintln(&buf)

	f.formatFields(&buf, m.Fields)

	if f.ShowMeta {
		_, _ = fmt.Fprintln(&buf, "### Source")
		_, _ = fmt.Fprintln(&buf)
		_, _ = fmt.Fprintf(&buf, "- **UUID:** %s\n", m.MetaData.UUID)
		_, _ = fmt.Fprintf(&buf, "- **Location:** %s:%d\n", m.MetaData.Code.SourceFile, m.MetaData.Code.LineNumber)
		_, _ = fmt.Fprintln(&buf)
	}

	if _, err := f.writer.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write model %s: %w", m.ObjectName, err)
	}
	return nil
}

func (f *MarkdownFormatter) formatFields(buf *bytes.Buffer, fields []schema.Field) {
	_, _ = fmt.Fprintf(buf, "### Fields (%d)\n\n", len(fields))
	if len(fields) == 0 {
		_, _ = fmt.Fprintln(buf, "_none_")
		_, _ = fmt.Fprintln(buf)
		return
	}

	for _, field := range fields {
		if f.ShowMeta {
			_, _ = fmt.Fprintf(buf, "- **%s** (%s)\n", field.Name, field.MetaData.UUID)
		} else {
			_, _ = fmt.Fprintf(buf, "- **%s**\n", field.Name)
		}
	}
	_, _ = fmt.Fprintln(buf)
}
