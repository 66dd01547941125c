package formatter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tordrt/modelgraph/internal/schema"
)

// TextFormatter formats a single model as key/value lines
type TextFormatter struct {
	writer io.Writer

	// ShowMeta appends uuid and source location
	ShowMeta bool
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the model report
func (f *TextFormatter) Format(m *schema.Model) error {
	var buf bytes.Buffer

	_, _ = fmt.Fprintf(&buf, "model name: %s\n", m.ModelName)
	_, _ = fmt.Fprintf(&buf, "object name: %s\n", m.ObjectName)
	_, _ = fmt.Fprintf(&buf, "app label: %s\n", m.AppLabel)
	_, _ = fmt.Fprintf(&buf, "db table: %s\n", m.DBTable)
	_, _ = fmt.Fprintf(&buf, "fields: %d\n", len(m.Fields))

	if f.ShowMeta {
		formatMetaData(&buf, m.MetaData)
	}

	if _, err := f.writer.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write model %s: %w", m.ObjectName, err)
	}
	return nil
}

func formatMetaData(buf *bytes.Buffer, md schema.MetaData) {
	_, _ = fmt.Fprintf(buf, "uuid: %s\n", md.UUID)
	_, _ = fmt.Fprintf(buf, "source file: %s\n", md.Code.SourceFile)
	_, _ = fmt.Fprintf(buf, "source line: %d\n", md.Code.LineNumber)
}
