package formatter

import (
	"bytes"
	"fmt"
	"io"

	"github.com/tordrt/modelgraph/internal/schema"
)

// ListFormatter enumerates models and their fields, one per line
type ListFormatter struct {
	writer io.Writer

	// ShowUUID prefixes every line with the entity UUID
	ShowUUID bool
}

// NewListFormatter creates a new list formatter
func NewListFormatter(w io.Writer) *ListFormatter {
	return &ListFormatter{writer: w}
}

// Format writes every model in store order, each followed by its fields
func (f *ListFormatter) Format(s *schema.Schema) error {
	var buf bytes.Buffer

	for i := range s.Models {
		model := &s.Models[i]
		f.line(&buf, "M", model.UUID(), model.ObjectName)

		for _, field := range model.Fields {
			f.line(&buf, "F", field.MetaData.UUID, field.Name)
		}
	}

	if _, err := f.writer.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write listing: %w", err)
	}
	return nil
}

func (f *ListFormatter) line(buf *bytes.Buffer, tag, uuid, name string) {
	if f.ShowUUID {
		_, _ = fmt.Fprintf(buf, "[%s] %s: %s\n", tag, uuid, name)
		return
	}
	_, _ = fmt.Fprintf(buf, "[%s] %s\n", tag, name)
}
