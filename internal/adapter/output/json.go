package output

import (
	"encoding/json"
	"io"

	"github.com/jmylchreest/toasty/internal/model"
)

// JSONFormatter formats toasts as JSON.
type JSONFormatter struct {
	opts FormatterOptions
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(opts FormatterOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Format writes toasts as a JSON array. An empty snapshot is written as [].
func (f *JSONFormatter) Format(w io.Writer, toasts model.Snapshot) error {
	if toasts == nil {
		toasts = model.Snapshot{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toasts)
}

// FormatSingle writes a single toast as JSON.
func (f *JSONFormatter) FormatSingle(w io.Writer, t *model.Toast) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(t)
}
