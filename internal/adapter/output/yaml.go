package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/toasty/internal/model"
)

// YAMLFormatter formats toasts as a YAML sequence.
type YAMLFormatter struct {
	opts FormatterOptions
}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter(opts FormatterOptions) *YAMLFormatter {
	return &YAMLFormatter{opts: opts}
}

// Format writes toasts as YAML.
func (f *YAMLFormatter) Format(w io.Writer, toasts model.Snapshot) error {
	if toasts == nil {
		toasts = model.Snapshot{}
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode([]model.Toast(toasts)); err != nil {
		return err
	}
	return encoder.Close()
}
