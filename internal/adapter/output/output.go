// Package output provides output formatters for toast snapshots.
package output

import (
	"fmt"
	"io"
	"time"

	"github.com/jmylchreest/toasty/internal/model"
)

// Formatter formats toasts for output.
type Formatter interface {
	// Format writes formatted toasts to the writer.
	Format(w io.Writer, toasts model.Snapshot) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatJSON  FormatType = "json"
	FormatYAML  FormatType = "yaml"
	FormatPlain FormatType = "plain"
	FormatIDs   FormatType = "ids"
)

// FormatTypes lists the supported formats.
var FormatTypes = []FormatType{FormatPlain, FormatJSON, FormatYAML, FormatIDs}

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (FormatType, error) {
	for _, f := range FormatTypes {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q (want one of %v)", s, FormatTypes)
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) Formatter {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(opts)
	case FormatYAML:
		return NewYAMLFormatter(opts)
	case FormatIDs:
		return NewIDsFormatter()
	case FormatPlain:
		fallthrough
	default:
		return NewPlainFormatter(opts)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template      string           // Custom template for plain format
	ShowIndex     bool             // Show 1-based index prefix
	ShowTime      bool             // Show relative age
	MessageMaxLen int              // Maximum message length (0 = unlimited)
	Now           func() time.Time // Reference time for ages (nil = time.Now)
}

// DefaultFormatterOptions returns sensible defaults for plain output.
func DefaultFormatterOptions() FormatterOptions {
	return FormatterOptions{
		ShowIndex:     true,
		ShowTime:      true,
		MessageMaxLen: 80,
	}
}

func (o FormatterOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
