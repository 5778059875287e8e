// Package input provides input adapters that turn text into toast requests.
package input

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmylchreest/toasty/internal/model"
)

// Request is a toast waiting to be created.
type Request struct {
	Message string     `json:"message"`
	Kind    model.Kind `json:"kind"`
}

// InputAdapter reads toast requests from a source.
type InputAdapter interface {
	// Name returns the adapter identifier (e.g., "stdin", "file").
	Name() string

	// Import reads every request from the source.
	Import(ctx context.Context) ([]Request, error)
}

// NewAdapter creates an InputAdapter for the specified source.
// "-" or "stdin" reads standard input; anything else is a file path.
func NewAdapter(source string) (InputAdapter, error) {
	switch source {
	case "", "-", "stdin":
		return NewStdinAdapter(), nil
	}

	f, err := os.Open(source)
	if err != nil {
		return nil, &AdapterError{
			Source:  source,
			Message: "failed to open input",
			Err:     err,
		}
	}
	return &fileAdapter{StdinAdapter: NewStdinAdapterWithReader(f), file: f}, nil
}

type fileAdapter struct {
	*StdinAdapter
	file *os.File
}

func (a *fileAdapter) Name() string {
	return "file"
}

func (a *fileAdapter) Import(ctx context.Context) ([]Request, error) {
	defer a.file.Close()
	reqs, err := a.StdinAdapter.Import(ctx)
	if ae, ok := err.(*AdapterError); ok {
		ae.Source = a.file.Name()
	}
	return reqs, err
}

// AdapterError represents an adapter-related error.
type AdapterError struct {
	Source  string
	Line    int // 1-based input line, 0 if not line specific
	Message string
	Err     error
}

func (e *AdapterError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&sb, ":%d", e.Line)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
