package input

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jmylchreest/toasty/internal/model"
)

// StdinAdapter reads toast requests line by line from standard input.
//
// Each non-empty line is either a JSON object {"message": "...", "kind": "..."}
// or the form "kind: message". Lines without a recognised kind prefix become
// info toasts. Lines starting with # are comments.
type StdinAdapter struct {
	reader io.Reader
}

// NewStdinAdapter creates a new StdinAdapter reading from os.Stdin.
func NewStdinAdapter() *StdinAdapter {
	return &StdinAdapter{reader: os.Stdin}
}

// NewStdinAdapterWithReader creates a new StdinAdapter with a custom reader.
func NewStdinAdapterWithReader(r io.Reader) *StdinAdapter {
	return &StdinAdapter{reader: r}
}

// Name returns the adapter identifier.
func (a *StdinAdapter) Name() string {
	return "stdin"
}

// Import reads all requests. It stops at the first malformed JSON line.
func (a *StdinAdapter) Import(ctx context.Context) ([]Request, error) {
	var reqs []Request
	err := a.Each(ctx, func(r Request) error {
		reqs = append(reqs, r)
		return nil
	})
	return reqs, err
}

// Each calls fn for every request as soon as its line is read, so a
// producer can stream into the store.
func (a *StdinAdapter) Each(ctx context.Context, fn func(Request) error) error {
	scanner := bufio.NewScanner(a.reader)
	const maxSize = 1024 * 1024 // 1MB per line
	scanner.Buffer(make([]byte, 64*1024), maxSize)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return err
		}

		req, ok, err := ParseLine(scanner.Text())
		if err != nil {
			return &AdapterError{
				Source:  a.Name(),
				Line:    line,
				Message: "failed to parse line",
				Err:     err,
			}
		}
		if !ok {
			continue
		}
		if err := fn(req); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return &AdapterError{
			Source:  a.Name(),
			Message: "failed to read input",
			Err:     err,
		}
	}
	return nil
}

// ErrEmptyMessage is returned for a request with no message text.
var ErrEmptyMessage = errors.New("message is empty")

// ParseLine parses a single input line. ok is false for blank lines and
// comments.
func ParseLine(text string) (req Request, ok bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" || strings.HasPrefix(text, "#") {
		return Request{}, false, nil
	}

	if strings.HasPrefix(text, "{") {
		var raw struct {
			Message string `json:"message"`
			Kind    string `json:"kind"`
		}
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return Request{}, false, err
		}
		req = Request{Message: sanitizeString(raw.Message), Kind: model.KindInfo}
		if raw.Kind != "" {
			k, err := model.ParseKind(raw.Kind)
			if err != nil {
				return Request{}, false, err
			}
			req.Kind = k
		}
	} else {
		req = Request{Message: sanitizeString(text), Kind: model.KindInfo}
		if prefix, rest, found := strings.Cut(text, ":"); found {
			if k, err := model.ParseKind(prefix); err == nil {
				req = Request{Message: sanitizeString(rest), Kind: k}
			}
		}
	}

	if req.Message == "" {
		return Request{}, false, ErrEmptyMessage
	}
	return req, true, nil
}

// sanitizeString removes control characters and trims whitespace.
func sanitizeString(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r < 32 && r != '\n' && r != '\t' {
			result.WriteRune(' ')
		} else {
			result.WriteRune(r)
		}
	}
	return strings.TrimSpace(result.String())
}
