// Package core provides lookup and filtering over toast snapshots.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jmylchreest/toasty/internal/model"
)

var (
	// ErrNotFound is returned when a reference matches no toast.
	ErrNotFound = errors.New("no matching toast")
	// ErrAmbiguous is returned when an id prefix matches several toasts.
	ErrAmbiguous = errors.New("ambiguous toast id prefix")
)

// LookupByID finds a toast by its full id.
func LookupByID(snap model.Snapshot, id string) (model.Toast, bool) {
	if i := snap.Index(id); i >= 0 {
		return snap[i], true
	}
	return model.Toast{}, false
}

// LookupByIndex finds a toast by its 1-based position, oldest first.
func LookupByIndex(snap model.Snapshot, index int) (model.Toast, bool) {
	idx := index - 1
	if idx < 0 || idx >= len(snap) {
		return model.Toast{}, false
	}
	return snap[idx], true
}

// Resolve finds the toast a user refers to: a 1-based index, a full id,
// or a unique case-insensitive id prefix.
func Resolve(snap model.Snapshot, ref string) (model.Toast, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Toast{}, ErrNotFound
	}

	// ULIDs are 26 characters, so a short number is always an index.
	if n, err := strconv.Atoi(ref); err == nil && len(ref) < 26 {
		if t, ok := LookupByIndex(snap, n); ok {
			return t, nil
		}
		return model.Toast{}, fmt.Errorf("%w: index %d of %d", ErrNotFound, n, len(snap))
	}

	if t, ok := LookupByID(snap, ref); ok {
		return t, nil
	}

	prefix := strings.ToUpper(ref)
	var matches []model.Toast
	for _, t := range snap {
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Toast{}, fmt.Errorf("%w: %q", ErrNotFound, ref)
	case 1:
		return matches[0], nil
	default:
		return model.Toast{}, fmt.Errorf("%w: %q matches %d toasts", ErrAmbiguous, ref, len(matches))
	}
}
