// Package model defines the core data structures for toasty.
package model

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind is the severity of a toast. The set is closed.
type Kind string

// Toast kinds.
const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindSuccess, KindError, KindInfo, KindWarning}

// KindTitles maps kinds to the heading shown above the message.
var KindTitles = map[Kind]string{
	KindSuccess: "Success",
	KindError:   "Error",
	KindInfo:    "Info",
	KindWarning: "Warning",
}

// Urgency levels of the freedesktop urgency hint.
const (
	UrgencyLow      byte = 0
	UrgencyNormal   byte = 1
	UrgencyCritical byte = 2
)

// ErrInvalidKind is returned for kinds outside the closed set.
var ErrInvalidKind = errors.New("kind must be one of success, error, info, warning")

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := KindTitles[k]
	return ok
}

// Title returns the human-readable heading for the kind.
func (k Kind) Title() string {
	if t, ok := KindTitles[k]; ok {
		return t
	}
	return "Notice"
}

// Urgency maps the kind onto a freedesktop urgency level.
func (k Kind) Urgency() byte {
	switch k {
	case KindError:
		return UrgencyCritical
	case KindWarning:
		return UrgencyNormal
	default:
		return UrgencyLow
	}
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	return string(k)
}

// ParseKind converts user input to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
	return k, nil
}

// ParseKindOrDefault is like ParseKind but falls back to KindInfo.
func ParseKindOrDefault(s string) Kind {
	k, err := ParseKind(s)
	if err != nil {
		return KindInfo
	}
	return k
}

// Toast is a single ephemeral message. Values are never mutated once
// created; the store hands out copies.
type Toast struct {
	ID        string    `json:"id" yaml:"id"`
	Message   string    `json:"message" yaml:"message"`
	Kind      Kind      `json:"kind" yaml:"kind"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// NewID generates a ULID for t using the given entropy source.
// With a ulid.MonotonicEntropy reader, ids generated within the same
// millisecond are strictly increasing.
func NewID(t time.Time, entropy io.Reader) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// Title returns the heading for the toast's kind.
func (t Toast) Title() string {
	return t.Kind.Title()
}

// Age returns how long ago the toast was created relative to now.
func (t Toast) Age(now time.Time) time.Duration {
	if now.Before(t.CreatedAt) {
		return 0
	}
	return now.Sub(t.CreatedAt)
}

// MessageTruncated returns the message truncated to maxLen characters.
// Whitespace runs are collapsed and "..." is appended when truncated.
func (t Toast) MessageTruncated(maxLen int) string {
	if maxLen <= 0 {
		return ""
	}

	msg := strings.Join(strings.Fields(t.Message), " ")

	runes := []rune(msg)
	if len(runes) <= maxLen {
		return msg
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
