package core

import (
	"strings"
	"time"

	"github.com/jmylchreest/toasty/internal/model"
)

// FilterOptions specifies criteria for filtering toasts.
type FilterOptions struct {
	Kinds  []model.Kind  // Any of these kinds (empty = all)
	Search string        // Case-insensitive substring of the message
	Since  time.Duration // Only toasts newer than now-since (0 = all)
	Limit  int           // Newest N toasts (0 = unlimited)
	Now    time.Time     // Reference time for Since (zero = time.Now)
}

// Filter returns the toasts matching opts, keeping snapshot order.
// The result is never nil.
func Filter(snap model.Snapshot, opts FilterOptions) model.Snapshot {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	term := strings.ToLower(opts.Search)

	result := make(model.Snapshot, 0, len(snap))
	for _, t := range snap {
		if len(opts.Kinds) > 0 && !hasKind(opts.Kinds, t.Kind) {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(t.Message), term) {
			continue
		}
		if opts.Since > 0 && t.CreatedAt.Before(now.Add(-opts.Since)) {
			continue
		}
		result = append(result, t)
	}

	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[len(result)-opts.Limit:]
	}
	return result
}

// ParseKinds parses a comma separated kind list such as "error,warning".
func ParseKinds(s string) ([]model.Kind, error) {
	var kinds []model.Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := model.ParseKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}

func hasKind(kinds []model.Kind, k model.Kind) bool {
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
