package utils

import (
	"context"
	"strings"
	"time"
)

// WaitFor blocks for d or until ctx is done, whichever comes first.
func WaitFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// Dedupe returns the non-blank entries of items in their original order with duplicates removed.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

const (
	DefaultWorkers = 4
	MaxWorkers     = 8
)

// BoundedWorkers clamps configured to [1, MaxWorkers] (DefaultWorkers when
// unset) and never exceeds the number of items n.
func BoundedWorkers(configured, n int) int {
	if configured <= 0 {
		configured = DefaultWorkers
	}
	if configured > MaxWorkers {
		configured = MaxWorkers
	}
	if n < configured {
		configured = n
	}
	if configured < 1 {
		configured = 1
	}
	return configured
}
