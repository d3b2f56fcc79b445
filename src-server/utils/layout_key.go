package utils

import (
	"crypto/sha256"
	"daygrid/layout"
	"fmt"
	"sort"
	"strings"
)

// Cache key for one computed day layout. The fingerprint covers every
// field the layout engine reads, so any event edit produces a fresh key
// and the stale entry just ages out of the LRU.
func LayoutCacheKey(day string, view layout.View, events []layout.Event) string {
	lines := make([]string, 0, len(events))
	for _, ev := range events {
		lines = append(lines, fmt.Sprintf("%s|%s|%.4f|%.4f|%t",
			ev.ID, ev.Day, ev.StartHour, ev.EndHour, ev.AllDay))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return fmt.Sprintf("%s|%s|%x", day, view, sum[:8])
}
