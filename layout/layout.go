// Package layout computes the 2-D placement of one calendar day's events:
// overlapping events are clustered, linked into containment trees,
// rebalanced, and finally assigned left/width percentages so a renderer
// can draw them as positioned boxes in a day or week grid.
//
// The whole computation is pure and synchronous: it performs no I/O, builds
// its node graph fresh per call and discards it, so results are safe to
// memoize keyed by (day, event fingerprint, view) and different days can be
// computed in parallel.
package layout

import "log/slog"

// View selects the grid the layout is computed for. The week grid draws
// narrower day columns, so nesting indents more aggressively there.
type View string

const (
	ViewDay  View = "day"
	ViewWeek View = "week"
)

// Options tunes a single ComputeDayLayout call.
type Options struct {
	View View
}

// Heuristic thresholds, in fractional hours unless stated. The values are
// tuned, not derived; keep them in sync with the tests when changing them.
const (
	// events starting within this window of a cluster seed form one
	// parallel group
	parallelThreshold = 0.25

	// overlapping events starting within this window of each other must
	// render side by side, never nested; it is also the minimum start gap
	// a group needs before it may nest under an earlier one
	nestedThreshold = 0.5

	// an extended event pushes overlappers starting in the tail of its
	// span side by side instead of nesting them
	extendedEventMinDuration = 1.25
	extendedEventTailRatio   = 0.6

	// subtree rebalancing: trigger threshold and per-group iteration cap
	balanceLoadDelta     = 2
	maxBalanceIterations = 5
)

// ComputeDayLayout positions every well-formed, non-all-day event of a
// single day. The returned map holds exactly one EventLayout per such
// event, keyed by event ID. All-day events and events with a zero or
// negative duration are skipped; the call never fails.
func ComputeDayLayout(events []Event, opts Options) map[string]EventLayout {
	view := opts.View
	if view != ViewWeek {
		view = ViewDay
	}

	timed := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if ev.EndHour <= ev.StartHour {
			slog.Debug("layout: skipping event without positive duration",
				"id", ev.ID, "start", ev.StartHour, "end", ev.EndHour)
			continue
		}
		timed = append(timed, ev)
	}

	layouts := make(map[string]EventLayout, len(timed))
	for _, component := range buildOverlapGroups(timed) {
		if len(component) == 1 {
			ev := component[0]
			layouts[ev.ID] = EventLayout{
				ID:         ev.ID,
				Left:       0,
				Width:      100 - edgeMargin,
				ZIndex:     0,
				Level:      0,
				IsPrimary:  true,
				Importance: importanceOf(ev),
			}
			continue
		}
		t := newTree(buildParallelGroups(component))
		t.buildNestedStructure()
		t.rebalance()
		t.computeGeometry(view, layouts)
	}
	return layouts
}

// importanceOf derives a 0.1–1.0 visual emphasis weight from the event
// duration; four hours or longer saturates it.
func importanceOf(ev Event) float64 {
	imp := ev.Duration() / 4
	if imp < 0.1 {
		return 0.1
	}
	if imp > 1 {
		return 1
	}
	return imp
}
