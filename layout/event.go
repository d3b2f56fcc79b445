package layout

import "math"

// Event is one scheduled item on a single day, with its start and end
// expressed as fractional hours from that day's midnight. EndHour may pass
// 24 for events running past midnight; the event still renders inside the
// column of its start day.
type Event struct {
	ID         string
	Day        string
	StartHour  float64
	EndHour    float64
	AllDay     bool
	Title      string
	CalendarID string
}

// Duration returns the event length in fractional hours.
func (e Event) Duration() float64 {
	return e.EndHour - e.StartHour
}

// EventLayout is the computed placement for one event. Left and Width are
// percentages of the day column; IndentOffset is the informational pixel
// shift matching the nesting depth.
type EventLayout struct {
	ID           string  `json:"id"`
	Left         float64 `json:"left"`
	Width        float64 `json:"width"`
	ZIndex       int     `json:"zIndex"`
	Level        int     `json:"level"`
	IsPrimary    bool    `json:"isPrimary"`
	IndentOffset int     `json:"indentOffset"`
	Importance   float64 `json:"importance"`
}

// eventsOverlap reports whether the [start, end) intervals of two events on
// the same day intersect.
func eventsOverlap(a, b Event) bool {
	if a.Day != b.Day {
		return false
	}
	return a.StartHour < b.EndHour && b.StartHour < a.EndHour
}

// containsEvent reports whether parent temporally contains child: the
// parent starts at or before the child, the child begins inside the
// parent's span, and the two overlap. Strict interval containment is the
// special case where the child also ends before the parent does.
func containsEvent(parent, child Event) bool {
	return parent.StartHour <= child.StartHour &&
		child.StartHour < parent.EndHour &&
		eventsOverlap(parent, child)
}

// nestingVetoed reports whether two overlapping events start too close
// together to render as parent and child. Such pairs must stay siblings.
func nestingVetoed(a, b Event) bool {
	return eventsOverlap(a, b) &&
		math.Abs(a.StartHour-b.StartHour) < nestedThreshold
}

// shouldRenderParallel reports whether two events belong side by side
// rather than nested: they overlap and either start within the nesting
// veto window of each other, or one of them runs into the tail of an
// extended event.
func shouldRenderParallel(a, b Event) bool {
	if !eventsOverlap(a, b) {
		return false
	}
	if math.Abs(a.StartHour-b.StartHour) < nestedThreshold {
		return true
	}
	return startsInExtendedTail(a, b) || startsInExtendedTail(b, a)
}

// startsInExtendedTail reports whether other starts within the final
// portion of an extended event's span. Callers must have checked overlap.
func startsInExtendedTail(extended, other Event) bool {
	if extended.Duration() < extendedEventMinDuration {
		return false
	}
	tailStart := extended.StartHour + extended.Duration()*(1-extendedEventTailRatio)
	return other.StartHour >= tailStart
}
