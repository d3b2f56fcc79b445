package layout

import "testing"

const testDay = "2026-08-21"

func tev(id string, start, end float64) Event {
	return Event{ID: id, Day: testDay, StartHour: start, EndHour: end, Title: id}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestBuildOverlapGroupsChains(t *testing.T) {
	events := []Event{
		tev("a", 9, 10),
		tev("d", 14, 15),
		tev("b", 9.5, 11),
		tev("c", 10.5, 12),
	}
	components := buildOverlapGroups(events)
	if len(components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(components))
	}
	if len(components[0]) != 3 {
		t.Fatalf("expected the morning chain to hold 3 events, got %d", len(components[0]))
	}
	ids := map[string]bool{}
	for _, ev := range components[0] {
		ids[ev.ID] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !ids[want] {
			t.Errorf("expected %q in the first component", want)
		}
	}
	if len(components[1]) != 1 || components[1][0].ID != "d" {
		t.Errorf("expected d alone in the second component, got %+v", components[1])
	}
}

func TestBuildOverlapGroupsTouchingEventsStaySeparate(t *testing.T) {
	components := buildOverlapGroups([]Event{tev("a", 9, 10), tev("b", 10, 11)})
	if len(components) != 2 {
		t.Fatalf("back-to-back events must not count as overlapping, got %d components", len(components))
	}
}

func TestBuildOverlapGroupsDifferentDays(t *testing.T) {
	events := []Event{
		tev("a", 9, 10),
		{ID: "b", Day: "2026-08-22", StartHour: 9, EndHour: 10, Title: "b"},
	}
	components := buildOverlapGroups(events)
	if len(components) != 2 {
		t.Fatalf("events on different days must never overlap, got %d components", len(components))
	}
}

func TestBuildOverlapGroupsOrderedByEarliestStart(t *testing.T) {
	events := []Event{
		tev("late", 14, 15),
		tev("early", 9, 10),
	}
	components := buildOverlapGroups(events)
	if len(components) != 2 {
		t.Fatalf("expected 2 components, got %d", len(components))
	}
	if components[0][0].ID != "early" || components[1][0].ID != "late" {
		t.Errorf("components out of order: %q before %q", components[0][0].ID, components[1][0].ID)
	}
}
