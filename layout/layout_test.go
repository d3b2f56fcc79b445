package layout_test

import (
	"testing"

	"daygrid/layout"
)

const day = "2026-08-21"

func mk(id string, start, end float64) layout.Event {
	return layout.Event{ID: id, Day: day, StartHour: start, EndHour: end, Title: id}
}

func near(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}

func TestComputeDayLayoutBijection(t *testing.T) {
	events := []layout.Event{
		mk("t1", 9, 10),
		mk("t2", 9.5, 11),
		mk("t3", 14, 15),
		{ID: "banner", Day: day, StartHour: 0, EndHour: 24, AllDay: true},
		mk("zero", 12, 12),
		mk("backwards", 13, 12.5),
	}
	layouts := layout.ComputeDayLayout(events, layout.Options{View: layout.ViewDay})
	if len(layouts) != 3 {
		t.Fatalf("expected exactly one layout per timed well-formed event, got %d", len(layouts))
	}
	for _, id := range []string{"t1", "t2", "t3"} {
		got, ok := layouts[id]
		if !ok {
			t.Errorf("missing layout for %q", id)
			continue
		}
		if got.ID != id {
			t.Errorf("layout keyed %q carries ID %q", id, got.ID)
		}
	}
	for _, id := range []string{"banner", "zero", "backwards"} {
		if _, ok := layouts[id]; ok {
			t.Errorf("%q must be excluded from the layout", id)
		}
	}
}

func TestComputeDayLayoutSingletonFullWidth(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{mk("solo", 9, 10)}, layout.Options{View: layout.ViewDay})
	got := layouts["solo"]
	if !near(got.Left, 0) || !near(got.Width, 98) {
		t.Errorf("singleton box = (%v, %v), want (0, 98)", got.Left, got.Width)
	}
	if got.Level != 0 || !got.IsPrimary || got.ZIndex != 0 {
		t.Errorf("singleton level=%d primary=%v zIndex=%d, want 0/true/0", got.Level, got.IsPrimary, got.ZIndex)
	}
}

func TestComputeDayLayoutParallelWave(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("x", 9, 10),
		mk("y", 9+5.0/60, 10.5),
		mk("z", 9+10.0/60, 9+40.0/60),
	}, layout.Options{View: layout.ViewDay})

	x, y, z := layouts["x"], layouts["y"], layouts["z"]
	for id, got := range layouts {
		if !near(got.Width, 32) {
			t.Errorf("%s width = %v, want an even 3-way split of 32", id, got.Width)
		}
		if got.Level != 0 {
			t.Errorf("%s level = %d, want 0", id, got.Level)
		}
	}
	if !near(x.Left, 0) || !near(y.Left, 33) || !near(z.Left, 66) {
		t.Errorf("lefts = %v, %v, %v, want 0, 33, 66 in start order", x.Left, y.Left, z.Left)
	}
	if x.Left+x.Width > y.Left+1e-9 || y.Left+y.Width > z.Left+1e-9 {
		t.Error("parallel columns overlap")
	}
}

func TestComputeDayLayoutNestsContainedEvent(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("a", 9, 11),
		mk("b", 10, 10.5),
	}, layout.Options{View: layout.ViewDay})

	a, b := layouts["a"], layouts["b"]
	if a.Level != 0 || !a.IsPrimary || !near(a.Left, 0) || !near(a.Width, 98) {
		t.Errorf("container = %+v, want the full usable width at level 0", a)
	}
	if b.Level != 1 || b.ZIndex != 1 || b.IsPrimary {
		t.Errorf("nested event level=%d zIndex=%d primary=%v, want 1/1/false", b.Level, b.ZIndex, b.IsPrimary)
	}
	if !near(b.Left, 4) || !near(b.Width, 94) {
		t.Errorf("nested box = (%v, %v), want (4, 94)", b.Left, b.Width)
	}
	if b.IndentOffset != 8 {
		t.Errorf("nested indent = %dpx, want 8", b.IndentOffset)
	}
}

func TestComputeDayLayoutVetoForcesSiblings(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("a", 9, 10),
		mk("b", 9+20.0/60, 10),
	}, layout.Options{View: layout.ViewDay})

	a, b := layouts["a"], layouts["b"]
	if a.Level != 0 || b.Level != 0 {
		t.Fatalf("veto pair levels = %d, %d, want both 0", a.Level, b.Level)
	}
	if !near(a.Left, 0) || !near(a.Width, 48.5) {
		t.Errorf("a box = (%v, %v), want (0, 48.5)", a.Left, a.Width)
	}
	if !near(b.Left, 49.5) || !near(b.Width, 48.5) {
		t.Errorf("b box = (%v, %v), want (49.5, 48.5)", b.Left, b.Width)
	}
}

func TestComputeDayLayoutDeepNesting(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("r", 9, 13),
		mk("c", 10, 12),
		mk("d", 11, 11.8),
	}, layout.Options{View: layout.ViewDay})

	r, c, d := layouts["r"], layouts["c"], layouts["d"]
	if r.Level != 0 || c.Level != 1 || d.Level != 2 {
		t.Fatalf("levels = %d, %d, %d, want 0, 1, 2", r.Level, c.Level, d.Level)
	}
	if !(r.Left < c.Left && c.Left < d.Left) {
		t.Errorf("nesting must indent every level: lefts %v, %v, %v", r.Left, c.Left, d.Left)
	}
	if d.Left+d.Width > c.Left+c.Width+1e-9 {
		t.Errorf("level 2 escapes its parent slice: %v > %v", d.Left+d.Width, c.Left+c.Width)
	}
}

func TestComputeDayLayoutComponentsGetFullWidth(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("a", 9, 10),
		mk("b", 9.4, 10),
		mk("c", 14, 15),
		mk("d", 14.4, 15),
	}, layout.Options{View: layout.ViewDay})

	if !near(layouts["a"].Left, 0) || !near(layouts["c"].Left, 0) {
		t.Errorf("each disjoint cluster starts at the left edge, got %v and %v",
			layouts["a"].Left, layouts["c"].Left)
	}
	if !near(layouts["b"].Left, layouts["d"].Left) {
		t.Errorf("equal-shaped clusters must lay out identically, got %v vs %v",
			layouts["b"].Left, layouts["d"].Left)
	}
}

func TestComputeDayLayoutSeparatesDays(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("here", 9, 10),
		{ID: "elsewhere", Day: "2026-08-22", StartHour: 9, EndHour: 10},
	}, layout.Options{View: layout.ViewDay})

	if !near(layouts["here"].Width, 98) || !near(layouts["elsewhere"].Width, 98) {
		t.Errorf("same hours on different days must not interact, widths %v and %v",
			layouts["here"].Width, layouts["elsewhere"].Width)
	}
}

func TestComputeDayLayoutWeekView(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("a", 9, 11),
		mk("b", 10, 10.5),
	}, layout.Options{View: layout.ViewWeek})

	b := layouts["b"]
	if !near(b.Left, 6.5) || !near(b.Width, 91.5) {
		t.Errorf("week nested box = (%v, %v), want (6.5, 91.5)", b.Left, b.Width)
	}
	if b.IndentOffset != 12 {
		t.Errorf("week indent = %dpx, want 12", b.IndentOffset)
	}
}

func TestComputeDayLayoutDefaultsToDayView(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("a", 9, 11),
		mk("b", 10, 10.5),
	}, layout.Options{})

	if got := layouts["b"]; !near(got.Left, 4) {
		t.Errorf("zero-value options must fall back to the day view, got left %v", got.Left)
	}
}

func TestComputeDayLayoutEmptyInput(t *testing.T) {
	layouts := layout.ComputeDayLayout(nil, layout.Options{View: layout.ViewDay})
	if len(layouts) != 0 {
		t.Errorf("no events, no layouts; got %d", len(layouts))
	}
}

func TestComputeDayLayoutImportance(t *testing.T) {
	layouts := layout.ComputeDayLayout([]layout.Event{
		mk("blip", 9, 9.25),
		mk("meeting", 10, 12),
		mk("offsite", 13, 19),
	}, layout.Options{View: layout.ViewDay})

	if got := layouts["blip"].Importance; !near(got, 0.1) {
		t.Errorf("short event importance = %v, want the 0.1 floor", got)
	}
	if got := layouts["meeting"].Importance; !near(got, 0.5) {
		t.Errorf("2h importance = %v, want 0.5", got)
	}
	if got := layouts["offsite"].Importance; !near(got, 1) {
		t.Errorf("6h importance = %v, want the 1.0 cap", got)
	}
}
