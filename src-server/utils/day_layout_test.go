package utils

import (
	"context"
	"database/sql"
	"daygrid/layout"
	"daygrid/src-server/model"
	"testing"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestAppState(t *testing.T) *AppState {
	t.Helper()

	rawDB, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	bunDB := bun.NewDB(rawDB, sqlitedialect.New())
	if err := model.CreateSchema(bunDB); err != nil {
		t.Fatal(err)
	}

	cache, err := lru.New[string, []layout.EventLayout](16)
	if err != nil {
		t.Fatal(err)
	}

	as := &AppState{
		Config: &Config{
			location:        time.UTC,
			layoutCacheSize: 16,
		},
		RawDB:       rawDB,
		BunDB:       bunDB,
		LayoutCache: cache,
		MetricChans: NewMetric(),
	}

	// nobody collects metrics in tests, drain so sends don't block
	go func() {
		for {
			select {
			case <-as.MetricChans.DatabaseRead:
			case <-as.MetricChans.DatabaseWrite:
			case <-as.MetricChans.LayoutCompute:
			case <-as.MetricChans.HttpRequest:
			}
		}
	}()

	return as
}

func TestDayLayout(t *testing.T) {
	as := newTestAppState(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)

	calendarModel := model.Calendar{
		ID:   uuid.NewString(),
		Name: "Personal",
	}
	if err := calendarModel.Upsert(ctx, as.BunDB); err != nil {
		t.Fatal(err)
	}
	eventOne := model.MasterEvent{
		ID:         uuid.NewString(),
		CalendarID: calendarModel.ID,
		Summary:    "Design review",
		StartDate:  day.Add(9 * time.Hour).Unix(),
		EndDate:    day.Add(11 * time.Hour).Unix(),
		CreatedAt:  time.Now().Unix(),
	}
	if err := eventOne.Upsert(ctx, as.BunDB); err != nil {
		t.Fatal(err)
	}
	eventTwo := model.MasterEvent{
		ID:         uuid.NewString(),
		CalendarID: calendarModel.ID,
		Summary:    "Standup",
		StartDate:  day.Add(9*time.Hour + 30*time.Minute).Unix(),
		EndDate:    day.Add(10*time.Hour + 30*time.Minute).Unix(),
		CreatedAt:  time.Now().Unix(),
	}
	if err := eventTwo.Upsert(ctx, as.BunDB); err != nil {
		t.Fatal(err)
	}

	// case: first call computes
	layouts, cached, err := as.DayLayout(ctx, day, layout.ViewDay)
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("first call shouldn't hit the cache")
	}
	if len(layouts) != 2 {
		t.Errorf("expected 2 layouts, got %d", len(layouts))
	}
	if _, ok := layouts[eventOne.ID]; !ok {
		t.Error("expected a layout for the first event")
	}

	// case: same day and view hits the cache
	layouts, cached, err = as.DayLayout(ctx, day, layout.ViewDay)
	if err != nil {
		t.Fatal(err)
	}
	if !cached {
		t.Error("second call should hit the cache")
	}
	if len(layouts) != 2 {
		t.Errorf("expected 2 cached layouts, got %d", len(layouts))
	}

	// case: the week view is a separate cache entry
	if _, cached, err = as.DayLayout(ctx, day, layout.ViewWeek); err != nil {
		t.Fatal(err)
	} else if cached {
		t.Error("week view shouldn't reuse the day view entry")
	}

	// case: editing an event changes the fingerprint
	eventTwo.EndDate = day.Add(12 * time.Hour).Unix()
	eventTwo.UpdatedAt = time.Now().Unix()
	if err := eventTwo.Upsert(ctx, as.BunDB); err != nil {
		t.Fatal(err)
	}
	if _, cached, err = as.DayLayout(ctx, day, layout.ViewDay); err != nil {
		t.Fatal(err)
	} else if cached {
		t.Error("edited day should recompute")
	}
}
