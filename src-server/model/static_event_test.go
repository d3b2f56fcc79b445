package model_test

import (
	"context"
	"database/sql"
	"daygrid/src-server/model"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	bundb := bun.NewDB(db, sqlitedialect.New())

	for _, m := range []interface{}{
		(*model.Calendar)(nil),
		(*model.MasterEvent)(nil),
		(*model.ChildEvent)(nil),
		(*model.RRule)(nil),
	} {
		if _, err := bundb.NewCreateTable().Model(m).IfNotExists().Exec(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	return bundb
}

func TestGetStaticEventInRange(t *testing.T) {
	bundb := newTestDB(t)
	ctx := context.Background()

	calendarModel := model.Calendar{
		ID:   uuid.NewString(),
		Name: "calendar name test",
	}
	if err := calendarModel.Upsert(ctx, bundb); err != nil {
		t.Error(err)
	}

	day1 := time.Date(2026, 8, 17, 9, 0, 0, 0, time.UTC).Unix()
	day2 := time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC).Unix()
	day3 := time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC).Unix()

	// plain event on day 1
	plainModel := model.MasterEvent{
		ID:         uuid.NewString(),
		CalendarID: calendarModel.ID,
		Summary:    "dentist",
		StartDate:  time.Date(2026, 8, 17, 10, 0, 0, 0, time.UTC).Unix(),
		EndDate:    time.Date(2026, 8, 17, 11, 0, 0, 0, time.UTC).Unix(),
		CreatedAt:  time.Now().Unix(),
	}
	if err := plainModel.Upsert(ctx, bundb); err != nil {
		t.Error(err)
	}

	// daily standup for 3 days, day 2 excluded, day 3 overridden
	recurringModel := model.MasterEvent{
		ID:         uuid.NewString(),
		CalendarID: calendarModel.ID,
		Summary:    "standup",
		StartDate:  day1,
		EndDate:    day1 + 1800,
		CreatedAt:  time.Now().Unix(),
		RRule:      "DTSTART:20260817T090000Z\nRRULE:FREQ=DAILY;COUNT=3",
		ExDate:     fmt.Sprintf("%d", day2),
	}
	if err := recurringModel.Upsert(ctx, bundb); err != nil {
		t.Error(err)
	}
	childModel := model.ChildEvent{
		ID:           recurringModel.ID,
		RecurrenceID: day3,
		Summary:      "standup (moved)",
		StartDate:    time.Date(2026, 8, 19, 14, 0, 0, 0, time.UTC).Unix(),
		EndDate:      time.Date(2026, 8, 19, 15, 0, 0, 0, time.UTC).Unix(),
		CreatedAt:    time.Now().Unix(),
	}
	if err := childModel.Upsert(ctx, bundb); err != nil {
		t.Error(err)
	}

	rangeStart := time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC).Unix()
	rangeEnd := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC).Unix()
	staticEvents, err := model.GetStaticEventInRange(ctx, bundb, rangeStart, rangeEnd)
	if err != nil {
		t.Fatal(err)
	}

	// case: the flattened set is exactly standup@day1, dentist, override
	if len(*staticEvents) != 3 {
		t.Fatalf("expected 3 static events, got %d: %+v", len(*staticEvents), *staticEvents)
	}
	func() {
		got := (*staticEvents)[0]
		if got.ID != fmt.Sprintf("%s@%d", recurringModel.ID, day1) {
			t.Error("first event should be the day 1 standup instance, got", got.ID)
		}
		if got.MasterID != recurringModel.ID {
			t.Error("clone should keep the master id, got", got.MasterID)
		}
		if got.EndDate-got.StartDate != 1800 {
			t.Error("clone should keep the master duration")
		}
	}()
	func() {
		got := (*staticEvents)[1]
		if got.ID != plainModel.ID || got.MasterID != plainModel.ID {
			t.Error("plain events keep their id, got", got.ID, got.MasterID)
		}
		if got.CalendarID != calendarModel.ID {
			t.Error("calendar id should be carried, got", got.CalendarID)
		}
	}()
	func() {
		got := (*staticEvents)[2]
		if got.Title != "standup (moved)" {
			t.Error("override should shadow the day 3 instance, got", got.Title)
		}
		if got.StartDate != childModel.StartDate {
			t.Error("override should use its own start date")
		}
	}()

	// case: excluded and overridden instances never appear
	for _, ev := range *staticEvents {
		if ev.StartDate == day2 {
			t.Error("day 2 is exdated, should not appear")
		}
		if ev.StartDate == day3 {
			t.Error("day 3 is overridden, the original instance should not appear")
		}
	}

	// case: a recurring master created before the range still contributes
	func() {
		laterStart := time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC).Unix()
		laterEnd := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC).Unix()
		events, err := model.GetStaticEventInRange(ctx, bundb, laterStart, laterEnd)
		if err != nil {
			t.Fatal(err)
		}
		if len(*events) != 1 || (*events)[0].Title != "standup (moved)" {
			t.Errorf("expected only the override in the later range, got %+v", *events)
		}
	}()

	// case: deleting the master removes overrides and parsed dates
	func() {
		if _, err := bundb.NewDelete().
			Model((*model.MasterEvent)(nil)).
			Where("id = ?", recurringModel.ID).
			Exec(context.WithValue(ctx, model.MasterEventIDCtxKey, recurringModel.ID)); err != nil {
			t.Error(err)
		}
		childCount, err := bundb.NewSelect().
			Model((*model.ChildEvent)(nil)).
			Where("id = ?", recurringModel.ID).
			Count(ctx)
		if err != nil {
			t.Error(err)
		}
		if childCount != 0 {
			t.Error("child events should be gone after master delete", childCount)
		}
		rruleCount, err := bundb.NewSelect().
			Model((*model.RRule)(nil)).
			Where("event_id = ?", recurringModel.ID).
			Count(ctx)
		if err != nil {
			t.Error(err)
		}
		if rruleCount != 0 {
			t.Error("parsed rrule dates should be gone after master delete", rruleCount)
		}
	}()
}

func TestStaticEventLayoutEvent(t *testing.T) {
	loc := time.UTC

	// case: clock hours become fractional hours
	func() {
		ev := model.StaticEvent{
			ID:        "a",
			StartDate: time.Date(2026, 8, 21, 9, 30, 0, 0, loc).Unix(),
			EndDate:   time.Date(2026, 8, 21, 11, 15, 0, 0, loc).Unix(),
		}
		got := ev.LayoutEvent(loc)
		if got.Day != "2026-08-21" {
			t.Error("wrong day", got.Day)
		}
		if got.StartHour != 9.5 || got.EndHour != 11.25 {
			t.Error("wrong hours", got.StartHour, got.EndHour)
		}
	}()

	// case: events running past midnight are clamped to their starting day
	func() {
		ev := model.StaticEvent{
			ID:        "b",
			StartDate: time.Date(2026, 8, 21, 22, 0, 0, 0, loc).Unix(),
			EndDate:   time.Date(2026, 8, 22, 1, 0, 0, 0, loc).Unix(),
		}
		got := ev.LayoutEvent(loc)
		if got.Day != "2026-08-21" || got.EndHour != 24 {
			t.Error("cross-midnight event should clamp to 24h", got.Day, got.EndHour)
		}
	}()

	// case: midnight starts are flagged whole-day, others aren't
	func() {
		ev := model.StaticEvent{
			ID:        "c",
			StartDate: time.Date(2026, 8, 21, 0, 0, 0, 0, loc).Unix(),
			EndDate:   time.Date(2026, 8, 22, 0, 0, 0, 0, loc).Unix(),
		}
		if got := ev.LayoutEvent(loc); !got.AllDay {
			t.Error("midnight start should flag the event whole-day")
		}
		ev.StartDate = time.Date(2026, 8, 21, 0, 30, 0, 0, loc).Unix()
		if got := ev.LayoutEvent(loc); got.AllDay {
			t.Error("half past midnight is not whole-day")
		}
	}()
}
