package ical_test

import (
	"daygrid/src-server/ical"
	"strconv"
	"strings"
	"testing"
	"time"
)

const feedFixture = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//Example Corp//Example Calendar//EN
X-WR-CALNAME:Team calendar
X-WR-CALDESC:Shared team events
BEGIN:VEVENT
UID:plain-1
DTSTAMP:20260801T120000Z
DTSTART:20260821T090000Z
DTEND:20260821T100000Z
SUMMARY:Design review
LOCATION:Room 2
ORGANIZER:mailto:lead@example.com
END:VEVENT
BEGIN:VEVENT
UID:recurring-1
DTSTAMP:20260801T120000Z
DTSTART:20260817T090000Z
DTEND:20260817T093000Z
SUMMARY:Standup
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20260819T090000Z
END:VEVENT
BEGIN:VEVENT
UID:recurring-1
DTSTAMP:20260801T120000Z
RECURRENCE-ID:20260818T090000Z
DTSTART:20260818T140000Z
DTEND:20260818T143000Z
SUMMARY:Standup (moved)
END:VEVENT
BEGIN:VEVENT
UID:no-dtstart
SUMMARY:Broken
END:VEVENT
END:VCALENDAR
`

func TestParse(t *testing.T) {
	cal, err := ical.Parse(strings.NewReader(feedFixture))
	if err != nil {
		t.Fatal(err)
	}

	if cal.GetName() != "Team calendar" {
		t.Error("wrong calendar name", cal.GetName())
	}
	if cal.GetProdID() != "-//Example Corp//Example Calendar//EN" {
		t.Error("wrong prodid", cal.GetProdID())
	}
	if cal.GetID() == "" {
		t.Error("calendar id should be generated when the feed has none")
	}

	events := cal.GetEvents()
	if len(events) != 3 {
		t.Fatalf("expected 3 events (broken one skipped), got %d", len(events))
	}

	var plain, recurring, override *ical.Event
	for i := range events {
		ev := &events[i]
		switch {
		case ev.ID == "plain-1":
			plain = ev
		case ev.ID == "recurring-1" && ev.RecurrenceID == 0:
			recurring = ev
		case ev.ID == "recurring-1":
			override = ev
		}
	}
	if plain == nil || recurring == nil || override == nil {
		t.Fatalf("missing expected events: %+v", events)
	}

	if plain.Summary != "Design review" || plain.Location != "Room 2" {
		t.Error("plain event fields wrong", plain.Summary, plain.Location)
	}
	if plain.Organizer != "lead@example.com" {
		t.Error("organizer should drop the mailto prefix", plain.Organizer)
	}
	wantStart := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC).Unix()
	if plain.StartDate != wantStart || plain.EndDate != wantStart+3600 {
		t.Error("plain event dates wrong", plain.StartDate, plain.EndDate)
	}

	if !strings.HasPrefix(recurring.RRule, "DTSTART:20260817T090000Z\nRRULE:") {
		t.Error("rrule should be stored in set form", recurring.RRule)
	}
	wantExDate := strconv.FormatInt(time.Date(2026, 8, 19, 9, 0, 0, 0, time.UTC).Unix(), 10)
	if recurring.ExDate != wantExDate {
		t.Error("exdate should be parsed to a unix csv", recurring.ExDate)
	}

	wantRecID := time.Date(2026, 8, 18, 9, 0, 0, 0, time.UTC).Unix()
	if override.RecurrenceID != wantRecID {
		t.Error("wrong recurrence id", override.RecurrenceID)
	}
	if override.Summary != "Standup (moved)" {
		t.Error("override summary wrong", override.Summary)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := ical.Parse(strings.NewReader("not an ics feed")); err == nil {
		t.Error("expected an error for a non-ICS payload")
	}
}
