// Package ical fetches and parses iCalendar feeds into the storage form
// used by the subscription scheduler: master events carry their raw rrule
// set plus rdates/exdates as unix CSVs, overrides carry a recurrence id.
package ical

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xyedo/rrule"
)

// Event is one parsed VEVENT. A non-zero RecurrenceID marks it as an
// override of a recurring event with the same ID.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	URL         string
	Organizer   string

	StartDate int64
	EndDate   int64

	CreatedAt int64
	UpdatedAt int64
	Sequence  int

	RRule  string
	RDate  string
	ExDate string

	RecurrenceID int64
}

type Calendar struct {
	id          string
	prodID      string
	name        string
	description string
	events      []Event
}

func (c *Calendar) GetID() string          { return c.id }
func (c *Calendar) GetProdID() string      { return c.prodID }
func (c *Calendar) GetName() string        { return c.name }
func (c *Calendar) GetDescription() string { return c.description }
func (c *Calendar) GetEvents() []Event     { return c.events }

// FromURL fetches an ICS feed and parses it.
func FromURL(ctx context.Context, url string) (*Calendar, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("FromURL: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("FromURL: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("FromURL: bad status code: %d", resp.StatusCode)
	}

	cal, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("FromURL: %w", err)
	}
	return cal, nil
}

// Parse reads one VCALENDAR. Events it can't make sense of are logged and
// skipped so a single malformed VEVENT doesn't sink the whole feed.
func Parse(r io.Reader) (*Calendar, error) {
	icsCal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("Parse: %w", err)
	}

	cal := &Calendar{}
	for _, prop := range icsCal.CalendarProperties {
		switch prop.IANAToken {
		case "PRODID":
			cal.prodID = prop.Value
		case "X-WR-CALNAME":
			cal.name = prop.Value
		case "X-WR-CALDESC":
			cal.description = prop.Value
		case "X-WR-RELCALID":
			cal.id = prop.Value
		}
	}
	if cal.id == "" {
		cal.id = uuid.NewString()
	}
	if cal.name == "" {
		cal.name = "Untitled"
	}

	for _, ve := range icsCal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			slog.Warn("ical: skipping event", "error", err)
			continue
		}
		cal.events = append(cal.events, ev)
	}

	return cal, nil
}

func parseVEvent(ve *ics.VEvent) (Event, error) {
	var out Event

	uidProp := ve.GetProperty(ics.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, fmt.Errorf("parseVEvent: missing UID")
	}
	out.ID = uidProp.Value

	if p := ve.GetProperty(ics.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if out.Summary == "" {
		out.Summary = "Untitled"
	}
	if p := ve.GetProperty(ics.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if p := ve.GetProperty("URL"); p != nil {
		out.URL = p.Value
	}
	if p := ve.GetProperty("ORGANIZER"); p != nil {
		out.Organizer = strings.TrimPrefix(p.Value, "mailto:")
	}
	if p := ve.GetProperty(ics.ComponentPropertySequence); p != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(p.Value)); err == nil {
			out.Sequence = n
		}
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("parseVEvent: missing or invalid DTSTART: %w", err)
	}
	out.StartDate = start.Unix()
	end, err := ve.GetEndAt()
	if err != nil || !end.After(start) {
		// no DTEND (or a broken one); an hour is the least surprising span
		end = start.Add(time.Hour)
	}
	out.EndDate = end.Unix()

	out.CreatedAt = func() int64 {
		for _, token := range []ics.ComponentProperty{"CREATED", "DTSTAMP"} {
			if p := ve.GetProperty(token); p != nil {
				if t, err := parseICSTime(p.Value); err == nil {
					return t.Unix()
				}
			}
		}
		return start.Unix()
	}()
	if p := ve.GetProperty("LAST-MODIFIED"); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			out.UpdatedAt = t.Unix()
		}
	}

	// recurrence: keep the raw rule in set-string form so storage can
	// re-parse it without the feed context
	if p := ve.GetProperty(ics.ComponentPropertyRrule); p != nil && p.Value != "" {
		set := fmt.Sprintf("DTSTART:%s\nRRULE:%s", start.UTC().Format(icsUTCLayout), p.Value)
		if _, err := rrule.StrToRRuleSet(set); err != nil {
			slog.Warn("ical: dropping unparsable rrule", "uid", out.ID, "rrule", p.Value, "error", err)
		} else {
			out.RRule = set
		}
	}
	out.RDate = datesCSV(ve, "RDATE")
	out.ExDate = datesCSV(ve, ics.ComponentPropertyExdate)

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		t, err := parseICSTime(p.Value)
		if err != nil {
			return out, fmt.Errorf("parseVEvent: invalid RECURRENCE-ID: %w", err)
		}
		out.RecurrenceID = t.Unix()
	}

	return out, nil
}

// datesCSV flattens EXDATE/RDATE property values (each possibly holding a
// comma-separated list) into one unix CSV. Unparsable entries are dropped.
func datesCSV(ve *ics.VEvent, prop ics.ComponentProperty) string {
	dates := make([]string, 0)
	for _, p := range ve.GetProperties(prop) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseICSTime(part)
			if err != nil {
				slog.Warn("ical: dropping unparsable date", "value", part, "error", err)
				continue
			}
			dates = append(dates, strconv.FormatInt(t.Unix(), 10))
		}
	}
	return strings.Join(dates, ",")
}

const icsUTCLayout = "20060102T150405Z"

// parseICSTime handles the basic UTC, floating and date-only forms found
// in EXDATE/RDATE/RECURRENCE-ID values.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, fmt.Errorf("parseICSTime: empty value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse(icsUTCLayout, v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	default:
		return time.ParseInLocation("20060102", v, time.Local)
	}
}
