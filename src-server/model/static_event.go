package model

import (
	"context"
	"daygrid/layout"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/xyedo/rrule"
)

// This struct technically is a model, but not for create database table.
//
// StaticEvent represents a fully flattened event instance (no recurrence
// rule or master/child indirection) for the web client and the layout
// engine. ID is unique per instance; recurring clones and overrides get a
// "@<unix>" suffix, so edits must go through MasterID.
type StaticEvent struct {
	ID          string `json:"id"`
	MasterID    string `json:"master_id"`
	CalendarID  string `json:"calendar_id"`
	StartDate   int64  `json:"start_date"`
	EndDate     int64  `json:"end_date"`
	IsWholeDay  bool   `json:"is_whole_day"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	Organizer   string `json:"organizer"`
}

func isWholeDayUnix(date int64) bool {
	startDate := time.Unix(date, 0)
	return startDate.Hour() == 0 && startDate.Minute() == 0
}

// One function call to get statically generated events from a range of
// dates. Recurring masters are expanded against the range; child events
// shadow the instances they override.
func GetStaticEventInRange(
	ctx context.Context,
	db bun.IDB,
	startDateStartRange int64,
	startDateEndRange int64,
) (*[]StaticEvent, error) {
	staticEvents := make([]StaticEvent, 0)

	// recurring masters are picked up regardless of their own start date,
	// their instances inside the range are what matters
	masterEvents := make([]MasterEvent, 0)
	if err := db.NewSelect().
		Model(&masterEvents).
		Where("(start_date >= ? AND start_date <= ?) OR rrule != ''",
			startDateStartRange, startDateEndRange).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("GetStaticEventInRange: %w", err)
	}
	childEvents := make([]ChildEvent, 0)
	if err := db.NewSelect().
		Model(&childEvents).
		Where("start_date >= ?", startDateStartRange).
		Where("start_date <= ?", startDateEndRange).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("GetStaticEventInRange: %w", err)
	}
	// these act as exdates; collected without the range filter so an
	// override that moved its instance out of range still shadows it
	childEventRecIDs := make(map[string]struct{})
	func() {
		allChildEvents := make([]ChildEvent, 0)
		if err := db.NewSelect().
			Model(&allChildEvents).
			Column("id", "recurrence_id").
			Scan(ctx); err != nil {
			slog.Error("GetStaticEventInRange: can't get override ids", "error", err)
			return
		}
		for _, childEvent := range allChildEvents {
			childEventRecIDs[fmt.Sprintf("%s@%d", childEvent.ID, childEvent.RecurrenceID)] = struct{}{}
		}
	}()

	for _, e := range masterEvents {
		// add the master event right away and continue if it's not recurring
		if e.RRule == "" {
			staticEvents = append(staticEvents, StaticEvent{
				ID:          e.ID,
				MasterID:    e.ID,
				CalendarID:  e.CalendarID,
				StartDate:   e.StartDate,
				EndDate:     e.EndDate,
				IsWholeDay:  isWholeDayUnix(e.StartDate),
				Title:       e.Summary,
				Description: e.Description,
				Location:    e.Location,
				URL:         e.URL,
				Organizer:   e.Organizer,
			})
			continue
		}

		// parse the recurrence rule set
		rruleSet, err := rrule.StrToRRuleSet(e.RRule)
		if err != nil {
			return nil, fmt.Errorf("GetStaticEventInRange: %w", err)
		}

		// rdates AND parsed rrules
		rDates := make(map[int64]struct{})
		if e.RDate != "" {
			for _, dateStr := range strings.Split(e.RDate, ",") {
				dateInt, err := strconv.ParseInt(dateStr, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("GetStaticEventInRange: %w", err)
				}
				rDates[dateInt] = struct{}{}
			}
		}
		for _, date := range rruleSet.All() {
			rDates[date.Unix()] = struct{}{}
		}

		// exdates of the master event
		exDates := make(map[int64]struct{})
		if e.ExDate != "" {
			for _, dateStr := range strings.Split(e.ExDate, ",") {
				dateInt, err := strconv.ParseInt(dateStr, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("GetStaticEventInRange: %w", err)
				}
				exDates[dateInt] = struct{}{}
			}
		}

		// iterate and create clones of the master event
		// with different start and end dates
		eventDuration := e.EndDate - e.StartDate
		for date := range rDates {
			if _, ok := exDates[date]; ok {
				continue
			}
			if _, ok := childEventRecIDs[fmt.Sprintf("%s@%d", e.ID, date)]; ok {
				continue
			}
			if date < startDateStartRange || date > startDateEndRange {
				continue
			}
			staticEvents = append(staticEvents, StaticEvent{
				ID:          fmt.Sprintf("%s@%d", e.ID, date),
				MasterID:    e.ID,
				CalendarID:  e.CalendarID,
				StartDate:   date,
				EndDate:     date + eventDuration,
				IsWholeDay:  isWholeDayUnix(date),
				Title:       e.Summary,
				Description: e.Description,
				Location:    e.Location,
				URL:         e.URL,
				Organizer:   e.Organizer,
			})
		}
	}

	// child events carry their own dates, which may differ from the
	// instance they replace
	masterCalendarIDs := make(map[string]string)
	for _, e := range masterEvents {
		masterCalendarIDs[e.ID] = e.CalendarID
	}
	for _, e := range childEvents {
		staticEvents = append(staticEvents, StaticEvent{
			ID:          fmt.Sprintf("%s@%d", e.ID, e.RecurrenceID),
			MasterID:    e.ID,
			CalendarID:  masterCalendarIDs[e.ID],
			StartDate:   e.StartDate,
			EndDate:     e.EndDate,
			IsWholeDay:  isWholeDayUnix(e.StartDate),
			Title:       e.Summary,
			Description: e.Description,
			Location:    e.Location,
			URL:         e.URL,
			Organizer:   e.Organizer,
		})
	}

	// sort the events by start date
	sort.Slice(staticEvents, func(i, j int) bool {
		return staticEvents[i].StartDate < staticEvents[j].StartDate
	})

	return &staticEvents, nil
}

// LayoutEvent converts the instance into the layout engine's input form,
// with clock hours resolved in the given location.
func (s *StaticEvent) LayoutEvent(loc *time.Location) layout.Event {
	start := time.Unix(s.StartDate, 0).In(loc)
	end := time.Unix(s.EndDate, 0).In(loc)

	startHour := float64(start.Hour()) + float64(start.Minute())/60 + float64(start.Second())/3600
	endHour := float64(end.Hour()) + float64(end.Minute())/60 + float64(end.Second())/3600
	// events running past midnight occupy the rest of their starting day
	if start.Year() != end.Year() || start.YearDay() != end.YearDay() {
		endHour = 24
	}

	return layout.Event{
		ID:        s.ID,
		Day:       start.Format(time.DateOnly),
		StartHour: startHour,
		EndHour:   endHour,
		// same midnight-start heuristic as IsWholeDay, resolved in loc
		AllDay:     start.Hour() == 0 && start.Minute() == 0,
		Title:      s.Title,
		CalendarID: s.CalendarID,
	}
}
