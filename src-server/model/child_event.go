package model

import (
	"context"
	"daygrid/src-server/ical"
	"fmt"
	"net/url"

	"github.com/uptrace/bun"
)

// ChildEvent overrides one instance of a recurring master event. ID must
// equal the master event id; RecurrenceID is the unix timestamp of the
// instance being replaced (it acts as an exdate on the rule, with this
// row filling the hole).
type ChildEvent struct {
	bun.BaseModel `bun:"table:child_events"`

	ID           string `bun:"id,notnull"`
	RecurrenceID int64  `bun:"recurrence_id,notnull"`

	Summary     string `bun:"summary,notnull"`
	Description string `bun:"description"`
	Location    string `bun:"location"`
	URL         string `bun:"url"`
	Organizer   string `bun:"organizer"`

	StartDate int64 `bun:"start_date,notnull"`
	EndDate   int64 `bun:"end_date,notnull"`

	CreatedAt int64 `bun:"created_at,notnull"`
	UpdatedAt int64 `bun:"updated_at"`
	Sequence  int   `bun:"sequence"`

	Event *MasterEvent `bun:"rel:belongs-to,join:id=id"`
}

// Fill the model from a parsed feed event carrying a RECURRENCE-ID. The id
// transform must match (*MasterEvent).FromIcal or the override orphans.
func (e *ChildEvent) FromIcal(icalEvent *ical.Event, calendarID string) {
	e.ID = fmt.Sprintf("%s-%s", icalEvent.ID, calendarID)
	e.RecurrenceID = icalEvent.RecurrenceID

	e.Summary = icalEvent.Summary
	e.Description = icalEvent.Description
	e.Location = icalEvent.Location
	e.URL = icalEvent.URL
	e.Organizer = icalEvent.Organizer

	e.StartDate = icalEvent.StartDate
	e.EndDate = icalEvent.EndDate

	e.CreatedAt = icalEvent.CreatedAt
	e.UpdatedAt = icalEvent.UpdatedAt
	e.Sequence = icalEvent.Sequence
}

func (e *ChildEvent) Upsert(ctx context.Context, db bun.IDB) error {
	// validate
	switch {
	case e.ID == "":
		return fmt.Errorf("(*ChildEvent).Upsert: id is required")
	case e.Summary == "":
		return fmt.Errorf("(*ChildEvent).Upsert: summary is required")
	case e.RecurrenceID == 0:
		return fmt.Errorf("(*ChildEvent).Upsert: recurrence id is required")
	case e.CreatedAt == 0:
		return fmt.Errorf("(*ChildEvent).Upsert: created at is required")
	case e.UpdatedAt != 0 && e.UpdatedAt < e.CreatedAt:
		return fmt.Errorf("(*ChildEvent).Upsert: updated at must be after created at")
	case e.StartDate == 0:
		return fmt.Errorf("(*ChildEvent).Upsert: start date is required")
	case e.EndDate == 0:
		return fmt.Errorf("(*ChildEvent).Upsert: end date is required")
	case e.StartDate > e.EndDate:
		return fmt.Errorf("(*ChildEvent).Upsert: start date must be before end date")
	}
	if e.URL != "" {
		if _, err := url.ParseRequestURI(e.URL); err != nil {
			return fmt.Errorf("(*ChildEvent).Upsert: %w", err)
		}
	}

	// check if master event exists
	exist, err := db.NewSelect().
		Model((*MasterEvent)(nil)).
		Where("id = ?", e.ID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("(*ChildEvent).Upsert: %w", err)
	}
	if !exist {
		return fmt.Errorf("(*ChildEvent).Upsert: master event id not found")
	}

	// check if the recurrence id matches a generated instance
	recurrenceExist, err := db.NewSelect().
		Model((*RRule)(nil)).
		Where("event_id = ?", e.ID).
		Where("date = ?", e.RecurrenceID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("(*ChildEvent).Upsert: %w", err)
	}
	if !recurrenceExist {
		return fmt.Errorf("(*ChildEvent).Upsert: recurrence id doesn't match any instance")
	}

	// check if from a read-only calendar
	masterEventModel := new(MasterEvent)
	if err := db.NewSelect().
		Model(masterEventModel).
		Where("id = ?", e.ID).
		Scan(ctx, masterEventModel); err != nil {
		return fmt.Errorf("(*ChildEvent).Upsert: can't get master event: %w", err)
	}
	calendarModel := new(Calendar)
	if err := db.NewSelect().
		Model(calendarModel).
		Where("id = ?", masterEventModel.CalendarID).
		Scan(ctx, calendarModel); err != nil {
		return fmt.Errorf("(*ChildEvent).Upsert: can't get calendar: %w", err)
	}
	if calendarModel.IsReadOnly() {
		return fmt.Errorf("(*ChildEvent).Upsert: this event is from a read-only calendar")
	}

	// one override per instance
	if _, err := db.NewDelete().
		Model((*ChildEvent)(nil)).
		Where("id = ?", e.ID).
		Where("recurrence_id = ?", e.RecurrenceID).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*ChildEvent).Upsert: %w", err)
	}
	if _, err := db.NewInsert().
		Model(e).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*ChildEvent).Upsert: %w", err)
	}

	return nil
}
