package model

import (
	"context"
	"daygrid/src-server/ical"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/uptrace/bun"
	"github.com/xyedo/rrule"
)

type MasterEventIDCtxKeyType string

const MasterEventIDCtxKey MasterEventIDCtxKeyType = "master-event-ids"

// MasterEvent is the stored form of an event. Non-recurring events are a
// single row; recurring ones additionally carry RRule/RDate/ExDate and get
// flattened into StaticEvents on read. RDate and ExDate hold
// comma-separated unix timestamps.
type MasterEvent struct {
	bun.BaseModel `bun:"table:master_events"`

	ID          string `bun:"id,pk,notnull"`
	CalendarID  string `bun:"calendar_id,notnull"`
	Summary     string `bun:"summary,notnull"`
	Description string `bun:"description"`
	Location    string `bun:"location"`
	URL         string `bun:"url"`
	Organizer   string `bun:"organizer"`

	StartDate int64 `bun:"start_date,notnull"`
	EndDate   int64 `bun:"end_date,notnull"`

	CreatedAt int64  `bun:"created_at,notnull"`
	UpdatedAt int64  `bun:"updated_at"`
	Sequence  int    `bun:"sequence"`
	RRule     string `bun:"rrule"`
	RDate     string `bun:"rdate"`
	ExDate    string `bun:"exdate"`

	Calendar *Calendar `bun:"rel:belongs-to,join:calendar_id=id"`
}

// Fill the model from a parsed feed event. Row ids get the calendar id
// suffixed so the same feed subscribed twice can't collide.
func (m *MasterEvent) FromIcal(icalEvent *ical.Event, calendarID string) {
	m.ID = fmt.Sprintf("%s-%s", icalEvent.ID, calendarID)
	m.CalendarID = calendarID
	m.Summary = icalEvent.Summary
	m.Description = icalEvent.Description
	m.Location = icalEvent.Location
	m.URL = icalEvent.URL
	m.Organizer = icalEvent.Organizer

	m.StartDate = icalEvent.StartDate
	m.EndDate = icalEvent.EndDate

	m.CreatedAt = icalEvent.CreatedAt
	m.UpdatedAt = icalEvent.UpdatedAt
	m.Sequence = icalEvent.Sequence
	m.RRule = icalEvent.RRule
	m.RDate = icalEvent.RDate
	m.ExDate = icalEvent.ExDate
}

// InstanceDates returns every instance date a recurring master generates:
// parsed rule dates plus rdates. Nil for non-recurring events.
func (e *MasterEvent) InstanceDates() ([]int64, error) {
	if e.RRule == "" {
		return nil, nil
	}

	rruleSet, err := rrule.StrToRRuleSet(e.RRule)
	if err != nil {
		return nil, fmt.Errorf("(*MasterEvent).InstanceDates: invalid rrule: %w", err)
	}

	dateSet := make(map[int64]struct{})
	for _, date := range rruleSet.All() {
		dateSet[date.Unix()] = struct{}{}
	}
	if e.RDate != "" {
		for _, dateStr := range strings.Split(e.RDate, ",") {
			dateInt, err := strconv.ParseInt(dateStr, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("(*MasterEvent).InstanceDates: invalid rdate: %w", err)
			}
			dateSet[dateInt] = struct{}{}
		}
	}

	dates := make([]int64, 0, len(dateSet))
	for date := range dateSet {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i] < dates[j] })
	return dates, nil
}

var _ bun.AfterDeleteHook = (*MasterEvent)(nil)

// Cleanup child events and parsed rrule dates
func (m *MasterEvent) AfterDelete(ctx context.Context, query *bun.DeleteQuery) error {
	if query.DB() == nil {
		return fmt.Errorf("(*MasterEvent).AfterDelete: db is nil")
	}

	deletedEventIDs := make([]string, 0)
	switch masterEventID := ctx.Value(MasterEventIDCtxKey).(type) {
	case string:
		if masterEventID == "" {
			return fmt.Errorf("(*MasterEvent).AfterDelete: deletedMasterEventID is blank")
		}
		deletedEventIDs = append(deletedEventIDs, masterEventID)
	case []string:
		if len(masterEventID) == 0 {
			return nil
		}
		deletedEventIDs = append(deletedEventIDs, masterEventID...)
	case nil:
		return fmt.Errorf("(*MasterEvent).AfterDelete: master event id is nil")
	default:
		return fmt.Errorf("(*MasterEvent).AfterDelete: wrong master event id type | type=%T", masterEventID)
	}

	// rm related parsed rrule dates
	if _, err := query.DB().NewDelete().
		Model((*RRule)(nil)).
		Where("event_id IN (?)", bun.In(deletedEventIDs)).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*MasterEvent).AfterDelete: can't delete rrule: %w", err)
	}

	// rm related child events
	if _, err := query.DB().NewDelete().
		Model((*ChildEvent)(nil)).
		Where("id IN (?)", bun.In(deletedEventIDs)).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*MasterEvent).AfterDelete: can't delete child events: %w", err)
	}

	return nil
}

// Upsert the master event to the database, refreshing the parsed rrule
// dates and pruning child events the new rule no longer covers.
func (e *MasterEvent) Upsert(ctx context.Context, db bun.IDB) error {
	// validate
	switch {
	case e.ID == "":
		return fmt.Errorf("(*MasterEvent).Upsert: id is required")
	case e.Summary == "":
		return fmt.Errorf("(*MasterEvent).Upsert: summary is required")
	case e.CalendarID == "":
		return fmt.Errorf("(*MasterEvent).Upsert: calendar id is required")
	case e.CreatedAt == 0:
		return fmt.Errorf("(*MasterEvent).Upsert: created at is required")
	case e.StartDate == 0:
		return fmt.Errorf("(*MasterEvent).Upsert: start date is required")
	case e.EndDate == 0:
		return fmt.Errorf("(*MasterEvent).Upsert: end date is required")
	case e.StartDate > e.EndDate:
		return fmt.Errorf("(*MasterEvent).Upsert: start date must be before end date")
	case e.RRule == "" && (e.RDate != "" || e.ExDate != ""):
		return fmt.Errorf("(*MasterEvent).Upsert: rdate/exdate only works with rrule")
	}
	if e.URL != "" {
		if _, err := url.ParseRequestURI(e.URL); err != nil {
			return fmt.Errorf("(*MasterEvent).Upsert: url is invalid: %w", err)
		}
	}
	instanceDates, err := e.InstanceDates()
	if err != nil {
		return fmt.Errorf("(*MasterEvent).Upsert: %w", err)
	}
	if e.ExDate != "" {
		for _, dateStr := range strings.Split(e.ExDate, ",") {
			if _, err := strconv.ParseInt(dateStr, 10, 64); err != nil {
				return fmt.Errorf("(*MasterEvent).Upsert: invalid exdate: %w", err)
			}
		}
	}

	// check if calendar exists
	calendarExist, err := db.NewSelect().
		Model((*Calendar)(nil)).
		Where("id = ?", e.CalendarID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("(*MasterEvent).Upsert: %w", err)
	}
	if !calendarExist {
		return fmt.Errorf("(*MasterEvent).Upsert: calendar id not found")
	}

	// check if calendar is read-only
	calendarModel := new(Calendar)
	if err := db.NewSelect().
		Model(calendarModel).
		Where("id = ?", e.CalendarID).
		Scan(ctx, calendarModel); err != nil {
		return fmt.Errorf("(*MasterEvent).Upsert: can't get calendar: %w", err)
	}
	if calendarModel.IsReadOnly() {
		return fmt.Errorf("(*MasterEvent).Upsert: this event is from a read-only calendar")
	}

	// upsert to db
	if _, err := db.NewInsert().
		Model(e).
		On("CONFLICT (id) DO UPDATE").
		Set("calendar_id = EXCLUDED.calendar_id").
		Set("summary = EXCLUDED.summary").
		Set("description = EXCLUDED.description").
		Set("location = EXCLUDED.location").
		Set("url = EXCLUDED.url").
		Set("organizer = EXCLUDED.organizer").
		Set("start_date = EXCLUDED.start_date").
		Set("end_date = EXCLUDED.end_date").
		Set("created_at = EXCLUDED.created_at").
		Set("updated_at = EXCLUDED.updated_at").
		Set("sequence = EXCLUDED.sequence").
		Set("rrule = EXCLUDED.rrule").
		Set("rdate = EXCLUDED.rdate").
		Set("exdate = EXCLUDED.exdate").
		Exec(ctx); err != nil {
		return fmt.Errorf("(*MasterEvent).Upsert: %w", err)
	}

	// remove all parsed rrule dates, then re-insert from the new rule
	if _, err := db.NewDelete().
		Model((*RRule)(nil)).
		Where("event_id = ?", e.ID).
		Exec(ctx); err != nil {
		return fmt.Errorf("(*MasterEvent).Upsert: %w", err)
	}

	if e.RRule == "" {
		// no recurrence rule, no child events
		if _, err := db.NewDelete().
			Model((*ChildEvent)(nil)).
			Where("id = ?", e.ID).
			Exec(ctx); err != nil {
			return fmt.Errorf("(*MasterEvent).Upsert: %w", err)
		}
		return nil
	}

	for _, date := range instanceDates {
		rruleModel := RRule{
			EventID: e.ID,
			Date:    date,
		}
		if _, err := db.NewInsert().
			Model(&rruleModel).
			Exec(ctx); err != nil {
			return fmt.Errorf("(*MasterEvent).Upsert: %w", err)
		}
	}

	// remove child events overriding dates the new rule doesn't generate
	pruneQuery := db.NewDelete().
		Model((*ChildEvent)(nil)).
		Where("id = ?", e.ID)
	if len(instanceDates) > 0 {
		pruneQuery = pruneQuery.Where("recurrence_id NOT IN (?)", bun.In(instanceDates))
	}
	if _, err := pruneQuery.Exec(ctx); err != nil {
		return fmt.Errorf("(*MasterEvent).Upsert: %w", err)
	}

	return nil
}
