package model

import (
	"context"
	"database/sql"
	"daygrid/src-server/ical"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"
)

// OverwriteCalendarFeed replaces everything stored for a subscribed
// calendar with a freshly parsed feed, in one transaction so readers never
// see a half-synced calendar. calendarModel.Hash should already hold the
// new feed's hash; the calendar row is upserted along with its events.
func OverwriteCalendarFeed(ctx context.Context, db *bun.DB, calendarModel *Calendar, events []ical.Event) error {
	if calendarModel.Url == "" {
		return fmt.Errorf("model.OverwriteCalendarFeed: calendar has no url")
	}

	return db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		// remove old events so feed-side deletions propagate
		oldEventIDs := make([]string, 0)
		if err := tx.NewSelect().
			Model((*MasterEvent)(nil)).
			Column("id").
			Where("calendar_id = ?", calendarModel.ID).
			Scan(ctx, &oldEventIDs); err != nil {
			return fmt.Errorf("can't get old event ids: %w", err)
		}
		if len(oldEventIDs) > 0 {
			if _, err := tx.NewDelete().
				Model((*MasterEvent)(nil)).
				Where("id IN (?)", bun.In(oldEventIDs)).
				Exec(context.WithValue(ctx, MasterEventIDCtxKey, oldEventIDs)); err != nil {
				return fmt.Errorf("can't delete old events: %w", err)
			}
		}

		if err := calendarModel.Upsert(ctx, tx); err != nil {
			return err
		}

		masterModels := make([]MasterEvent, 0, len(events))
		childModels := make([]ChildEvent, 0)
		rruleModels := make([]RRule, 0)
		instanceKeys := make(map[string]struct{})
		for i := range events {
			if events[i].RecurrenceID != 0 {
				childModel := ChildEvent{}
				childModel.FromIcal(&events[i], calendarModel.ID)
				childModels = append(childModels, childModel)
				continue
			}
			masterModel := MasterEvent{}
			masterModel.FromIcal(&events[i], calendarModel.ID)
			instanceDates, err := masterModel.InstanceDates()
			if err != nil {
				slog.Warn("model.OverwriteCalendarFeed: can't parse recurrence, skipping event", "event-id", masterModel.ID, "error", err)
				continue
			}
			for _, date := range instanceDates {
				rruleModels = append(rruleModels, RRule{
					EventID: masterModel.ID,
					Date:    date,
				})
				instanceKeys[fmt.Sprintf("%s@%d", masterModel.ID, date)] = struct{}{}
			}
			masterModels = append(masterModels, masterModel)
		}

		// drop overrides pointing at instances no master generates
		validChildModels := make([]ChildEvent, 0, len(childModels))
		for _, childModel := range childModels {
			key := fmt.Sprintf("%s@%d", childModel.ID, childModel.RecurrenceID)
			if _, ok := instanceKeys[key]; !ok {
				slog.Warn("model.OverwriteCalendarFeed: override doesn't match any instance, skipping", "event-id", childModel.ID, "recurrence-id", childModel.RecurrenceID)
				continue
			}
			validChildModels = append(validChildModels, childModel)
		}

		if len(masterModels) > 0 {
			if _, err := tx.NewInsert().
				Model(&masterModels).
				Exec(ctx); err != nil {
				return fmt.Errorf("can't insert master events: %w", err)
			}
		}
		if len(rruleModels) > 0 {
			if _, err := tx.NewInsert().
				Model(&rruleModels).
				Exec(ctx); err != nil {
				return fmt.Errorf("can't insert rrule dates: %w", err)
			}
		}
		if len(validChildModels) > 0 {
			if _, err := tx.NewInsert().
				Model(&validChildModels).
				Exec(ctx); err != nil {
				return fmt.Errorf("can't insert child events: %w", err)
			}
		}

		return nil
	})
}
