package scheduler

import (
	"context"
	"daygrid/src-server/ical"
	"daygrid/src-server/model"
	"daygrid/src-server/utils"
	"log/slog"
	"sync"
	"time"
)

const (
	WORKER_COUNT = 4
)

// CalendarUpdate re-fetches every subscribed calendar on a fixed interval.
// Feeds whose content hash hasn't changed are skipped; the rest get their
// events rewritten in one transaction, keeping the calendar id and display
// name picked at subscribe time.
func CalendarUpdate(as *utils.AppState) {
	for {
		calendarModels := []model.Calendar{}
		if err := as.BunDB.
			NewSelect().
			Model(&calendarModels).
			Where("url LIKE ?", "https://%").
			Scan(context.Background()); err != nil {
			slog.Error("can't get calendars", "error", err)
			time.Sleep(as.Config.GetCalendarUpdateInterval())
			continue
		}
		if len(calendarModels) == 0 {
			time.Sleep(as.Config.GetCalendarUpdateInterval())
			continue
		}

		jobs := make(chan model.Calendar, len(calendarModels))
		var wg sync.WaitGroup

		for range WORKER_COUNT {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for oldCalendarModel := range jobs {
					hash, err := utils.GetFileHash(context.Background(), oldCalendarModel.Url)
					if err != nil {
						slog.Warn("CalendarUpdate: can't hash calendar", "url", oldCalendarModel.Url, "error", err)
						continue
					}
					if hash == oldCalendarModel.Hash {
						slog.Debug("CalendarUpdate: feed unchanged", "url", oldCalendarModel.Url)
						continue
					}

					calCh := make(chan *ical.Calendar)
					errCh := make(chan error)

					go func() {
						icalCalendar, err := ical.FromURL(context.Background(), oldCalendarModel.Url)
						if err != nil {
							errCh <- err
							return
						}
						calCh <- icalCalendar
					}()

					select {
					case <-time.After(time.Minute * 5):
						slog.Warn("CalendarUpdate: timed out waiting for calendar to be fetched & parsed")
					case err := <-errCh:
						slog.Warn("CalendarUpdate: can't fetch calendar", "url", oldCalendarModel.Url, "error", err)
					case icalCalendar := <-calCh:
						newCalendarModel := model.Calendar{
							ID:          oldCalendarModel.ID,
							ProdID:      icalCalendar.GetProdID(),
							Name:        oldCalendarModel.Name,
							Description: icalCalendar.GetDescription(),
							Url:         oldCalendarModel.Url,
							Hash:        hash,
						}
						startTimer := time.Now()
						if err := model.OverwriteCalendarFeed(
							context.Background(),
							as.BunDB,
							&newCalendarModel,
							icalCalendar.GetEvents(),
						); err != nil {
							slog.Warn("CalendarUpdate: can't save calendar", "url", oldCalendarModel.Url, "error", err)
						} else {
							as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())
						}
						close(calCh)
						close(errCh)
					}
				}
			}()
		}

		for _, calendarModel := range calendarModels {
			jobs <- calendarModel
		}
		close(jobs)
		wg.Wait()

		// cached layouts may reference rewritten events
		as.LayoutCache.Purge()

		time.Sleep(as.Config.GetCalendarUpdateInterval())
	}
}
