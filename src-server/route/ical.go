package route

import (
	"daygrid/src-server/model"
	"daygrid/src-server/utils"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// unixCSVToIcsDates turns stored comma-separated unix timestamps back into
// ics UTC timestamps.
func unixCSVToIcsDates(csv string) string {
	dates := make([]string, 0)
	for _, dateStr := range strings.Split(csv, ",") {
		dateInt, err := strconv.ParseInt(dateStr, 10, 64)
		if err != nil {
			continue
		}
		dates = append(dates, time.Unix(dateInt, 0).UTC().Format("20060102T150405Z"))
	}
	return strings.Join(dates, ",")
}

func Ical(muxer *http.ServeMux, as *utils.AppState) {
	// serve a calendar as an ics feed; subscribed ones redirect upstream
	muxer.HandleFunc("GET /ical/{calendar_id}", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			calendarID := r.PathValue("calendar_id")

			// check if calendar exists
			exists, err := as.BunDB.
				NewSelect().
				Model((*model.Calendar)(nil)).
				Where("id = ?", calendarID).
				Exists(r.Context())
			switch {
			case err != nil:
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't check if calendar exists"))
				return
			case !exists:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte("Calendar not found"))
				return
			}
			calendarModel := new(model.Calendar)
			if err := as.BunDB.
				NewSelect().
				Model(calendarModel).
				Where("id = ?", calendarID).
				Scan(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get calendar"))
				return
			}

			if calendarModel.Url != "" {
				http.Redirect(w, r, calendarModel.Url, http.StatusFound)
				return
			}

			startTimer := time.Now()
			eventModels := make([]model.MasterEvent, 0)
			if err := as.BunDB.
				NewSelect().
				Model(&eventModels).
				Where("calendar_id = ?", calendarID).
				Scan(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get events"))
				slog.Error("can't get events", "error", err)
				return
			}
			as.MetricChans.DatabaseRead <- float64(time.Since(startTimer).Microseconds())

			icalCalendar := ics.NewCalendar()
			if calendarModel.ProdID != "" {
				icalCalendar.SetProductId(calendarModel.ProdID)
			} else {
				icalCalendar.SetProductId("-//daygrid//daygrid//EN")
			}
			icalCalendar.SetXWRCalName(calendarModel.Name)
			if calendarModel.Description != "" {
				icalCalendar.SetXWRCalDesc(calendarModel.Description)
			}
			icalCalendar.SetXWRCalID(calendarModel.ID)

			for _, eventModel := range eventModels {
				icalEvent := icalCalendar.AddEvent(eventModel.ID)
				icalEvent.SetSummary(eventModel.Summary)
				icalEvent.SetStartAt(time.Unix(eventModel.StartDate, 0).UTC())
				icalEvent.SetEndAt(time.Unix(eventModel.EndDate, 0).UTC())
				icalEvent.SetDtStampTime(time.Unix(eventModel.CreatedAt, 0).UTC())
				if eventModel.UpdatedAt != 0 {
					icalEvent.SetModifiedAt(time.Unix(eventModel.UpdatedAt, 0).UTC())
				}
				if eventModel.Description != "" {
					icalEvent.SetDescription(eventModel.Description)
				}
				if eventModel.Location != "" {
					icalEvent.SetLocation(eventModel.Location)
				}
				if eventModel.URL != "" {
					icalEvent.SetURL(eventModel.URL)
				}
				if eventModel.Organizer != "" {
					organizer := eventModel.Organizer
					if !strings.Contains(organizer, ":") {
						organizer = "mailto:" + organizer
					}
					icalEvent.SetOrganizer(organizer)
				}
				if eventModel.Sequence != 0 {
					icalEvent.SetProperty(ics.ComponentPropertySequence, strconv.Itoa(eventModel.Sequence))
				}
				// the stored rrule is a set string, only its RRULE line goes out
				if eventModel.RRule != "" {
					for _, line := range strings.Split(eventModel.RRule, "\n") {
						if rule, found := strings.CutPrefix(line, "RRULE:"); found {
							icalEvent.SetProperty(ics.ComponentPropertyRrule, rule)
						}
					}
					if eventModel.RDate != "" {
						icalEvent.SetProperty("RDATE", unixCSVToIcsDates(eventModel.RDate))
					}
					if eventModel.ExDate != "" {
						icalEvent.SetProperty(ics.ComponentPropertyExdate, unixCSVToIcsDates(eventModel.ExDate))
					}
				}
			}

			w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			if _, err := io.WriteString(w, icalCalendar.Serialize()); err != nil {
				slog.Warn("can't write to response", "where", "route/ical.go", "error", err)
			}
		}))
}
