package route

import (
	"context"
	"daygrid/src-server/model"
	"daygrid/src-server/utils"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCalendarID is the write target when a request doesn't name a
// calendar. The row is created on first use.
const DefaultCalendarID = "personal"

func ensureDefaultCalendar(ctx context.Context, as *utils.AppState) error {
	exists, err := as.BunDB.
		NewSelect().
		Model((*model.Calendar)(nil)).
		Where("id = ?", DefaultCalendarID).
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	calendarModel := model.Calendar{
		ID:   DefaultCalendarID,
		Name: "Personal",
	}
	return calendarModel.Upsert(ctx, as.BunDB)
}

func Calendar(muxer *http.ServeMux, as *utils.AppState) {
	type GetEventsReqBody struct {
		StartDateUnixUTC int64 `json:"startDateUnixUTC"`
		EndDateUnixUTC   int64 `json:"endDateUnixUTC"`
	}

	type OneEventRespBody struct {
		ID               string `json:"id"`
		MasterID         string `json:"masterId"`
		CalendarID       string `json:"calendarId"`
		Title            string `json:"title"`
		Description      string `json:"description"`
		Location         string `json:"location"`
		Url              string `json:"url"`
		Organizer        string `json:"organizer"`
		StartDateUnixUTC int64  `json:"startDateUnixUTC"`
		EndDateUnixUTC   int64  `json:"endDateUnixUTC"`
		IsWholeDay       bool   `json:"isWholeDay"`
	}

	// get all events in date range, recurring ones flattened into instances
	muxer.HandleFunc("POST /calendar/get-events", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			// #region - parse date
			var reqBody GetEventsReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			if reqBody.StartDateUnixUTC == 0 || reqBody.EndDateUnixUTC == 0 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide a start date and end date"))
				return
			}
			// #endregion

			// #region - get all events & prepare response body
			startTimer := time.Now()
			staticEvents, err := model.GetStaticEventInRange(
				r.Context(),
				as.BunDB,
				reqBody.StartDateUnixUTC,
				reqBody.EndDateUnixUTC,
			)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get events"))
				slog.Error("can't get events", "error", err)
				return
			}
			as.MetricChans.DatabaseRead <- float64(time.Since(startTimer).Microseconds())

			respBody := make([]OneEventRespBody, 0, len(*staticEvents))
			for _, event := range *staticEvents {
				respBody = append(respBody, OneEventRespBody{
					ID:               event.ID,
					MasterID:         event.MasterID,
					CalendarID:       event.CalendarID,
					Title:            event.Title,
					Description:      event.Description,
					Location:         event.Location,
					Url:              event.URL,
					Organizer:        event.Organizer,
					StartDateUnixUTC: event.StartDate,
					EndDateUnixUTC:   event.EndDate,
					IsWholeDay:       event.IsWholeDay,
				})
			}
			respBodyJson, err := json.Marshal(respBody)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal response body"))
				return
			}
			// #endregion

			w.WriteHeader(http.StatusOK)
			w.Write(respBodyJson)
		}))

	type CreateEventReqBody struct {
		CalendarID       string `json:"calendarId"`
		Title            string `json:"title"`
		Description      string `json:"description"`
		Location         string `json:"location"`
		Url              string `json:"url"`
		Organizer        string `json:"organizer"`
		StartDateUnixUTC int64  `json:"startDateUnixUTC"`
		EndDateUnixUTC   int64  `json:"endDateUnixUTC"`
		RRule            string `json:"rrule"`
		RDate            string `json:"rdate"`
		ExDate           string `json:"exdate"`
	}

	type ModifyEventReqBody struct {
		ID string `json:"id"`
		CreateEventReqBody
	}

	// create a new event, the success response is the event ID
	muxer.HandleFunc("POST /calendar/create-event", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			// parse request body
			var reqBody CreateEventReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			if reqBody.StartDateUnixUTC == 0 || reqBody.EndDateUnixUTC == 0 {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide a start date and end date"))
				return
			}

			// ensure a calendar to write to exists
			calendarID := reqBody.CalendarID
			if calendarID == "" {
				if err := ensureDefaultCalendar(r.Context(), as); err != nil {
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("Can't create calendar"))
					slog.Error("can't create default calendar", "error", err)
					return
				}
				calendarID = DefaultCalendarID
			}

			// create event
			newEvent := model.MasterEvent{
				ID:          uuid.NewString(),
				CalendarID:  calendarID,
				Summary:     reqBody.Title,
				Description: reqBody.Description,
				Location:    reqBody.Location,
				URL:         reqBody.Url,
				Organizer:   reqBody.Organizer,
				StartDate:   reqBody.StartDateUnixUTC,
				EndDate:     reqBody.EndDateUnixUTC,
				CreatedAt:   time.Now().Unix(),
				RRule:       reqBody.RRule,
				RDate:       reqBody.RDate,
				ExDate:      reqBody.ExDate,
			}
			startTimer := time.Now()
			if err := newEvent.Upsert(r.Context(), as.BunDB); err != nil {
				if strings.Contains(err.Error(), "read-only") {
					w.WriteHeader(http.StatusForbidden)
					w.Write([]byte("Can't add events to a read-only calendar"))
					return
				}
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't create event"))
				slog.Error("can't create event", "error", err)
				return
			}
			as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(newEvent.ID))
		}))

	// modify an existing event
	muxer.HandleFunc("POST /calendar/modify-event", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			// parse request body
			var reqBody ModifyEventReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}

			// check if event exists
			exists, err := as.BunDB.
				NewSelect().
				Model((*model.MasterEvent)(nil)).
				Where("id = ?", reqBody.ID).
				Exists(r.Context())
			switch {
			case err != nil:
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't check if event exists"))
				return
			case !exists:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte("Event not found"))
				return
			}

			eventModel := new(model.MasterEvent)
			if err := as.BunDB.
				NewSelect().
				Model(eventModel).
				Where("id = ?", reqBody.ID).
				Scan(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get event"))
				return
			}

			eventModel.Summary = reqBody.Title
			eventModel.Description = reqBody.Description
			eventModel.Location = reqBody.Location
			eventModel.URL = reqBody.Url
			eventModel.Organizer = reqBody.Organizer
			eventModel.StartDate = reqBody.StartDateUnixUTC
			eventModel.EndDate = reqBody.EndDateUnixUTC
			eventModel.RRule = reqBody.RRule
			eventModel.RDate = reqBody.RDate
			eventModel.ExDate = reqBody.ExDate
			eventModel.UpdatedAt = time.Now().Unix()
			if reqBody.CalendarID != "" {
				eventModel.CalendarID = reqBody.CalendarID
			}

			// modify event
			startTimer := time.Now()
			if err := eventModel.Upsert(r.Context(), as.BunDB); err != nil {
				if strings.Contains(err.Error(), "read-only") {
					w.WriteHeader(http.StatusForbidden)
					w.Write([]byte("Can't edit events from a read-only calendar"))
					return
				}
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't modify event"))
				slog.Error("can't modify event", "error", err)
				return
			}
			as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())

			w.WriteHeader(http.StatusOK)
			w.Write([]byte(reqBody.ID))
		}))

	// delete an event
	muxer.HandleFunc("DELETE /event/{id}", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			id := r.PathValue("id")
			if id == "" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide an event ID"))
				return
			}

			// check if event exists
			exists, err := as.BunDB.
				NewSelect().
				Model((*model.MasterEvent)(nil)).
				Where("id = ?", id).
				Exists(r.Context())
			switch {
			case err != nil:
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't check if event exists"))
				return
			case !exists:
				w.WriteHeader(http.StatusNotFound)
				w.Write([]byte("Event not found"))
				return
			}

			// events from subscribed feeds only go away with their calendar
			eventModel := new(model.MasterEvent)
			if err := as.BunDB.
				NewSelect().
				Model(eventModel).
				Where("id = ?", id).
				Scan(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get event"))
				return
			}
			calendarModel := new(model.Calendar)
			if err := as.BunDB.
				NewSelect().
				Model(calendarModel).
				Where("id = ?", eventModel.CalendarID).
				Scan(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get the event's calendar"))
				return
			}
			if calendarModel.IsReadOnly() {
				w.WriteHeader(http.StatusForbidden)
				w.Write([]byte("Can't delete events from a read-only calendar"))
				return
			}

			// delete the event
			startTimer := time.Now()
			if _, err := as.BunDB.NewDelete().
				Model((*model.MasterEvent)(nil)).
				Where("id = ?", id).
				Exec(context.WithValue(r.Context(), model.MasterEventIDCtxKey, id)); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't delete event"))
				slog.Error("can't delete event", "error", err)
				return
			}
			as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())

			w.WriteHeader(http.StatusOK)
		}))
}
