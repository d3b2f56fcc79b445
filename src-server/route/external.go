package route

import (
	"context"
	"daygrid/src-server/ical"
	"daygrid/src-server/model"
	"daygrid/src-server/utils"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func External(muxer *http.ServeMux, as *utils.AppState) {
	type SubscribeReqBody struct {
		Url  string `json:"url"`
		Name string `json:"name"`
	}

	type SubscribeRespBody struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		EventCount int    `json:"eventCount"`
	}

	// subscribe to an ics feed as a read-only calendar
	muxer.HandleFunc("POST /calendar/subscribe", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			// #region - parse & validate the url
			var reqBody SubscribeReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			reqBody.Url = strings.TrimSpace(reqBody.Url)
			if !strings.HasPrefix(reqBody.Url, "https://") {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide an https:// calendar url"))
				return
			}
			if _, err := url.ParseRequestURI(reqBody.Url); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid calendar url"))
				return
			}
			exists, err := as.BunDB.
				NewSelect().
				Model((*model.Calendar)(nil)).
				Where("url = ?", reqBody.Url).
				Exists(r.Context())
			switch {
			case err != nil:
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't check if calendar exists"))
				return
			case exists:
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte("Already subscribed to this calendar"))
				return
			}
			// #endregion

			// #region - fetch & parse the feed
			icalCalendar, err := ical.FromURL(r.Context(), reqBody.Url)
			if err != nil {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("Can't fetch or parse the calendar"))
				slog.Warn("can't fetch calendar", "url", reqBody.Url, "error", err)
				return
			}
			hash, err := utils.GetFileHash(r.Context(), reqBody.Url)
			if err != nil {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("Can't fetch the calendar"))
				slog.Warn("can't hash calendar", "url", reqBody.Url, "error", err)
				return
			}
			// #endregion

			calendarModel := model.Calendar{
				ID:          icalCalendar.GetID(),
				ProdID:      icalCalendar.GetProdID(),
				Name:        icalCalendar.GetName(),
				Description: icalCalendar.GetDescription(),
				Url:         reqBody.Url,
				Hash:        hash,
			}
			if reqBody.Name != "" {
				calendarModel.Name = reqBody.Name
			}

			startTimer := time.Now()
			if err := model.OverwriteCalendarFeed(r.Context(), as.BunDB, &calendarModel, icalCalendar.GetEvents()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't save the calendar"))
				slog.Error("can't save subscribed calendar", "url", reqBody.Url, "error", err)
				return
			}
			as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())

			respBodyJson, err := json.Marshal(SubscribeRespBody{
				ID:         calendarModel.ID,
				Name:       calendarModel.Name,
				EventCount: len(icalCalendar.GetEvents()),
			})
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal response body"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write(respBodyJson)
		}))

	type OneSubscriptionRespBody struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Url         string `json:"url"`
	}

	// list subscribed calendars
	muxer.HandleFunc("GET /calendar/subscriptions", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			startTimer := time.Now()
			calendarModels := make([]model.Calendar, 0)
			if err := as.BunDB.
				NewSelect().
				Model(&calendarModels).
				Where("url IS NOT NULL").
				Scan(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get subscriptions"))
				slog.Error("can't get subscriptions", "error", err)
				return
			}
			as.MetricChans.DatabaseRead <- float64(time.Since(startTimer).Microseconds())

			respBody := make([]OneSubscriptionRespBody, 0, len(calendarModels))
			for _, calendarModel := range calendarModels {
				respBody = append(respBody, OneSubscriptionRespBody{
					ID:          calendarModel.ID,
					Name:        calendarModel.Name,
					Description: calendarModel.Description,
					Url:         calendarModel.Url,
				})
			}
			respBodyJson, err := json.Marshal(respBody)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal response body"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write(respBodyJson)
		}))

	// unsubscribe, removing the calendar and everything it brought in
	muxer.HandleFunc("DELETE /calendar/subscriptions/{id}", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			id := r.PathValue("id")
			if id == "" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide a calendar ID"))
				return
			}

			calendarModel := new(model.Calendar)
			exists, err := as.BunDB.
				NewSelect().
				Model((*model.Calendar)(nil)).
				Where("id = ?", id).
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
			if err := as.BunDB.
				NewSelect().
				Model(calendarModel).
				Where("id = ?", id).
				Scan(r.Context()); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't get calendar"))
				return
			}
			if !calendarModel.IsReadOnly() {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Not a subscribed calendar"))
				return
			}

			startTimer := time.Now()
			if _, err := as.BunDB.NewDelete().
				Model((*model.Calendar)(nil)).
				Where("id = ?", id).
				Exec(context.WithValue(r.Context(), model.DeletedCalendarIDsCtxKey, id)); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't delete calendar"))
				slog.Error("can't delete calendar", "error", err)
				return
			}
			as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())

			w.WriteHeader(http.StatusOK)
		}))
}
