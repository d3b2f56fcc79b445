package route

import (
	"daygrid/layout"
	"daygrid/src-server/utils"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

func Layout(muxer *http.ServeMux, as *utils.AppState) {
	type DayLayoutRespBody struct {
		Date    string                        `json:"date"`
		View    string                        `json:"view"`
		Cached  bool                          `json:"cached"`
		Layouts map[string]layout.EventLayout `json:"layouts"`
	}

	// get the computed placements for one day's events
	muxer.HandleFunc("GET /calendar/day-layout", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			// #region - parse query params
			loc := as.Config.GetLocation()
			day := time.Now().In(loc)
			if dateStr := r.URL.Query().Get("date"); dateStr != "" {
				parsedDay, err := time.ParseInLocation(time.DateOnly, dateStr, loc)
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					w.Write([]byte("Invalid date, use YYYY-MM-DD"))
					return
				}
				day = parsedDay
			}
			view := layout.ViewDay
			switch r.URL.Query().Get("view") {
			case "", string(layout.ViewDay):
			case string(layout.ViewWeek):
				view = layout.ViewWeek
			default:
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid view, use day or week"))
				return
			}
			// #endregion

			layouts, cached, err := as.DayLayout(r.Context(), day, view)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't compute layout"))
				slog.Error("can't compute day layout", "error", err)
				return
			}

			respBodyJson, err := json.Marshal(DayLayoutRespBody{
				Date:    day.Format(time.DateOnly),
				View:    string(view),
				Cached:  cached,
				Layouts: layouts,
			})
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal response body"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write(respBodyJson)
		}))

	type WeekLayoutRespBody struct {
		StartDate string                                   `json:"startDate"`
		Days      map[string]map[string]layout.EventLayout `json:"days"`
	}

	// get the placements for seven consecutive days, computed in parallel
	muxer.HandleFunc("GET /calendar/week-layout", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")

			loc := as.Config.GetLocation()
			startDay := time.Now().In(loc)
			if dateStr := r.URL.Query().Get("start"); dateStr != "" {
				parsedDay, err := time.ParseInLocation(time.DateOnly, dateStr, loc)
				if err != nil {
					w.WriteHeader(http.StatusBadRequest)
					w.Write([]byte("Invalid start date, use YYYY-MM-DD"))
					return
				}
				startDay = parsedDay
			}

			type dayResult struct {
				date    string
				layouts map[string]layout.EventLayout
				err     error
			}
			results := make([]dayResult, 7)
			var wg sync.WaitGroup
			for i := range results {
				wg.Add(1)
				go func() {
					defer wg.Done()
					day := startDay.AddDate(0, 0, i)
					layouts, _, err := as.DayLayout(r.Context(), day, layout.ViewWeek)
					results[i] = dayResult{
						date:    day.Format(time.DateOnly),
						layouts: layouts,
						err:     err,
					}
				}()
			}
			wg.Wait()

			respBody := WeekLayoutRespBody{
				StartDate: startDay.Format(time.DateOnly),
				Days:      make(map[string]map[string]layout.EventLayout, len(results)),
			}
			for _, result := range results {
				if result.err != nil {
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("Can't compute layout"))
					slog.Error("can't compute week layout", "date", result.date, "error", result.err)
					return
				}
				respBody.Days[result.date] = result.layouts
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
}
