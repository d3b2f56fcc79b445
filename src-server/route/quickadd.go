package route

import (
	"daygrid/src-server/model"
	"daygrid/src-server/utils"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

func QuickAdd(muxer *http.ServeMux, as *utils.AppState) {
	type QuickAddReqBody struct {
		Text string `json:"text"`
	}

	type QuickAddRespBody struct {
		ID               string `json:"id"`
		Title            string `json:"title"`
		StartDateUnixUTC int64  `json:"startDateUnixUTC"`
		EndDateUnixUTC   int64  `json:"endDateUnixUTC"`
	}

	// create an event from natural text, e.g. "lunch with Sam tomorrow at noon"
	muxer.HandleFunc("POST /calendar/quick-add", WithMetrics(as,
		func(w http.ResponseWriter, r *http.Request) {
			var reqBody QuickAddReqBody
			w.Header().Set("Content-Type", "application/json")
			if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Invalid request body"))
				return
			}
			if strings.TrimSpace(reqBody.Text) == "" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Please provide the event text"))
				return
			}

			result, err := as.When.Parse(reqBody.Text, time.Now().In(as.Config.GetLocation()))
			if err != nil || result == nil {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte("Can't find a date or time in the text"))
				return
			}

			// whatever isn't the date becomes the title
			title := utils.CleanupString(strings.Replace(reqBody.Text, result.Text, "", 1))
			if title == "" {
				title = "Untitled"
			}

			if err := ensureDefaultCalendar(r.Context(), as); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't create calendar"))
				slog.Error("can't create default calendar", "error", err)
				return
			}

			newEvent := model.MasterEvent{
				ID:         uuid.NewString(),
				CalendarID: DefaultCalendarID,
				Summary:    title,
				StartDate:  result.Time.UTC().Unix(),
				EndDate:    result.Time.UTC().Add(time.Hour).Unix(),
				CreatedAt:  time.Now().Unix(),
			}
			startTimer := time.Now()
			if err := newEvent.Upsert(r.Context(), as.BunDB); err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't create event"))
				slog.Error("can't create event", "error", err)
				return
			}
			as.MetricChans.DatabaseWrite <- float64(time.Since(startTimer).Microseconds())

			respBodyJson, err := json.Marshal(QuickAddRespBody{
				ID:               newEvent.ID,
				Title:            title,
				StartDateUnixUTC: newEvent.StartDate,
				EndDateUnixUTC:   newEvent.EndDate,
			})
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Can't marshal response body"))
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write(respBodyJson)
		}))
}
