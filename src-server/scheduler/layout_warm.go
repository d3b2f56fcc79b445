package scheduler

import (
	"context"
	"daygrid/layout"
	"daygrid/src-server/utils"
	"log/slog"
	"time"
)

// LayoutWarm keeps the layout cache warm for the views users land on,
// today's day view and the week starting today. Runs once at startup so
// the first page load after a restart doesn't pay the compute cost.
func LayoutWarm(as *utils.AppState) {
	for {
		now := time.Now().In(as.Config.GetLocation())

		if _, _, err := as.DayLayout(context.Background(), now, layout.ViewDay); err != nil {
			slog.Error("LayoutWarm: can't compute day layout", "error", err)
		}
		for i := range 7 {
			day := now.AddDate(0, 0, i)
			if _, _, err := as.DayLayout(context.Background(), day, layout.ViewWeek); err != nil {
				slog.Error("LayoutWarm: can't compute week layout", "date", day.Format(time.DateOnly), "error", err)
			}
		}

		time.Sleep(time.Minute)
	}
}
