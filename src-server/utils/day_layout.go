package utils

import (
	"context"
	"daygrid/layout"
	"daygrid/src-server/model"
	"fmt"
	"time"
)

// DayLayout fetches one day's events in the configured timezone and returns
// their computed placements keyed by event ID. The bool reports a cache
// hit. The cache key fingerprints the event set, so entries for a rewritten
// day never hit again and just age out of the LRU.
func (as *AppState) DayLayout(ctx context.Context, day time.Time, view layout.View) (map[string]layout.EventLayout, bool, error) {
	loc := as.Config.GetLocation()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	dayEnd := dayStart.AddDate(0, 0, 1)
	dayKey := dayStart.Format(time.DateOnly)

	startTimer := time.Now()
	staticEvents, err := model.GetStaticEventInRange(ctx, as.BunDB, dayStart.Unix(), dayEnd.Unix()-1)
	if err != nil {
		return nil, false, fmt.Errorf("(*AppState).DayLayout: %w", err)
	}
	as.MetricChans.DatabaseRead <- float64(time.Since(startTimer).Microseconds())

	events := make([]layout.Event, 0, len(*staticEvents))
	for _, staticEvent := range *staticEvents {
		event := staticEvent.LayoutEvent(loc)
		// the range query picks up events spilling in from neighboring days
		if event.Day != dayKey {
			continue
		}
		events = append(events, event)
	}

	key := LayoutCacheKey(dayKey, view, events)
	if cached, ok := as.LayoutCache.Get(key); ok {
		layouts := make(map[string]layout.EventLayout, len(cached))
		for _, eventLayout := range cached {
			layouts[eventLayout.ID] = eventLayout
		}
		return layouts, true, nil
	}

	startTimer = time.Now()
	layouts := layout.ComputeDayLayout(events, layout.Options{View: view})
	as.MetricChans.LayoutCompute <- float64(time.Since(startTimer).Microseconds())

	cacheEntry := make([]layout.EventLayout, 0, len(layouts))
	for _, eventLayout := range layouts {
		cacheEntry = append(cacheEntry, eventLayout)
	}
	as.LayoutCache.Add(key, cacheEntry)

	return layouts, false, nil
}
