package layout

import "sort"

// buildOverlapGroups partitions a day's timed events into overlap-connected
// components: two events share a component when a chain of pairwise
// overlaps links them. Components come back ordered by their earliest
// start.
func buildOverlapGroups(events []Event) [][]Event {
	visited := make([]bool, len(events))
	var components [][]Event
	for i := range events {
		if visited[i] {
			continue
		}
		visited[i] = true
		queue := []int{i}
		var component []Event
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			component = append(component, events[cur])
			for j := range events {
				if visited[j] || !eventsOverlap(events[cur], events[j]) {
					continue
				}
				visited[j] = true
				queue = append(queue, j)
			}
		}
		components = append(components, component)
	}
	sort.Slice(components, func(i, j int) bool {
		return earliestStart(components[i]) < earliestStart(components[j])
	})
	return components
}

func earliestStart(events []Event) float64 {
	earliest := events[0].StartHour
	for _, ev := range events[1:] {
		if ev.StartHour < earliest {
			earliest = ev.StartHour
		}
	}
	return earliest
}
