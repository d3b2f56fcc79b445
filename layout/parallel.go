package layout

import "sort"

// parallelGroup is one "wave" of roughly simultaneous events inside an
// overlap component. Events are ordered by start ascending with longer
// events first on ties; startHour/endHour span the whole wave.
type parallelGroup struct {
	events    []Event
	startHour float64
	endHour   float64
}

// buildParallelGroups clusters one overlap component into waves: the
// earliest unassigned event seeds a group and absorbs every event starting
// within parallelThreshold of it, then the next unassigned event seeds the
// following group. Groups come back sorted by startHour.
func buildParallelGroups(events []Event) []parallelGroup {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].StartHour != sorted[j].StartHour {
			return sorted[i].StartHour < sorted[j].StartHour
		}
		return sorted[i].Duration() > sorted[j].Duration()
	})

	assigned := make([]bool, len(sorted))
	var groups []parallelGroup
	for i, seed := range sorted {
		if assigned[i] {
			continue
		}
		assigned[i] = true
		group := parallelGroup{
			events:    []Event{seed},
			startHour: seed.StartHour,
			endHour:   seed.EndHour,
		}
		for j := i + 1; j < len(sorted); j++ {
			if assigned[j] {
				continue
			}
			if sorted[j].StartHour-seed.StartHour > parallelThreshold {
				continue
			}
			assigned[j] = true
			group.events = append(group.events, sorted[j])
			if sorted[j].EndHour > group.endHour {
				group.endHour = sorted[j].EndHour
			}
		}
		groups = append(groups, group)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].startHour < groups[j].startHour
	})
	return groups
}
