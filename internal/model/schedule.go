package model

import "strings"

// ScheduleEntry is one row of the schedule table: a pickup location on a
// date together with its time slots as a comma separated list.  Several
// rows may share a date when tickets can be picked up in several places.
type ScheduleEntry struct {
	Date     string // schedule.pickup_date
	Location string // schedule.location
	Times    string // schedule.times, e.g. "19:00,19:30"
}

// TimeSlots splits Times on commas and drops blank items.
func (e ScheduleEntry) TimeSlots() []string {
	var out []string
	for _, t := range strings.Split(e.Times, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
