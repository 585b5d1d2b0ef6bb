package device

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/skapoor1902/vruksh.aiot-master/internal/model"
)

// Schedule resolution is pure: time in, wait out. The resolver works at
// minute granularity, matching the node's wake cycle.

const minutesPerDay = 24 * 60

// DefaultSchedule mirrors the node's stock reading times.
var DefaultSchedule = []model.ScheduleEntry{
	{Hour: 19, Minute: 20, Label: "Morning"},
	{Hour: 14, Minute: 0, Label: "Afternoon"},
	{Hour: 20, Minute: 0, Label: "Evening"},
}

// NextEvent returns the wait until the nearest upcoming entry, wrapping
// past midnight, and that entry's label. Ties go to the earliest-listed
// entry. An entry equal to the current hour and minute counts as due
// now when seconds are zero, and as already passed otherwise. An empty
// schedule waits the full day.
func NextEvent(now time.Time, entries []model.ScheduleEntry) (time.Duration, string) {
	wait := minutesPerDay
	label := ""
	cur := now.Hour()*60 + now.Minute()

	for _, e := range entries {
		delta := e.Minutes() - cur
		switch {
		case delta < 0:
			delta += minutesPerDay
		case delta == 0 && now.Second() > 0:
			delta = minutesPerDay
		}
		if delta < wait {
			wait = delta
			label = e.Label
		}
	}
	return time.Duration(wait) * time.Minute, label
}

// Due returns the first entry matching the current hour and minute.
func Due(now time.Time, entries []model.ScheduleEntry) (model.ScheduleEntry, bool) {
	for _, e := range entries {
		if e.Hour == now.Hour() && e.Minute == now.Minute() {
			return e, true
		}
	}
	return model.ScheduleEntry{}, false
}

// ParseSchedule reads "HH:MM=Label,HH:MM=Label,..." into schedule
// entries, preserving list order.
func ParseSchedule(s string) ([]model.ScheduleEntry, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []model.ScheduleEntry
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		timePart, labelPart, found := strings.Cut(part, "=")
		if !found {
			return nil, fmt.Errorf("schedule entry %q: missing label", part)
		}
		hh, mm, found := strings.Cut(timePart, ":")
		if !found {
			return nil, fmt.Errorf("schedule entry %q: bad time", part)
		}
		hour, err := strconv.Atoi(strings.TrimSpace(hh))
		if err != nil || hour < 0 || hour > 23 {
			return nil, fmt.Errorf("schedule entry %q: bad hour", part)
		}
		minute, err := strconv.Atoi(strings.TrimSpace(mm))
		if err != nil || minute < 0 || minute > 59 {
			return nil, fmt.Errorf("schedule entry %q: bad minute", part)
		}
		out = append(out, model.ScheduleEntry{Hour: hour, Minute: minute, Label: strings.TrimSpace(labelPart)})
	}
	return out, nil
}
