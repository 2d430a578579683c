// internal/matching/availability/schedule.go
package availability

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Shift boundaries in hours of the day. The buckets overlap on purpose: a
// 10:00-19:00 day covers morning, afternoon and night.
const (
	morningStart   = 6
	afternoonStart = 12
	nightStart     = 18
	overnightStart = 23
)

// DaySchedule is one day of the caregiver's weekly schedule.
type DaySchedule struct {
	Enabled   bool   `json:"enabled"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// WeeklySchedule maps weekdays to their schedule.
type WeeklySchedule map[Day]DaySchedule

// ParseWeeklySchedule decodes the stored schedule JSON, an object keyed by
// weekday name in any case. Unknown keys are ignored; empty input yields an
// empty schedule.
func ParseWeeklySchedule(raw []byte) (WeeklySchedule, error) {
	schedule := WeeklySchedule{}
	if len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null" {
		return schedule, nil
	}

	var byName map[string]DaySchedule
	if err := json.Unmarshal(raw, &byName); err != nil {
		return nil, fmt.Errorf("decode weekly schedule: %w", err)
	}
	for name, day := range byName {
		if d, ok := ParseDay(name); ok {
			schedule[d] = day
		}
	}
	return schedule, nil
}

// ScheduleToSlots derives the covered shifts for every enabled day. Days with
// unparseable times are skipped.
func ScheduleToSlots(schedule WeeklySchedule) SlotSet {
	set := SlotSet{}
	for d, day := range schedule {
		if !day.Enabled {
			continue
		}
		start, okStart := parseHour(day.StartTime)
		end, okEnd := parseHour(day.EndTime)
		if !okStart || !okEnd {
			continue
		}
		for _, sh := range shiftsCovered(start, end) {
			set.Add(NewSlot(d, sh))
		}
	}
	return set
}

func shiftsCovered(start, end int) []Shift {
	var shifts []Shift
	if start < afternoonStart && end > morningStart {
		shifts = append(shifts, Morning)
	}
	if start < nightStart && end > afternoonStart {
		shifts = append(shifts, Afternoon)
	}
	if start < overnightStart && end > nightStart {
		shifts = append(shifts, Night)
	}
	if end <= morningStart || start >= overnightStart {
		shifts = append(shifts, Overnight)
	}
	return shifts
}

// parseHour reads "HH:MM" or "HH" and returns the hour. Minutes are
// validated and then dropped: shifts are decided on whole hours, so 05:00-06:30
// is an overnight entry and 12:00-12:30 covers no shift.
func parseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.SplitN(s, ":", 3)
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, false
	}
	if len(parts) > 1 {
		m, err := strconv.Atoi(parts[1])
		if err != nil || m < 0 || m > 59 {
			return 0, false
		}
	}
	return h, true
}
