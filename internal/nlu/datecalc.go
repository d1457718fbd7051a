package nlu

import (
	"encoding/json"
	"strings"
	"time"
)

// The model returns date phrases as a small temporal JSON object instead of
// computing calendar math itself. resolveDate turns that object (or an
// already-ISO string) into YYYY-MM-DD relative to today. An empty result
// means the phrase could not be resolved and the field is dropped.
type temporalSpec struct {
	DayOffset     int    `json:"day_offset"`
	TargetWeekday string `json:"target_weekday"`
	ExtraWeeks    int    `json:"extra_weeks"`
	ExtraMonths   int    `json:"extra_months"`
	TargetDate    int    `json:"target_date"` // day of month
}

var weekdays = map[string]int{
	"senin": 0, "selasa": 1, "rabu": 2, "kamis": 3, "jumat": 4, "sabtu": 5, "minggu": 6,
	"monday": 0, "tuesday": 1, "wednesday": 2, "thursday": 3, "friday": 4, "saturday": 5, "sunday": 6,
}

func resolveDate(raw json.RawMessage, today time.Time) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}

	// Edit-mode extraction returns a plain ISO string.
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return ""
		}
		return s
	}

	var spec temporalSpec
	if err := json.Unmarshal(raw, &spec); err != nil {
		return ""
	}
	if spec == (temporalSpec{}) {
		return ""
	}

	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	// Specific day of month, optionally in a later month.
	if spec.ExtraMonths > 0 || spec.TargetDate > 0 {
		d := base.AddDate(0, spec.ExtraMonths, 0)
		if spec.TargetDate > 0 {
			d = time.Date(d.Year(), d.Month(), spec.TargetDate, 0, 0, 0, 0, d.Location())
		}
		return d.Format("2006-01-02")
	}

	// Named weekday, optionally some weeks out.
	if spec.TargetWeekday != "" {
		target, ok := weekdays[strings.ToLower(strings.TrimSpace(spec.TargetWeekday))]
		if !ok {
			return ""
		}
		// Monday of the current week, with Monday as day 0.
		offset := (int(base.Weekday()) + 6) % 7
		monday := base.AddDate(0, 0, -offset)
		d := monday.AddDate(0, 0, target+7*spec.ExtraWeeks)
		if d.Before(base) {
			d = d.AddDate(0, 0, 7)
		}
		return d.Format("2006-01-02")
	} else if spec.ExtraWeeks > 0 {
		return base.AddDate(0, 0, 7*spec.ExtraWeeks).Format("2006-01-02")
	}

	if spec.DayOffset > 0 {
		return base.AddDate(0, 0, spec.DayOffset).Format("2006-01-02")
	}

	return base.Format("2006-01-02")
}
