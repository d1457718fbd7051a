package nlu

import (
	"encoding/json"
	"testing"
	"time"
)

func TestResolveDateTemporal(t *testing.T) {
	// Wednesday 2025-02-05
	today := time.Date(2025, 2, 5, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"tomorrow", `{"day_offset": 1}`, "2025-02-06"},
		{"day after tomorrow", `{"day_offset": 2}`, "2025-02-07"},
		{"this friday", `{"target_weekday": "jumat"}`, "2025-02-07"},
		{"monday already passed rolls forward", `{"target_weekday": "senin"}`, "2025-02-10"},
		{"next week monday", `{"target_weekday": "senin", "extra_weeks": 1}`, "2025-02-10"},
		{"english weekday", `{"target_weekday": "Friday"}`, "2025-02-07"},
		{"plain next week", `{"extra_weeks": 1}`, "2025-02-12"},
		{"day of month", `{"target_date": 20}`, "2025-02-20"},
		{"day of next month", `{"extra_months": 1, "target_date": 3}`, "2025-03-03"},
		{"iso string", `"2025-02-10"`, "2025-02-10"},
		{"invalid string", `"besok"`, ""},
		{"null", `null`, ""},
		{"empty object", `{}`, ""},
		{"unknown weekday", `{"target_weekday": "someday"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveDate(json.RawMessage(tt.raw), today)
			if got != tt.want {
				t.Fatalf("resolveDate(%s) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolveDateWeekdayOnTargetDay(t *testing.T) {
	// Friday asking for "jumat" resolves to the same day, not next week.
	today := time.Date(2025, 2, 7, 9, 0, 0, 0, time.UTC)
	got := resolveDate(json.RawMessage(`{"target_weekday": "jumat"}`), today)
	if got != "2025-02-07" {
		t.Fatalf("expected same-day resolution, got %q", got)
	}
}
