package order

import (
	"fmt"
	"time"

	"github.com/Leen2210/Chatbot-Samator/platform/language"
)

var indonesianMonths = map[time.Month]string{
	time.January: "Januari", time.February: "Februari", time.March: "Maret",
	time.April: "April", time.May: "Mei", time.June: "Juni",
	time.July: "Juli", time.August: "Agustus", time.September: "September",
	time.October: "Oktober", time.November: "November", time.December: "Desember",
}

// ValidateDeliveryDate checks a normalized ISO date against the delivery
// rules: not in the past and not a Sunday. It returns a user-facing message
// when the date is rejected, empty when it is fine. Today must already be
// in the business timezone.
func ValidateDeliveryDate(date string, today time.Time, lang language.Code) string {
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		if lang == language.English {
			return "Sorry, I couldn't read that date. Could you give a clearer date (e.g. 'tomorrow', 'February 15')?"
		}
		return "Maaf, format tanggal tidak valid. Mohon berikan tanggal yang jelas (contoh: 'besok', '15 Februari')."
	}

	day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, today.Location())
	todayDay := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	if day.Before(todayDay) {
		daysAgo := int(todayDay.Sub(day).Hours() / 24)
		if lang == language.English {
			return fmt.Sprintf("Sorry, %s has already passed (%d day(s) ago). What date should the delivery be?", date, daysAgo)
		}
		var timeDesc string
		switch daysAgo {
		case 1:
			timeDesc = "kemarin"
		case 2:
			timeDesc = "kemarin lusa"
		default:
			timeDesc = fmt.Sprintf("%d hari yang lalu", daysAgo)
		}
		return fmt.Sprintf("Maaf, tanggal %s itu sudah lewat (%s). Untuk tanggal berapa ya pengirimannya?", date, timeDesc)
	}

	if day.Weekday() == time.Sunday {
		if lang == language.English {
			return fmt.Sprintf("Sorry, %s is a Sunday. We don't deliver on Sundays. Could you pick another date?", day.Format("2 January 2006"))
		}
		formatted := fmt.Sprintf("%02d %s %d", day.Day(), indonesianMonths[day.Month()], day.Year())
		return fmt.Sprintf("Maaf, tanggal %s itu hari Minggu. Kami tidak melayani pengiriman di hari Minggu. Bisa pilih tanggal lain?", formatted)
	}

	return ""
}
