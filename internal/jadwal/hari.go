package jadwal

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"jadwalku/internal/kalender"
)

// dayNames is indexed by time.Weekday.
var dayNames = [...]string{"Minggu", "Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu"}

// weekOrder is the order days are listed in: Senin first, as on a timetable.
var weekOrder = []string{"Senin", "Selasa", "Rabu", "Kamis", "Jumat", "Sabtu", "Minggu"}

// DayName returns the Indonesian name of wd.
func DayName(wd time.Weekday) string {
	return dayNames[wd]
}

// NormalizeDay title-cases an Indonesian day name ("senin" -> "Senin").
// The rest of the word is lowercased, so "SENIN" also becomes "Senin".
// Jum'at is folded into Jumat. Unknown words are only title-cased.
func NormalizeDay(day string) string {
	day = strings.TrimSpace(day)
	if day == "" {
		return ""
	}
	if strings.EqualFold(day, "jum'at") {
		return "Jumat"
	}
	// cases.Caser keeps state; one per call.
	return cases.Title(language.Indonesian).String(day)
}

// ParseDay maps an Indonesian day name to its weekday.
func ParseDay(day string) (time.Weekday, bool) {
	day = NormalizeDay(day)
	for i, name := range dayNames {
		if name == day {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// ParseClock reads "08:00" or "08:00:00" into hours and minutes.
func ParseClock(s string) (hour, minute int, ok bool) {
	t, err := time.Parse("15:04", shortTime(s))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// sameDay compares day names after normalization.
func sameDay(a, b string) bool {
	return NormalizeDay(a) == NormalizeDay(b)
}

// FormatLongDate renders t as "Sabtu, 4 Januari 2025".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %s", DayName(t.Weekday()), kalender.FormatDate(t))
}

// shortTime cuts "08:00:00" down to "08:00". Already short values pass through.
func shortTime(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 5 {
		return s[:5]
	}
	return s
}

// ParseISODate reads "2025-01-04" or an RFC 3339 timestamp as a calendar
// day in loc. A timestamp is converted to loc first, so a local midnight
// serialized in UTC ("2025-01-04T17:00:00.000Z" in WIB) lands on 5 January.
// Timestamps without an offset keep their written date.
func ParseISODate(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 10 {
		return time.Time{}, false
	}
	if len(s) > 10 {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			ts = ts.In(loc)
			return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, loc), true
		}
	}
	t, err := time.ParseInLocation("2006-01-02", s[:10], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
