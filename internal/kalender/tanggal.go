// Package kalender holds the academic calendar dataset and the logic that
// reads its Indonesian date texts: single dates, date ranges, the upcoming
// events list and the this-week/this-month/future dashboard windows.
package kalender

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Placeholder used in the dataset for "no date in this semester".
const noDate = "-"

var monthNames = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var monthByName = func() map[string]time.Month {
	m := make(map[string]time.Month, len(monthNames))
	for i, name := range monthNames {
		m[strings.ToLower(name)] = time.Month(i + 1)
	}
	return m
}()

var (
	singleRe = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})`)

	// <day> <Month> [<year>] - <day> <Month> <year>
	rangeRe = regexp.MustCompile(`\b(\d{1,2})\s+([A-Za-z]+)(?:\s+(\d{4}))?\s*[-–]\s*(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})`)

	// <day> - <day> <Month> <year>, the collapsed form FormatForDisplay emits.
	shortRangeRe = regexp.MustCompile(`\b(\d{1,2})\s*[-–]\s*(\d{1,2})\s+([A-Za-z]+)\s+(\d{4})`)
)

// DateRange is an inclusive span of calendar days. Both ends are midnight in
// the parse location; a single date has Start == End.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// MonthName returns the Indonesian name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// LookupMonth resolves an Indonesian month name, ignoring case.
func LookupMonth(name string) (time.Month, bool) {
	m, ok := monthByName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// IsNoDate reports whether text is the empty or "-" placeholder.
func IsNoDate(text string) bool {
	t := strings.TrimSpace(text)
	return t == "" || t == noDate
}

// ParseSingleDate finds the first "<day> <Month> <year>" in text.
func ParseSingleDate(text string, loc *time.Location) (time.Time, bool) {
	if IsNoDate(text) {
		return time.Time{}, false
	}
	m := singleRe.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	return makeDate(m[1], m[2], m[3], loc)
}

// ParseDateRange parses the first date range found in text. A start without
// a year borrows the end year, minus one when the range runs Desember into
// Januari. Only the first range is read; a value holding two ranges (one per
// line) yields the first.
func ParseDateRange(text string, loc *time.Location) (DateRange, bool) {
	if IsNoDate(text) {
		return DateRange{}, false
	}

	if m := rangeRe.FindStringSubmatch(text); m != nil {
		startDay, startMonth, startYear := m[1], m[2], m[3]
		endDay, endMonth, endYear := m[4], m[5], m[6]

		end, ok := makeDate(endDay, endMonth, endYear, loc)
		if !ok {
			return DateRange{}, false
		}

		if startYear == "" {
			sm, ok := LookupMonth(startMonth)
			if !ok {
				return DateRange{}, false
			}
			year := end.Year()
			if sm == time.December && end.Month() == time.January {
				year--
			}
			startYear = strconv.Itoa(year)
		}

		start, ok := makeDate(startDay, startMonth, startYear, loc)
		if !ok {
			return DateRange{}, false
		}
		return DateRange{Start: start, End: end}, true
	}

	if m := shortRangeRe.FindStringSubmatch(text); m != nil {
		end, ok := makeDate(m[2], m[3], m[4], loc)
		if !ok {
			return DateRange{}, false
		}
		start, ok := makeDate(m[1], m[3], m[4], loc)
		if !ok || start.After(end) {
			return DateRange{}, false
		}
		return DateRange{Start: start, End: end}, true
	}

	return DateRange{}, false
}

// Parse reads text as a range first and as a single date second.
func Parse(text string, loc *time.Location) (DateRange, bool) {
	if r, ok := ParseDateRange(text, loc); ok {
		return r, true
	}
	if d, ok := ParseSingleDate(text, loc); ok {
		return DateRange{Start: d, End: d}, true
	}
	return DateRange{}, false
}

// FormatForDisplay rewrites the first range in text as "1 - 31 Mei 2024"
// when both ends share month and year, or "30 Desember - 9 Januari 2025"
// otherwise. Text around the range is kept. Anything else is returned as is.
func FormatForDisplay(text string) string {
	loc := time.UTC

	idx := rangeRe.FindStringIndex(text)
	if idx == nil {
		idx = shortRangeRe.FindStringIndex(text)
	}
	if idx == nil {
		return text
	}

	r, ok := ParseDateRange(text[idx[0]:idx[1]], loc)
	if !ok {
		return text
	}

	var normalized string
	if r.Start.Month() == r.End.Month() && r.Start.Year() == r.End.Year() {
		normalized = fmt.Sprintf("%d - %d %s %d",
			r.Start.Day(), r.End.Day(), MonthName(r.End.Month()), r.End.Year())
	} else {
		normalized = fmt.Sprintf("%d %s - %d %s %d",
			r.Start.Day(), MonthName(r.Start.Month()),
			r.End.Day(), MonthName(r.End.Month()), r.End.Year())
	}

	return text[:idx[0]] + normalized + text[idx[1]:]
}

// FormatDate renders t as "4 Januari 2025".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), MonthName(t.Month()), t.Year())
}

func makeDate(dayText, monthText, yearText string, loc *time.Location) (time.Time, bool) {
	month, ok := LookupMonth(monthText)
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayText)
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearText)
	if err != nil {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	// time.Date normalizes 31 Februari into March; treat that as unparseable.
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}
