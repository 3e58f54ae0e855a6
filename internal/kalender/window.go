package kalender

import (
	"sort"
	"time"

	"jadwalku/internal/model"
)

// futureHorizonMonths bounds the Future bucket.
const futureHorizonMonths = 3

// Window says which dashboard buckets a date range falls into. The buckets
// are independent; one range may be in all three.
type Window struct {
	ThisWeek  bool `json:"this_week"`
	ThisMonth bool `json:"this_month"`
	Future    bool `json:"future"`
}

// DashboardEvent is one dated calendar text placed on the dashboard.
type DashboardEvent struct {
	Name  string    `json:"name"`
	Date  string    `json:"date"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Dashboard lists calendar events per bucket, each sorted by start date.
type Dashboard struct {
	ThisWeek  []DashboardEvent `json:"this_week"`
	ThisMonth []DashboardEvent `json:"this_month"`
	Future    []DashboardEvent `json:"future"`
}

// ParseWeekStart maps "monday" to time.Monday and anything else to Sunday.
func ParseWeekStart(s string) time.Weekday {
	if s == "monday" {
		return time.Monday
	}
	return time.Sunday
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// weekBounds returns the first and last day (both midnight) of the week
// containing now.
func weekBounds(now time.Time, weekStart time.Weekday) (time.Time, time.Time) {
	today := startOfDay(now)
	offset := (int(today.Weekday()) - int(weekStart) + 7) % 7
	first := today.AddDate(0, 0, -offset)
	return first, first.AddDate(0, 0, 6)
}

func monthBounds(now time.Time) (time.Time, time.Time) {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first, first.AddDate(0, 1, -1)
}

// overlaps compares whole days: [aStart, aEnd] and [bStart, bEnd] share a day.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}

// Classify places r relative to now. now is first moved into r's location so
// day boundaries agree with the parsed dates.
func Classify(r DateRange, now time.Time, weekStart time.Weekday) Window {
	now = now.In(r.Start.Location())
	today := startOfDay(now)

	weekFirst, weekLast := weekBounds(now, weekStart)
	monthFirst, monthLast := monthBounds(now)

	return Window{
		ThisWeek:  overlaps(r.Start, r.End, weekFirst, weekLast),
		ThisMonth: overlaps(r.Start, r.End, monthFirst, monthLast),
		Future:    r.Start.After(today) && !r.Start.After(today.AddDate(0, futureHorizonMonths, 0)),
	}
}

// ClassifyCalendarWindow parses text (range or single date) and classifies
// it. Unparseable text reports ok == false and an empty Window.
func ClassifyCalendarWindow(text string, now time.Time, loc *time.Location, weekStart time.Weekday) (Window, bool) {
	r, ok := Parse(text, loc)
	if !ok {
		return Window{}, false
	}
	return Classify(r, now, weekStart), true
}

// BuildDashboard classifies every dated text in the calendar.
func BuildDashboard(cats []model.Category, now time.Time, loc *time.Location, weekStart time.Weekday) Dashboard {
	d := Dashboard{
		ThisWeek:  []DashboardEvent{},
		ThisMonth: []DashboardEvent{},
		Future:    []DashboardEvent{},
	}

	for _, ft := range flatten(cats) {
		for _, text := range ft.dates {
			r, ok := Parse(text, loc)
			if !ok {
				continue
			}
			ev := DashboardEvent{Name: ft.name, Date: text, Start: r.Start, End: r.End}

			w := Classify(r, now, weekStart)
			if w.ThisWeek {
				d.ThisWeek = append(d.ThisWeek, ev)
			}
			if w.ThisMonth {
				d.ThisMonth = append(d.ThisMonth, ev)
			}
			if w.Future {
				d.Future = append(d.Future, ev)
			}
		}
	}

	for _, list := range [][]DashboardEvent{d.ThisWeek, d.ThisMonth, d.Future} {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Start.Before(list[j].Start)
		})
	}
	return d
}
