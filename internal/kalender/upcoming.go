package kalender

import (
	"sort"
	"sync"
	"time"

	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

// DefaultPageSize is used when a caller asks for a non-positive limit.
const DefaultPageSize = 5

// epoch stands in for the range end of single dates when breaking ties.
// Single dates therefore sort before ranges starting the same day.
var epoch = time.Unix(0, 0)

// datedText is one calendar name with the date texts that still need parsing.
type datedText struct {
	name  string
	dates []string
}

// Page is one slice of the upcoming list.
type Page struct {
	Events  []model.UpcomingEvent `json:"events"`
	HasMore bool                  `json:"has_more"`
	Total   int                   `json:"total"`
}

// Stats reports what the extractor skipped.
type Stats struct {
	// Dropped counts non-placeholder texts that could not be parsed.
	Dropped int `json:"dropped"`
	// Past counts parsed events that start before now.
	Past int `json:"past"`
}

// flatten walks categories, items and sub-items in dataset order and drops
// empty and "-" date texts.
func flatten(cats []model.Category) []datedText {
	var out []datedText
	var walk func(items []model.CalendarItem)
	walk = func(items []model.CalendarItem) {
		for _, it := range items {
			var dates []string
			for _, d := range []string{it.Ganjil, it.Genap} {
				if !IsNoDate(d) {
					dates = append(dates, d)
				}
			}
			if len(dates) > 0 {
				out = append(out, datedText{name: it.Name, dates: dates})
			}
			walk(it.SubItems)
		}
	}
	for _, c := range cats {
		walk(c.Items)
	}
	return out
}

// Upcoming returns every calendar event starting at or after now, sorted by
// start date. Ranges contribute their start date; ties are broken by range
// end with single dates first. Unparseable texts are skipped and counted.
func Upcoming(cats []model.Category, now time.Time, loc *time.Location) ([]model.UpcomingEvent, Stats) {
	var (
		events []model.UpcomingEvent
		stats  Stats
	)

	for _, ft := range flatten(cats) {
		for _, text := range ft.dates {
			ev := model.UpcomingEvent{Name: ft.name, Date: text}

			if r, ok := ParseDateRange(text, loc); ok {
				ev.ParsedDate = r.Start
				ev.RangeEnd = r.End
			} else if d, ok := ParseSingleDate(text, loc); ok {
				ev.ParsedDate = d
			} else {
				stats.Dropped++
				appLog.Debug("calendar date not parseable; skipped", "name", ft.name, "text", text)
				continue
			}

			if ev.ParsedDate.Before(now) {
				stats.Past++
				continue
			}
			events = append(events, ev)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.ParsedDate.Equal(b.ParsedDate) {
			return a.ParsedDate.Before(b.ParsedDate)
		}
		return tieEnd(a).Before(tieEnd(b))
	})

	return events, stats
}

func tieEnd(ev model.UpcomingEvent) time.Time {
	if ev.RangeEnd.IsZero() {
		return epoch
	}
	return ev.RangeEnd
}

// Paginate returns events[start:start+limit] with the total count. A start
// past the end gives an empty page.
func Paginate(events []model.UpcomingEvent, start, limit int) Page {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if start < 0 {
		start = 0
	}

	total := len(events)
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	page := make([]model.UpcomingEvent, end-start)
	copy(page, events[start:end])

	return Page{
		Events:  page,
		HasMore: end < total,
		Total:   total,
	}
}

// UpcomingPage is Upcoming followed by Paginate.
func UpcomingPage(cats []model.Category, now time.Time, loc *time.Location, start, limit int) Page {
	events, _ := Upcoming(cats, now, loc)
	return Paginate(events, start, limit)
}

// Snapshot caches the sorted upcoming list so paging does not re-parse the
// calendar on every request. It is rebuilt when older than ttl or when
// Refresh is called (daily from cron). Events that start before the time
// of a Page call are left out even when the list is still fresh.
type Snapshot struct {
	cats []model.Category
	loc  *time.Location
	ttl  time.Duration

	mu        sync.RWMutex
	events    []model.UpcomingEvent
	stats     Stats
	updatedAt time.Time
}

// NewSnapshot returns an empty snapshot; the first Page call fills it.
func NewSnapshot(cats []model.Category, loc *time.Location, ttl time.Duration) *Snapshot {
	if loc == nil {
		loc = time.Local
	}
	return &Snapshot{cats: cats, loc: loc, ttl: ttl}
}

// Refresh rebuilds the cached list as of now.
func (s *Snapshot) Refresh(now time.Time) Stats {
	events, stats := Upcoming(s.cats, now, s.loc)

	s.mu.Lock()
	s.events = events
	s.stats = stats
	s.updatedAt = now
	s.mu.Unlock()

	appLog.Info("upcoming snapshot refreshed",
		"events", len(events),
		"dropped", stats.Dropped,
		"past", stats.Past,
	)
	return stats
}

// Page serves a page from the cache, rebuilding it first when stale.
func (s *Snapshot) Page(now time.Time, start, limit int) Page {
	s.mu.RLock()
	fresh := !s.updatedAt.IsZero() && now.Sub(s.updatedAt) < s.ttl && !now.Before(s.updatedAt)
	s.mu.RUnlock()

	if !fresh {
		s.Refresh(now)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Paginate(dropStarted(s.events, now), start, limit)
}

// dropStarted skips the events of a sorted list that start before now, so
// a cached list never serves an event that has begun since it was built.
func dropStarted(events []model.UpcomingEvent, now time.Time) []model.UpcomingEvent {
	i := sort.Search(len(events), func(i int) bool {
		return !events[i].ParsedDate.Before(now)
	})
	return events[i:]
}

// Stats returns the counters of the last refresh.
func (s *Snapshot) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
