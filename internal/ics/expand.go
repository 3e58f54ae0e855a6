package ics

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"

	"jadwalku/internal/jadwal"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

const defaultMaxOccurrencesPerClass = 500

// rruleDays is indexed by time.Weekday.
var rruleDays = [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ClassOccurrence is one concrete meeting of a weekly class.
type ClassOccurrence struct {
	Subject string    `json:"mata_kuliah"`
	Day     string    `json:"hari"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}

// classRule builds the weekly recurrence of c, anchored at its first meeting
// on or after the calendar day of from, and returns the meeting length.
func classRule(c model.ClassSchedule, from time.Time, loc *time.Location) (*rrule.RRule, time.Duration, error) {
	wd, ok := jadwal.ParseDay(c.Day)
	if !ok {
		return nil, 0, errors.Errorf("unknown day %q", c.Day)
	}
	sh, sm, ok := jadwal.ParseClock(c.StartTime)
	if !ok {
		return nil, 0, errors.Errorf("bad start time %q", c.StartTime)
	}
	eh, em, ok := jadwal.ParseClock(c.EndTime)
	if !ok {
		return nil, 0, errors.Errorf("bad end time %q", c.EndTime)
	}

	from = from.In(loc)
	day := from.AddDate(0, 0, (int(wd)-int(from.Weekday())+7)%7)
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc)
	if !end.After(start) {
		return nil, 0, errors.Errorf("class %q ends before it starts", c.Subject)
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   start,
		Byweekday: []rrule.Weekday{rruleDays[wd]},
	})
	if err != nil {
		return nil, 0, errors.Wrap(err, "build rrule")
	}
	return r, end.Sub(start), nil
}

// ExpandClassSchedule lists every class meeting starting within
// [rangeStart, rangeEnd], sorted by start time. Classes with an unknown day
// or unreadable times are logged and skipped.
func ExpandClassSchedule(classes []model.ClassSchedule, rangeStart, rangeEnd time.Time, loc *time.Location) ([]ClassOccurrence, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, errors.New("expand: range end is before range start")
	}
	if loc == nil {
		loc = time.Local
	}

	out := make([]ClassOccurrence, 0)
	for _, c := range classes {
		r, dur, err := classRule(c, rangeStart, loc)
		if err != nil {
			appLog.Error("expand: skipping class", err, "subject", c.Subject, "day", c.Day)
			continue
		}

		starts := r.Between(rangeStart.In(loc), rangeEnd.In(loc), true)
		if len(starts) > defaultMaxOccurrencesPerClass {
			appLog.Error("expand: truncated occurrences", errors.New("max occurrences reached"),
				"subject", c.Subject, "cap", defaultMaxOccurrencesPerClass)
			starts = starts[:defaultMaxOccurrencesPerClass]
		}
		for _, s := range starts {
			out = append(out, ClassOccurrence{
				Subject: c.Subject,
				Day:     jadwal.DayName(s.Weekday()),
				Start:   s,
				End:     s.Add(dur),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Subject < out[j].Subject
	})
	return out, nil
}
