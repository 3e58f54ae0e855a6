// Package ics converts calendars and user schedules to and from iCalendar
// (RFC 5545) so they can be subscribed to from any calendar app.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"jadwalku/internal/jadwal"
	"jadwalku/internal/kalender"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

// ContentType is the media type of Serialize output.
const ContentType = "text/calendar; charset=utf-8"

// uidNamespace keeps event UIDs stable across exports, so clients update
// events instead of duplicating them.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("jadwalku:ics"))

func eventUID(parts ...string) string {
	return uuid.NewSHA1(uidNamespace, []byte(strings.Join(parts, "\x00"))).String() + "@jadwalku"
}

func newCalendar(name string, loc *time.Location) *ical.Calendar {
	cal := ical.NewCalendarFor("jadwalku")
	cal.SetMethod(ical.MethodPublish)
	cal.SetXWRCalName(name)
	cal.SetXWRTimezone(loc.String())
	return cal
}

// AcademicCalendar exports every dated item of cats as an all-day event.
// DTEND is exclusive, so a range ending 24 Oktober ends on the 25th.
func AcademicCalendar(cats []model.Category, loc *time.Location, stamp time.Time) string {
	if loc == nil {
		loc = time.Local
	}
	cal := newCalendar("Kalender Akademik", loc)

	skipped := 0
	var walk func(code string, items []model.CalendarItem)
	walk = func(code string, items []model.CalendarItem) {
		for _, it := range items {
			semesters := []struct{ label, text string }{
				{"Ganjil", it.Ganjil},
				{"Genap", it.Genap},
			}
			for _, sem := range semesters {
				if kalender.IsNoDate(sem.text) {
					continue
				}
				r, ok := kalender.Parse(sem.text, loc)
				if !ok {
					skipped++
					continue
				}
				ev := cal.AddEvent(eventUID("kalender", code, it.ID, it.Name, sem.label))
				ev.SetDtStampTime(stamp)
				ev.SetSummary(fmt.Sprintf("%s (Semester %s)", it.Name, sem.label))
				ev.SetDescription(sem.text)
				ev.SetAllDayStartAt(r.Start)
				ev.SetAllDayEndAt(r.End.AddDate(0, 0, 1))
			}
			walk(code, it.SubItems)
		}
	}
	for _, c := range cats {
		walk(c.Code, c.Items)
	}

	if skipped > 0 {
		appLog.Debug("ics: academic dates skipped", "count", skipped)
	}
	return cal.Serialize()
}

// UserSchedule exports classes and weekly tasks as weekly recurring events
// starting from the week of from, and dated upcoming activities as one-off
// events. Entries that cannot be placed in time are skipped.
func UserSchedule(s model.Schedules, from time.Time, loc *time.Location, stamp time.Time) string {
	if loc == nil {
		loc = time.Local
	}
	cal := newCalendar("Jadwal Kuliah", loc)

	for _, c := range s.Kuliah {
		r, dur, err := classRule(c, from, loc)
		if err != nil {
			appLog.Debug("ics: class skipped", "subject", c.Subject, "err", err)
			continue
		}
		ev := cal.AddEvent(eventUID("kuliah", jadwal.NormalizeDay(c.Day), c.Subject, c.StartTime))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(c.Subject)
		setWeekly(ev, r, dur, loc)
	}

	for day, tasks := range s.Mingguan {
		for _, t := range tasks {
			c := model.ClassSchedule{Day: day, Subject: t.Description, StartTime: t.StartTime, EndTime: t.EndTime}
			r, dur, err := classRule(c, from, loc)
			if err != nil {
				appLog.Debug("ics: weekly task skipped", "day", day, "err", err)
				continue
			}
			ev := cal.AddEvent(eventUID("mingguan", jadwal.NormalizeDay(day), t.Description, t.StartTime))
			ev.SetDtStampTime(stamp)
			ev.SetSummary(t.Description)
			setWeekly(ev, r, dur, loc)
		}
	}

	for _, u := range s.Mendatang {
		start, end, ok := upcomingBounds(u, loc)
		if !ok {
			appLog.Debug("ics: upcoming activity skipped", "activity", u.Activity, "date", u.Date)
			continue
		}
		ev := cal.AddEvent(eventUID("mendatang", u.Date, u.Activity, u.StartTime))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(u.Activity)
		if u.Description != "" {
			ev.SetDescription(u.Description)
		}
		ev.SetStartAt(start)
		ev.SetEndAt(end)
	}

	return cal.Serialize()
}

// localLayout is the RFC 5545 form of a local DATE-TIME.
const localLayout = "20060102T150405"

// setWeekly writes the start, end and weekly rule of r onto ev. BYDAY must
// name the weekday DTSTART falls on as written. Named zones are written as
// local time with TZID. Other zones are written in UTC, with BYDAY moved to
// the UTC weekday of the first meeting.
func setWeekly(ev *ical.VEvent, r *rrule.RRule, dur time.Duration, loc *time.Location) {
	start := r.GetDTStart().In(loc)
	end := start.Add(dur)

	if tzid, ok := zoneID(loc); ok {
		ev.SetProperty(ical.ComponentPropertyDtStart, start.Format(localLayout), ical.WithTZID(tzid))
		ev.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localLayout), ical.WithTZID(tzid))
		ev.AddRrule(r.OrigOptions.RRuleString())
		return
	}

	opt := r.OrigOptions
	opt.Byweekday = []rrule.Weekday{rruleDays[start.UTC().Weekday()]}
	ev.SetStartAt(start)
	ev.SetEndAt(end)
	ev.AddRrule(opt.RRuleString())
}

// zoneID reports the IANA name of loc when a calendar client can resolve it.
func zoneID(loc *time.Location) (string, bool) {
	name := loc.String()
	switch name {
	case "", "Local", "UTC":
		return "", false
	}
	if _, err := time.LoadLocation(name); err != nil {
		return "", false
	}
	return name, true
}

// upcomingBounds places u on its date. A missing or inverted end time
// becomes a one-hour slot.
func upcomingBounds(u model.UpcomingSchedule, loc *time.Location) (time.Time, time.Time, bool) {
	day, ok := jadwal.ParseISODate(u.Date, loc)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	sh, sm, ok := jadwal.ParseClock(u.StartTime)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc)
	end := start.Add(time.Hour)
	if eh, em, ok := jadwal.ParseClock(u.EndTime); ok {
		if e := time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc); e.After(start) {
			end = e
		}
	}
	return start, end, true
}
