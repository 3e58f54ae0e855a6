package ics

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/pkg/errors"

	"jadwalku/internal/kalender"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

// ImportCode is the category code given to events read from an ICS file.
const ImportCode = "ICS"

// ParseAcademic reads an iCalendar payload as an academic calendar with one
// category. Each VEVENT becomes an item whose Ganjil text is its date in the
// calendar's own notation ("13 Oktober 2025 - 24 Oktober 2025"), so imported
// events flow through the same parser as the built-in dataset.
func ParseAcademic(body []byte, loc *time.Location) ([]model.Category, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "parse ics")
	}

	cat := model.Category{Code: ImportCode, Name: calendarName(cal)}
	for _, ve := range cal.Events() {
		item, perr := parseVEvent(ve, loc)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr)
			continue
		}
		item.ID = fmt.Sprintf("%s%d", ImportCode, len(cat.Items)+1)
		cat.Items = append(cat.Items, item)
	}
	if len(cat.Items) == 0 {
		return nil, errors.New("ics has no usable events")
	}

	appLog.Info("ics parse completed", "name", cat.Name, "event_count", len(cat.Items))
	return []model.Category{cat}, nil
}

func calendarName(cal *ical.Calendar) string {
	for _, p := range cal.CalendarProperties {
		if p.IANAToken == string(ical.PropertyXWRCalName) && p.Value != "" {
			return p.Value
		}
	}
	return "Kalender Impor"
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (model.CalendarItem, error) {
	var item model.CalendarItem

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		item.Name = strings.TrimSpace(p.Value)
	}
	if item.Name == "" {
		return item, errors.New("missing SUMMARY")
	}

	start, allDay, err := eventDay(ve, ical.ComponentPropertyDtStart, loc)
	if err != nil {
		return item, errors.Wrap(err, "DTSTART")
	}
	end := start
	if e, _, err := eventDay(ve, ical.ComponentPropertyDtEnd, loc); err == nil {
		// All-day DTEND is exclusive.
		if allDay {
			e = e.AddDate(0, 0, -1)
		}
		if e.After(start) {
			end = e
		}
	}

	item.Ganjil = kalender.FormatDate(start)
	if !end.Equal(start) {
		item.Ganjil += " - " + kalender.FormatDate(end)
	}
	item.Genap = "-"
	return item, nil
}

// eventDay returns the calendar day of a DTSTART/DTEND property in loc and
// whether it was a DATE value.
func eventDay(ve *ical.VEvent, prop ical.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	p := ve.GetProperty(prop)
	if p == nil {
		return time.Time{}, false, errors.Errorf("missing %s", prop)
	}

	allDay := len(strings.TrimSpace(p.Value)) == 8
	if v, ok := p.ICalParameters["VALUE"]; ok && len(v) > 0 && strings.EqualFold(v[0], string(ical.ValueDataTypeDate)) {
		allDay = true
	}

	var t time.Time
	var err error
	if allDay {
		t, err = ve.GetAllDayStartAt()
		if prop == ical.ComponentPropertyDtEnd {
			t, err = ve.GetAllDayEndAt()
		}
	} else {
		t, err = ve.GetStartAt()
		if prop == ical.ComponentPropertyDtEnd {
			t, err = ve.GetEndAt()
		}
		t = t.In(loc)
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), allDay, nil
}
