// Package jadwal renders a user's schedules as plain text for the chat
// assistant.
package jadwal

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"jadwalku/internal/kalender"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

// Type selects what FormatByType renders.
type Type string

const (
	TypeAll       Type = "all"
	TypeKuliah    Type = "kuliah"
	TypeMingguan  Type = "mingguan"
	TypeMendatang Type = "mendatang"
)

const (
	noKuliah    = "Tidak ada jadwal kuliah."
	noMingguan  = "Tidak ada jadwal mingguan."
	noMendatang = "Tidak ada jadwal mendatang."
)

// ParseType maps a request value to a Type; ok is false for unknown values.
func ParseType(s string) (Type, bool) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeAll, TypeKuliah, TypeMingguan, TypeMendatang:
		return t, true
	case "":
		return TypeAll, true
	default:
		return TypeAll, false
	}
}

// FormatByType renders one view of s. day may be empty: "all" then uses
// today, the other types list every day. now decides what "today" is.
// Unknown types render as TypeAll.
func FormatByType(s model.Schedules, typ Type, day string, now time.Time) string {
	switch typ {
	case TypeAll:
		return formatAll(s, day, now)
	case TypeKuliah:
		return formatKuliah(s.Kuliah, day)
	case TypeMingguan:
		return formatMingguan(s.Mingguan, day)
	case TypeMendatang:
		return formatMendatang(s.Mendatang, now)
	default:
		appLog.Debug("unknown schedule type; using all", "type", string(typ))
		return formatAll(s, day, now)
	}
}

func formatAll(s model.Schedules, day string, now time.Time) string {
	today := DayName(now.Weekday())
	day = NormalizeDay(day)
	if day == "" {
		day = today
	}

	var sections []string

	if classes := classesOn(s.Kuliah, day); len(classes) > 0 {
		sections = append(sections, kuliahSection("📚 Jadwal Kuliah hari "+day+":", classes))
	}
	if tasks := tasksOn(s.Mingguan, day); len(tasks) > 0 {
		sections = append(sections, mingguanSection("🗓️ Jadwal Mingguan hari "+day+":", tasks))
	}
	if day == today {
		if events := eventsOn(s.Mendatang, now); len(events) > 0 {
			var b strings.Builder
			b.WriteString("⭐ Jadwal Khusus Hari Ini:")
			for _, ev := range events {
				b.WriteString("\n- " + eventLine(ev))
			}
			sections = append(sections, b.String())
		}
	}

	if len(sections) == 0 {
		return "Tidak ada jadwal untuk hari " + day + "."
	}
	return strings.Join(sections, "\n\n")
}

func formatKuliah(classes []model.ClassSchedule, day string) string {
	day = NormalizeDay(day)
	if day != "" {
		list := classesOn(classes, day)
		if len(list) == 0 {
			return noKuliah
		}
		return kuliahSection("📚 Jadwal Kuliah hari "+day+":", list)
	}

	var parts []string
	for _, d := range weekOrder {
		if list := classesOn(classes, d); len(list) > 0 {
			parts = append(parts, kuliahSection(d+":", list))
		}
	}
	if len(parts) == 0 {
		return noKuliah
	}
	return "📚 Jadwal Kuliah:\n" + strings.Join(parts, "\n")
}

func formatMingguan(plan map[string][]model.WeeklyTask, day string) string {
	day = NormalizeDay(day)
	if day != "" {
		tasks := tasksOn(plan, day)
		if len(tasks) == 0 {
			return noMingguan
		}
		return mingguanSection("🗓️ Jadwal Mingguan hari "+day+":", tasks)
	}

	var parts []string
	for _, d := range weekOrder {
		if tasks := tasksOn(plan, d); len(tasks) > 0 {
			parts = append(parts, mingguanSection(d+":", tasks))
		}
	}
	if len(parts) == 0 {
		return noMingguan
	}
	return "🗓️ Jadwal Mingguan:\n" + strings.Join(parts, "\n")
}

func formatMendatang(events []model.UpcomingSchedule, now time.Time) string {
	today := startOfDay(now)

	type dated struct {
		ev   model.UpcomingSchedule
		date time.Time
	}
	var list []dated
	for _, ev := range events {
		d, ok := ParseISODate(ev.Date, now.Location())
		if !ok {
			appLog.Debug("upcoming schedule has unreadable date; skipped", "date", ev.Date, "activity", ev.Activity)
			continue
		}
		if d.Before(today) {
			continue
		}
		list = append(list, dated{ev: ev, date: d})
	}
	if len(list) == 0 {
		return noMendatang
	}

	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].date.Equal(list[j].date) {
			return list[i].date.Before(list[j].date)
		}
		return shortTime(list[i].ev.StartTime) < shortTime(list[j].ev.StartTime)
	})

	var b strings.Builder
	b.WriteString("⏰ Jadwal Mendatang:")
	for _, d := range list {
		b.WriteString("\n- " + FormatLongDate(d.date) + ": " + eventLine(d.ev))
	}
	return b.String()
}

// BuildChatContext assembles the text sent to the assistant with every
// question: today's schedule, the full class timetable, upcoming personal
// events and the next academic calendar dates.
func BuildChatContext(s model.Schedules, academic []model.UpcomingEvent, now time.Time) string {
	parts := []string{
		fmt.Sprintf("Hari ini: %s, pukul %s.", FormatLongDate(now), now.Format("15:04")),
		formatAll(s, "", now),
		formatKuliah(s.Kuliah, ""),
		formatMingguan(s.Mingguan, ""),
		formatMendatang(s.Mendatang, now),
	}

	if len(academic) > 0 {
		var b strings.Builder
		b.WriteString("🎓 Kalender Akademik Terdekat:")
		for _, ev := range academic {
			b.WriteString("\n- " + ev.Name + ": " + kalender.FormatForDisplay(ev.Date))
		}
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n\n")
}

func classesOn(classes []model.ClassSchedule, day string) []model.ClassSchedule {
	var out []model.ClassSchedule
	for _, c := range classes {
		if sameDay(c.Day, day) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return shortTime(out[i].StartTime) < shortTime(out[j].StartTime)
	})
	return out
}

func tasksOn(plan map[string][]model.WeeklyTask, day string) []model.WeeklyTask {
	var out []model.WeeklyTask
	for key, tasks := range plan {
		if sameDay(key, day) {
			out = append(out, tasks...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return shortTime(out[i].StartTime) < shortTime(out[j].StartTime)
	})
	return out
}

func eventsOn(events []model.UpcomingSchedule, now time.Time) []model.UpcomingSchedule {
	today := startOfDay(now)
	var out []model.UpcomingSchedule
	for _, ev := range events {
		if d, ok := ParseISODate(ev.Date, now.Location()); ok && d.Equal(today) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return shortTime(out[i].StartTime) < shortTime(out[j].StartTime)
	})
	return out
}

func kuliahSection(header string, classes []model.ClassSchedule) string {
	var b strings.Builder
	b.WriteString(header)
	for _, c := range classes {
		fmt.Fprintf(&b, "\n- %s (%s - %s)", c.Subject, shortTime(c.StartTime), shortTime(c.EndTime))
	}
	return b.String()
}

func mingguanSection(header string, tasks []model.WeeklyTask) string {
	var b strings.Builder
	b.WriteString(header)
	for _, t := range tasks {
		fmt.Fprintf(&b, "\n- %s - %s: %s", shortTime(t.StartTime), shortTime(t.EndTime), t.Description)
	}
	return b.String()
}

func eventLine(ev model.UpcomingSchedule) string {
	line := ev.Activity
	if ev.StartTime != "" || ev.EndTime != "" {
		line += fmt.Sprintf(" (%s - %s)", shortTime(ev.StartTime), shortTime(ev.EndTime))
	}
	if ev.Description != "" {
		line += ": " + ev.Description
	}
	return line
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
