package model

import "time"

// CalendarItem is one named academic activity with a free-text date (or date
// range) per semester. Items may carry one level of sub-items of the same shape.
type CalendarItem struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Ganjil string `yaml:"ganjil" json:"ganjil"`
	Genap  string `yaml:"genap" json:"genap"`

	SubItems []CalendarItem `yaml:"sub_items,omitempty" json:"sub_items,omitempty"`
}

// Category groups calendar items under a short code (e.g. "A").
type Category struct {
	Code  string         `yaml:"code" json:"code"`
	Name  string         `yaml:"name" json:"name"`
	Items []CalendarItem `yaml:"items" json:"items"`
}

// UpcomingEvent is a single dated calendar text selected for the upcoming list.
type UpcomingEvent struct {
	Name string `json:"name"`
	// Date is the raw text as written in the calendar.
	Date       string    `json:"date"`
	ParsedDate time.Time `json:"parsed_date"`

	// RangeEnd is zero for single dates.
	RangeEnd time.Time `json:"range_end,omitempty"`
}

// ClassSchedule is a recurring weekly class session (jadwal kuliah).
type ClassSchedule struct {
	Day       string `json:"hari"`
	Subject   string `json:"mata_kuliah"`
	StartTime string `json:"jam_mulai"`
	EndTime   string `json:"jam_selesai"`
}

// WeeklyTask is one slot of the generated weekly plan (jadwal mingguan).
type WeeklyTask struct {
	StartTime   string `json:"jam_mulai"`
	EndTime     string `json:"jam_selesai"`
	Description string `json:"deskripsi"`
}

// UpcomingSchedule is a one-off user event (jadwal mendatang).
type UpcomingSchedule struct {
	// Date is an ISO date, optionally followed by a time part.
	Date        string `json:"tanggal"`
	Activity    string `json:"kegiatan"`
	Description string `json:"deskripsi"`
	StartTime   string `json:"jam_mulai"`
	EndTime     string `json:"jam_selesai"`
}

// Schedules bundles everything the backend knows about one user.
type Schedules struct {
	Kuliah    []ClassSchedule         `json:"kuliah"`
	Mingguan  map[string][]WeeklyTask `json:"mingguan"`
	Mendatang []UpcomingSchedule      `json:"mendatang"`
}
