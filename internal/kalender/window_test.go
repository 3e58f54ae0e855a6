package kalender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jadwalku/internal/model"
)

func TestClassify(t *testing.T) {
	// Saturday; the Sunday-start week is 9..15 Februari 2025.
	now := time.Date(2025, time.February, 15, 10, 30, 0, 0, jakarta)

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  Window
	}{
		{
			name:  "quarter covering now",
			start: date(2025, time.January, 1),
			end:   date(2025, time.March, 31),
			want:  Window{ThisWeek: true, ThisMonth: true, Future: false},
		},
		{
			name:  "today only",
			start: date(2025, time.February, 15),
			end:   date(2025, time.February, 15),
			want:  Window{ThisWeek: true, ThisMonth: true, Future: false},
		},
		{
			name:  "sunday at week start",
			start: date(2025, time.February, 9),
			end:   date(2025, time.February, 9),
			want:  Window{ThisWeek: true, ThisMonth: true},
		},
		{
			name:  "saturday before the week",
			start: date(2025, time.February, 8),
			end:   date(2025, time.February, 8),
			want:  Window{ThisMonth: true},
		},
		{
			name:  "tomorrow is future and next week",
			start: date(2025, time.February, 16),
			end:   date(2025, time.February, 20),
			want:  Window{ThisMonth: true, Future: true},
		},
		{
			name:  "next month",
			start: date(2025, time.March, 3),
			end:   date(2025, time.March, 7),
			want:  Window{Future: true},
		},
		{
			name:  "exactly three months ahead",
			start: date(2025, time.May, 15),
			end:   date(2025, time.May, 15),
			want:  Window{Future: true},
		},
		{
			name:  "beyond three months",
			start: date(2025, time.May, 16),
			end:   date(2025, time.May, 20),
			want:  Window{},
		},
		{
			name:  "last month",
			start: date(2025, time.January, 6),
			end:   date(2025, time.January, 10),
			want:  Window{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(DateRange{Start: tt.start, End: tt.end}, now, time.Sunday)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_MondayWeekStart(t *testing.T) {
	now := time.Date(2025, time.February, 16, 9, 0, 0, 0, jakarta) // Sunday
	sunday := DateRange{Start: date(2025, time.February, 16), End: date(2025, time.February, 16)}
	monday := DateRange{Start: date(2025, time.February, 10), End: date(2025, time.February, 10)}
	nextMonday := DateRange{Start: date(2025, time.February, 17), End: date(2025, time.February, 17)}

	assert.True(t, Classify(sunday, now, time.Monday).ThisWeek)
	assert.True(t, Classify(monday, now, time.Monday).ThisWeek)
	assert.False(t, Classify(nextMonday, now, time.Monday).ThisWeek)
	assert.True(t, Classify(nextMonday, now, time.Sunday).ThisWeek)
}

func TestClassifyCalendarWindow(t *testing.T) {
	now := time.Date(2025, time.February, 15, 8, 0, 0, 0, jakarta)

	w, ok := ClassifyCalendarWindow("1 Januari 2025 - 31 Maret 2025", now, jakarta, time.Sunday)
	require.True(t, ok)
	assert.Equal(t, Window{ThisWeek: true, ThisMonth: true}, w)

	w, ok = ClassifyCalendarWindow("20 Februari 2025", now, jakarta, time.Sunday)
	require.True(t, ok)
	assert.Equal(t, Window{ThisMonth: true, Future: true}, w)

	w, ok = ClassifyCalendarWindow("-", now, jakarta, time.Sunday)
	assert.False(t, ok)
	assert.Equal(t, Window{}, w)
}

func TestParseWeekStart(t *testing.T) {
	assert.Equal(t, time.Monday, ParseWeekStart("monday"))
	assert.Equal(t, time.Sunday, ParseWeekStart("sunday"))
	assert.Equal(t, time.Sunday, ParseWeekStart(""))
}

func TestBuildDashboard(t *testing.T) {
	cats := []model.Category{{
		Code: "B",
		Items: []model.CalendarItem{
			{Name: "UTS", Ganjil: "13 Oktober - 24 Oktober 2025", Genap: "-"},
			{Name: "Batas KRS", Ganjil: "15 Oktober 2025", Genap: "belum ada"},
			{Name: "Wisuda", Ganjil: "29 November 2025", Genap: "30 Mei 2026"},
		},
	}}
	now := time.Date(2025, time.October, 14, 12, 0, 0, 0, jakarta) // Tuesday

	d := BuildDashboard(cats, now, jakarta, time.Sunday)

	names := func(list []DashboardEvent) []string {
		out := []string{}
		for _, ev := range list {
			out = append(out, ev.Name)
		}
		return out
	}

	assert.Equal(t, []string{"UTS", "Batas KRS"}, names(d.ThisWeek))
	assert.Equal(t, []string{"UTS", "Batas KRS"}, names(d.ThisMonth))
	assert.Equal(t, []string{"Batas KRS", "Wisuda"}, names(d.Future))
}
