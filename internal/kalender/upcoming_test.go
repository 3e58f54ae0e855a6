package kalender

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jadwalku/internal/model"
)

func testCalendar() []model.Category {
	return []model.Category{
		{
			Code: "A",
			Name: "Administrasi",
			Items: []model.CalendarItem{
				{ID: "A1", Name: "Pembayaran UKT", Ganjil: "28 Juli - 15 Agustus 2025", Genap: "5 Januari - 23 Januari 2026"},
				{ID: "A2", Name: "Batas KRS", Ganjil: "5 September 2025", Genap: "-"},
				{ID: "A3", Name: "Belum Ditentukan", Ganjil: "akan diumumkan", Genap: ""},
			},
		},
		{
			Code: "C",
			Name: "Ujian",
			Items: []model.CalendarItem{
				{
					ID: "C2", Name: "UAS", Ganjil: "15 Desember - 2 Januari 2026", Genap: "1 Juni - 12 Juni 2026",
					SubItems: []model.CalendarItem{
						{ID: "C2a", Name: "UAS Praktikum", Ganjil: "5 September - 12 September 2025", Genap: "-"},
					},
				},
				{ID: "C3", Name: "Input Nilai", Ganjil: "16 Januari 2026", Genap: "3 Juli 2026"},
			},
		},
	}
}

func TestFlatten_DropsPlaceholders(t *testing.T) {
	flat := flatten(testCalendar())

	names := make([]string, 0, len(flat))
	for _, f := range flat {
		names = append(names, f.name)
		for _, d := range f.dates {
			assert.False(t, IsNoDate(d))
		}
	}
	assert.Equal(t, []string{"Pembayaran UKT", "Batas KRS", "Belum Ditentukan", "UAS", "UAS Praktikum", "Input Nilai"}, names)
	assert.Len(t, flat[1].dates, 1)
}

func TestUpcoming_FutureOnlyAndSorted(t *testing.T) {
	now := date(2025, time.September, 1)
	events, stats := Upcoming(testCalendar(), now, jakarta)

	require.NotEmpty(t, events)
	assert.Equal(t, 1, stats.Dropped, "'akan diumumkan' is the only unparseable text")
	assert.Equal(t, 1, stats.Past, "the July UKT range started before now")

	for i, ev := range events {
		assert.False(t, ev.ParsedDate.Before(now), "%s starts before now", ev.Name)
		if i > 0 {
			assert.False(t, ev.ParsedDate.Before(events[i-1].ParsedDate), "events out of order at %d", i)
		}
	}
}

func TestUpcoming_TieBreakPutsSingleDateFirst(t *testing.T) {
	// The range is listed first, so only the tie-break can move the single date ahead.
	cats := []model.Category{{
		Code: "X",
		Items: []model.CalendarItem{
			{Name: "Rentang Panjang", Ganjil: "5 September - 30 September 2025"},
			{Name: "Rentang Pendek", Ganjil: "5 September - 12 September 2025"},
			{Name: "Tanggal Tunggal", Ganjil: "5 September 2025"},
		},
	}}

	events, _ := Upcoming(cats, date(2025, time.September, 1), jakarta)

	require.Len(t, events, 3)
	assert.Equal(t, "Tanggal Tunggal", events[0].Name)
	assert.True(t, events[0].RangeEnd.IsZero())
	assert.Equal(t, "Rentang Pendek", events[1].Name)
	assert.Equal(t, "Rentang Panjang", events[2].Name)
}

func TestUpcoming_RangeUsesStartDate(t *testing.T) {
	now := date(2025, time.December, 1)
	events, _ := Upcoming(testCalendar(), now, jakarta)

	var uas *model.UpcomingEvent
	for i := range events {
		if events[i].Date == "15 Desember - 2 Januari 2026" {
			uas = &events[i]
		}
	}
	require.NotNil(t, uas)
	assert.True(t, uas.ParsedDate.Equal(date(2025, time.December, 15)))
	assert.True(t, uas.RangeEnd.Equal(date(2026, time.January, 2)))
}

func TestUpcoming_EventStartingNowIsKept(t *testing.T) {
	now := date(2026, time.July, 3)
	events, _ := Upcoming(testCalendar(), now, jakarta)

	require.Len(t, events, 1)
	assert.Equal(t, "Input Nilai", events[0].Name)
}

func TestUpcoming_Idempotent(t *testing.T) {
	cats := testCalendar()
	now := date(2025, time.October, 10)

	first := UpcomingPage(cats, now, jakarta, 0, 3)
	second := UpcomingPage(cats, now, jakarta, 0, 3)
	assert.Equal(t, first, second)
	assert.Equal(t, testCalendar(), cats, "input calendar must not be modified")
}

func TestPaginate(t *testing.T) {
	events := make([]model.UpcomingEvent, 7)
	for i := range events {
		events[i] = model.UpcomingEvent{Name: string(rune('a' + i))}
	}

	tests := []struct {
		name      string
		start     int
		limit     int
		wantNames string
		wantMore  bool
	}{
		{"first page", 0, 3, "abc", true},
		{"middle page", 3, 3, "def", true},
		{"last partial page", 6, 3, "g", false},
		{"exact end", 4, 3, "efg", false},
		{"start past end", 10, 3, "", false},
		{"negative start", -2, 2, "ab", true},
		{"default limit", 0, 0, "abcde", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := Paginate(events, tt.start, tt.limit)
			got := ""
			for _, ev := range page.Events {
				got += ev.Name
			}
			assert.Equal(t, tt.wantNames, got)
			assert.Equal(t, tt.wantMore, page.HasMore)
			assert.Equal(t, 7, page.Total)
		})
	}
}

func TestSnapshot_RefreshesWhenStale(t *testing.T) {
	snap := NewSnapshot(testCalendar(), jakarta, time.Hour)

	early := date(2025, time.September, 1)
	page := snap.Page(early, 0, 100)
	totalEarly := page.Total

	// Within the TTL the cached list is served.
	page = snap.Page(early.Add(30*time.Minute), 0, 100)
	assert.Equal(t, totalEarly, page.Total)

	later := date(2026, time.July, 1)
	page = snap.Page(later, 0, 100)
	assert.Less(t, page.Total, totalEarly)
	assert.Equal(t, 1, snap.Stats().Dropped)
}

func TestSnapshot_FreshListSkipsEventsThatHaveStarted(t *testing.T) {
	cats := []model.Category{{
		Code: "B",
		Name: "Perkuliahan",
		Items: []model.CalendarItem{
			{ID: "B1", Name: "Batas Revisi", Ganjil: "7 Oktober 2025", Genap: "-"},
			{ID: "B2", Name: "Ujian Tengah Semester", Ganjil: "13 Oktober - 24 Oktober 2025", Genap: "-"},
		},
	}}
	snap := NewSnapshot(cats, jakarta, 24*time.Hour)

	built := date(2025, time.October, 6).Add(12 * time.Hour)
	page := snap.Page(built, 0, 10)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "Batas Revisi", page.Events[0].Name)

	// Still within the TTL, but Batas Revisi has begun.
	page = snap.Page(date(2025, time.October, 7).Add(30*time.Minute), 0, 10)
	require.Len(t, page.Events, 1)
	assert.Equal(t, "Ujian Tengah Semester", page.Events[0].Name)
	assert.Equal(t, 1, page.Total)
	assert.False(t, page.HasMore)
}
