package jadwal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jadwalku/internal/model"
)

var wib = time.FixedZone("WIB", 7*60*60)

// Monday 6 Oktober 2025, 07:15 WIB.
var monday = time.Date(2025, time.October, 6, 7, 15, 0, 0, wib)

func sampleSchedules() model.Schedules {
	return model.Schedules{
		Kuliah: []model.ClassSchedule{
			{Day: "Senin", Subject: "Basis Data", StartTime: "10:00:00", EndTime: "11:40:00"},
			{Day: "senin", Subject: "Kalkulus", StartTime: "07:30", EndTime: "09:10"},
			{Day: "Rabu", Subject: "Jaringan Komputer", StartTime: "13:00", EndTime: "14:40"},
		},
		Mingguan: map[string][]model.WeeklyTask{
			"Senin": {
				{StartTime: "19:00", EndTime: "21:00", Description: "Mengerjakan tugas Basis Data"},
				{StartTime: "15:00", EndTime: "16:00", Description: "Olahraga"},
			},
			"Selasa": {
				{StartTime: "08:00", EndTime: "10:00", Description: "Belajar mandiri"},
			},
		},
		Mendatang: []model.UpcomingSchedule{
			{Date: "2025-10-06", Activity: "Rapat Himpunan", Description: "Ruang B201", StartTime: "16:30:00", EndTime: "18:00:00"},
			{Date: "2025-10-10T00:00:00.000Z", Activity: "Deadline Laporan", StartTime: "23:00", EndTime: "23:59"},
			{Date: "2025-10-08", Activity: "Seminar", StartTime: "09:00", EndTime: "11:00"},
			{Date: "2025-10-01", Activity: "Sudah Lewat"},
			{Date: "besok", Activity: "Tanggal Rusak"},
		},
	}
}

func TestFormatByType_AllToday(t *testing.T) {
	got := FormatByType(sampleSchedules(), TypeAll, "", monday)

	want := strings.Join([]string{
		"📚 Jadwal Kuliah hari Senin:",
		"- Kalkulus (07:30 - 09:10)",
		"- Basis Data (10:00 - 11:40)",
		"",
		"🗓️ Jadwal Mingguan hari Senin:",
		"- 15:00 - 16:00: Olahraga",
		"- 19:00 - 21:00: Mengerjakan tugas Basis Data",
		"",
		"⭐ Jadwal Khusus Hari Ini:",
		"- Rapat Himpunan (16:30 - 18:00): Ruang B201",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestFormatByType_AllOtherDaySkipsTodayEvents(t *testing.T) {
	got := FormatByType(sampleSchedules(), TypeAll, "rabu", monday)

	assert.Equal(t, "📚 Jadwal Kuliah hari Rabu:\n- Jaringan Komputer (13:00 - 14:40)", got)
	assert.NotContains(t, got, "Rapat Himpunan")
}

func TestFormatByType_AllLowercaseTodayStillMatches(t *testing.T) {
	got := FormatByType(sampleSchedules(), TypeAll, "senin", monday)
	assert.Contains(t, got, "⭐ Jadwal Khusus Hari Ini:")
}

func TestFormatByType_AllNothing(t *testing.T) {
	got := FormatByType(sampleSchedules(), TypeAll, "Minggu", monday)
	assert.Equal(t, "Tidak ada jadwal untuk hari Minggu.", got)

	got = FormatByType(model.Schedules{}, TypeAll, "", monday)
	assert.Equal(t, "Tidak ada jadwal untuk hari Senin.", got)
}

func TestFormatByType_Kuliah(t *testing.T) {
	got := FormatByType(model.Schedules{}, TypeKuliah, "Senin", monday)
	assert.Equal(t, "Tidak ada jadwal kuliah.", got)

	got = FormatByType(sampleSchedules(), TypeKuliah, "", monday)
	want := strings.Join([]string{
		"📚 Jadwal Kuliah:",
		"Senin:",
		"- Kalkulus (07:30 - 09:10)",
		"- Basis Data (10:00 - 11:40)",
		"Rabu:",
		"- Jaringan Komputer (13:00 - 14:40)",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestFormatByType_Mingguan(t *testing.T) {
	got := FormatByType(sampleSchedules(), TypeMingguan, "Selasa", monday)
	assert.Equal(t, "🗓️ Jadwal Mingguan hari Selasa:\n- 08:00 - 10:00: Belajar mandiri", got)

	got = FormatByType(sampleSchedules(), TypeMingguan, "Kamis", monday)
	assert.Equal(t, "Tidak ada jadwal mingguan.", got)

	got = FormatByType(sampleSchedules(), TypeMingguan, "", monday)
	assert.True(t, strings.HasPrefix(got, "🗓️ Jadwal Mingguan:\nSenin:"))
	assert.Less(t, strings.Index(got, "Senin:"), strings.Index(got, "Selasa:"))
}

func TestFormatByType_Mendatang(t *testing.T) {
	got := FormatByType(sampleSchedules(), TypeMendatang, "", monday)
	want := strings.Join([]string{
		"⏰ Jadwal Mendatang:",
		"- Senin, 6 Oktober 2025: Rapat Himpunan (16:30 - 18:00): Ruang B201",
		"- Rabu, 8 Oktober 2025: Seminar (09:00 - 11:00)",
		"- Jumat, 10 Oktober 2025: Deadline Laporan (23:00 - 23:59)",
	}, "\n")
	assert.Equal(t, want, got)

	got = FormatByType(model.Schedules{}, TypeMendatang, "", monday)
	assert.Equal(t, "Tidak ada jadwal mendatang.", got)
}

func TestFormatByType_UnknownTypeFallsBackToAll(t *testing.T) {
	s := sampleSchedules()
	assert.Equal(t,
		FormatByType(s, TypeAll, "Rabu", monday),
		FormatByType(s, Type("harian"), "Rabu", monday))
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in     string
		want   Type
		wantOK bool
	}{
		{"all", TypeAll, true},
		{"KULIAH", TypeKuliah, true},
		{" mingguan ", TypeMingguan, true},
		{"mendatang", TypeMendatang, true},
		{"", TypeAll, true},
		{"harian", TypeAll, false},
	}
	for _, tt := range tests {
		got, ok := ParseType(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
	}
}

func TestNormalizeDay(t *testing.T) {
	assert.Equal(t, "Senin", NormalizeDay("senin"))
	assert.Equal(t, "Senin", NormalizeDay("  SENIN "))
	assert.Equal(t, "Jumat", NormalizeDay("jum'at"))
	assert.Equal(t, "", NormalizeDay(""))
}

func TestBuildChatContext(t *testing.T) {
	academic := []model.UpcomingEvent{
		{Name: "Ujian Tengah Semester", Date: "13 Oktober - 24 Oktober 2025"},
	}
	got := BuildChatContext(sampleSchedules(), academic, monday)

	require.True(t, strings.HasPrefix(got, "Hari ini: Senin, 6 Oktober 2025, pukul 07:15."))
	assert.Contains(t, got, "📚 Jadwal Kuliah hari Senin:")
	assert.Contains(t, got, "📚 Jadwal Kuliah:\nSenin:")
	assert.Contains(t, got, "⏰ Jadwal Mendatang:")
	assert.Contains(t, got, "🎓 Kalender Akademik Terdekat:\n- Ujian Tengah Semester: 13 - 24 Oktober 2025")

	empty := BuildChatContext(model.Schedules{}, nil, monday)
	assert.NotContains(t, empty, "🎓")
	assert.Contains(t, empty, "Tidak ada jadwal kuliah.")
}

func TestShortTime(t *testing.T) {
	assert.Equal(t, "08:00", shortTime("08:00:00"))
	assert.Equal(t, "08:00", shortTime("08:00"))
	assert.Equal(t, "", shortTime(""))
}

func TestParseDayAndClock(t *testing.T) {
	wd, ok := ParseDay("jum'at")
	require.True(t, ok)
	assert.Equal(t, time.Friday, wd)

	wd, ok = ParseDay("minggu")
	require.True(t, ok)
	assert.Equal(t, time.Sunday, wd)

	_, ok = ParseDay("Funday")
	assert.False(t, ok)

	h, m, ok := ParseClock("08:30:00")
	require.True(t, ok)
	assert.Equal(t, []int{8, 30}, []int{h, m})

	_, _, ok = ParseClock("pagi")
	assert.False(t, ok)
}

func TestParseISODate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-04", time.Date(2025, time.January, 4, 0, 0, 0, 0, wib)},
		{"2025-01-04T17:00:00.000Z", time.Date(2025, time.January, 5, 0, 0, 0, 0, wib)},
		{"2025-01-04T16:59:59Z", time.Date(2025, time.January, 4, 0, 0, 0, 0, wib)},
		{"2025-01-05T00:00:00+07:00", time.Date(2025, time.January, 5, 0, 0, 0, 0, wib)},
		{"2025-01-04T23:00:00", time.Date(2025, time.January, 4, 0, 0, 0, 0, wib)},
	}
	for _, tt := range tests {
		got, ok := ParseISODate(tt.in, wib)
		require.True(t, ok, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	_, ok := ParseISODate("besok", wib)
	assert.False(t, ok)
}

func TestFormatByType_AllTodayFromUTCTimestamp(t *testing.T) {
	sunday := time.Date(2025, time.January, 5, 8, 0, 0, 0, wib)
	s := model.Schedules{Mendatang: []model.UpcomingSchedule{
		{Date: "2025-01-04T17:00:00.000Z", Activity: "Wisuda", StartTime: "08:00", EndTime: "12:00"},
	}}

	got := FormatByType(s, TypeAll, "", sunday)
	assert.Contains(t, got, "⭐ Jadwal Khusus Hari Ini:\n- Wisuda (08:00 - 12:00)")

	got = FormatByType(s, TypeAll, "", sunday.AddDate(0, 0, -1))
	assert.NotContains(t, got, "Wisuda")
}
