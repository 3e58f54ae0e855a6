package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jadwalku/internal/kalender"
	"jadwalku/internal/model"
)

var wib = time.FixedZone("WIB", 7*60*60)

type fakeLLM struct {
	calls [][]Message
	reply string
	err   error
}

func (f *fakeLLM) Complete(_ context.Context, messages []Message) (string, error) {
	f.calls = append(f.calls, messages)
	return f.reply, f.err
}

type fakeSchedules struct {
	s     model.Schedules
	err   error
	token string
}

func (f *fakeSchedules) FetchSchedules(_ context.Context, token string) (model.Schedules, error) {
	f.token = token
	return f.s, f.err
}

type fakeAcademic struct{ events []model.UpcomingEvent }

func (f fakeAcademic) Page(_ time.Time, start, limit int) kalender.Page {
	return kalender.Paginate(f.events, start, limit)
}

func fixedClock() time.Time {
	return time.Date(2025, time.October, 6, 7, 0, 0, 0, wib)
}

func newTestService(llm *fakeLLM, src *fakeSchedules, opts ...Option) *Service {
	academic := fakeAcademic{events: []model.UpcomingEvent{
		{Name: "Ujian Tengah Semester", Date: "13 Oktober - 24 Oktober 2025"},
	}}
	opts = append([]Option{WithClock(fixedClock)}, opts...)
	return NewService(llm, src, academic, wib, opts...)
}

func TestAsk_BuildsPromptWithScheduleContext(t *testing.T) {
	llm := &fakeLLM{reply: "Hari ini kamu ada kuliah Kalkulus jam 07:30."}
	src := &fakeSchedules{s: model.Schedules{
		Kuliah: []model.ClassSchedule{{Day: "Senin", Subject: "Kalkulus", StartTime: "07:30", EndTime: "09:10"}},
	}}
	svc := newTestService(llm, src)

	reply, err := svc.Ask(context.Background(), "s1", "tok", "  Ada kuliah apa hari ini?  ")
	require.NoError(t, err)
	assert.Equal(t, llm.reply, reply)
	assert.Equal(t, "tok", src.token)

	require.Len(t, llm.calls, 1)
	msgs := llm.calls[0]
	require.Len(t, msgs, 3)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "Waktu sekarang: Senin, 6 Oktober 2025 pukul 07:00")
	assert.Contains(t, msgs[0].Content, "Minggu ini: Senin, 6 Oktober 2025 sampai Minggu, 12 Oktober 2025.")
	assert.Contains(t, msgs[1].Content, "- Kalkulus (07:30 - 09:10)")
	assert.Contains(t, msgs[1].Content, "Ujian Tengah Semester: 13 - 24 Oktober 2025")
	assert.Equal(t, Message{Role: RoleUser, Content: "Ada kuliah apa hari ini?"}, msgs[2])
}

func TestAsk_ReplaysBoundedHistory(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	svc := newTestService(llm, &fakeSchedules{}, WithHistoryTurns(1))

	for _, q := range []string{"satu", "dua", "tiga"} {
		_, err := svc.Ask(context.Background(), "s1", "tok", q)
		require.NoError(t, err)
	}

	last := llm.calls[2]
	require.Len(t, last, 5, "two system messages, one replayed turn, the new question")
	assert.Equal(t, "dua", last[2].Content)
	assert.Equal(t, RoleAssistant, last[3].Role)
	assert.Equal(t, "tiga", last[4].Content)

	// Another session starts clean.
	_, err := svc.Ask(context.Background(), "s2", "tok", "halo")
	require.NoError(t, err)
	assert.Len(t, llm.calls[3], 3)
}

func TestAsk_Errors(t *testing.T) {
	svc := newTestService(&fakeLLM{}, &fakeSchedules{})
	_, err := svc.Ask(context.Background(), "s1", "tok", "   ")
	assert.Equal(t, ErrEmptyMessage, err)

	backendErr := errors.New("backend down")
	svc = newTestService(&fakeLLM{}, &fakeSchedules{err: backendErr})
	_, err = svc.Ask(context.Background(), "s1", "tok", "halo")
	assert.True(t, errors.Is(err, backendErr))

	llm := &fakeLLM{err: errors.New("quota")}
	svc = newTestService(llm, &fakeSchedules{})
	_, err = svc.Ask(context.Background(), "s1", "tok", "halo")
	require.Error(t, err)
	assert.Empty(t, svc.history(sessionKey("tok", "s1")), "failed turns are not recorded")
}

func TestResetAndPrune(t *testing.T) {
	now := fixedClock()
	svc := newTestService(&fakeLLM{reply: "ok"}, &fakeSchedules{}, WithClock(func() time.Time { return now }))

	_, err := svc.Ask(context.Background(), "a", "tok", "halo")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), "b", "tok", "halo")
	require.NoError(t, err)

	svc.Reset("other", "a")
	assert.Len(t, svc.history(sessionKey("tok", "a")), 2, "another token cannot reset the session")
	svc.Reset("tok", "a")
	assert.Empty(t, svc.history(sessionKey("tok", "a")))
	assert.Len(t, svc.history(sessionKey("tok", "b")), 2)

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 0, svc.Prune(3*time.Hour))
	assert.Equal(t, 1, svc.Prune(time.Hour))
	assert.Empty(t, svc.history(sessionKey("tok", "b")))
}

func TestAsk_SessionIDIsScopedToToken(t *testing.T) {
	llm := &fakeLLM{reply: "ok"}
	svc := newTestService(llm, &fakeSchedules{})

	_, err := svc.Ask(context.Background(), "s1", "tok-ani", "jadwal rahasia ani")
	require.NoError(t, err)
	_, err = svc.Ask(context.Background(), "s1", "tok-budi", "halo")
	require.NoError(t, err)

	budi := llm.calls[1]
	require.Len(t, budi, 3, "same session id under another token starts clean")
	for _, m := range budi {
		assert.NotContains(t, m.Content, "rahasia")
	}

	_, err = svc.Ask(context.Background(), "s1", "tok-ani", "lagi")
	require.NoError(t, err)
	ani := llm.calls[2]
	require.Len(t, ani, 5)
	assert.Equal(t, "jadwal rahasia ani", ani[2].Content)

	assert.NotEqual(t, sessionKey("tok-ani", "s1"), sessionKey("tok-budi", "s1"))
	assert.Empty(t, sessionKey("tok-ani", ""))
}

func TestTimeContext_SundayBelongsToPreviousWeek(t *testing.T) {
	sunday := time.Date(2025, time.October, 12, 20, 0, 0, 0, wib)
	got := timeContext(sunday)
	assert.True(t, strings.Contains(got, "Minggu ini: Senin, 6 Oktober 2025 sampai Minggu, 12 Oktober 2025."), got)
	assert.Contains(t, got, "Besok: Senin, 13 Oktober 2025.")
}
