// Package chat answers natural-language questions about a student's
// schedule by forwarding them, together with a text rendering of that
// schedule, to a generative-AI chat API.
package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"jadwalku/internal/jadwal"
	"jadwalku/internal/kalender"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

// ErrEmptyMessage is returned for blank questions.
var ErrEmptyMessage = errors.New("message is empty")

// academicEventsInContext is how many upcoming calendar events go into the prompt.
const academicEventsInContext = 5

const systemPrompt = `Kamu adalah asisten jadwal untuk mahasiswa. Jawab dalam bahasa Indonesia yang singkat dan ramah.
Gunakan hanya data jadwal di bawah ini. Jika informasi tidak tersedia, katakan terus terang.
Saat menyarankan waktu belajar atau kegiatan, hindari bentrok dengan jadwal kuliah dan jadwal mendatang.`

// ScheduleSource loads the schedules of the user owning token.
type ScheduleSource interface {
	FetchSchedules(ctx context.Context, token string) (model.Schedules, error)
}

// AcademicSource pages the upcoming academic calendar.
type AcademicSource interface {
	Page(now time.Time, start, limit int) kalender.Page
}

type session struct {
	history  []Message
	lastUsed time.Time
}

// Service keeps a short per-session history, scoped to the caller's
// token, and builds each request.
type Service struct {
	llm       Completer
	schedules ScheduleSource
	academic  AcademicSource
	loc       *time.Location
	maxTurns  int
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHistoryTurns sets how many user/assistant pairs are replayed.
func WithHistoryTurns(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxTurns = n
		}
	}
}

// NewService wires the chat service. academic may be nil.
func NewService(llm Completer, schedules ScheduleSource, academic AcademicSource, loc *time.Location, opts ...Option) *Service {
	if loc == nil {
		loc = time.Local
	}
	s := &Service{
		llm:       llm,
		schedules: schedules,
		academic:  academic,
		loc:       loc,
		maxTurns:  6,
		now:       time.Now,
		sessions:  make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers message for the user behind token within sessionID.
func (s *Service) Ask(ctx context.Context, sessionID, token, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	schedules, err := s.schedules.FetchSchedules(ctx, token)
	if err != nil {
		return "", errors.Wrap(err, "load schedules")
	}

	now := s.now().In(s.loc)
	scheduleText := s.Context(now, schedules)

	messages := []Message{
		{Role: RoleSystem, Content: systemPrompt + "\n\n" + timeContext(now)},
		{Role: RoleSystem, Content: "Data jadwal pengguna:\n\n" + scheduleText},
	}
	key := sessionKey(token, sessionID)
	messages = append(messages, s.history(key)...)
	messages = append(messages, Message{Role: RoleUser, Content: message})

	start := time.Now()
	reply, err := s.llm.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	appLog.Info("chat answered",
		"session", sessionID,
		"message_length", len(message),
		"context_length", len(scheduleText),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.record(key, now, Message{Role: RoleUser, Content: message}, Message{Role: RoleAssistant, Content: reply})
	return reply, nil
}

// Context renders the schedule block that accompanies every question.
func (s *Service) Context(now time.Time, schedules model.Schedules) string {
	var academic []model.UpcomingEvent
	if s.academic != nil {
		academic = s.academic.Page(now, 0, academicEventsInContext).Events
	}
	return jadwal.BuildChatContext(schedules, academic, now)
}

// Reset forgets the history token holds under sessionID. Other users'
// sessions with the same id are untouched.
func (s *Service) Reset(token, sessionID string) {
	key := sessionKey(token, sessionID)
	if key == "" {
		return
	}
	s.mu.Lock()
	delete(s.sessions, key)
	s.mu.Unlock()
}

// sessionKey scopes a client-chosen session id to the user behind token.
// An empty id means no history.
func sessionKey(token, sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8]) + ":" + sessionID
}

// Prune drops sessions idle for longer than maxIdle and returns how many.
func (s *Service) Prune(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sess := range s.sessions {
		if sess.lastUsed.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

func (s *Service) history(key string) []Message {
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		return nil
	}
	out := make([]Message, len(sess.history))
	copy(out, sess.history)
	return out
}

func (s *Service) record(key string, now time.Time, turn ...Message) {
	if key == "" || s.maxTurns == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[key]
	if !ok {
		sess = &session{}
		s.sessions[key] = sess
	}
	sess.history = append(sess.history, turn...)
	if limit := s.maxTurns * 2; len(sess.history) > limit {
		sess.history = append([]Message(nil), sess.history[len(sess.history)-limit:]...)
	}
	sess.lastUsed = now
}

// timeContext tells the model what "today", "this week" and "tomorrow" mean.
func timeContext(now time.Time) string {
	offset := (int(now.Weekday()) + 6) % 7 // days since Senin
	weekStart := now.AddDate(0, 0, -offset)
	weekEnd := weekStart.AddDate(0, 0, 6)
	tomorrow := now.AddDate(0, 0, 1)

	return fmt.Sprintf(
		"Waktu sekarang: %s pukul %s (%s).\nMinggu ini: %s sampai %s.\nBesok: %s.",
		jadwal.FormatLongDate(now), now.Format("15:04"), now.Location().String(),
		jadwal.FormatLongDate(weekStart), jadwal.FormatLongDate(weekEnd),
		jadwal.FormatLongDate(tomorrow),
	)
}
