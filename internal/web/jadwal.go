package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"jadwalku/internal/ics"
	"jadwalku/internal/jadwal"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

type formatRequest struct {
	Schedules model.Schedules `json:"schedules"`
	Type      string          `json:"type"`
	Day       string          `json:"day"`
}

type textResponse struct {
	Text string `json:"text"`
}

type pekanResponse struct {
	From    time.Time             `json:"from"`
	To      time.Time             `json:"to"`
	Classes []ics.ClassOccurrence `json:"classes"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Reply     string `json:"reply"`
}

// handleFormat renders schedules posted by the caller. It never calls the
// backend. Unknown types render as "all".
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	var req formatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	typ, ok := jadwal.ParseType(req.Type)
	if !ok {
		appLog.Debug("format: unknown type", "type", req.Type)
	}
	writeJSON(w, http.StatusOK, textResponse{
		Text: jadwal.FormatByType(req.Schedules, typ, req.Day, s.today()),
	})
}

// handleKonteks shows the schedule block the assistant would receive.
func (s *Server) handleKonteks(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.backend.FetchSchedules(r.Context(), tokenFrom(r.Context()))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: s.chat.Context(s.today(), schedules)})
}

// handlePekan lists the user's class meetings for seven days.
//
// GET /api/jadwal/pekan?from=2025-10-06 (defaults to today)
func (s *Server) handlePekan(w http.ResponseWriter, r *http.Request) {
	from := startOfDay(s.today())
	if v := r.URL.Query().Get("from"); v != "" {
		d, ok := jadwal.ParseISODate(v, s.loc)
		if !ok {
			writeError(w, http.StatusBadRequest, "from harus berformat YYYY-MM-DD")
			return
		}
		from = d
	}
	to := from.AddDate(0, 0, 7).Add(-time.Second)

	classes, err := s.backend.FetchKuliah(r.Context(), tokenFrom(r.Context()))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	occ, err := ics.ExpandClassSchedule(classes, from, to, s.loc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to expand classes")
		return
	}
	writeJSON(w, http.StatusOK, pekanResponse{From: from, To: to, Classes: occ})
}

// handleJadwalICS serves the user's schedules as a weekly recurring feed
// anchored at the start of the current week.
func (s *Server) handleJadwalICS(w http.ResponseWriter, r *http.Request) {
	schedules, err := s.backend.FetchSchedules(r.Context(), tokenFrom(r.Context()))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	now := s.today()
	offset := (int(now.Weekday()) - int(s.weekStart) + 7) % 7
	from := startOfDay(now).AddDate(0, 0, -offset)

	writeCalendar(w, "jadwal.ics", ics.UserSchedule(schedules, from, s.loc, now))
}

// handleChat forwards one question to the assistant. A missing session_id
// starts a new session whose id is returned.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow(clientKey(r)) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "terlalu banyak permintaan, coba lagi nanti")
		return
	}

	var req chatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "pesan kosong")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := s.chat.Ask(r.Context(), req.SessionID, tokenFrom(r.Context()), req.Message)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{SessionID: req.SessionID, Reply: reply})
}

// handleChatReset forgets a session's history.
//
// DELETE /api/chat?session_id=...
func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("session_id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "session_id wajib diisi")
		return
	}
	s.chat.Reset(tokenFrom(r.Context()), id)
	w.WriteHeader(http.StatusNoContent)
}

// PruneClients drops rate-limit state of clients idle for maxIdle.
func (s *Server) PruneClients(maxIdle time.Duration) int {
	return s.limiter.Prune(maxIdle)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
