package web

import (
	"net/http"
	"strings"
	"time"

	"jadwalku/internal/ics"
	"jadwalku/internal/kalender"
	appLog "jadwalku/internal/log"
)

const icsCacheTTL = time.Hour

// icsCache holds the serialized academic feed and its timestamp.
type icsCache struct {
	body      string
	updatedAt time.Time
}

// windowResponse is the JSON response shape for /api/kalender/window.
type windowResponse struct {
	Text   string          `json:"text"`
	Start  time.Time       `json:"start"`
	End    time.Time       `json:"end"`
	Window kalender.Window `json:"window"`
}

// handleKalender returns the whole calendar with display-formatted dates.
func (s *Server) handleKalender(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.display)
}

// handleUpcoming pages the upcoming academic events.
//
// GET /api/kalender/upcoming?start=0&limit=5
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start := parseIntDefault(q.Get("start"), 0)
	limit := parseIntDefault(q.Get("limit"), s.cfg.UpcomingLimit)

	page := s.snapshot.Page(s.today(), start, limit)
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, kalender.BuildDashboard(s.calendar, s.today(), s.loc, s.weekStart))
}

// handleWindow classifies one free-form date text.
//
// GET /api/kalender/window?text=13+-+24+Oktober+2025
func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	text := strings.TrimSpace(r.URL.Query().Get("text"))
	if text == "" {
		writeError(w, http.StatusBadRequest, "parameter text wajib diisi")
		return
	}

	rng, ok := kalender.Parse(text, s.loc)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "tanggal tidak dikenali")
		return
	}
	writeJSON(w, http.StatusOK, windowResponse{
		Text:   text,
		Start:  rng.Start,
		End:    rng.End,
		Window: kalender.Classify(rng, s.today(), s.weekStart),
	})
}

// handleKalenderICS serves the academic calendar as an iCalendar feed.
func (s *Server) handleKalenderICS(w http.ResponseWriter, _ *http.Request) {
	now := s.now()

	s.icsMu.RLock()
	ic := s.icsCache
	s.icsMu.RUnlock()

	if ic == nil || now.Sub(ic.updatedAt) >= icsCacheTTL || now.Before(ic.updatedAt) {
		ic = &icsCache{
			body:      ics.AcademicCalendar(s.calendar, s.loc, now),
			updatedAt: now,
		}
		s.icsMu.Lock()
		s.icsCache = ic
		s.icsMu.Unlock()
		appLog.Debug("academic ics rebuilt", "bytes", len(ic.body))
	}

	writeCalendar(w, "kalender-akademik.ics", ic.body)
}

func writeCalendar(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", ics.ContentType)
	w.Header().Set("Content-Disposition", `inline; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
