package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"jadwalku/internal/backend"
	"jadwalku/internal/chat"
	"jadwalku/internal/config"
	"jadwalku/internal/kalender"
	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// ScheduleFetcher loads a user's schedules from the backend.
type ScheduleFetcher interface {
	FetchSchedules(ctx context.Context, token string) (model.Schedules, error)
	FetchKuliah(ctx context.Context, token string) ([]model.ClassSchedule, error)
}

// Assistant answers chat questions.
type Assistant interface {
	Ask(ctx context.Context, sessionID, token, message string) (string, error)
	Context(now time.Time, schedules model.Schedules) string
	Reset(token, sessionID string)
}

// Deps are the collaborators the HTTP API serves from.
type Deps struct {
	Calendar []model.Category
	Snapshot *kalender.Snapshot
	Backend  ScheduleFetcher
	Chat     Assistant
	// Now defaults to time.Now.
	Now func() time.Time
}

// Server provides the HTTP API for the academic calendar and user schedules.
type Server struct {
	cfg       *config.Config
	debug     bool
	mux       *http.ServeMux
	loc       *time.Location
	weekStart time.Weekday
	now       func() time.Time

	calendar []model.Category
	display  []model.Category
	snapshot *kalender.Snapshot
	backend  ScheduleFetcher
	chat     Assistant
	limiter  *rateLimiter

	// The academic feed only changes with the dataset, so it is
	// serialized once per TTL instead of on every subscription poll.
	icsMu    sync.RWMutex
	icsCache *icsCache
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, deps Deps, debug bool) *Server {
	loc := ResolveLocation(cfg.Timezone)
	s := &Server{
		cfg:       cfg,
		debug:     debug,
		mux:       http.NewServeMux(),
		loc:       loc,
		weekStart: kalender.ParseWeekStart(cfg.WeekStart),
		now:       deps.Now,
		calendar:  deps.Calendar,
		display:   kalender.DisplayCategories(deps.Calendar),
		snapshot:  deps.Snapshot,
		backend:   deps.Backend,
		chat:      deps.Chat,
		limiter:   newRateLimiter(cfg.ChatRate.PerMinute, cfg.ChatRate.Burst),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.snapshot == nil {
		s.snapshot = kalender.NewSnapshot(deps.Calendar, loc, time.Hour)
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return requestIDMiddleware(s.mux)
}

// ListenAndServe serves on cfg.Listen until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen, "debug", s.debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("GET /api/kalender", s.handleKalender)
	s.mux.HandleFunc("GET /api/kalender/upcoming", s.handleUpcoming)
	s.mux.HandleFunc("GET /api/kalender/dashboard", s.handleDashboard)
	s.mux.HandleFunc("GET /api/kalender/window", s.handleWindow)
	s.mux.HandleFunc("GET /api/kalender.ics", s.handleKalenderICS)

	s.mux.HandleFunc("POST /api/jadwal/format", s.handleFormat)
	s.mux.Handle("GET /api/jadwal/konteks", requireToken(http.HandlerFunc(s.handleKonteks)))
	s.mux.Handle("GET /api/jadwal/pekan", requireToken(http.HandlerFunc(s.handlePekan)))
	s.mux.Handle("GET /api/jadwal.ics", requireToken(http.HandlerFunc(s.handleJadwalICS)))

	s.mux.Handle("POST /api/chat", requireToken(http.HandlerFunc(s.handleChat)))
	s.mux.Handle("DELETE /api/chat", requireToken(http.HandlerFunc(s.handleChatReset)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// today is now in the configured timezone.
func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// ResolveLocation loads an IANA zone, falling back to time.Local.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeUpstreamError maps backend and chat failures onto HTTP statuses.
func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, backend.ErrNoToken), errors.Is(err, backend.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "token ditolak")
	case errors.Is(err, chat.ErrEmptyMessage):
		writeError(w, http.StatusBadRequest, "pesan kosong")
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "layanan terlalu lama merespons")
	default:
		appLog.Error("upstream request failed", err, "path", r.URL.Path, "request_id", requestID(r.Context()))
		writeError(w, http.StatusBadGateway, "layanan sedang tidak tersedia")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
