package web

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	appLog "jadwalku/internal/log"
)

// HeaderRequestID is echoed on every response.
const HeaderRequestID = "X-Request-ID"

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyToken
)

// requestIDMiddleware keeps a caller-supplied X-Request-ID or assigns a new
// one, and logs each request at debug level.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, id)))
		appLog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", id,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// requireToken rejects requests without a bearer token. The token is not
// checked here; the backend decides whether it is valid.
func requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="jadwalku"`)
			writeError(w, http.StatusUnauthorized, "token diperlukan")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyToken, token)))
	})
}

func tokenFrom(ctx context.Context) string {
	t, _ := ctx.Value(ctxKeyToken).(string)
	return t
}

// rateLimiter hands out one token bucket per client key.
type rateLimiter struct {
	limit rate.Limit
	burst int

	mu     sync.Mutex
	limits map[string]*limiterEntry
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiter(perMinute, burst int) *rateLimiter {
	if perMinute <= 0 {
		perMinute = 20
	}
	if burst <= 0 {
		burst = 1
	}
	return &rateLimiter{
		limit:  rate.Every(time.Minute / time.Duration(perMinute)),
		burst:  burst,
		limits: make(map[string]*limiterEntry),
	}
}

// Allow reports whether key may make another request now.
func (rl *rateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	e, ok := rl.limits[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limits[key] = e
	}
	e.lastSeen = time.Now()
	return e.limiter.Allow()
}

// Prune forgets clients not seen for maxIdle.
func (rl *rateLimiter) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	n := 0
	for k, e := range rl.limits {
		if e.lastSeen.Before(cutoff) {
			delete(rl.limits, k)
			n++
		}
	}
	return n
}

// clientKey identifies the caller by token when present, by IP otherwise.
// Tokens are hashed so the limiter map never holds credentials.
func clientKey(r *http.Request) string {
	if t := tokenFrom(r.Context()); t != "" {
		sum := sha256.Sum256([]byte(t))
		return "t:" + hex.EncodeToString(sum[:8])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
