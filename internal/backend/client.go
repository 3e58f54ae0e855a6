// Package backend reads a user's schedules from the REST backend that owns
// them. Responses are cached per URL and token with their ETag /
// Last-Modified validators; the cached body is reused on 304 and as a
// fallback when the backend is unreachable.
package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	appLog "jadwalku/internal/log"
	"jadwalku/internal/model"
)

// Backend endpoints relative to the base URL.
const (
	PathKuliah    = "/jadwal-kuliah"
	PathMingguan  = "/jadwal-mingguan"
	PathMendatang = "/jadwal-mendatang"
)

var (
	// ErrUnauthorized means the backend rejected the user's token.
	ErrUnauthorized = errors.New("backend rejected token")
	// ErrNoToken is returned before any request is made.
	ErrNoToken = errors.New("missing user token")
)

// cacheEntry holds the last good body for one URL+token.
type cacheEntry struct {
	ETag         string
	LastModified string
	Body         []byte
	UpdatedAt    time.Time
	// UsedAt is the last time the entry was stored or served.
	UsedAt time.Time
}

// Client fetches schedules from the backend.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

// NewClient creates a client for baseURL with the given per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
}

// FetchSchedules loads the three schedule collections concurrently. Any
// failure fails the whole call; ErrUnauthorized is preserved for errors.Is.
func (c *Client) FetchSchedules(ctx context.Context, token string) (model.Schedules, error) {
	if token == "" {
		return model.Schedules{}, ErrNoToken
	}

	var s model.Schedules
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.getJSON(gctx, PathKuliah, token, &s.Kuliah)
	})
	g.Go(func() error {
		return c.getJSON(gctx, PathMingguan, token, &s.Mingguan)
	})
	g.Go(func() error {
		return c.getJSON(gctx, PathMendatang, token, &s.Mendatang)
	})

	if err := g.Wait(); err != nil {
		return model.Schedules{}, err
	}
	if s.Mingguan == nil {
		s.Mingguan = map[string][]model.WeeklyTask{}
	}
	return s, nil
}

// FetchKuliah loads only the class timetable.
func (c *Client) FetchKuliah(ctx context.Context, token string) ([]model.ClassSchedule, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var out []model.ClassSchedule
	if err := c.getJSON(ctx, PathKuliah, token, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path, token string, v any) error {
	body, err := c.fetch(ctx, path, token)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

// fetch performs a conditional GET for path and returns the response body,
// or the cached body when the backend answers 304 or cannot be reached.
func (c *Client) fetch(ctx context.Context, path, token string) ([]byte, error) {
	url := c.baseURL + path
	key := cacheKey(url, token)

	c.mu.RLock()
	cached, hasCache := c.cache[key]
	c.mu.RUnlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if hasCache {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if hasCache && ctx.Err() == nil {
			appLog.Error("backend unreachable, using cached body", err, "path", path)
			c.touch(key)
			return cached.Body, nil
		}
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		now := c.now().UTC()
		c.mu.Lock()
		c.cache[key] = cacheEntry{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			Body:         body,
			UpdatedAt:    now,
			UsedAt:       now,
		}
		c.mu.Unlock()
		appLog.Debug("backend fetch ok", "path", path, "bytes", len(body))
		return body, nil

	case http.StatusNotModified:
		if !hasCache {
			return nil, errors.Errorf("GET %s: 304 without cached body", path)
		}
		appLog.Debug("backend not modified; using cache", "path", path)
		c.touch(key)
		return cached.Body, nil

	case http.StatusUnauthorized, http.StatusForbidden:
		// A revoked token must not keep serving old data.
		c.mu.Lock()
		delete(c.cache, key)
		c.mu.Unlock()
		return nil, errors.Wrapf(ErrUnauthorized, "GET %s", path)

	default:
		if hasCache {
			appLog.Error("backend non-OK, using cached body", errors.New(resp.Status), "path", path, "status", resp.StatusCode)
			c.touch(key)
			return cached.Body, nil
		}
		return nil, errors.Errorf("GET %s: %s", path, resp.Status)
	}
}

// touch marks the entry under key as used now.
func (c *Client) touch(key string) {
	c.mu.Lock()
	if e, ok := c.cache[key]; ok {
		e.UsedAt = c.now().UTC()
		c.cache[key] = e
	}
	c.mu.Unlock()
}

// Prune drops cached bodies not stored or served within maxIdle and
// returns how many were removed. Tokens that stop calling would otherwise
// keep their bodies forever.
func (c *Client) Prune(maxIdle time.Duration) int {
	cutoff := c.now().UTC().Add(-maxIdle)

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.cache {
		if e.UsedAt.Before(cutoff) {
			delete(c.cache, key)
			n++
		}
	}
	return n
}

// cacheKey never stores the raw token.
func cacheKey(url, token string) string {
	sum := sha256.Sum256([]byte(url + "\x00" + token))
	return hex.EncodeToString(sum[:16])
}
