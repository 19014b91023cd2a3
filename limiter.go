package pubstatic

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// RenderLimiter caps expensive image renders per client IP within a
// sliding window.
type RenderLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	max    int
	window time.Duration
	done   chan struct{}
	once   sync.Once
}

// NewRenderLimiter creates a RenderLimiter that allows max renders per window.
// Call Stop to end its cleanup goroutine.
func NewRenderLimiter(max int, window time.Duration) *RenderLimiter {
	l := &RenderLimiter{
		hits:   make(map[string][]time.Time),
		max:    max,
		window: window,
		done:   make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *RenderLimiter) cleanup() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			cutoff := now.Add(-l.window)
			l.mu.Lock()
			for ip, hits := range l.hits {
				if kept := prune(hits, cutoff); len(kept) == 0 {
					delete(l.hits, ip)
				} else {
					l.hits[ip] = kept
				}
			}
			l.mu.Unlock()
		}
	}
}

// Allow reports whether ip is under the limit and records the render if so.
func (l *RenderLimiter) Allow(ip string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := prune(l.hits[ip], now.Add(-l.window))
	if len(kept) >= l.max {
		l.hits[ip] = kept
		return false
	}
	l.hits[ip] = append(kept, now)
	return true
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *RenderLimiter) Stop() {
	l.once.Do(func() { close(l.done) })
}

func prune(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// renderLimit rejects live renders over the per-IP limit with 429.
// Prerender requests are never limited.
func (a *App) renderLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if a.limiter == nil || isPrerender(c.Request().Context()) {
			return next(c)
		}
		if !a.limiter.Allow(c.RealIP()) {
			c.Response().Header().Set(echo.HeaderRetryAfter, "60")
			return echo.NewHTTPError(http.StatusTooManyRequests, "render limit exceeded")
		}
		return next(c)
	}
}
