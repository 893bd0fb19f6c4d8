package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func hit(h http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/search?q=merge", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimitBurstAndRefill(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)}
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerMin: 6, Now: clock.Now})(okHandler)

	for i, wantRemaining := range []string{"1", "0"} {
		rec := hit(h, "192.0.2.1:1000")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != wantRemaining {
			t.Errorf("request %d: remaining = %s, want %s", i, got, wantRemaining)
		}
	}

	rec := hit(h, "192.0.2.1:1000")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	// 6 per minute is one token every 10s.
	if got := rec.Header().Get("Retry-After"); got != "10" {
		t.Errorf("Retry-After = %s, want 10", got)
	}

	// Other clients have their own bucket.
	if rec := hit(h, "192.0.2.2:1000"); rec.Code != http.StatusOK {
		t.Errorf("other client status = %d", rec.Code)
	}

	clock.Advance(10 * time.Second)
	if rec := hit(h, "192.0.2.1:2000"); rec.Code != http.StatusOK {
		t.Errorf("status after refill = %d", rec.Code)
	}
}

func TestRateLimitDefaults(t *testing.T) {
	l := newLimiter(RateLimitConfig{})
	if l.capacity != 1 || l.cfg.RefillPerMin != 1 {
		t.Errorf("capacity = %v, refill = %d, want 1 and 1", l.capacity, l.cfg.RefillPerMin)
	}
	if l.cfg.IdleTTL != 15*time.Minute || l.cfg.SweepInterval != time.Minute {
		t.Errorf("ttl = %v, sweep = %v", l.cfg.IdleTTL, l.cfg.SweepInterval)
	}
}

func TestRateLimitSweepsIdleClients(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)}
	l := newLimiter(RateLimitConfig{Burst: 5, IdleTTL: time.Minute, SweepInterval: time.Minute, Now: clock.Now})

	l.allow("a", clock.Now())
	l.allow("b", clock.Now())
	if l.size() != 2 {
		t.Fatalf("size = %d, want 2", l.size())
	}

	clock.Advance(2 * time.Minute)
	l.allow("c", clock.Now())
	if l.size() != 1 {
		t.Errorf("size after sweep = %d, want 1", l.size())
	}
}

func TestRateLimitMaxEntries(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 9, 20, 12, 0, 0, 0, time.UTC)}
	l := newLimiter(RateLimitConfig{Burst: 5, MaxEntries: 2, IdleTTL: time.Second, SweepInterval: time.Hour, Now: clock.Now})

	l.allow("a", clock.Now())
	l.allow("b", clock.Now())
	clock.Advance(2 * time.Second)
	l.allow("c", clock.Now())

	if l.size() != 1 {
		t.Errorf("size = %d, want idle clients dropped at capacity", l.size())
	}
}
