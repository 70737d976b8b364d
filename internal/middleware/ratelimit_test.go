package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func newTestRateLimiter(t *testing.T, generalBurst, writeBurst int) *RateLimiter {
	t.Helper()
	rl := NewRateLimiter(RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		WriteRate:       0.5,
		WriteBurst:      writeBurst,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func serveAs(handler http.Handler, method, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/movies", nil)
	if userID != "" {
		req = req.WithContext(ContextWithUserID(req.Context(), userID))
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := newTestRateLimiter(t, 5, 10)
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 5; i++ {
		if w := serveAs(handler, http.MethodGet, "user-1"); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimitMiddleware_Returns429WhenLimitExceeded(t *testing.T) {
	rl := newTestRateLimiter(t, 2, 10)
	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		serveAs(handler, http.MethodGet, "user-rate-limit")
	}

	w := serveAs(handler, http.MethodGet, "user-rate-limit")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil || retryAfter < 1 {
		t.Errorf("Retry-After = %q, want positive integer", w.Header().Get("Retry-After"))
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode 429 body: %v", err)
	}
	if body.Success || body.Code != "RATE_LIMITED" || body.Error == "" {
		t.Errorf("body = %+v, want RATE_LIMITED envelope", body)
	}
}

func TestRateLimitMiddleware_IsolatesUserRateLimits(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 10)
	handler := rl.GeneralMiddleware()(okHandler())

	serveAs(handler, http.MethodGet, "user-a")
	if w := serveAs(handler, http.MethodGet, "user-a"); w.Code != http.StatusTooManyRequests {
		t.Errorf("user-a second request: status = %d, want 429", w.Code)
	}
	if w := serveAs(handler, http.MethodGet, "user-b"); w.Code != http.StatusOK {
		t.Errorf("user-b first request: status = %d, want 200", w.Code)
	}
	if got := rl.GeneralLimiterCount(); got != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", got)
	}
}

func TestRateLimitMiddleware_NoUserID_Returns401(t *testing.T) {
	rl := newTestRateLimiter(t, 5, 5)
	handler := rl.GeneralMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	}))

	if w := serveAs(handler, http.MethodGet, ""); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestWriteRateLimit_OnlyAppliesToWriteMethods(t *testing.T) {
	rl := newTestRateLimiter(t, 100, 1)
	handler := rl.WriteMiddleware()(okHandler())

	if w := serveAs(handler, http.MethodPost, "user-w"); w.Code != http.StatusOK {
		t.Fatalf("first POST: status = %d, want 200", w.Code)
	}
	if w := serveAs(handler, http.MethodPatch, "user-w"); w.Code != http.StatusTooManyRequests {
		t.Errorf("PATCH after burst: status = %d, want 429", w.Code)
	}
	for i := 0; i < 3; i++ {
		if w := serveAs(handler, http.MethodGet, "user-w"); w.Code != http.StatusOK {
			t.Errorf("GET %d: status = %d, want 200", i, w.Code)
		}
	}
}

func TestWriteRateLimit_IndependentFromGeneralLimit(t *testing.T) {
	rl := newTestRateLimiter(t, 1, 5)
	general := rl.GeneralMiddleware()(okHandler())
	write := rl.WriteMiddleware()(okHandler())

	serveAs(general, http.MethodGet, "user-x")
	if w := serveAs(general, http.MethodGet, "user-x"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("general: status = %d, want 429", w.Code)
	}
	if w := serveAs(write, http.MethodPost, "user-x"); w.Code != http.StatusOK {
		t.Errorf("write: status = %d, want 200", w.Code)
	}
	if got := rl.WriteLimiterCount(); got != 1 {
		t.Errorf("WriteLimiterCount = %d, want 1", got)
	}
}

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := newTestRateLimiter(t, 5, 5)
	serveAs(rl.GeneralMiddleware()(okHandler()), http.MethodGet, "user-old")
	serveAs(rl.WriteMiddleware()(okHandler()), http.MethodDelete, "user-old")

	rl.cleanup(time.Now())
	if rl.GeneralLimiterCount() != 1 || rl.WriteLimiterCount() != 1 {
		t.Fatal("fresh entries should survive cleanup")
	}

	rl.cleanup(time.Now().Add(3 * time.Minute))
	if rl.GeneralLimiterCount() != 0 || rl.WriteLimiterCount() != 0 {
		t.Errorf("counts = %d/%d, want 0/0", rl.GeneralLimiterCount(), rl.WriteLimiterCount())
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(DefaultRateLimiterConfig())
	rl.Stop()
	rl.Stop()
}

func TestRateLimiterConfigPerMinute(t *testing.T) {
	cfg := RateLimiterConfigPerMinute(60, 0)
	if cfg.GeneralRate != 1 || cfg.GeneralBurst != 60 {
		t.Errorf("general = %v/%d, want 1/60", cfg.GeneralRate, cfg.GeneralBurst)
	}
	if cfg.WriteBurst != 30 {
		t.Errorf("WriteBurst = %d, want default 30", cfg.WriteBurst)
	}

	def := DefaultRateLimiterConfig()
	if def.GeneralRate != 2 || def.GeneralBurst != 120 || def.WriteBurst != 30 {
		t.Errorf("DefaultRateLimiterConfig = %+v", def)
	}
}
