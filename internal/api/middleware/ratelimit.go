package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/evently-app/server/internal/api/problem"
	"golang.org/x/time/rate"
)

// RegistrationLimit allows each authenticated user one event registration
// per rolling window. The check runs after Authenticate and before the
// registry, so a rejected attempt never mutates event state. Each user
// gets a one-token bucket that refills once per window.
func RegistrationLimit(window time.Duration, env string) func(http.Handler) http.Handler {
	store := newLimiterStore(window)
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r)
			if user == nil {
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", problem.ErrUnauthorized, env)
				return
			}

			if !store.limiter(user.ID).Allow() {
				w.Header().Set("Retry-After", retryAfter)
				problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "You can only register for an event once per day", nil, env,
					problem.WithDetail("registration rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	window   time.Duration

	stopCleanup chan struct{}
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newLimiterStore(window time.Duration) *limiterStore {
	store := &limiterStore{
		limiters:    make(map[string]*limiterEntry),
		window:      window,
		stopCleanup: make(chan struct{}),
	}

	// Stale entries are swept to bound memory. The TTL is twice the
	// window so eviction can never hand a user a fresh token early.
	go store.cleanupLoop()

	return store
}

func (s *limiterStore) limiter(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.limiters[key]; ok {
		entry.lastSeen = time.Now()
		return entry.limiter
	}

	limiter := rate.NewLimiter(rate.Every(s.window), 1)
	s.limiters[key] = &limiterEntry{
		limiter:  limiter,
		lastSeen: time.Now(),
	}
	return limiter
}

func (s *limiterStore) cleanupLoop() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *limiterStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	ttl := 2 * s.window

	for key, entry := range s.limiters {
		if now.Sub(entry.lastSeen) > ttl {
			delete(s.limiters, key)
		}
	}
}

func (s *limiterStore) Stop() {
	close(s.stopCleanup)
}
